package storage

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/carelink/internal/logging"
)

// Jar is an http.CookieJar serving the cookie substrate to a single origin.
// Requests to other hosts get no cookies and cannot set any.
type Jar struct {
	cookies *CookieStore
	host    string
	log     logging.Logger
}

var _ http.CookieJar = (*Jar)(nil)

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	if !j.sameOrigin(u) {
		return nil
	}

	all, err := j.cookies.List(context.Background())
	if err != nil {
		j.log.Warn(context.Background(), "cookie jar read failed", "error", err)
		return nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	out := make([]*http.Cookie, 0, len(all))
	for _, c := range all {
		if pathMatch(c.Path, path) {
			out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return out
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if !j.sameOrigin(u) {
		return
	}
	for _, c := range cookies {
		if err := j.cookies.Set(context.Background(), c); err != nil {
			j.log.Warn(context.Background(), "cookie jar write failed", "cookie", c.Name, "error", err)
		}
	}
}

func (j *Jar) sameOrigin(u *url.URL) bool {
	return u != nil && strings.EqualFold(u.Hostname(), j.host)
}

// pathMatch follows RFC 6265 section 5.1.4.
func pathMatch(cookiePath, requestPath string) bool {
	if cookiePath == "" || cookiePath == "/" || cookiePath == requestPath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}
