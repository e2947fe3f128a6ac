package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/dmitrijs2005/carelink/internal/client/models"
	"github.com/dmitrijs2005/carelink/internal/client/storage"
	"github.com/dmitrijs2005/carelink/internal/logging"
)

type ctxKey string

const userKey ctxKey = "user"

var (
	errNoUserCookie  = errors.New("missing user cookie")
	errBadUserCookie = errors.New("malformed user cookie")
)

// UserFrom returns the user admitted by RequireRole, nil outside a guarded
// route.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// userFromCookie decodes the session mirror cookie: URL-encoded JSON.
func userFromCookie(r *http.Request) (*models.User, error) {
	c, err := r.Cookie(storage.KeyUser)
	if err != nil || c.Value == "" {
		return nil, errNoUserCookie
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadUserCookie, err)
	}
	var u *models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadUserCookie, err)
	}
	if u == nil {
		return nil, errBadUserCookie
	}
	return u, nil
}

// RequireRole admits requests whose user cookie names one of roles and
// redirects everything else to signIn with 303 See Other.
func RequireRole(signIn string, log logging.Logger, m *Metrics, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			u, err := userFromCookie(r)
			reason := ""
			switch {
			case errors.Is(err, errNoUserCookie):
				reason = "missing"
			case err != nil:
				reason = "malformed"
			case !slices.Contains(roles, u.Role):
				reason = "forbidden"
			}

			if reason != "" {
				log.Info(ctx, "redirecting to sign-in", "path", r.URL.Path, "reason", reason)
				m.redirect(reason)
				http.Redirect(w, r, signIn, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userKey, u)))
		})
	}
}
