package portal

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/carelink/internal/client/locale"
)

//go:embed templates/*.html
var templates embed.FS

var pageTmpl = template.Must(template.ParseFS(templates, "templates/page.html"))

type link struct {
	Href  string
	Label string
}

type page struct {
	Lang    locale.Language
	Dir     locale.Direction
	Title   string
	Heading string
	Body    string
	Nav     []link
}

// language picks the page language from Accept-Language, falling back to
// the manager's current (fallback) language.
func (s *Server) language(r *http.Request) locale.Preference {
	l, ok := s.locale.Match(r.Header.Get("Accept-Language"))
	if !ok {
		l = s.locale.Snapshot().Language
	}
	return locale.Preference{Language: l, Direction: s.locale.Direction(l)}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, heading, body string) {
	pref := s.language(r)
	t := func(key string, params map[string]string) string {
		return s.locale.Translate(pref.Language, key, params)
	}

	p := page{
		Lang:    pref.Language,
		Dir:     pref.Direction,
		Title:   t("hero.title", nil),
		Heading: t(heading, nil),
		Body:    body,
		Nav: []link{
			{Href: "/", Label: t("nav.home", nil)},
			{Href: "/doctors", Label: t("nav.doctors", nil)},
			{Href: "/providers", Label: t("nav.providers", nil)},
			{Href: s.signIn, Label: t("nav.login", nil)},
		},
	}
	if u := UserFrom(r.Context()); u != nil {
		p.Body = t("portal.greeting", map[string]string{"name": u.Name})
	} else if body != "" {
		p.Body = t(body, nil)
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		s.log.Error(r.Context(), "render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.metrics.page(string(pref.Language))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", string(pref.Language))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "hero.title", "hero.subtitle")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "nav.login", "")
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "portal.dashboard", "")
}
