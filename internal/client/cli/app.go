package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/carelink/internal/client/config"
	"github.com/dmitrijs2005/carelink/internal/client/gateway"
	"github.com/dmitrijs2005/carelink/internal/client/locale"
	"github.com/dmitrijs2005/carelink/internal/client/services"
	"github.com/dmitrijs2005/carelink/internal/client/session"
	"github.com/dmitrijs2005/carelink/internal/client/storage"
	"github.com/dmitrijs2005/carelink/internal/client/translation"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single liveness probe of the watcher.
const pingTimeout = 3 * time.Second

type App struct {
	config *config.Config
	log    logging.Logger

	backing *storage.Backing
	session *session.Manager
	locale  *locale.Manager

	authService services.AuthService
	resources   services.ResourceService
	metrics     prometheus.Gatherer

	mu       sync.Mutex
	mode     Mode
	pref     locale.Preference
	userName string

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local database and wires the session, locale and
// gateway around it. Stored state is not loaded until Run.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	b, err := storage.Open(ctx, c.DatabasePath,
		storage.WithCookieMaxAge(c.CookieMaxAge),
		storage.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config:  c,
		log:     log.With("component", "cli"),
		backing: b,
		mode:    ModeOffline,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}

	a.session = session.New(b, log)
	a.session.Subscribe(a.onSession)

	a.locale, err = locale.New(localeOptions(c), b, log, locale.WithDisplay(a))
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	jar, err := b.Jar(c.APIBaseURL)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	gw, err := gateway.New(c.APIBaseURL, a.session,
		gateway.WithHTTPClient(&http.Client{Jar: jar}),
		gateway.WithTimeout(c.RequestTimeout),
		gateway.WithNavigator(a),
		gateway.WithSignInPath(c.SignInPath),
		gateway.WithMetrics(gateway.NewMetrics(reg)),
		gateway.WithLogger(log),
	)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	content, err := contentAPI(c, gw, a.locale, log)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	a.metrics = reg
	a.authService = services.NewAuthService(gw, a.session)
	a.resources = services.NewResourceService(content)
	return a, nil
}

// contentAPI puts fetched resources through the translation server when one
// is configured.
func contentAPI(c *config.Config, gw *gateway.Gateway, loc *locale.Manager, log logging.Logger) (services.API, error) {
	if c.TranslateURL == "" {
		return gw, nil
	}
	tc, err := translation.NewClient(c.TranslateURL,
		translation.WithTimeout(c.RequestTimeout),
		translation.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return translation.NewContentAPI(gw, tc, loc, translation.WithContentLogger(log)), nil
}

func localeOptions(c *config.Config) locale.Options {
	return locale.OptionsFrom(c.Languages, c.FallbackLanguage, c.RTLLanguages)
}

// Run restores the stored session and language, then runs the REPL and the
// online status watcher until the user leaves.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.restore(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.StartOnlineStatusWatcher(gctx, a.config.OnlineCheckInterval)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		a.Root(gctx)
		return nil
	})

	return g.Wait()
}

func (a *App) restore(ctx context.Context) error {
	if err := a.session.Rehydrate(ctx); err != nil {
		return err
	}
	return a.locale.Rehydrate(ctx, locale.HostLanguage(os.Getenv))
}

func (a *App) Close() error {
	if a.backing == nil {
		return nil
	}
	return a.backing.Close()
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated()
}

// T translates key in the active language.
func (a *App) T(key string, params map[string]string) string {
	return a.locale.T(key, params)
}

// StartOnlineStatusWatcher probes the backend right away and then every
// interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := a.authService.Ping(pctx)
		cancel()

		if err != nil {
			a.setMode(ModeOffline)
		} else {
			a.setMode(ModeOnline)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// SetAttributes mirrors the active language into the prompt.
func (a *App) SetAttributes(lang locale.Language, dir locale.Direction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pref = locale.Preference{Language: lang, Direction: dir}
}

// Navigate is called by the gateway when the backend rejects the session.
// The terminal has no pages, so the user is told to sign in again.
func (a *App) Navigate(ctx context.Context, path string) {
	a.log.Info(ctx, "redirected to sign-in", "path", path)
	printlnFn(a.T("auth.session_expired", nil))
}

func (a *App) onSession(s session.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s.User == nil {
		a.userName = ""
		return
	}
	a.userName = s.User.Email
}
