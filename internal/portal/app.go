// Package portal serves the server-rendered CareLink pages. Role-restricted
// sections are guarded by the user cookie that the client mirrors from its
// session; page language and direction follow Accept-Language.
package portal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/carelink/internal/client/config"
	"github.com/dmitrijs2005/carelink/internal/client/locale"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *Server
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	opts := locale.OptionsFrom(c.Languages, c.FallbackLanguage, c.RTLLanguages)

	// No backing: rendering happens without client storage.
	loc, err := locale.New(opts, nil, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s := NewServer(loc, logger, WithSignInPath(c.SignInPath), WithMetrics(reg))
	return &App{config: c, logger: logger, server: s}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the portal until a termination signal arrives or ctx is done.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting portal...")
	app.initSignalHandler(cancelFunc)

	return NewHTTPServer(app.config.PortalAddr, app.server.Router(), app.logger).Run(ctx)
}
