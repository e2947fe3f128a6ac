package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/carelink/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   backend API base URL
//	-t int      request timeout (seconds)
//	-i int      online check interval (seconds)
//	-d string   path of the local database
//	-p string   portal listen address
//	-l string   log level
//
// Only these flags are picked out of args, so other components may define
// their own.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, "-a", "-t", "-i", "-d", "-p", "-l")

	fs := flag.NewFlagSet("carelink", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend API base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.PortalAddr, "p", cfg.PortalAddr, "portal listen address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
}
