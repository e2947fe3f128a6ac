package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the CareLink client and portal.
type Config struct {
	APIBaseURL          string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	DatabasePath        string

	// TranslateURL is a LibreTranslate server for fetched content; empty
	// leaves content in the language the backend sent.
	TranslateURL string

	Languages        []string
	FallbackLanguage string
	RTLLanguages     []string

	CookieMaxAge time.Duration
	SignInPath   string
	PortalAddr   string

	LogLevel    string
	Environment string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8888/api"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.DatabasePath = "carelink.db"
	c.Languages = []string{"ar", "en"}
	c.FallbackLanguage = "ar"
	c.RTLLanguages = []string{"ar"}
	c.CookieMaxAge = 7 * 24 * time.Hour
	c.SignInPath = "/login"
	c.PortalAddr = ":8080"
	c.LogLevel = "info"
	c.Environment = "dev"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given), the environment and command-line flags. Later
// sources take precedence over earlier ones. Invalid input panics.
func LoadConfig() *Config {
	return load(os.Args[1:], os.Getenv)
}

func load(args []string, getenv func(string) string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, args)
	parseEnv(cfg, getenv)
	parseFlags(cfg, args)
	return cfg
}
