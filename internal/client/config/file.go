package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/carelink/internal/flagx"
	"github.com/dmitrijs2005/carelink/internal/timex"
	"gopkg.in/yaml.v2"
)

// FileConfig is the on-disk form of Config. Durations go through
// timex.Duration so files can say "10s" as well as integer nanoseconds.
// Zero values leave the current setting alone.
type FileConfig struct {
	APIBaseURL          string         `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout      timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	DatabasePath        string         `json:"database_path" yaml:"database_path"`
	TranslateURL        string         `json:"translate_url" yaml:"translate_url"`

	Languages        []string `json:"languages" yaml:"languages"`
	FallbackLanguage string   `json:"fallback_language" yaml:"fallback_language"`
	RTLLanguages     []string `json:"rtl_languages" yaml:"rtl_languages"`

	CookieMaxAge timex.Duration `json:"cookie_max_age" yaml:"cookie_max_age"`
	SignInPath   string         `json:"sign_in_path" yaml:"sign_in_path"`
	PortalAddr   string         `json:"portal_addr" yaml:"portal_addr"`

	LogLevel    string `json:"log_level" yaml:"log_level"`
	Environment string `json:"environment" yaml:"environment"`
}

// parseFile overlays cfg with the file named by -c / -config. Files ending
// in .yaml or .yml are read as YAML, anything else as JSON.
func parseFile(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(fmt.Errorf("config file %s: %w", path, err))
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setDuration(&cfg.RequestTimeout, fc.RequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, fc.OnlineCheckInterval)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.TranslateURL, fc.TranslateURL)
	if len(fc.Languages) > 0 {
		cfg.Languages = fc.Languages
	}
	setString(&cfg.FallbackLanguage, fc.FallbackLanguage)
	if fc.RTLLanguages != nil {
		cfg.RTLLanguages = fc.RTLLanguages
	}
	setDuration(&cfg.CookieMaxAge, fc.CookieMaxAge)
	setString(&cfg.SignInPath, fc.SignInPath)
	setString(&cfg.PortalAddr, fc.PortalAddr)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.Environment, fc.Environment)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
