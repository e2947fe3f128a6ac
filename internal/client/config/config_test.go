package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func defaults() *Config {
	var c Config
	c.LoadDefaults()
	return &c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://localhost:8888/api", c.APIBaseURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 30*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, []string{"ar", "en"}, c.Languages)
	assert.Equal(t, "ar", c.FallbackLanguage)
	assert.Equal(t, []string{"ar"}, c.RTLLanguages)
	assert.Equal(t, 7*24*time.Hour, c.CookieMaxAge)
	assert.Equal(t, "/login", c.SignInPath)
}

func TestLoad_NoSources(t *testing.T) {
	got := load(nil, noEnv)
	assert.Empty(t, cmp.Diff(defaults(), got))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseFile(t *testing.T) {
	jsonPath := writeFile(t, "cfg.json", `{
		"api_base_url": "https://clinic.example/api",
		"request_timeout": "5s",
		"online_check_interval": 2000000000,
		"languages": ["en", "ar", "fr"],
		"rtl_languages": [],
		"cookie_max_age": "24h",
		"translate_url": "http://libre.local"
	}`)
	yamlPath := writeFile(t, "cfg.yaml", `
api_base_url: https://clinic.example/api
request_timeout: 5s
online_check_interval: 2s
languages: [en, ar, fr]
rtl_languages: []
cookie_max_age: 24h
translate_url: http://libre.local
`)

	for _, path := range []string{jsonPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg := defaults()
			parseFile(cfg, []string{"-c", path})

			want := defaults()
			want.APIBaseURL = "https://clinic.example/api"
			want.RequestTimeout = 5 * time.Second
			want.OnlineCheckInterval = 2 * time.Second
			want.Languages = []string{"en", "ar", "fr"}
			want.RTLLanguages = []string{}
			want.CookieMaxAge = 24 * time.Hour
			want.TranslateURL = "http://libre.local"

			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestParseFile_Errors(t *testing.T) {
	bad := writeFile(t, "bad.json", `{"request_timeout": "soon"}`)

	require.Panics(t, func() { parseFile(defaults(), []string{"-config", bad}) })
	require.Panics(t, func() { parseFile(defaults(), []string{"-c", filepath.Join(t.TempDir(), "missing.json")}) })
	require.NotPanics(t, func() { parseFile(defaults(), []string{"-a", "x"}) })
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://10.0.0.2/api", "-t", "3", "-i", "10", "-d", "/tmp/c.db", "-p", ":9000", "-l", "debug"},
			expected: func() *Config {
				c := defaults()
				c.APIBaseURL = "http://10.0.0.2/api"
				c.RequestTimeout = 3 * time.Second
				c.OnlineCheckInterval = 10 * time.Second
				c.DatabasePath = "/tmp/c.db"
				c.PortalAddr = ":9000"
				c.LogLevel = "debug"
				return c
			}(),
		},
		{name: "foreign flags ignored", args: []string{"-x", "1", "-v"}, expected: defaults()},
		{name: "incorrect interval", args: []string{"-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "cfg.yml", "api_base_url: http://file/api\ndatabase_path: file.db\nlog_level: warn\n")
	env := map[string]string{
		EnvAPIURL:   "http://env/api",
		EnvLogLevel: "error",

		EnvTranslateURL: "http://libre.env",
	}

	got := load([]string{"-c", path, "-a", "http://flag/api"}, func(k string) string { return env[k] })

	assert.Equal(t, "http://flag/api", got.APIBaseURL)
	assert.Equal(t, "file.db", got.DatabasePath)
	assert.Equal(t, "error", got.LogLevel)
	assert.Equal(t, "http://libre.env", got.TranslateURL)
}
