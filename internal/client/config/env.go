package config

// Environment variables read by parseEnv.
const (
	EnvAPIURL   = "CARELINK_API_URL"
	EnvDatabase = "CARELINK_DB"
	EnvLogLevel = "CARELINK_LOG_LEVEL"

	EnvTranslateURL = "CARELINK_TRANSLATE_URL"
)

func parseEnv(cfg *Config, getenv func(string) string) {
	setString(&cfg.APIBaseURL, getenv(EnvAPIURL))
	setString(&cfg.DatabasePath, getenv(EnvDatabase))
	setString(&cfg.LogLevel, getenv(EnvLogLevel))
	setString(&cfg.TranslateURL, getenv(EnvTranslateURL))
}
