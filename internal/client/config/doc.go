// Package config loads runtime configuration for the CareLink client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. A .yaml/.yml file
//     is read as YAML, anything else as JSON.
//  3. Environment: CARELINK_API_URL, CARELINK_DB, CARELINK_LOG_LEVEL.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   backend API base URL
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//	-d string   local database path
//	-p string   portal listen address
//	-l string   log level
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://clinic.example/api",
//	  "request_timeout": "10s",
//	  "languages": ["ar", "en"],
//	  "cookie_max_age": "168h"
//	}
package config
