// Package config loads runtime configuration for the QuestPath client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend API
//	-t int      request timeout (seconds)
//	-d string   path to the local credentials database
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "5m" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://api.questpath.io",
//	  "request_timeout": "12s",
//	  "cache_ttl": "5m",
//	  "database_path": "questpath.db"
//	}
package config
