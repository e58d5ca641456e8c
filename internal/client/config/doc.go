// Package config loads runtime configuration for the ftpchat CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-h string   transfer server host
//	-p int      transfer server port (21)
//	-u string   user name
//	-w string   password
//	-s string   scheme: ftp or s3
//	-r string   remote directory for the files command
//	-d string   download directory
//	-l string   host a chat on addr
//	-j string   join a chat at addr
//	-t int      timeout in seconds (15)
//	-db string  SQLite history file
//	-v string   log level
//
// # JSON schema
//
// Durations are timex.Duration values, so "15s" and integer nanoseconds are
// both accepted:
//
//	{
//	  "host": "ftp.example.org",
//	  "port": 21,
//	  "username": "chat",
//	  "password": "secret",
//	  "scheme": "ftp",
//	  "timeout": "15s",
//	  "history_dsn": "history.db"
//	}
package config
