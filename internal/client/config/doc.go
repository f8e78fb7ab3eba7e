// Package config loads runtime configuration for the playerhub CLI.
//
// Sources and precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   identity service endpoint
//	-t string   transport: http or grpc
//	-s string   local session database path
//	-v int      session verification deadline (seconds)
//	-r int      per-request timeout (seconds)
//	-i int      online status check interval (seconds)
//	-p string   presence websocket URL
//	-x          discard the stored token when verification times out
//	-m string   metrics listen address
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "transport": "http",
//	  "state_path": "session.db",
//	  "verify_timeout": "15s",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "presence_url": "ws://127.0.0.1:8081/presence",
//	  "clear_token_on_verify_timeout": false,
//	  "metrics_addr": "127.0.0.1:9100"
//	}
//
// Environment variables are not read.
package config
