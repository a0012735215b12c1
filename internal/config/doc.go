// Package config loads runtime settings shared by the cargotrack CLI and
// daemon.
//
// # Sources and precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A dotenv file (-env, or ./.env when present) and CARGOTRACK_*
//     environment variables (see parseEnv).
//  3. An optional JSON file selected with -c or -config (see parseJson).
//  4. Command-line flags (see parseFlags).
//
// Later sources override earlier ones. Empty JSON values and unset
// variables leave the previous value in place.
//
// # Flags
//
//	-b string   remote backend: graph, firestore or memory
//	-d string   session storage DSN (sqlite://path or postgres://...)
//	-a string   gRPC listen address
//	-m string   metrics listen address
//	-i int      sync interval (seconds)
//	-t int      sync timeout (seconds, 0 disables)
//	-l string   log level
//
// # JSON schema
//
// Intervals use timex.Duration, so "5m" and integer nanoseconds both work:
//
//	{
//	  "backend": "graph",
//	  "identity": "device",
//	  "tenant_id": "contoso.onmicrosoft.com",
//	  "client_id": "00000000-0000-0000-0000-000000000000",
//	  "collections": {
//	    "loads": {"site": "contoso.sharepoint.com:/sites/Ops", "list": "0cf9a45c-..."}
//	  },
//	  "sync_interval": "5m",
//	  "export": {"bucket": "cargotrack", "endpoint": "http://127.0.0.1:9000", "path_style": true}
//	}
package config
