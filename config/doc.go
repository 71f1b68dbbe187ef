// Package config provides configuration loading and validation for fragments.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FRAGMENTS_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with the FRAGMENTS_ prefix:
//   - server.port → FRAGMENTS_SERVER_PORT
//   - metadata.type → FRAGMENTS_METADATA_TYPE
//   - auth.bearer.secret → FRAGMENTS_AUTH_BEARER_SECRET
//
// # Configuration Structure
//
//   - Env: dev (colored text logs) or prod (JSON logs)
//   - Server: port, api_url for Location headers, max_body_size
//   - Service: cleanup_timeout for payload cleanup after a failed create
//   - Metadata, Payload: one storage.Config each (type, dsn, table, path, s3, compress)
//   - Types: content-type allow-list; empty means every supported type
//   - Auth: strategy (basic, bearer, sigv4) and its settings
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
