package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Server.APIURL)
	assert.Equal(t, int64(5<<20), cfg.Server.MaxBodySize)
	assert.Equal(t, 30, cfg.Service.CleanupTimeout)
	assert.Equal(t, "sqlite", cfg.Metadata.Type)
	assert.Equal(t, "fragments.db", cfg.Metadata.DSN)
	assert.Equal(t, "fragments_metadata", cfg.Metadata.Table)
	assert.Equal(t, "filesystem", cfg.Payload.Type)
	assert.Equal(t, "./data", cfg.Payload.Path)
	assert.Empty(t, cfg.Types)
	assert.Equal(t, "basic", cfg.Auth.Strategy)
	assert.Equal(t, ".htpasswd", cfg.Auth.HtpasswdFile)
	assert.Equal(t, "us-east-1", cfg.Auth.SigV4.Region)
	assert.Equal(t, "s3", cfg.Auth.SigV4.Service)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.CORS.Enabled)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
env: prod
server:
  port: 9000
  api_url: https://fragments.example.com
  max_body_size: 1024
metadata:
  type: postgres
  dsn: postgres://localhost/fragments
  table: fragment_meta
payload:
  type: s3
  compress: true
  s3:
    bucket: fragments-data
    region: eu-west-1
    endpoint: http://localhost:9000
    use_path_style: true
    prefix: payloads
types:
  - text/plain
  - text/markdown
auth:
  strategy: bearer
  bearer:
    secret: s3cret
    issuer: fragments
log:
  level: debug
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://fragments.example.com", cfg.Server.APIURL)
	assert.Equal(t, int64(1024), cfg.Server.MaxBodySize)
	assert.Equal(t, "postgres", cfg.Metadata.Type)
	assert.Equal(t, "postgres://localhost/fragments", cfg.Metadata.DSN)
	assert.Equal(t, "fragment_meta", cfg.Metadata.Table)
	assert.Equal(t, "s3", cfg.Payload.Type)
	assert.True(t, cfg.Payload.Compress)
	assert.Equal(t, "fragments-data", cfg.Payload.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Payload.S3.Region)
	assert.Equal(t, "http://localhost:9000", cfg.Payload.S3.Endpoint)
	assert.True(t, cfg.Payload.S3.UsePathStyle)
	assert.Equal(t, "payloads", cfg.Payload.S3.Prefix)
	assert.Equal(t, []string{"text/plain", "text/markdown"}, cfg.Types)
	assert.Equal(t, "bearer", cfg.Auth.Strategy)
	assert.Equal(t, "s3cret", cfg.Auth.Bearer.Secret)
	assert.Equal(t, "fragments", cfg.Auth.Bearer.Issuer)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
server:
  port: 8080
metadata:
  type: sqlite
  dsn: base.db
  table: base_meta
auth:
  strategy: basic
  htpasswd_file: /etc/fragments/.htpasswd
`)
	override := writeConfig(t, "override.yaml", `
server:
  port: 9000
metadata:
  dsn: override.db
`)

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "override.db", cfg.Metadata.DSN)

	assert.Equal(t, "sqlite", cfg.Metadata.Type)
	assert.Equal(t, "base_meta", cfg.Metadata.Table)
	assert.Equal(t, "/etc/fragments/.htpasswd", cfg.Auth.HtpasswdFile)
}

func TestLoad_WithSigV4Keys(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
auth:
  strategy: sigv4
  sigv4:
    region: us-west-2
    service: fragments
    keys:
      file: /etc/fragments/keys.json
      inline:
        - access_key: AKIATEST123
          secret_key: secretkey123
        - access_key: AKIATEST456
          secret_key: secretkey456
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, "sigv4", cfg.Auth.Strategy)
	assert.Equal(t, "us-west-2", cfg.Auth.SigV4.Region)
	assert.Equal(t, "fragments", cfg.Auth.SigV4.Service)
	assert.Equal(t, "/etc/fragments/keys.json", cfg.Auth.SigV4.Keys.File)
	require.Len(t, cfg.Auth.SigV4.Keys.Inline, 2)
	assert.Equal(t, "AKIATEST123", cfg.Auth.SigV4.Keys.Inline[0].AccessKey)
	assert.Equal(t, "secretkey456", cfg.Auth.SigV4.Keys.Inline[1].SecretKey)
}

func TestLoad_WithCORS(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://example.com
    - https://app.example.com
  allowed_methods:
    - GET
    - POST
  allowed_headers:
    - Authorization
    - Content-Type
  exposed_headers:
    - Location
  max_age: 600
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"Authorization", "Content-Type"}, cfg.CORS.AllowedHeaders)
	assert.Equal(t, []string{"Location"}, cfg.CORS.ExposedHeaders)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid port", content: "server:\n  port: 99999\n"},
		{name: "invalid env", content: "env: staging\n"},
		{name: "invalid metadata type", content: "metadata:\n  type: mongodb\n"},
		{name: "sqlite without table", content: "metadata:\n  type: sqlite\n  table: \"\"\n"},
		{name: "filesystem without path", content: "payload:\n  type: filesystem\n  path: \"\"\n"},
		{name: "bolt without path", content: "payload:\n  type: bolt\n  table: payloads\n  path: \"\"\n"},
		{name: "invalid strategy", content: "auth:\n  strategy: oauth\n"},
		{name: "basic without htpasswd", content: "auth:\n  strategy: basic\n  htpasswd_file: \"\"\n"},
		{name: "invalid log level", content: "log:\n  level: verbose\n"},
		{name: "invalid api url", content: "server:\n  api_url: not a url\n"},
		{name: "zero body size", content: "server:\n  max_body_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "config.yaml", tt.content)

			_, err := config.Load([]string{path}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("FRAGMENTS_SERVER_PORT", "9090")
	t.Setenv("FRAGMENTS_METADATA_TYPE", "memory")
	t.Setenv("FRAGMENTS_AUTH_STRATEGY", "bearer")
	t.Setenv("FRAGMENTS_AUTH_BEARER_SECRET", "from-env")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Metadata.Type)
	assert.Equal(t, "bearer", cfg.Auth.Strategy)
	assert.Equal(t, "from-env", cfg.Auth.Bearer.Secret)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("FRAGMENTS_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	flags.String("payload-type", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--port=7000", "--payload-type=memory"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Payload.Type)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingConfigFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load([]string{filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestFromContext_Missing(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)
}
