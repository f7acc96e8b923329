package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxxuzi/fxgate/internal/errs"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "json", cfg.Server.LogFormat)
	assert.Equal(t, "rxxuzi-r2", cfg.Store.Bucket)
	assert.Equal(t, "auto", cfg.Store.Region)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "content", cfg.Content.Dir)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  log_level: debug
store:
  account_id: abc123
  access_key: ak
  secret_key: sk
auth:
  secret: topsecret
  token_ttl: 1h
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "abc123", cfg.Store.AccountID)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "rxxuzi-r2", cfg.Store.Bucket, "unset fields keep their defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FXGATE_SERVER_ADDR", ":7070")
	t.Setenv("FXGATE_STORE_ACCESS_KEY", "env-ak")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "env-ak", cfg.Store.AccessKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Addr: ":8080"},
			Auth:   AuthConfig{Secret: "s", TokenTTL: time.Hour},
		}
	}

	require.NoError(t, valid().Validate())

	noAddr := valid()
	noAddr.Server.Addr = ""
	assert.True(t, errs.IsConfigMissing(noAddr.Validate()))

	noSecret := valid()
	noSecret.Auth.Secret = ""
	assert.True(t, errs.IsConfigMissing(noSecret.Validate()))

	badTTL := valid()
	badTTL.Auth.TokenTTL = 0
	assert.True(t, errs.IsConfigMissing(badTTL.Validate()))
}

func TestStoreEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  StoreConfig
		want string
	}{
		{"derived from account id", StoreConfig{AccountID: "abc123"},
			"https://abc123.r2.cloudflarestorage.com"},
		{"explicit endpoint wins", StoreConfig{AccountID: "abc123", Endpoint: "https://s3.example.com"},
			"https://s3.example.com"},
		{"trailing slash trimmed", StoreConfig{Endpoint: "https://s3.example.com/"},
			"https://s3.example.com"},
		{"nothing configured", StoreConfig{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.StoreEndpoint())
		})
	}
}
