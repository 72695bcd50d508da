package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPublic = `
external_url: "https://practica.example.org"
media_path: media
token_ttl: 168h
export_token_ttl: 504h
auth_service:
  url: "https://auth.example.org/login"
`

const validPrivate = `
pg:
  host: localhost
  port: 5432
  user: u
  dbname: d
secret_key: "0123456789abcdef0123"
`

func writeConfig(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	return dir
}

func TestMustLoad(t *testing.T) {
	cfg := MustLoad(writeConfig(t, validPublic, validPrivate))

	assert.Equal(t, 7*24*time.Hour, cfg.Public.TokenTTL)
	assert.Equal(t, 21*24*time.Hour, cfg.Public.ExportTokenTTL)
	assert.Equal(t, 10*time.Second, cfg.Public.AuthService.Timeout, "default kept when yaml omits it")
	assert.Equal(t, "standard", cfg.Public.AuthService.Dialect)
	assert.Equal(t, []string{"csv", "xlsx", "ods"}, cfg.Public.ExportFormats)
	assert.Equal(t, int64(10<<20), cfg.Public.MaxCVSize)
	assert.Equal(t, "Europe/Bucharest", cfg.Public.ExportLocation().String())
	assert.False(t, cfg.Public.TrustProxy)
	assert.Equal(t, 24*time.Hour, cfg.Public.CVGCInterval)
	assert.Equal(t, time.Hour, cfg.Public.CVGCGrace)
	assert.True(t, cfg.Public.MigrateOnStart)
	assert.Equal(t, "localhost", cfg.Private.Pg.Host)
}

func TestMustLoad_RequiredFields(t *testing.T) {
	// secret_key intentionally missing
	private := "pg:\n  host: localhost\n  port: 5432\n  user: u\n  dbname: d\n"
	dir := writeConfig(t, validPublic, private)

	assert.Panics(t, func() { MustLoad(dir) })
}

func TestMustLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		public string
	}{
		{name: "unknown timezone", public: validPublic + "export_timezone: Mars/Olympus\n"},
		{name: "unknown export format", public: validPublic + "export_formats: [csv, pdf]\n"},
		{name: "export window shorter than reset window", public: validPublic + "password_reset_ttl: 600h\n"},
		{name: "negative cv sweep interval", public: validPublic + "cv_gc_interval: -1h\n"},
		{name: "unknown directory dialect", public: strings.Replace(validPublic, "auth_service:\n", "auth_service:\n  dialect: soap\n", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.public, validPrivate)
			assert.Panics(t, func() { MustLoad(dir) })
		})
	}
}

func TestMustLoad_DisabledCVSweep(t *testing.T) {
	cfg := MustLoad(writeConfig(t, validPublic+"cv_gc_interval: 0s\n", validPrivate))
	assert.Zero(t, cfg.Public.CVGCInterval)
}

func TestMustLoad_MissingFile(t *testing.T) {
	assert.Panics(t, func() { MustLoad(t.TempDir()) })
}

func TestMustLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvSecretKey, "from-the-environment-0123")
	t.Setenv(EnvPgPassword, "pg-secret")
	t.Setenv(EnvAuthServiceAPIKey, "")

	cfg := MustLoad(writeConfig(t, validPublic, validPrivate+"auth_service_api_key: from-yaml\n"))

	assert.Equal(t, "from-the-environment-0123", cfg.Private.SecretKey)
	assert.Equal(t, "pg-secret", cfg.Private.Pg.Password)
	assert.Equal(t, "from-yaml", cfg.Private.AuthServiceAPIKey, "empty variables do not override")
}

func TestMustLoad_SecretOnlyInEnv(t *testing.T) {
	private := "pg:\n  host: localhost\n  port: 5432\n  user: u\n  dbname: d\n"
	t.Setenv(EnvSecretKey, "0123456789abcdef0123")

	cfg := MustLoad(writeConfig(t, validPublic, private))
	assert.Equal(t, "0123456789abcdef0123", cfg.Private.SecretKey)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "PRACTICA_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")), "missing file is fine")

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte(key+"=from-file\n"), 0o600))
	require.NoError(t, LoadDotEnv(file))
	assert.Equal(t, "from-file", os.Getenv(key))

	t.Setenv(key, "already-set")
	require.NoError(t, LoadDotEnv(file))
	assert.Equal(t, "already-set", os.Getenv(key))
}
