package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: "stock-historian"
host: "127.0.0.1"
port: 8501
log_level: "INFO"
storage:
  db_type: "sqlite"
  db_path: "test.db"
network:
  timeout: 30
data_source:
  default_range_years: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfig_LoadsYAML(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))

	require.NoError(t, err)
	assert.Equal(t, "stock-historian", cfg.Name)
	assert.Equal(t, 8501, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Storage.DBType)
	assert.Equal(t, 30, cfg.Network.RequestTimeout)
	assert.Equal(t, 10, cfg.DataSource.DefaultRangeYears)
}

func TestNewConfig_MissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNewConfig_EnvOverridesCredentials(t *testing.T) {
	yaml := `
name: "stock-historian"
port: 8501
storage:
  db_type: "postgres"
  database:
    host: "yaml-host"
    port: 4000
    user: "yaml-user"
    dbname: "yaml-db"
`
	t.Setenv("STOCKS_DB_HOST", "env-host")
	t.Setenv("STOCKS_DB_PASSWORD", "env-secret")
	t.Setenv("STOCKS_DB_PORT", "4001")

	cfg, err := NewConfig(writeConfig(t, yaml))
	require.NoError(t, err)

	db := cfg.Storage.Database
	assert.Equal(t, "env-host", db.Host, "environment wins over YAML")
	assert.Equal(t, "env-secret", db.Password)
	assert.Equal(t, 4001, db.Port)
	assert.Equal(t, "yaml-user", db.User, "fields without an env override keep the YAML value")
}

// -----------------------------------------------------------------------------

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty app name", `
port: 8501
storage: {db_type: "sqlite", db_path: "x.db"}
`},
		{"bad server port", `
name: "x"
port: 0
storage: {db_type: "sqlite", db_path: "x.db"}
`},
		{"sqlite without path", `
name: "x"
port: 8501
storage: {db_type: "sqlite"}
`},
		{"postgres without credentials", `
name: "x"
port: 8501
storage: {db_type: "postgres"}
`},
		{"unknown db_type", `
name: "x"
port: 8501
storage: {db_type: "oracle"}
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidate_DefaultsRangeYears(t *testing.T) {
	yaml := `
name: "x"
port: 8501
storage: {db_type: "sqlite", db_path: "x.db"}
`
	cfg, err := NewConfig(writeConfig(t, yaml))

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.DataSource.DefaultRangeYears)
}
