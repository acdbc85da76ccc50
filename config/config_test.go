package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
http:
  address: ":9090"
database:
  host: db
  port: 5433
  user: rm
  password: secret
  name: rmgroups
  ssl_mode: disable
kafka:
  brokers: ["k1:9092"]
auth:
  jwt_secret: "` + strings.Repeat("x", 32) + `"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("RM_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("RM_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "host=db port=5433 user=rm password=secret dbname=rmgroups sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 15, cfg.Auth.SessionCacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "rm.tracking", cfg.Kafka.TrackingTopic)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: ["), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://localhost/rm"

	cfg.Auth.JWTSecret = "short"
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = strings.Repeat("k", 32)
	assert.NoError(t, cfg.Validate())

	cfg.Database.URL = ""
	assert.Error(t, cfg.Validate())
}
