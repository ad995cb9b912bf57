package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o644))
	return dir
}

func TestInitEnvFromFile(t *testing.T) {
	viper.Reset()
	dir := writeConfig(t, `
database:
  client: memory
auth:
  signing_key: secret
  access_ttl: 10m
rabbitmq:
  enable: 0
server:
  timezone: Asia/Seoul
router:
  port: 9000
`)
	env := EnvService{ConfigPath: dir}
	require.NoError(t, env.InitEnv())

	assert.Equal(t, "memory", EnvConfig.Database.Client)
	assert.Equal(t, "secret", EnvConfig.Auth.SigningKey)
	assert.Equal(t, 10*time.Minute, EnvConfig.Auth.AccessTTL)
	assert.Equal(t, 24*time.Hour, EnvConfig.Auth.RefreshTTL)
	assert.Equal(t, 9000, EnvConfig.Router.Port)
	assert.Equal(t, 100, EnvConfig.Throttle.AnonPerDay)
	assert.Equal(t, 1000, EnvConfig.Throttle.UserPerDay)
	assert.Equal(t, "Asia/Seoul", Location().String())
}

func TestInitEnvFallsBackToEnvironment(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_CLIENT", "memory")
	t.Setenv("AUTH_SIGNING_KEY", "from-env")
	t.Setenv("RABBITMQ_ENABLE", "0")

	env := EnvService{ConfigPath: t.TempDir()}
	require.NoError(t, env.InitEnv())
	assert.Equal(t, "from-env", EnvConfig.Auth.SigningKey)
	assert.Equal(t, "memory", EnvConfig.Database.Client)
}

func TestInitEnvRejectsMissingSigningKey(t *testing.T) {
	viper.Reset()
	dir := writeConfig(t, `
database:
  client: memory
rabbitmq:
  enable: 0
`)
	env := EnvService{ConfigPath: dir}
	err := env.InitEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SIGNING_KEY")
}

func TestInitEnvRejectsUnknownClient(t *testing.T) {
	viper.Reset()
	dir := writeConfig(t, `
database:
  client: oracle
auth:
  signing_key: secret
rabbitmq:
  enable: 0
`)
	env := EnvService{ConfigPath: dir}
	err := env.InitEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown database.client "oracle"`)
}
