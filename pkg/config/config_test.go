package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/pkg/config"
)

func TestLoad_RechazaBackendDesconocido(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mongo")
	cfg, err := config.Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OUTBOX_POLL_SECONDS", "2")
	t.Setenv("NOTIFY_LOGISTICS_USERS", "ana, luis ,,")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.Storage)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, []string{"ana", "luis"}, cfg.Outbox.LogisticsUsers)
	assert.False(t, cfg.DB.AutoMigrate)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{User: "app", Password: "p@ss:w/rd", Host: "db", Port: 5432, DBName: "kits", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/kits?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}

func TestValidate_ProduccionExigeSecreto(t *testing.T) {
	c := &config.Config{
		App:     config.AppConfig{Env: "production"},
		Storage: config.StoragePostgres,
		Outbox:  config.OutboxConfig{PollInterval: time.Second, BatchSize: 1, MaxAttempts: 1},
	}
	assert.Error(t, c.Validate())
	c.JWT.Secret = "s"
	assert.NoError(t, c.Validate())
}
