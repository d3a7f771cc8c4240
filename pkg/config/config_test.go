package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.App.StoreDriver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "agro", cfg.Redis.ChannelPrefix)
	assert.False(t, cfg.Policy.FumigationRequireStock)
	assert.False(t, cfg.Policy.FumigationReconvertOnRecompute)
	assert.True(t, cfg.Storage.UseSSL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "POSTGRES")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("FUMIGATION_REQUIRE_STOCK", "true")
	t.Setenv("S3_BUCKET", "agro")
	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_AUTO_MIGRATE", "1")
	t.Setenv("ADMIN_EMAIL", "admin@campo.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.App.StoreDriver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Policy.FumigationRequireStock)
	assert.True(t, cfg.Storage.Enabled())
	assert.False(t, cfg.Storage.UseSSL)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.DB.AutoMigrate)
	assert.False(t, cfg.Admin.Enabled(), "sin ADMIN_PASSWORD no se crea el administrador")
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "agro", Password: "p@ss:word", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://agro:p%40ss%3Aword@db:5432/inv?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
