package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")
}

func TestLoad_MissingEnvFile(t *testing.T) {
	setBase(t)

	cfg, err := Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "bookstore.db", cfg.DatabaseURL)
}

func TestLoad_RequiresSecrets(t *testing.T) {
	setBase(t)
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load(filepath.Join(t.TempDir(), ".env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_REFRESH_SECRET")
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	setBase(t)
	t.Setenv("DB_DRIVER", "postgres")

	_, err := Load(filepath.Join(t.TempDir(), ".env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load(filepath.Join(t.TempDir(), ".env"))
	require.Error(t, err)
}

func TestLoad_AdminPair(t *testing.T) {
	setBase(t)
	t.Setenv("ADMIN_USERNAME", "root")

	_, err := Load(filepath.Join(t.TempDir(), ".env"))
	require.Error(t, err)

	t.Setenv("ADMIN_PASSWORD", "secret")
	cfg, err := Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.AdminUsername)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	setBase(t)
	t.Setenv("ES_INDEX", "")
	require.NoError(t, os.Unsetenv("ES_INDEX"))
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ES_INDEX=books_test\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "books_test", cfg.ESIndex)
}
