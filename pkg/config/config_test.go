package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port    int      `env:"CFGTEST_PORT" envDefault:"8012"`
	Backend string   `env:"CFGTEST_BACKEND" envDefault:"memory"`
	Brokers []string `env:"CFGTEST_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8012, cfg.Port)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("CFGTEST_PORT", "9090")
	t.Setenv("CFGTEST_BROKERS", "k1:9092,k2:9092")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("CFGTEST_PORT", "eighty")

	var cfg sampleConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadDotEnv_MissingFileIsSkipped(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_BACKEND=s3\nCFGTEST_DOTENV_ONLY=yes\n"), 0o600))

	t.Setenv("CFGTEST_BACKEND", "local")
	t.Cleanup(func() { _ = os.Unsetenv("CFGTEST_DOTENV_ONLY") })

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "local", os.Getenv("CFGTEST_BACKEND"))
	assert.Equal(t, "yes", os.Getenv("CFGTEST_DOTENV_ONLY"))
}
