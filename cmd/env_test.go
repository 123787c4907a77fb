package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// clearEnv blanks the SPNSIM_* variables for the duration of the test.
// godotenv never overrides a variable that is already set, so each one is
// unset after t.Setenv registers its restore.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envSeed, envLog, envTraceDB} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadEnvDefaults_FromFile(t *testing.T) {
	// GIVEN a .env file with every variable
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, writeTestFile(path, "SPNSIM_SEED=1234\nSPNSIM_LOG=debug\nSPNSIM_TRACE_DB=/tmp/runs.db\n"))

	// WHEN it is loaded
	d, err := LoadEnvDefaults(path)

	// THEN every field is populated
	require.NoError(t, err)
	require.NotNil(t, d.Seed)
	assert.Equal(t, int64(1234), *d.Seed)
	assert.Equal(t, "debug", d.LogLevel)
	assert.Equal(t, "/tmp/runs.db", d.TraceDB)
}

func TestLoadEnvDefaults_ProcessEnvWinsOverFile(t *testing.T) {
	// GIVEN a seed in both the environment and the file
	clearEnv(t)
	t.Setenv(envSeed, "7")
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, writeTestFile(path, "SPNSIM_SEED=1234\n"))

	// WHEN loaded
	d, err := LoadEnvDefaults(path)

	// THEN the process environment is kept
	require.NoError(t, err)
	require.NotNil(t, d.Seed)
	assert.Equal(t, int64(7), *d.Seed)
}

func TestLoadEnvDefaults_MissingFile_NotAnError(t *testing.T) {
	clearEnv(t)
	d, err := LoadEnvDefaults(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Nil(t, d.Seed)
	assert.Empty(t, d.LogLevel)
	assert.Empty(t, d.TraceDB)
}

func TestLoadEnvDefaults_BadSeed_ReturnsError(t *testing.T) {
	clearEnv(t)
	t.Setenv(envSeed, "forty-two")
	_, err := LoadEnvDefaults(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), envSeed)
}

func TestResolveSeed_Precedence(t *testing.T) {
	envSeedVal := int64(5)
	withEnv := EnvDefaults{Seed: &envSeedVal}

	// flag > env > model
	assert.Equal(t, int64(1), resolveSeed(true, 1, withEnv, 9))
	assert.Equal(t, int64(5), resolveSeed(false, 1, withEnv, 9))
	assert.Equal(t, int64(9), resolveSeed(false, 1, EnvDefaults{}, 9))

	// an explicit zero on the command line is still a choice
	assert.Equal(t, int64(0), resolveSeed(true, 0, withEnv, 9))
}

func TestResolveString_Precedence(t *testing.T) {
	assert.Equal(t, "flag", resolveString(true, "flag", "env", "def"))
	assert.Equal(t, "env", resolveString(false, "flag", "env", "def"))
	assert.Equal(t, "def", resolveString(false, "flag", "", "def"))
}
