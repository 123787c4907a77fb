package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that supply flag defaults.
const (
	envSeed    = "SPNSIM_SEED"
	envLog     = "SPNSIM_LOG"
	envTraceDB = "SPNSIM_TRACE_DB"
)

// EnvDefaults holds flag defaults taken from the environment. Zero values
// mean the variable was not set.
type EnvDefaults struct {
	Seed     *int64
	LogLevel string
	TraceDB  string
}

// LoadEnvDefaults loads the given .env files (".env" when none are named)
// into the process environment, then reads the SPNSIM_* variables. Missing
// .env files are not an error; variables already set in the environment
// win over file values.
func LoadEnvDefaults(files ...string) (EnvDefaults, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return EnvDefaults{}, fmt.Errorf("loading env file: %w", err)
	}

	var d EnvDefaults
	if v, ok := os.LookupEnv(envSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return EnvDefaults{}, fmt.Errorf("%s: %w", envSeed, err)
		}
		d.Seed = &seed
	}
	d.LogLevel = os.Getenv(envLog)
	d.TraceDB = os.Getenv(envTraceDB)
	return d, nil
}

// resolveSeed applies flag > environment > model file precedence.
func resolveSeed(flagChanged bool, flagSeed int64, env EnvDefaults, modelSeed int64) int64 {
	if flagChanged {
		return flagSeed
	}
	if env.Seed != nil {
		return *env.Seed
	}
	return modelSeed
}

// resolveString applies flag > environment > default precedence.
func resolveString(flagChanged bool, flagVal, envVal, def string) string {
	if flagChanged {
		return flagVal
	}
	if envVal != "" {
		return envVal
	}
	return def
}
