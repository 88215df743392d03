package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvCompositor = "RESIN_COMPOSITOR"
	EnvStackMode  = "RESIN_STACK_MODE"
	EnvWorkers    = "RESIN_WORKERS"
)

// Env holds environment overrides. Zero values mean unset.
type Env struct {
	Compositor string
	StackMode  string
	Workers    int
}

// LoadEnv loads a .env file from each of dirs, skipping dirs without one,
// then reads the overrides. Variables already set in the process
// environment take precedence over .env values.
func LoadEnv(dirs ...string) (Env, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return Env{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	env := Env{
		Compositor: os.Getenv(EnvCompositor),
		StackMode:  os.Getenv(EnvStackMode),
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Env{}, fmt.Errorf("%s must be a positive integer, got %q", EnvWorkers, v)
		}
		env.Workers = n
	}
	return env, nil
}
