package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gogpu/gpuid"
	"github.com/gogpu/gpuid/identity"
)

const (
	envBackend  = "GPUID_BACKEND"
	envHAL      = "GPUID_HAL"
	envLogLevel = "GPUID_LOG_LEVEL"

	halNoop   = "noop"
	halVulkan = "vulkan"
)

// flags holds raw command-line values.
type flags struct {
	backend string
	hal     string
	verbose bool
}

type config struct {
	backend identity.Backend
	hal     string
	level   slog.Level
	verbose bool
}

// loadConfig merges .env, the environment and flags, in rising precedence.
// Variables already set in the environment are not overridden by .env.
func loadConfig(cmd *cobra.Command, f flags) (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	backendName := pick(cmd, "backend", f.backend, envBackend, identity.Vulkan.String())
	backend, err := identity.ParseBackend(backendName)
	if err != nil {
		return config{}, err
	}
	if backend == identity.Empty {
		return config{}, fmt.Errorf("backend %q cannot tag ids", backendName)
	}

	halName := pick(cmd, "hal", f.hal, envHAL, halNoop)
	if halName != halNoop && halName != halVulkan {
		return config{}, fmt.Errorf("unknown HAL %q (want %s or %s)", halName, halNoop, halVulkan)
	}

	cfg := config{backend: backend, hal: halName, level: slog.LevelWarn, verbose: f.verbose}
	if f.verbose {
		cfg.level = slog.LevelDebug
	} else if s := os.Getenv(envLogLevel); s != "" {
		if cfg.level, err = gpuid.ParseLevel(s); err != nil {
			return config{}, fmt.Errorf("%s: %w", envLogLevel, err)
		}
	}
	return cfg, nil
}

// pick returns the flag value when the flag was given, else the environment
// variable, else def.
func pick(cmd *cobra.Command, flag, value, env, def string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}
