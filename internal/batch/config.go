package batch

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls chunking, admission, and pacing for a batch run.
type Config struct {
	BatchSize int    `toml:"batch_size"`
	Workers   int    `toml:"workers"`
	Sleep     string `toml:"sleep"`
	Cycles    int    `toml:"cycles"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BatchSize string
	Workers   string
	Sleep     string
	Cycles    string
}

// SleepDuration parses Sleep into a time.Duration.
func (c *Config) SleepDuration() time.Duration {
	d, _ := time.ParseDuration(c.Sleep)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.Sleep != "" {
		c.Sleep = overlay.Sleep
	}
	if overlay.Cycles != 0 {
		c.Cycles = overlay.Cycles
	}
}

// loadDefaults fills unset (zero) fields only, so negative values reach
// validate.
func (c *Config) loadDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 5
	}
	if c.Workers == 0 {
		c.Workers = 3
	}
	if c.Sleep == "" {
		c.Sleep = "10s"
	}
	if c.Cycles == 0 {
		c.Cycles = 1
	}
}

func (c *Config) loadEnv(env *Env) {
	setInt := func(name string, dst *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(env.BatchSize, &c.BatchSize)
	setInt(env.Workers, &c.Workers)
	setInt(env.Cycles, &c.Cycles)

	if env.Sleep != "" {
		if v := os.Getenv(env.Sleep); v != "" {
			c.Sleep = v
		}
	}
}

func (c *Config) validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Cycles < 1 {
		return fmt.Errorf("cycles must be at least 1")
	}
	d, err := time.ParseDuration(c.Sleep)
	if err != nil {
		return fmt.Errorf("invalid sleep: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("sleep must not be negative")
	}
	return nil
}
