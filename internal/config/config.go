package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"330s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		// TimeLimit is used when a request does not carry its own limit.
		TimeLimit time.Duration `env:"SOLVER_TIME_LIMIT" envDefault:"100s"`
		// MaxTimeLimit caps the limit a request may ask for.
		MaxTimeLimit time.Duration `env:"SOLVER_MAX_TIME_LIMIT" envDefault:"300s"`
		// MaxItems caps instance size; the model grows with the square of it.
		MaxItems int  `env:"SOLVER_MAX_ITEMS" envDefault:"200"`
		Verbose  bool `env:"SOLVER_VERBOSE" envDefault:"false"`
	}
	Demo struct {
		BinSize     int   `env:"DEMO_BIN_SIZE" envDefault:"10"`
		NumItems    int   `env:"DEMO_NUM_ITEMS" envDefault:"20"`
		MaxItemSize int   `env:"DEMO_MAX_ITEM_SIZE" envDefault:"10"`
		Seed        int64 `env:"DEMO_SEED" envDefault:"0"`
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Engine chatter on stdout is never wanted outside development.
	if cfg.Environment != "development" {
		cfg.Solver.Verbose = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants Load cannot express with defaults.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: HTTP_PORT %d out of range", c.HTTP.Port)
	}
	if c.Solver.TimeLimit < 0 {
		return fmt.Errorf("config: SOLVER_TIME_LIMIT must not be negative, got %s", c.Solver.TimeLimit)
	}
	if c.Solver.MaxTimeLimit < c.Solver.TimeLimit {
		return fmt.Errorf("config: SOLVER_MAX_TIME_LIMIT %s is below SOLVER_TIME_LIMIT %s", c.Solver.MaxTimeLimit, c.Solver.TimeLimit)
	}
	// Solves run synchronously inside the request.
	if c.Solver.MaxTimeLimit >= c.HTTP.WriteTimeout {
		return fmt.Errorf("config: SOLVER_MAX_TIME_LIMIT %s must be below HTTP_WRITE_TIMEOUT %s", c.Solver.MaxTimeLimit, c.HTTP.WriteTimeout)
	}
	if c.Solver.MaxItems <= 0 {
		return fmt.Errorf("config: SOLVER_MAX_ITEMS must be positive, got %d", c.Solver.MaxItems)
	}
	return nil
}

// ClampTimeLimit limits d to [0, SOLVER_MAX_TIME_LIMIT].
func (c *Config) ClampTimeLimit(d time.Duration) time.Duration {
	if d < 0 {
		d = 0
	}
	if d > c.Solver.MaxTimeLimit {
		d = c.Solver.MaxTimeLimit
	}
	return d
}
