package signing

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds signer selection and invocation parameters.
type Config struct {
	Mode string `toml:"mode"`
	// Command and Args prefix the JSignPdf arguments in external mode,
	// e.g. "java" with ["-jar", "JSignPdf.jar"].
	Command  string   `toml:"command"`
	Args     []string `toml:"args"`
	Timeout  string   `toml:"timeout"`
	WorkRoot string   `toml:"work_root"`
	Location string   `toml:"location"`
	Reason   string   `toml:"reason"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Mode     string
	Command  string
	Args     string
	Timeout  string
	WorkRoot string
	Location string
	Reason   string
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
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Command != "" {
		c.Command = overlay.Command
	}
	if overlay.Args != nil {
		c.Args = overlay.Args
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.WorkRoot != "" {
		c.WorkRoot = overlay.WorkRoot
	}
	if overlay.Location != "" {
		c.Location = overlay.Location
	}
	if overlay.Reason != "" {
		c.Reason = overlay.Reason
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *Config) loadDefaults() {
	if c.Mode == "" {
		c.Mode = string(ModeExternal)
	}
	if c.Command == "" {
		c.Command = "java"
		if c.Args == nil {
			c.Args = []string{"-jar", "JSignPdf.jar"}
		}
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.Reason == "" {
		c.Reason = "Documento médico"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Mode != "" {
		if v := os.Getenv(env.Mode); v != "" {
			c.Mode = v
		}
	}
	if env.Command != "" {
		if v := os.Getenv(env.Command); v != "" {
			c.Command = v
		}
	}
	if env.Args != "" {
		if v := os.Getenv(env.Args); v != "" {
			c.Args = strings.Fields(v)
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.WorkRoot != "" {
		if v := os.Getenv(env.WorkRoot); v != "" {
			c.WorkRoot = v
		}
	}
	if env.Location != "" {
		if v := os.Getenv(env.Location); v != "" {
			c.Location = v
		}
	}
	if env.Reason != "" {
		if v := os.Getenv(env.Reason); v != "" {
			c.Reason = v
		}
	}
}

func (c *Config) validate() error {
	switch Mode(c.Mode) {
	case ModeExternal, ModeNative:
	default:
		return fmt.Errorf("invalid mode: %q", c.Mode)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}
