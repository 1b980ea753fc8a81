package config

import (
	"errors"
	"fmt"
)

var knownSignals = map[string]struct{}{
	"TERM": {},
	"INT":  {},
	"HUP":  {},
	"QUIT": {},
	"KILL": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if _, ok := knownSignals[c.Daemon.StopSignal]; !ok {
		return fmt.Errorf("daemon.stop_signal: unsupported signal %q", c.Daemon.StopSignal)
	}
	if c.Daemon.StopMaxAttempts > 600 {
		return errors.New("daemon.stop_max_attempts must be 600 or fewer")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
