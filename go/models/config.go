package models

import (
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"github.com/sirupsen/logrus"
)

const ConfigName = "sigcorn.toml"

type Config struct {
	TraceSys     bool   `toml:"trace_sys"`
	TraceSignals bool   `toml:"trace_signals"`
	LogLevel     string `toml:"log_level"`
	Strsize      int    `toml:"strsize"`

	// extended processor state reserved below each signal frame
	XsaveExtra  int `toml:"xsave_extra"`
	FxsaveExtra int `toml:"fxsave_extra"`

	// wake protocol retry policy
	WakeRetries int    `toml:"wake_retries"`
	WakeBackoff string `toml:"wake_backoff"`

	MaxQueued int `toml:"max_queued"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		Strsize:     30,
		WakeRetries: 64,
		MaxQueued:   64,
	}
}

// LoadConfig reads a TOML config over the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logrus.WithField("keys", undecoded).Warn("ignoring unknown config keys")
	}
	return c, c.Validate()
}

// FindConfig looks for sigcorn.toml in the user and system config dirs and
// returns "" if there is none.
func FindConfig() string {
	dirs := configdir.New("lunixbochs", "sigcorn")
	if folder := dirs.QueryFolderContainsFile(ConfigName); folder != nil {
		return filepath.Join(folder.Path, ConfigName)
	}
	return ""
}

func (c *Config) Validate() error {
	if c.XsaveExtra < 0 || c.FxsaveExtra < 0 {
		return errors.New("xsave_extra and fxsave_extra must not be negative")
	}
	if c.WakeRetries < 0 {
		return errors.New("wake_retries must not be negative")
	}
	if c.MaxQueued <= 0 {
		return errors.New("max_queued must be positive")
	}
	if _, err := c.Backoff(); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return errors.Wrap(err, "log_level")
		}
	}
	return nil
}

// Backoff is the pause between wake protocol retries.
func (c *Config) Backoff() (time.Duration, error) {
	if c.WakeBackoff == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.WakeBackoff)
	return d, errors.Wrap(err, "wake_backoff")
}

// Logger builds a logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}
