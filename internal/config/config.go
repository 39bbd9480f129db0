// Package config loads and saves the hostmon settings file.
//
// Loading never fails: a missing or malformed file yields the defaults, and
// each key that is missing, of the wrong type, or out of range falls back to
// its own default.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileName is the settings file inside the data directory
const FileName = "config.json"

// Config is an immutable settings value; changes produce a new Config
type Config struct {
	IntervalSeconds       int  `json:"interval_seconds" validate:"min=1,max=3600"`
	Tray                  bool `json:"tray"`
	ProcessRefreshSeconds int  `json:"process_refresh_seconds" validate:"min=1,max=3600"`
	HistoryPoints         int  `json:"history_points" validate:"min=10,max=10000"`
	ProcessLimit          int  `json:"process_limit" validate:"min=1,max=10000"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		IntervalSeconds:       5,
		Tray:                  true,
		ProcessRefreshSeconds: 5,
		HistoryPoints:         120,
		ProcessLimit:          200,
	}
}

// Interval is the sampling period
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ProcessRefresh is the process list refresh period
func (c Config) ProcessRefresh() time.Duration {
	return time.Duration(c.ProcessRefreshSeconds) * time.Second
}

// WithInterval returns a copy with the sampling interval set, clamped to range
func (c Config) WithInterval(seconds int) Config {
	c.IntervalSeconds = max(1, min(seconds, 3600))
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every out-of-range field
func (c Config) Validate() error {
	return validate.Struct(c)
}

// Load reads the settings at path
func Load(fs afero.Fs, path string, logger *zap.Logger) Config {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("reading config failed, using defaults", zap.String("path", path), zap.Error(err))
		}
		return Default()
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Debug("malformed config, using defaults", zap.String("path", path), zap.Error(err))
		return Default()
	}

	cfg := Default()
	decodeKey(raw, "interval_seconds", &cfg.IntervalSeconds, logger)
	decodeKey(raw, "tray", &cfg.Tray, logger)
	decodeKey(raw, "process_refresh_seconds", &cfg.ProcessRefreshSeconds, logger)
	decodeKey(raw, "history_points", &cfg.HistoryPoints, logger)
	decodeKey(raw, "process_limit", &cfg.ProcessLimit, logger)

	return sanitize(cfg, logger)
}

// decodeKey overwrites dst with raw[key] if present and well-typed
func decodeKey[T any](raw map[string]json.RawMessage, key string, dst *T, logger *zap.Logger) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		logger.Debug("ignoring config key", zap.String("key", key), zap.Error(err))
		return
	}
	*dst = v
}

// sanitize resets each out-of-range field to its default
func sanitize(cfg Config, logger *zap.Logger) Config {
	var verrs validator.ValidationErrors
	if err := cfg.Validate(); !errors.As(err, &verrs) {
		return cfg
	}

	def := Default()
	for _, fe := range verrs {
		logger.Debug("config value out of range, using default",
			zap.String("field", fe.Field()), zap.Any("value", fe.Value()))

		switch fe.StructField() {
		case "IntervalSeconds":
			cfg.IntervalSeconds = def.IntervalSeconds
		case "ProcessRefreshSeconds":
			cfg.ProcessRefreshSeconds = def.ProcessRefreshSeconds
		case "HistoryPoints":
			cfg.HistoryPoints = def.HistoryPoints
		case "ProcessLimit":
			cfg.ProcessLimit = def.ProcessLimit
		}
	}
	return cfg
}

// Save writes cfg to path as JSON, replacing the file atomically
func Save(fs afero.Fs, path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
