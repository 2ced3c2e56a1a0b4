package config

import (
	"bytes"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/blockpointing/logging"
)

// Read reads a config from the given file, substituting environment variables first. The file
// is JSON5, so comments and trailing commas are allowed.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	cfg := &Config{}
	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config from %q", originalPath)
	}
	if err := cfg.Validate(""); err != nil {
		return nil, errors.Wrap(err, "failed to process config")
	}
	if logger != nil {
		logger.Debugw("read config",
			"path", originalPath,
			"listen_address", cfg.ListenAddress,
			"sensor_model", cfg.Sensor.Model,
			"projection_mode", cfg.Projection.Mode)
	}
	return cfg, nil
}
