// Package config reads the configuration of the block pointing service.
package config

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/vision"
	"go.viam.com/blockpointing/vision/pointing"
	"go.viam.com/blockpointing/vision/projection"
	"go.viam.com/blockpointing/vision/segmentation"
)

const (
	// DefaultBindAddress is the address the web server listens on unless configured otherwise.
	DefaultBindAddress = "localhost:8080"
	// DefaultSensorModel is the sensor model used when none is configured.
	DefaultSensorModel = "fake"
)

// Config is the whole service configuration.
type Config struct {
	ListenAddress  string             `json:"listen_address"`
	AcquireTimeout string             `json:"acquire_timeout"`
	LogLevel       string             `json:"log_level"`
	Sensor         SensorConfig       `json:"sensor"`
	Segmentation   SegmentationConfig `json:"segmentation"`
	Projection     ProjectionConfig   `json:"projection"`
	Pointing       PointingConfig     `json:"pointing"`
	Output         OutputConfig       `json:"output"`

	acquireTimeout time.Duration
	logLevel       logging.Level
}

// SensorConfig selects the sensor model and its model specific attributes.
type SensorConfig struct {
	Model      string                 `json:"model"`
	Attributes map[string]interface{} `json:"attributes"`
}

// SegmentationConfig tunes surface segmentation and block extraction.
type SegmentationConfig struct {
	MinBlockArea float64 `json:"min_block_area"`
	ErosionSize  int     `json:"erosion_size"`
}

// ProjectionConfig tunes how blocks get a position.
type ProjectionConfig struct {
	WindowRadius int `json:"window_radius"`
	// Mode is camera_space or depth_space. Disabled skips projection altogether.
	Mode     string `json:"mode"`
	Disabled bool   `json:"disabled"`
}

// PointingConfig names the joints the pointing direction runs between.
type PointingConfig struct {
	OriginJoint string  `json:"origin_joint"`
	AimJoint    string  `json:"aim_joint"`
	MinAimDepth float64 `json:"min_aim_depth"`
}

// OutputConfig controls the output stage.
type OutputConfig struct {
	// DebugDir receives a frame marking every selection. Empty disables it.
	DebugDir string `json:"debug_dir"`
}

// Default returns a validated config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(""); err != nil {
		panic(err)
	}
	return cfg
}

// Validate ensures all parts of the config are valid, filling in defaults for fields left
// empty.
func (cfg *Config) Validate(path string) error {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultBindAddress
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrap(err, "error validating listen_address"))
	}

	cfg.acquireTimeout = sensor.DefaultAcquireTimeout
	if cfg.AcquireTimeout != "" {
		d, err := time.ParseDuration(cfg.AcquireTimeout)
		if err != nil {
			return utils.NewConfigValidationError(path, errors.Wrap(err, "error validating acquire_timeout"))
		}
		if d <= 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("acquire_timeout must be positive, got %v", d))
		}
		cfg.acquireTimeout = d
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = logging.INFO.String()
	}
	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	cfg.logLevel = level

	if err := cfg.Sensor.Validate(joinPath(path, "sensor")); err != nil {
		return err
	}
	if err := cfg.Segmentation.Validate(joinPath(path, "segmentation")); err != nil {
		return err
	}
	if err := cfg.Projection.Validate(joinPath(path, "projection")); err != nil {
		return err
	}
	return cfg.Pointing.Validate(joinPath(path, "pointing"))
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return fmt.Sprintf("%s.%s", path, field)
}

// AcquireTimeoutDuration returns the parsed acquisition timeout.
func (cfg *Config) AcquireTimeoutDuration() time.Duration {
	return cfg.acquireTimeout
}

// Level returns the parsed log level.
func (cfg *Config) Level() logging.Level {
	return cfg.logLevel
}

// Validate defaults the model.
func (sc *SensorConfig) Validate(path string) error {
	if sc.Model == "" {
		sc.Model = DefaultSensorModel
	}
	if sc.Attributes == nil {
		sc.Attributes = map[string]interface{}{}
	}
	return nil
}

// Validate rejects negative sizes and defaults zero ones.
func (sc *SegmentationConfig) Validate(path string) error {
	if sc.MinBlockArea < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("min_block_area must not be negative, got %v", sc.MinBlockArea))
	}
	if sc.MinBlockArea == 0 {
		sc.MinBlockArea = segmentation.DefaultMinBlockArea
	}
	if sc.ErosionSize < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("erosion_size must not be negative, got %d", sc.ErosionSize))
	}
	if sc.ErosionSize == 0 {
		sc.ErosionSize = segmentation.DefaultErosionSize
	}
	return nil
}

// Segmenter returns the segmenter the config describes.
func (sc SegmentationConfig) Segmenter() segmentation.Segmenter {
	return segmentation.Segmenter{
		Surface: segmentation.SurfaceConfig{ErosionSize: sc.ErosionSize},
		Blocks:  segmentation.BlockConfig{MinArea: sc.MinBlockArea},
	}
}

// Validate checks the mode and window radius.
func (pc *ProjectionConfig) Validate(path string) error {
	if pc.WindowRadius < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("window_radius must not be negative, got %d", pc.WindowRadius))
	}
	if pc.WindowRadius == 0 {
		pc.WindowRadius = projection.DefaultWindowRadius
	}
	if pc.Mode == "" {
		pc.Mode = vision.CameraSpace.String()
	}
	if _, err := spaceFromString(pc.Mode); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Space returns the projection space named by Mode.
func (pc ProjectionConfig) Space() vision.Space {
	s, err := spaceFromString(pc.Mode)
	if err != nil {
		return vision.CameraSpace
	}
	return s
}

func spaceFromString(mode string) (vision.Space, error) {
	switch mode {
	case vision.CameraSpace.String():
		return vision.CameraSpace, nil
	case vision.DepthSpace.String():
		return vision.DepthSpace, nil
	default:
		return 0, errors.Errorf("unknown projection mode %q", mode)
	}
}

// Validate defaults the joints and the minimum aim depth.
func (pc *PointingConfig) Validate(path string) error {
	if pc.OriginJoint == "" {
		pc.OriginJoint = string(sensor.HandRight)
	}
	if pc.AimJoint == "" {
		pc.AimJoint = string(sensor.HandTipRight)
	}
	if pc.OriginJoint == pc.AimJoint {
		return utils.NewConfigValidationError(path, errors.Errorf("origin_joint and aim_joint are both %q", pc.AimJoint))
	}
	if pc.MinAimDepth < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("min_aim_depth must not be negative, got %v", pc.MinAimDepth))
	}
	if pc.MinAimDepth == 0 {
		pc.MinAimDepth = pointing.DefaultMinAimDepth
	}
	return nil
}

// Scorer returns the scorer the config describes.
func (pc PointingConfig) Scorer() pointing.Scorer {
	return pointing.Scorer{MinAimDepth: pc.MinAimDepth}
}
