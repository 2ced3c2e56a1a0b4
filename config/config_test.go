package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/vision"
	"go.viam.com/blockpointing/vision/pointing"
	"go.viam.com/blockpointing/vision/projection"
	"go.viam.com/blockpointing/vision/segmentation"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.ListenAddress, test.ShouldEqual, DefaultBindAddress)
	test.That(t, cfg.AcquireTimeoutDuration(), test.ShouldEqual, sensor.DefaultAcquireTimeout)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)
	test.That(t, cfg.Sensor.Model, test.ShouldEqual, DefaultSensorModel)
	test.That(t, cfg.Sensor.Attributes, test.ShouldNotBeNil)
	test.That(t, cfg.Segmentation.MinBlockArea, test.ShouldEqual, segmentation.DefaultMinBlockArea)
	test.That(t, cfg.Segmentation.ErosionSize, test.ShouldEqual, segmentation.DefaultErosionSize)
	test.That(t, cfg.Projection.WindowRadius, test.ShouldEqual, projection.DefaultWindowRadius)
	test.That(t, cfg.Projection.Space(), test.ShouldEqual, vision.CameraSpace)
	test.That(t, cfg.Pointing.OriginJoint, test.ShouldEqual, string(sensor.HandRight))
	test.That(t, cfg.Pointing.AimJoint, test.ShouldEqual, string(sensor.HandTipRight))
	test.That(t, cfg.Pointing.Scorer(), test.ShouldResemble, pointing.Scorer{MinAimDepth: pointing.DefaultMinAimDepth})
	test.That(t, cfg.Output.DebugDir, test.ShouldEqual, "")

	seg := cfg.Segmentation.Segmenter()
	test.That(t, seg.Surface.ErosionSize, test.ShouldEqual, segmentation.DefaultErosionSize)
	test.That(t, seg.Blocks.MinArea, test.ShouldEqual, segmentation.DefaultMinBlockArea)
}

func TestRead(t *testing.T) {
	t.Setenv("BLOCKPOINTING_DEBUG_DIR", "/tmp/frames")
	path := filepath.Join(t.TempDir(), "config.json5")
	body := `{
		// comments and trailing commas are fine
		"listen_address": "0.0.0.0:9090",
		"acquire_timeout": "5s",
		"log_level": "debug",
		"sensor": {
			"model": "fake",
			"attributes": {"color_image": "color.png"},
		},
		"segmentation": {"min_block_area": 50, "erosion_size": 4},
		"projection": {"window_radius": 20, "mode": "depth_space"},
		"pointing": {"origin_joint": "WristLeft", "aim_joint": "HandLeft", "min_aim_depth": 0.25},
		"output": {"debug_dir": "${BLOCKPOINTING_DEBUG_DIR}"},
	}`
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ListenAddress, test.ShouldEqual, "0.0.0.0:9090")
	test.That(t, cfg.AcquireTimeoutDuration(), test.ShouldEqual, 5*time.Second)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.Sensor.Attributes["color_image"], test.ShouldEqual, "color.png")
	test.That(t, cfg.Segmentation, test.ShouldResemble, SegmentationConfig{MinBlockArea: 50, ErosionSize: 4})
	test.That(t, cfg.Projection.WindowRadius, test.ShouldEqual, 20)
	test.That(t, cfg.Projection.Space(), test.ShouldEqual, vision.DepthSpace)
	test.That(t, cfg.Pointing, test.ShouldResemble, PointingConfig{OriginJoint: "WristLeft", AimJoint: "HandLeft", MinAimDepth: 0.25})
	test.That(t, cfg.Output.DebugDir, test.ShouldEqual, "/tmp/frames")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.json"), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderInvalid(t *testing.T) {
	for _, tc := range []struct {
		body string
		err  string
	}{
		{`{`, "failed to decode config"},
		{`{"listen_address": "nohost"}`, "listen_address"},
		{`{"acquire_timeout": "soon"}`, "acquire_timeout"},
		{`{"acquire_timeout": "-1s"}`, "acquire_timeout must be positive"},
		{`{"log_level": "loud"}`, "unknown log level"},
		{`{"segmentation": {"min_block_area": -1}}`, "min_block_area must not be negative"},
		{`{"segmentation": {"erosion_size": -3}}`, "erosion_size must not be negative"},
		{`{"projection": {"window_radius": -1}}`, "window_radius must not be negative"},
		{`{"projection": {"mode": "world_space"}}`, "unknown projection mode"},
		{`{"pointing": {"origin_joint": "HandTipRight"}}`, "both"},
		{`{"pointing": {"min_aim_depth": -0.1}}`, "min_aim_depth must not be negative"},
	} {
		_, err := FromReader("test", strings.NewReader(tc.body), nil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
	}
}
