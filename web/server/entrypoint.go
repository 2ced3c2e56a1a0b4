package server

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"

	"go.viam.com/blockpointing/config"
	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/pipeline"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/vision/projection"
)

// Stages builds the detection, pointing, output and calibration stages from cfg, all sharing
// sensors, along with a coordinator chaining the first three.
func Stages(cfg *config.Config, sensors *sensor.Context, logger logging.Logger) ([]pipeline.Stage, *pipeline.Coordinator, error) {
	var projector *projection.Projector
	if !cfg.Projection.Disabled {
		var err error
		projector, err = projection.NewProjector(cfg.Projection.WindowRadius, cfg.Projection.Space(), logger.Sublogger("projection"))
		if err != nil {
			return nil, nil, err
		}
	}
	detection := pipeline.NewDetectionStage(sensors, cfg.Segmentation.Segmenter(), projector, logger.Sublogger("detection"))
	pointingStage := pipeline.NewPointingStage(
		sensors,
		cfg.Pointing.Scorer(),
		cfg.Projection.Space(),
		sensor.JointType(cfg.Pointing.OriginJoint),
		sensor.JointType(cfg.Pointing.AimJoint),
		logger.Sublogger("pointing"),
	)
	output := pipeline.NewOutputStage(sensors, cfg.Output.DebugDir, logger.Sublogger("output"))
	calibration := pipeline.NewCalibrationStage(sensors, logger.Sublogger("calibration"))

	coordinator := pipeline.NewCoordinator(logger.Sublogger("coordinator"), detection, pointingStage, output)
	return []pipeline.Stage{detection, pointingStage, output, calibration}, coordinator, nil
}

// RunServer opens the configured sensor and serves every stage until ctx is done.
func RunServer(ctx context.Context, cfg *config.Config, logger logging.Logger) (err error) {
	logger.SetLevel(cfg.Level())
	trace.RegisterExporter(NewLoggingSpanExporter(logger.Sublogger("trace")))
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})

	s, err := sensor.New(ctx, cfg.Sensor.Model, cfg.Sensor.Attributes, logger.Sublogger("sensor"))
	if err != nil {
		return errors.Wrap(err, "cannot open sensor")
	}
	sensors := sensor.NewContext(s, cfg.AcquireTimeoutDuration(), nil, logger.Sublogger("sensor"))

	stages, coordinator, err := Stages(cfg, sensors, logger)
	if err != nil {
		return multierr.Combine(err, sensors.Close(ctx))
	}
	srv := New(sensors, coordinator, logger.Sublogger("web"), stages...)
	defer func() {
		err = multierr.Combine(err, srv.Close(context.Background()))
	}()

	host, _, err := net.SplitHostPort(cfg.ListenAddress)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		logger.Warn("binding to all interfaces")
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return err
	}
	return srv.Serve(ctx, listener)
}
