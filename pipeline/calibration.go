package pipeline

import (
	"context"
	"strconv"

	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/sensor"
)

// CalibrationFrame is a color frame handed to an external stereo calibration tool.
type CalibrationFrame struct {
	ImageWidth   string `json:"ImageWidth"`
	ImageHeight  string `json:"ImageHeight"`
	EncodedImage string `json:"EncodedImage"`
}

// CalibrationStage returns the current color frame as a base64 BMP.
type CalibrationStage struct {
	sensors *sensor.Context
	logger  logging.Logger
}

// NewCalibrationStage returns a calibration stage reading frames from sensors.
func NewCalibrationStage(sensors *sensor.Context, logger logging.Logger) *CalibrationStage {
	return &CalibrationStage{sensors: sensors, logger: logger}
}

// Name returns the route name of the stage.
func (s *CalibrationStage) Name() string {
	return "StereoCalibrate"
}

// Capture acquires and encodes one color frame.
func (s *CalibrationStage) Capture(ctx context.Context) (*CalibrationFrame, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline::CalibrationStage::Capture")
	defer span.End()

	img, err := s.sensors.AcquireColor(ctx)
	if err != nil {
		return nil, err
	}
	encoded, err := rimage.EncodeBMPBase64(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	s.logger.Infow("captured calibration frame", "width", b.Dx(), "height", b.Dy(), "encoded_bytes", len(encoded))
	return &CalibrationFrame{
		ImageWidth:   strconv.Itoa(b.Dx()),
		ImageHeight:  strconv.Itoa(b.Dy()),
		EncodedImage: encoded,
	}, nil
}

// Process ignores the document. The annotation has no type and marshals as the bare frame.
func (s *CalibrationStage) Process(ctx context.Context, doc *Document) (*Annotation, error) {
	frame, err := s.Capture(ctx)
	if err != nil {
		return nil, err
	}
	return &Annotation{Records: frame}, nil
}
