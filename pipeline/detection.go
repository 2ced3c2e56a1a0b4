package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/vision"
	"go.viam.com/blockpointing/vision/projection"
	"go.viam.com/blockpointing/vision/segmentation"
)

// DetectionStage finds the blocks on the working surface and attaches a position to each.
type DetectionStage struct {
	sensors   *sensor.Context
	segmenter segmentation.Segmenter
	projector *projection.Projector
	logger    logging.Logger
}

// NewDetectionStage returns a detection stage reading frames from sensors. A nil projector
// skips projection and every block is reported without a position.
func NewDetectionStage(
	sensors *sensor.Context,
	segmenter segmentation.Segmenter,
	projector *projection.Projector,
	logger logging.Logger,
) *DetectionStage {
	return &DetectionStage{sensors: sensors, segmenter: segmenter, projector: projector, logger: logger}
}

// Name returns the route name of the stage.
func (s *DetectionStage) Name() string {
	return "ObjectDetection"
}

// Detect acquires one color frame and, when projecting, one depth frame, and returns the blocks
// found in them.
func (s *DetectionStage) Detect(ctx context.Context) ([]*vision.Block, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline::DetectionStage::Detect")
	defer span.End()

	img, err := s.sensors.AcquireColor(ctx)
	if err != nil {
		return nil, err
	}
	blocks, surface, err := s.segmenter.Segment(ctx, img)
	if err != nil {
		return nil, errors.Wrap(err, "segmentation failed")
	}
	s.logger.Debugw("segmented surface",
		"threshold", surface.Threshold, "candidate_pixels", surface.Candidates.Count())

	if s.projector == nil || len(blocks) == 0 {
		return blocks, nil
	}
	pm, err := s.sensors.MapColorFrame(ctx, s.projector.Space == vision.CameraSpace)
	if err != nil {
		return nil, err
	}
	if pm.Width() != img.Bounds().Dx() || pm.Height() != img.Bounds().Dy() {
		return nil, errors.Errorf("mapped frame is %dx%d but color frame is %dx%d",
			pm.Width(), pm.Height(), img.Bounds().Dx(), img.Bounds().Dy())
	}
	s.projector.Project(ctx, blocks, pm)
	return blocks, nil
}

// Process ignores the document: detection is the first stage.
func (s *DetectionStage) Process(ctx context.Context, doc *Document) (*Annotation, error) {
	start := time.Now()
	blocks, err := s.Detect(ctx)
	if err != nil {
		return nil, err
	}
	records := lo.Map(blocks, func(b *vision.Block, _ int) vision.BlockRecord { return b.Record() })
	s.logger.Infow("detected blocks", "count", len(records), "elapsed", time.Since(start))
	return &Annotation{View: DetectedBlockView, Type: DetectedBlockType, Records: records}, nil
}
