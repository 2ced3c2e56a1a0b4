package pipeline

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/vision"
	"go.viam.com/blockpointing/vision/pointing"
)

// Default joints the pointing direction is taken from.
const (
	DefaultOriginJoint = sensor.HandRight
	DefaultAimJoint    = sensor.HandTipRight
)

// PointingStage scores the detected blocks of a document against the pointing direction of
// the tracked body.
type PointingStage struct {
	sensors     *sensor.Context
	scorer      pointing.Scorer
	space       vision.Space
	originJoint sensor.JointType
	aimJoint    sensor.JointType
	logger      logging.Logger
}

// NewPointingStage returns a pointing stage reading detections projected into space. A zero
// space reads camera space, and empty joint types use the defaults.
func NewPointingStage(
	sensors *sensor.Context,
	scorer pointing.Scorer,
	space vision.Space,
	originJoint, aimJoint sensor.JointType,
	logger logging.Logger,
) *PointingStage {
	if space == 0 {
		space = vision.CameraSpace
	}
	if originJoint == "" {
		originJoint = DefaultOriginJoint
	}
	if aimJoint == "" {
		aimJoint = DefaultAimJoint
	}
	return &PointingStage{
		sensors:     sensors,
		scorer:      scorer,
		space:       space,
		originJoint: originJoint,
		aimJoint:    aimJoint,
		logger:      logger,
	}
}

// Name returns the route name of the stage.
func (s *PointingStage) Name() string {
	return "Pointing"
}

// Process reads the DetectedBlock annotation and returns one confidence per block. Nobody
// tracked, or a tracked body missing either joint, yields no confidences.
func (s *PointingStage) Process(ctx context.Context, doc *Document) (*Annotation, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline::PointingStage::Process")
	defer span.End()
	start := time.Now()

	detected, err := detectedBlocks(doc)
	if err != nil {
		return nil, err
	}
	blocks := lo.Map(detected, func(r vision.BlockRecord, _ int) *vision.Block { return r.BlockIn(s.space) })

	records := []vision.ConfidenceRecord{}
	empty := &Annotation{View: PointingView, Type: PointingType, Records: records}

	body, tracked, err := s.sensors.AcquireBody(ctx)
	if err != nil {
		return nil, err
	}
	if !tracked {
		s.logger.Infow("no body tracked", "blocks", len(blocks))
		return empty, nil
	}
	origin, ok := body.Joint(s.originJoint)
	if !ok {
		s.logger.Infow("tracked body is missing joint", "joint", s.originJoint)
		return empty, nil
	}
	aim, ok := body.Joint(s.aimJoint)
	if !ok {
		s.logger.Infow("tracked body is missing joint", "joint", s.aimJoint)
		return empty, nil
	}

	confidences := s.scorer.Score(ctx, origin.Position, aim.Position, blocks)
	for _, c := range confidences {
		if c.Err != nil {
			// NaN has no JSON form, so the block is left out of the annotation.
			s.logger.Warnw("cannot score block", "id", c.BlockID, "error", c.Err)
			continue
		}
		records = append(records, c.Record())
	}

	best, found := pointing.Resolve(confidences)
	if found {
		s.logger.Infow("scored blocks",
			"count", len(records), "best", best.BlockID, "confidence", best.Score, "elapsed", time.Since(start))
	} else {
		s.logger.Infow("scored blocks", "count", len(records), "elapsed", time.Since(start))
	}
	return &Annotation{View: PointingView, Type: PointingType, Records: records}, nil
}

// Joints returns the origin and aim joint types the stage scores with.
func (s *PointingStage) Joints() (sensor.JointType, sensor.JointType) {
	return s.originJoint, s.aimJoint
}
