// Package pointing scores blocks against the direction a tracked hand is pointing in.
package pointing

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/vision"
)

// DefaultMinAimDepth replaces a negative aim joint depth.
const DefaultMinAimDepth = 0.1

var (
	// ErrDegenerateVector is reported when the pointing or target vector has zero length.
	ErrDegenerateVector = errors.New("zero length vector has no direction")
	// ErrNoPosition is reported for a block that has no camera space position.
	ErrNoPosition = errors.New("block has no camera space position")
)

// Confidence is the score of a single block. When Err is set, Score is NaN.
type Confidence struct {
	BlockID int
	Score   float64
	Err     error
}

// Record converts the confidence to its wire form.
func (c Confidence) Record() vision.ConfidenceRecord {
	return vision.ConfidenceRecord{ID: float64(c.BlockID), Confidence: c.Score}
}

// Scorer compares a pointing direction against block positions.
type Scorer struct {
	// MinAimDepth is the depth a negative aim joint depth is clamped to.
	MinAimDepth float64
}

// ClampAim raises a negative depth on the aim joint to minDepth. Joints close to the body are
// sometimes reported behind the sensor.
func ClampAim(aim r3.Vector, minDepth float64) r3.Vector {
	if aim.Z < 0 {
		aim.Z = minDepth
	}
	return aim
}

// CosineSimilarity returns the cosine of the angle between a and b.
func CosineSimilarity(a, b r3.Vector) (float64, error) {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return math.NaN(), ErrDegenerateVector
	}
	return a.Dot(b) / (na * nb), nil
}

// Score returns one confidence per block, in block order. A block that cannot be scored carries
// its error and a NaN score; the other blocks are unaffected.
func (s Scorer) Score(ctx context.Context, origin, aim r3.Vector, blocks []*vision.Block) []Confidence {
	_, span := trace.StartSpan(ctx, "pointing::Score")
	defer span.End()

	minDepth := s.MinAimDepth
	if minDepth <= 0 {
		minDepth = DefaultMinAimDepth
	}
	direction := ClampAim(aim, minDepth).Sub(origin)

	return lo.Map(blocks, func(b *vision.Block, _ int) Confidence {
		if b.Position == nil || b.Position.Space != vision.CameraSpace {
			return Confidence{BlockID: b.ID, Score: math.NaN(), Err: errors.Wrapf(ErrNoPosition, "block %d", b.ID)}
		}
		score, err := CosineSimilarity(direction, b.Position.Point.Sub(origin))
		if err != nil {
			return Confidence{BlockID: b.ID, Score: score, Err: errors.Wrapf(err, "block %d", b.ID)}
		}
		return Confidence{BlockID: b.ID, Score: score}
	})
}

// Score scores blocks with the default Scorer.
func Score(ctx context.Context, origin, aim r3.Vector, blocks []*vision.Block) []Confidence {
	return Scorer{}.Score(ctx, origin, aim, blocks)
}

// Resolve picks the highest scoring confidence. Ties go to the earliest one and confidences
// carrying an error are never picked. It reports false when nothing can be picked.
func Resolve(confidences []Confidence) (Confidence, bool) {
	valid := lo.Filter(confidences, func(c Confidence, _ int) bool {
		return c.Err == nil && !math.IsNaN(c.Score)
	})
	if len(valid) == 0 {
		return Confidence{}, false
	}
	return lo.MaxBy(valid, func(a, b Confidence) bool {
		return a.Score > b.Score
	}), true
}
