package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/logging"
)

// Coordinator runs stages in order, folding the output of each into the document handed to
// the next.
type Coordinator struct {
	stages []Stage
	logger logging.Logger
}

// NewCoordinator returns a coordinator running stages in the given order.
func NewCoordinator(logger logging.Logger, stages ...Stage) *Coordinator {
	return &Coordinator{stages: stages, logger: logger}
}

// Stages returns the stages in run order.
func (c *Coordinator) Stages() []Stage {
	return c.stages
}

// Run processes doc through every stage. A nil doc starts from an empty view. The returned
// annotations are in stage order; the first stage error aborts the run.
func (c *Coordinator) Run(ctx context.Context, doc *Document) (*Document, []*Annotation, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline::Coordinator::Run")
	defer span.End()
	start := time.Now()

	if doc == nil {
		doc = NewDocument()
	}
	annotations := make([]*Annotation, 0, len(c.stages))
	for _, stage := range c.stages {
		ann, err := stage.Process(ctx, doc)
		if err != nil {
			return doc, annotations, errors.Wrapf(err, "stage %s", stage.Name())
		}
		annotations = append(annotations, ann)
		if ann.View == "" {
			continue
		}
		if err := doc.SetAnnotation(ann.View, ann.Records); err != nil {
			return doc, annotations, err
		}
	}
	c.logger.Infow("pipeline run complete", "stages", len(c.stages), "elapsed", time.Since(start))
	return doc, annotations, nil
}
