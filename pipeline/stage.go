package pipeline

import (
	"context"
)

// A Stage is one step of the pipeline.
type Stage interface {
	// Name is the route name of the stage.
	Name() string
	Process(ctx context.Context, doc *Document) (*Annotation, error)
}
