package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"go.opencensus.io/trace"
	xdraw "golang.org/x/image/draw"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/vision"
)

const (
	// SelectionRadius is the radius of the disc marking the selected block in debug frames.
	SelectionRadius = 20
	debugFrameWidth  = 640
	debugFrameHeight = 480
)

// OutputStage turns the pointing confidences of a document into the final selection.
type OutputStage struct {
	sensors  *sensor.Context
	debugDir string
	logger   logging.Logger
}

// NewOutputStage returns an output stage. When debugDir is not empty every selection is also
// rendered onto a fresh color frame written there; sensors may be nil otherwise.
func NewOutputStage(sensors *sensor.Context, debugDir string, logger logging.Logger) *OutputStage {
	return &OutputStage{sensors: sensors, debugDir: debugDir, logger: logger}
}

// Name returns the route name of the stage.
func (s *OutputStage) Name() string {
	return "Output"
}

// SelectBlock returns the id with the highest confidence, the first one on ties, or -1 when no
// confidence is above -1.
func SelectBlock(confidences []vision.ConfidenceRecord) int {
	bestID, best := -1, -1.0
	for _, c := range confidences {
		if c.Confidence > best {
			best = c.Confidence
			bestID = c.BlockID()
		}
	}
	return bestID
}

// Process reads the Pointing annotation and flags the selected block.
func (s *OutputStage) Process(ctx context.Context, doc *Document) (*Annotation, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline::OutputStage::Process")
	defer span.End()

	confidences, err := pointingConfidences(doc)
	if err != nil {
		return nil, err
	}
	selected := SelectBlock(confidences)
	records := make([]vision.SelectionRecord, 0, len(confidences))
	for _, c := range confidences {
		rec := vision.SelectionRecord{ID: c.ID}
		if c.BlockID() == selected {
			rec.IsSelectedBlock = 1
		}
		records = append(records, rec)
	}
	s.logger.Infow("selected block", "id", selected, "candidates", len(confidences))

	if s.debugDir != "" && selected >= 0 {
		if err := s.renderSelection(ctx, doc, selected); err != nil {
			s.logger.Warnw("cannot render selection", "error", err)
		}
	}
	return &Annotation{View: FilteredBlockView, Type: FilteredBlockType, Records: records}, nil
}

func (s *OutputStage) renderSelection(ctx context.Context, doc *Document, selected int) error {
	detected, err := detectedBlocks(doc)
	if err != nil {
		return err
	}
	var block *vision.Block
	for _, r := range detected {
		if r.BlockID() == selected {
			block = r.Block()
			break
		}
	}
	if block == nil {
		s.logger.Debugw("selected block is not among the detected blocks", "id", selected)
		return nil
	}
	img, err := s.sensors.AcquireColor(ctx)
	if err != nil {
		return err
	}
	marked := MarkSelection(img, block.PixelCenter)
	path := filepath.Join(s.debugDir, fmt.Sprintf("selection-%d.png", time.Now().UnixNano()))
	if err := rimage.WriteImageToFile(path, marked); err != nil {
		return err
	}
	s.logger.Debugw("wrote selection frame", "path", path, "block", block.String())
	return nil
}

// MarkSelection draws a black disc over center and scales the result to the debug frame size.
func MarkSelection(img image.Image, center image.Point) image.Image {
	marked := rimage.Overlay(img, func(dc *gg.Context) {
		rimage.DrawFilledCircle(dc, center, SelectionRadius, color.RGBA{A: 255})
	})
	dst := image.NewRGBA(image.Rect(0, 0, debugFrameWidth, debugFrameHeight))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), marked, marked.Bounds(), xdraw.Over, nil)
	return dst
}
