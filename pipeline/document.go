// Package pipeline holds the stages of the block pointing pipeline. Every stage reads the
// annotations produced so far from a shared document and returns its own annotation.
package pipeline

import (
	"encoding/json"

	"github.com/pkg/errors"

	"go.viam.com/blockpointing/vision"
)

// Annotation type identifiers keying stage outputs.
const (
	DetectedBlockType = "edu.rosehulman.aixprize.pipeline.types.DetectedBlock"
	PointingType      = "edu.rosehulman.aixprize.pipeline.types.Pointing"
	FilteredBlockType = "edu.rosehulman.aixprize.pipeline.types.FilteredBlock"
)

// Short names the annotations are stored under inside a document view.
const (
	DetectedBlockView = "DetectedBlock"
	PointingView      = "Pointing"
	FilteredBlockView = "FilteredBlock"
)

var (
	// ErrMissingAnnotation is returned when a stage needs an annotation the document lacks.
	ErrMissingAnnotation = errors.New("missing annotation")
	// ErrMalformedDocument is returned when a request body is not a valid document.
	ErrMalformedDocument = errors.New("malformed document")
)

// Document is the request handed to every stage: the annotations of its initial view, by
// short name.
type Document struct {
	View map[string]json.RawMessage
}

type documentJSON struct {
	Views *struct {
		InitialView map[string]json.RawMessage `json:"_InitialView"`
	} `json:"_views"`
}

// NewDocument returns a document with an empty view.
func NewDocument() *Document {
	return &Document{View: map[string]json.RawMessage{}}
}

// ParseDocument decodes {"_views": {"_InitialView": {...}}}.
func ParseDocument(data []byte) (*Document, error) {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, err.Error())
	}
	if raw.Views == nil {
		return nil, errors.Wrap(ErrMalformedDocument, "no _views")
	}
	if raw.Views.InitialView == nil {
		return nil, errors.Wrap(ErrMalformedDocument, "no _InitialView")
	}
	return &Document{View: raw.Views.InitialView}, nil
}

// MarshalJSON encodes the document in the same shape ParseDocument reads.
func (d *Document) MarshalJSON() ([]byte, error) {
	view := d.View
	if view == nil {
		view = map[string]json.RawMessage{}
	}
	return json.Marshal(map[string]interface{}{
		"_views": map[string]interface{}{"_InitialView": view},
	})
}

// Annotation decodes the named annotation into out.
func (d *Document) Annotation(name string, out interface{}) error {
	raw, ok := d.View[name]
	if !ok {
		return errors.Wrapf(ErrMissingAnnotation, "%q", name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(ErrMalformedDocument, "annotation %q: %v", name, err)
	}
	return nil
}

// SetAnnotation stores v under name, replacing any previous value.
func (d *Document) SetAnnotation(name string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "cannot encode annotation %q", name)
	}
	if d.View == nil {
		d.View = map[string]json.RawMessage{}
	}
	d.View[name] = raw
	return nil
}

// Annotation is the output of one stage.
type Annotation struct {
	// View is the short name the records are folded into a document under.
	View string
	// Type is the identifier the records are keyed by in a response. An annotation without a
	// type marshals as its bare records.
	Type    string
	Records interface{}
}

// MarshalJSON encodes {Type: Records}.
func (a *Annotation) MarshalJSON() ([]byte, error) {
	if a.Type == "" {
		return json.Marshal(a.Records)
	}
	return json.Marshal(map[string]interface{}{a.Type: a.Records})
}

// detectedBlocks decodes the DetectedBlock annotation of doc.
func detectedBlocks(doc *Document) ([]vision.BlockRecord, error) {
	var records []vision.BlockRecord
	if err := doc.Annotation(DetectedBlockView, &records); err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(ErrMalformedDocument, "annotation %q record %d: %v", DetectedBlockView, i, err)
		}
	}
	return records, nil
}

// pointingConfidences decodes the Pointing annotation of doc.
func pointingConfidences(doc *Document) ([]vision.ConfidenceRecord, error) {
	var records []vision.ConfidenceRecord
	if err := doc.Annotation(PointingView, &records); err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(ErrMalformedDocument, "annotation %q record %d: %v", PointingView, i, err)
		}
	}
	return records, nil
}
