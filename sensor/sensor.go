// Package sensor defines the frame and body sources the pointing pipeline acquires from, and
// the explicitly owned Context an invocation uses to reach them.
package sensor

import (
	"context"
	"image"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/rimage/transform"
)

// JointType names a tracked skeletal joint.
type JointType string

// The joints used to infer a pointing direction.
const (
	HandRight    JointType = "HandRight"
	HandTipRight JointType = "HandTipRight"
	WristRight   JointType = "WristRight"
	HandLeft     JointType = "HandLeft"
	HandTipLeft  JointType = "HandTipLeft"
	WristLeft    JointType = "WristLeft"
)

// Joint is a tracked joint position in camera space, in meters.
type Joint struct {
	Type     JointType
	Position r3.Vector
}

// Body is one tracked skeleton.
type Body struct {
	TrackingID uint64
	Joints     map[JointType]Joint
}

// Joint returns the named joint, if tracked.
func (b Body) Joint(t JointType) (Joint, bool) {
	j, ok := b.Joints[t]
	return j, ok
}

// A ColorSource yields color frames. ColorFrame blocks until a frame is available or ctx is done.
type ColorSource interface {
	ColorFrame(ctx context.Context) (image.Image, error)
}

// A DepthSource yields raw depth frames at the depth sensor's resolution.
type DepthSource interface {
	DepthFrame(ctx context.Context) (*rimage.DepthMap, error)
}

// A BodySource yields the currently tracked bodies. An empty result means no body is tracked.
type BodySource interface {
	Bodies(ctx context.Context) ([]Body, error)
}

// A CoordinateMapper turns a depth frame into one value per color pixel. Unmapped pixels hold
// transform.InvalidPoint.
type CoordinateMapper interface {
	MapColorFrameToCameraSpace(dm *rimage.DepthMap) (*transform.PointMap, error)
	MapColorFrameToDepthSpace(dm *rimage.DepthMap) (*transform.PointMap, error)
}

// A Sensor bundles every collaborator of an RGB-D body tracking device. Frame and body reads
// should return once their context is done. A Context stops waiting on one that does not.
type Sensor interface {
	ColorSource
	DepthSource
	BodySource
	CoordinateMapper() CoordinateMapper
	Close(ctx context.Context) error
}

// Constructor builds a sensor from free-form attributes.
type Constructor func(ctx context.Context, attributes map[string]interface{}, logger logging.Logger) (Sensor, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// RegisterModel makes a sensor model available to New. It panics on duplicate names.
func RegisterModel(model string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[model]; ok {
		panic(errors.Errorf("sensor model %q already registered", model))
	}
	registry[model] = constructor
}

// New constructs a sensor of a registered model.
func New(ctx context.Context, model string, attributes map[string]interface{}, logger logging.Logger) (Sensor, error) {
	registryMu.RLock()
	constructor, ok := registry[model]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("cannot find sensor model %q in registry", model)
	}
	return constructor(ctx, attributes, logger)
}
