// Package fake implements a sensor fed from image files, static values or channels. It stands in
// for a real RGB-D body tracker in tests and offline runs.
package fake

import (
	"context"
	"image"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/rimage/transform"
	"go.viam.com/blockpointing/sensor"
)

// Model is the registered name of the fake sensor.
const Model = "fake"

func init() {
	sensor.RegisterModel(Model, func(
		ctx context.Context,
		attributes map[string]interface{},
		logger logging.Logger,
	) (sensor.Sensor, error) {
		cfg, err := DecodeConfig(attributes)
		if err != nil {
			return nil, err
		}
		return NewSensorFromConfig(cfg, logger)
	})
}

// Config describes a fake sensor. Frames are read once at construction.
type Config struct {
	ColorImagePath string                            `json:"color_image"`
	DepthImagePath string                            `json:"depth_image"`
	Registration   *transform.DepthColorRegistration `json:"registration"`
	Joints         map[string][]float64              `json:"joints"`
}

// DecodeConfig reads a Config out of free-form attributes.
func DecodeConfig(attributes map[string]interface{}) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "invalid fake sensor attributes")
	}
	return cfg, nil
}

// Sensor serves fixed frames, or frames pushed through its feed channels once those are opened.
// A source with neither blocks until the caller gives up, like a sensor that never connects.
type Sensor struct {
	mu     sync.Mutex
	color  image.Image
	depth  *rimage.DepthMap
	bodies []sensor.Body
	mapper sensor.CoordinateMapper

	colorFeed chan image.Image
	depthFeed chan *rimage.DepthMap
	bodyFeed  chan []sensor.Body

	closed chan struct{}
	once   sync.Once
	logger logging.Logger
}

// NewSensor returns a fake sensor with no frames. The mapper may be nil when no depth is needed.
func NewSensor(mapper sensor.CoordinateMapper, logger logging.Logger) *Sensor {
	return &Sensor{mapper: mapper, closed: make(chan struct{}), logger: logger}
}

// NewSensorFromConfig builds a fake sensor serving the configured frames.
func NewSensorFromConfig(cfg *Config, logger logging.Logger) (*Sensor, error) {
	s := NewSensor(nil, logger)
	if cfg.ColorImagePath != "" {
		img, err := rimage.ReadImageFromFile(cfg.ColorImagePath)
		if err != nil {
			return nil, err
		}
		s.SetColor(img)
	}
	if cfg.DepthImagePath != "" {
		dm, err := rimage.ReadDepthMapFromFile(cfg.DepthImagePath)
		if err != nil {
			return nil, err
		}
		s.SetDepth(dm)
	}
	if len(cfg.Joints) > 0 {
		body, err := bodyFromJoints(cfg.Joints)
		if err != nil {
			return nil, err
		}
		s.SetBodies([]sensor.Body{body})
	}

	reg := cfg.Registration
	if reg == nil && s.color != nil && s.depth != nil {
		reg = DefaultRegistration(s.color.Bounds().Size(), s.depth.Bounds().Size())
	}
	if reg != nil {
		if err := reg.CheckValid(); err != nil {
			return nil, err
		}
		s.mapper = reg
	}
	return s, nil
}

// DefaultRegistration returns a registration for two co-located cameras with the same field of
// view, sized to the given frames.
func DefaultRegistration(colorSize, depthSize image.Point) *transform.DepthColorRegistration {
	camera := func(size image.Point) transform.PinholeCameraIntrinsics {
		f := float64(size.X)
		return transform.PinholeCameraIntrinsics{
			Width: size.X, Height: size.Y,
			Fx: f, Fy: f,
			Ppx: float64(size.X) / 2, Ppy: float64(size.Y) / 2,
		}
	}
	return &transform.DepthColorRegistration{
		ColorCamera: camera(colorSize),
		DepthCamera: camera(depthSize),
		Extrinsics:  transform.IdentityExtrinsics(),
	}
}

func bodyFromJoints(joints map[string][]float64) (sensor.Body, error) {
	body := sensor.Body{TrackingID: 1, Joints: map[sensor.JointType]sensor.Joint{}}
	for name, pos := range joints {
		if len(pos) != 3 {
			return sensor.Body{}, errors.Errorf("joint %q needs 3 coordinates, got %d", name, len(pos))
		}
		jt := sensor.JointType(name)
		body.Joints[jt] = sensor.Joint{Type: jt, Position: r3.Vector{X: pos[0], Y: pos[1], Z: pos[2]}}
	}
	return body, nil
}

// SetColor sets the frame returned by every ColorFrame call.
func (s *Sensor) SetColor(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = img
}

// SetDepth sets the frame returned by every DepthFrame call.
func (s *Sensor) SetDepth(dm *rimage.DepthMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth = dm
}

// SetBodies sets the bodies returned by every Bodies call. An empty slice reports that nobody
// is tracked.
func (s *Sensor) SetBodies(bodies []sensor.Body) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bodies == nil {
		bodies = []sensor.Body{}
	}
	s.bodies = bodies
}

// SetCoordinateMapper replaces the mapper.
func (s *Sensor) SetCoordinateMapper(mapper sensor.CoordinateMapper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapper = mapper
}

// FeedColor switches color frames to be delivered one at a time through the returned channel.
func (s *Sensor) FeedColor() chan<- image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colorFeed = make(chan image.Image)
	return s.colorFeed
}

// FeedDepth switches depth frames to be delivered one at a time through the returned channel.
func (s *Sensor) FeedDepth() chan<- *rimage.DepthMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depthFeed = make(chan *rimage.DepthMap)
	return s.depthFeed
}

// FeedBodies switches body frames to be delivered one at a time through the returned channel.
func (s *Sensor) FeedBodies() chan<- []sensor.Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodyFeed = make(chan []sensor.Body)
	return s.bodyFeed
}

// ColorFrame returns the next color frame.
func (s *Sensor) ColorFrame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	static, feed := s.color, s.colorFeed
	s.mu.Unlock()
	return next(ctx, s, static, feed, static != nil)
}

// DepthFrame returns the next depth frame.
func (s *Sensor) DepthFrame(ctx context.Context) (*rimage.DepthMap, error) {
	s.mu.Lock()
	static, feed := s.depth, s.depthFeed
	s.mu.Unlock()
	return next(ctx, s, static, feed, static != nil)
}

// Bodies returns the next body frame.
func (s *Sensor) Bodies(ctx context.Context) ([]sensor.Body, error) {
	s.mu.Lock()
	static, feed := s.bodies, s.bodyFeed
	s.mu.Unlock()
	return next(ctx, s, static, feed, static != nil)
}

func next[T any](ctx context.Context, s *Sensor, static T, feed chan T, haveStatic bool) (T, error) {
	var zero T
	if feed == nil && haveStatic {
		return static, nil
	}
	// receiving from a nil feed blocks forever, leaving only cancellation and close
	select {
	case v := <-feed:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.closed:
		return zero, sensor.ErrClosed
	}
}

// CoordinateMapper returns the configured mapper.
func (s *Sensor) CoordinateMapper() sensor.CoordinateMapper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapper
}

// Close unblocks every pending frame request.
func (s *Sensor) Close(ctx context.Context) error {
	s.once.Do(func() {
		close(s.closed)
		if s.logger != nil {
			s.logger.Debug("fake sensor closed")
		}
	})
	return nil
}
