package sensor

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/rimage/transform"
)

// DefaultAcquireTimeout bounds every acquisition unless configured otherwise.
const DefaultAcquireTimeout = 20 * time.Second

// A Context owns a sensor for the lifetime of the pipeline invocations it is passed into.
// Nothing about the sensor is cached anywhere else.
type Context struct {
	sensor  Sensor
	timeout time.Duration
	clock   clock.Clock
	logger  logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewContext wraps a sensor. A non-positive timeout uses DefaultAcquireTimeout and a nil clock
// uses the wall clock.
func NewContext(s Sensor, timeout time.Duration, clk clock.Clock, logger logging.Logger) *Context {
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Context{sensor: s, timeout: timeout, clock: clk, logger: logger}
}

// Timeout returns the bound applied to each acquisition.
func (c *Context) Timeout() time.Duration {
	return c.timeout
}

// CoordinateMapper returns the mapper of the owned sensor.
func (c *Context) CoordinateMapper() CoordinateMapper {
	return c.sensor.CoordinateMapper()
}

// AcquireColor waits for a complete color frame.
func (c *Context) AcquireColor(ctx context.Context) (image.Image, error) {
	return acquire(ctx, c, "color frame", c.sensor.ColorFrame, func(img image.Image) bool {
		return img != nil && !img.Bounds().Empty()
	})
}

// AcquireDepth waits for a complete depth frame.
func (c *Context) AcquireDepth(ctx context.Context) (*rimage.DepthMap, error) {
	return acquire(ctx, c, "depth frame", c.sensor.DepthFrame, func(dm *rimage.DepthMap) bool {
		return dm != nil && dm.Width() > 0 && dm.Height() > 0
	})
}

// AcquireBodies waits for a body frame. An empty slice means no body is tracked.
func (c *Context) AcquireBodies(ctx context.Context) ([]Body, error) {
	return acquire(ctx, c, "body frame", c.sensor.Bodies, func([]Body) bool { return true })
}

// AcquireBody waits for a body frame and returns its first tracked body, reporting false
// when nobody is tracked.
func (c *Context) AcquireBody(ctx context.Context) (Body, bool, error) {
	bodies, err := c.AcquireBodies(ctx)
	if err != nil || len(bodies) == 0 {
		return Body{}, false, err
	}
	return bodies[0], true, nil
}

// MapColorFrame acquires a depth frame and maps it onto the color raster in the given space.
func (c *Context) MapColorFrame(ctx context.Context, cameraSpace bool) (*transform.PointMap, error) {
	dm, err := c.AcquireDepth(ctx)
	if err != nil {
		return nil, err
	}
	mapper := c.sensor.CoordinateMapper()
	if mapper == nil {
		return nil, errors.New("sensor has no coordinate mapper")
	}
	if cameraSpace {
		return mapper.MapColorFrameToCameraSpace(dm)
	}
	return mapper.MapColorFrameToDepthSpace(dm)
}

// Close closes the owned sensor. Acquisitions after Close fail with ErrClosed.
func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.sensor.Close(ctx)
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// acquire calls get under the acquisition timeout. A nil or empty result never reaches the
// caller, and a get still running when the timeout fires is abandoned.
func acquire[T any](
	ctx context.Context,
	c *Context,
	what string,
	get func(context.Context) (T, error),
	complete func(T) bool,
) (T, error) {
	var zero T
	if c.isClosed() {
		return zero, ErrClosed
	}
	timeoutCtx, cancel := c.clock.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	start := c.clock.Now()
	// buffered so a get that ignores its context can still finish after we give up on it
	done := make(chan result, 1)
	go func() {
		v, err := get(timeoutCtx)
		done <- result{v, err}
	}()
	var v T
	var err error
	select {
	case res := <-done:
		v, err = res.v, res.err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return zero, errors.Wrapf(ctx.Err(), "acquiring %s", what)
		}
		return zero, &TimeoutError{What: what, Timeout: c.timeout}
	}
	switch {
	case err == nil && complete(v):
		if c.logger != nil {
			c.logger.Debugw("acquired", "what", what, "waited", c.clock.Since(start))
		}
		return v, nil
	case ctx.Err() != nil:
		return zero, errors.Wrapf(ctx.Err(), "acquiring %s", what)
	case timeoutCtx.Err() != nil:
		return zero, &TimeoutError{What: what, Timeout: c.timeout}
	case err != nil:
		return zero, errors.Wrapf(err, "acquiring %s", what)
	default:
		return zero, errors.Errorf("sensor returned an incomplete %s", what)
	}
}
