package sensor_test

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/rimage/transform"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/sensor/fake"
)

// advanceUntil moves the mock clock forward a second at a time until done yields.
func advanceUntil[T any](t *testing.T, mock *clock.Mock, done <-chan T) T {
	t.Helper()
	for i := 0; i < 1000; i++ {
		select {
		case v := <-done:
			return v
		case <-time.After(time.Millisecond):
			mock.Add(time.Second)
		}
	}
	t.Fatal("acquisition never returned")
	var zero T
	return zero
}

func TestAcquireColorTimeout(t *testing.T) {
	mock := clock.NewMock()
	s := fake.NewSensor(nil, logging.NewTestLogger(t))
	sctx := sensor.NewContext(s, 20*time.Second, mock, logging.NewTestLogger(t))
	test.That(t, sctx.Timeout(), test.ShouldEqual, 20*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := sctx.AcquireColor(context.Background())
		done <- err
	}()
	err := advanceUntil(t, mock, done)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, sensor.IsTimeout(err), test.ShouldBeTrue)

	var te *sensor.TimeoutError
	test.That(t, errors.As(err, &te), test.ShouldBeTrue)
	test.That(t, te.What, test.ShouldEqual, "color frame")
	test.That(t, te.Timeout, test.ShouldEqual, 20*time.Second)
	test.That(t, err.Error(), test.ShouldEqual, "timed out after 20s waiting for color frame")
}

func TestAcquireFedFrames(t *testing.T) {
	mock := clock.NewMock()
	s := fake.NewSensor(nil, nil)
	feed := s.FeedColor()
	sctx := sensor.NewContext(s, 0, mock, nil)
	test.That(t, sctx.Timeout(), test.ShouldEqual, sensor.DefaultAcquireTimeout)

	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	go func() { feed <- frame }()
	img, err := sctx.AcquireColor(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img, test.ShouldEqual, frame)
}

func TestAcquireRejectsIncompleteFrames(t *testing.T) {
	s := fake.NewSensor(nil, nil)
	s.SetColor(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	sctx := sensor.NewContext(s, time.Second, clock.NewMock(), nil)
	_, err := sctx.AcquireColor(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "incomplete color frame")
	test.That(t, sensor.IsTimeout(err), test.ShouldBeFalse)
}

// stuckSensor never returns a color frame and never looks at its context.
type stuckSensor struct {
	*fake.Sensor
	release chan struct{}
}

func (s *stuckSensor) ColorFrame(context.Context) (image.Image, error) {
	<-s.release
	return nil, errors.New("released")
}

func TestAcquireAbandonsStuckSensor(t *testing.T) {
	mock := clock.NewMock()
	s := &stuckSensor{Sensor: fake.NewSensor(nil, nil), release: make(chan struct{})}
	defer close(s.release)
	sctx := sensor.NewContext(s, 5*time.Second, mock, nil)

	done := make(chan error, 1)
	go func() {
		_, err := sctx.AcquireColor(context.Background())
		done <- err
	}()
	err := advanceUntil(t, mock, done)
	test.That(t, sensor.IsTimeout(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "color frame")
}

func TestAcquireCanceled(t *testing.T) {
	s := fake.NewSensor(nil, nil)
	sctx := sensor.NewContext(s, time.Hour, clock.NewMock(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sctx.AcquireDepth(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, sensor.IsTimeout(err), test.ShouldBeFalse)
}

func TestAcquireBody(t *testing.T) {
	s := fake.NewSensor(nil, nil)
	sctx := sensor.NewContext(s, time.Second, clock.NewMock(), nil)

	s.SetBodies(nil)
	_, ok, err := sctx.AcquireBody(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	hand := sensor.Joint{Type: sensor.HandRight, Position: r3.Vector{X: 0.1, Y: 0.2, Z: 1}}
	s.SetBodies([]sensor.Body{{TrackingID: 7, Joints: map[sensor.JointType]sensor.Joint{sensor.HandRight: hand}}})
	body, ok, err := sctx.AcquireBody(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, body.TrackingID, test.ShouldEqual, 7)
	j, ok := body.Joint(sensor.HandRight)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, j, test.ShouldResemble, hand)
	_, ok = body.Joint(sensor.HandTipRight)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestMapColorFrame(t *testing.T) {
	cam := transform.PinholeCameraIntrinsics{Width: 4, Height: 4, Fx: 4, Fy: 4, Ppx: 2, Ppy: 2}
	s := fake.NewSensor(nil, nil)
	sctx := sensor.NewContext(s, time.Second, clock.NewMock(), nil)

	dm := rimage.NewEmptyDepthMap(4, 4)
	dm.Set(2, 2, 1000)
	s.SetDepth(dm)
	_, err := sctx.MapColorFrame(context.Background(), true)
	test.That(t, err, test.ShouldNotBeNil)

	s.SetCoordinateMapper(&transform.DepthColorRegistration{ColorCamera: cam, DepthCamera: cam})
	pm, err := sctx.MapColorFrame(context.Background(), true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pm.At(2, 2), test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})

	pm, err = sctx.MapColorFrame(context.Background(), false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pm.At(2, 2), test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 1000})
}

func TestContextClose(t *testing.T) {
	s := fake.NewSensor(nil, nil)
	sctx := sensor.NewContext(s, time.Hour, clock.NewMock(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := sctx.AcquireBodies(context.Background())
		done <- err
	}()
	// let the acquisition block before closing underneath it
	time.Sleep(10 * time.Millisecond)
	test.That(t, sctx.Close(context.Background()), test.ShouldBeNil)
	err := <-done
	test.That(t, errors.Is(err, sensor.ErrClosed), test.ShouldBeTrue)

	_, err = sctx.AcquireColor(context.Background())
	test.That(t, errors.Is(err, sensor.ErrClosed), test.ShouldBeTrue)
	test.That(t, sctx.Close(context.Background()), test.ShouldBeNil)
}

func TestRegistry(t *testing.T) {
	_, err := sensor.New(context.Background(), "nope", nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot find sensor model")

	s, err := sensor.New(context.Background(), fake.Model, map[string]interface{}{
		"joints": map[string]interface{}{"HandRight": []interface{}{0.0, 0.1, 1.2}},
	}, nil)
	test.That(t, err, test.ShouldBeNil)
	bodies, err := s.Bodies(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(bodies), test.ShouldEqual, 1)
	test.That(t, bodies[0].Joints[sensor.HandRight].Position, test.ShouldResemble, r3.Vector{X: 0, Y: 0.1, Z: 1.2})

	test.That(t, func() { sensor.RegisterModel(fake.Model, nil) }, test.ShouldPanic)
}
