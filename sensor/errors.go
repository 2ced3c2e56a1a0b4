package sensor

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// TimeoutError is returned when required data did not arrive from the sensor in time.
type TimeoutError struct {
	What    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v waiting for %s", e.Timeout, e.What)
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// ErrClosed is returned when acquiring through a closed Context.
var ErrClosed = errors.New("sensor context is closed")
