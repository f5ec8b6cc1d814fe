package clock

import (
	"time"

	"livefeed/internal/application/port"
)

// System is the wall clock. Callbacks run on their own goroutine.
type System struct{}

func New() port.Clock { return System{} }

func (System) Now() time.Time { return time.Now() }

func (System) AfterFunc(d time.Duration, f func()) port.Timer {
	return time.AfterFunc(d, f)
}
