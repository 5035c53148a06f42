package build

import (
	"sync/atomic"
	"time"
)

// WithTimeout watches c and aborts, with ErrTimeout, any build still
// running d after it started. The controller itself has no timeout. The
// returned function stops the watch.
func WithTimeout(c *Controller, d time.Duration) (stop func()) {
	var stopped atomic.Bool
	c.onStart(func(gen uint64) {
		if d <= 0 || stopped.Load() {
			return
		}
		time.AfterFunc(d, func() {
			if !stopped.Load() {
				c.abort(gen, ErrTimeout)
			}
		})
	})
	return func() { stopped.Store(true) }
}
