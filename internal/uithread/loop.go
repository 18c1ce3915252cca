// Package uithread runs the single thread that owns every window
// operation. X event callbacks and posted tasks never run concurrently.
package uithread

import (
	"errors"
	"sync"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// ErrStopped is returned by Do once the loop has stopped.
var ErrStopped = errors.New("ui thread stopped")

// Loop interleaves the X event loop with tasks posted from other
// goroutines. Without an X connection it only runs tasks.
type Loop struct {
	xu    *xgbutil.XUtil
	tasks chan func()

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New returns a loop bound to xu, which may be nil.
func New(xu *xgbutil.XUtil) *Loop {
	return &Loop{
		xu:    xu,
		tasks: make(chan func()),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run processes X events and tasks until Stop is called or the X event loop
// quits. It must be called exactly once.
func (l *Loop) Run() {
	defer close(l.done)

	if l.xu == nil {
		for {
			select {
			case fn := <-l.tasks:
				fn()
			case <-l.stop:
				return
			}
		}
	}

	before, after, quit := xevent.MainPing(l.xu)
	for {
		select {
		case <-before:
			// X callbacks run until after fires.
			<-after
		case fn := <-l.tasks:
			fn()
		case <-quit:
			return
		case <-l.stop:
			xevent.Quit(l.xu)
			return
		}
	}
}

// Do runs fn on the loop and waits for its result. It must not be called
// from the loop itself.
func (l *Loop) Do(fn func() error) error {
	result := make(chan error, 1)
	task := func() { result <- fn() }

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		// The task may have run right before shutdown.
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	}
}

// Post schedules fn without waiting. It reports false if the loop has
// stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	go func() {
		select {
		case l.tasks <- fn:
		case <-l.done:
		}
	}()
	return true
}

// Stop ends Run. It is safe to call more than once and from any goroutine,
// including the loop itself.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
