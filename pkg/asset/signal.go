package asset

import (
	"context"
	"sync"
)

// Waitable settles once, either resolved (Err is nil) or rejected.
type Waitable interface {
	// Done is closed when the waitable settles.
	Done() <-chan struct{}

	// Err is the rejection cause. It is meaningful only after Done.
	Err() error
}

// Signal is a Waitable settled by hand. The first Resolve or Reject wins;
// later calls report false.
type Signal struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewSignal returns an unsettled signal.
func NewSignal() *Signal { return &Signal{done: make(chan struct{})} }

// Resolve settles s successfully.
func (s *Signal) Resolve() bool { return s.settle(nil) }

// Reject settles s with err. A nil err is treated as Resolve.
func (s *Signal) Reject(err error) bool { return s.settle(err) }

func (s *Signal) settle(err error) bool {
	won := false
	s.once.Do(func() {
		s.err = err
		close(s.done)
		won = true
	})
	return won
}

func (s *Signal) Done() <-chan struct{} { return s.done }

func (s *Signal) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Settled reports whether s has been resolved or rejected.
func (s *Signal) Settled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Resolved returns an already resolved waitable.
func Resolved() Waitable {
	s := NewSignal()
	s.Resolve()
	return s
}

// Rejected returns an already rejected waitable.
func Rejected(err error) Waitable {
	s := NewSignal()
	s.Reject(err)
	return s
}

// Wait blocks until w settles or ctx is done.
func Wait(ctx context.Context, w Waitable) error {
	select {
	case <-w.Done():
		return w.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
