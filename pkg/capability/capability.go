// Package capability abstracts the optional on-device language model.
//
// The orchestrator only sees Provider: it asks for availability, starts a
// session (which may download the model first) and sends one prompt.
package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Availability is the readiness of a provider.
type Availability int

const (
	Unsupported  Availability = iota // no capability configured on this host
	Unavailable                      // configured but not reachable or not ready
	Downloadable                     // reachable, model must be fetched first
	Available                        // ready to prompt
)

func (a Availability) String() string {
	switch a {
	case Unavailable:
		return "unavailable"
	case Downloadable:
		return "downloadable"
	case Available:
		return "available"
	default:
		return "unsupported"
	}
}

// Usable reports whether a session may be created.
func (a Availability) Usable() bool {
	return a == Available || a == Downloadable
}

// ErrUnavailable is returned when a session is requested from a provider that
// cannot serve one.
var ErrUnavailable = errors.New("capability unavailable")

// CapabilityError wraps a failure inside the provider after it reported itself usable.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s failed: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// Session answers prompts.
type Session interface {
	Prompt(ctx context.Context, text string) (string, error)
}

// Provider is the narrow interface the orchestrator depends on.
type Provider interface {
	Name() string
	Availability(ctx context.Context) Availability
	Create(ctx context.Context) *Creation
}

// Progress is one model download event.
type Progress struct {
	Status string
	Loaded int64
	Total  int64
}

// Fraction is Loaded/Total, or 0 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Loaded) / float64(p.Total)
}

// progressBuffer bounds undelivered progress events; extra events are dropped.
const progressBuffer = 16

// Creation is an in-flight session creation. Progress events are best effort
// and separate from the result returned by Wait.
type Creation struct {
	progress chan Progress
	done     chan struct{}
	once     sync.Once

	session Session
	err     error
}

// StartCreation runs create in its own goroutine. create may call report any
// number of times; report never blocks.
func StartCreation(create func(report func(Progress)) (Session, error)) *Creation {
	c := &Creation{
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
	}
	go func() {
		var (
			s   Session
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				err = &CapabilityError{Op: "create", Err: fmt.Errorf("panic: %v", r)}
				s = nil
			}
			c.finish(s, err)
		}()
		s, err = create(c.report)
	}()
	return c
}

// Failed returns a Creation that has already finished with err.
func Failed(err error) *Creation {
	c := &Creation{
		progress: make(chan Progress),
		done:     make(chan struct{}),
	}
	c.finish(nil, err)
	return c
}

func (c *Creation) report(p Progress) {
	select {
	case c.progress <- p:
	default:
	}
}

func (c *Creation) finish(s Session, err error) {
	c.once.Do(func() {
		if s == nil && err == nil {
			err = &CapabilityError{Op: "create", Err: errors.New("no session")}
		}
		c.session, c.err = s, err
		close(c.progress)
		close(c.done)
	})
}

// Progress streams download events. It is closed once creation finishes.
func (c *Creation) Progress() <-chan Progress {
	return c.progress
}

// Wait blocks until creation finishes.
func (c *Creation) Wait() (Session, error) {
	<-c.done
	return c.session, c.err
}

// Disabled is a provider for hosts without any capability.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Availability(context.Context) Availability { return Unsupported }

func (Disabled) Create(context.Context) *Creation { return Failed(ErrUnavailable) }
