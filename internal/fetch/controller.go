// Package fetch loads the doctor's patient list with a bounded, fixed-delay
// retry and exposes the load state to the caller.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/clinicbill/internal/model"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2000 * time.Millisecond

	FailedMessage = "Unable to load patients. Check your connection and press Retry."
)

var (
	ErrAlreadyStarted = errors.New("automatic fetch already started")
	ErrNotFailed      = errors.New("manual retry is only allowed after the fetch has failed")
)

// State is the load state of the patient list.
type State int

const (
	Idle State = iota
	Loading
	Success
	Error
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source fetches the raw patient list for a doctor.
type Source interface {
	FetchDoctorPatients(ctx context.Context, doctorID string) ([]model.RawPatient, error)
}

// Status is a consistent snapshot of the controller.
type Status struct {
	State      State
	RetryCount int
	Message    string
	Err        error
}

type Option func(*Controller)

func WithMaxRetries(n int) Option {
	return func(c *Controller) { c.maxRetries = n }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithWait replaces the delay implementation; tests use it to skip sleeping.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.wait = wait }
}

// Controller drives Idle → Loading → {Success, Error}. An Error with
// retries left waits a fixed delay and loads again; once the retry budget is
// spent the controller parks in Failed until Retry is called.
type Controller struct {
	src        Source
	doctorID   string
	onSuccess  func([]model.RawPatient)
	log        zerolog.Logger
	maxRetries int
	delay      time.Duration
	wait       func(ctx context.Context, d time.Duration) error

	started atomic.Bool

	mu         sync.Mutex
	state      State
	retryCount int
	lastErr    error
}

// New creates a controller. onSuccess receives the fetched list and may be
// nil; it is never called after ctx has been cancelled.
func New(src Source, doctorID string, onSuccess func([]model.RawPatient), log zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		src:        src,
		doctorID:   doctorID,
		onSuccess:  onSuccess,
		log:        log,
		maxRetries: DefaultMaxRetries,
		delay:      DefaultRetryDelay,
		wait:       sleep,
	}
	if c.onSuccess == nil {
		c.onSuccess = func([]model.RawPatient) {}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start runs the automatic fetch. It runs at most once per controller;
// later calls return ErrAlreadyStarted without touching the network.
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	c.mu.Lock()
	c.state = Loading
	c.mu.Unlock()
	return c.run(ctx)
}

// Retry is the manual retry action offered in the Failed state. It resets
// the retry budget and loads again.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Failed {
		c.mu.Unlock()
		return ErrNotFailed
	}
	c.retryCount = 0
	c.state = Loading
	c.mu.Unlock()

	c.log.Info().Msg("manual retry requested")
	return c.run(ctx)
}

// Status returns the current state snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state, RetryCount: c.retryCount, Err: c.lastErr}
	switch c.state {
	case Failed:
		st.Message = FailedMessage
	case Error:
		st.Message = fmt.Sprintf("Loading failed, retrying (%d/%d)", c.retryCount, c.maxRetries)
	}
	return st
}

func (c *Controller) run(ctx context.Context) error {
	for {
		c.mu.Lock()
		c.state = Loading
		c.mu.Unlock()

		patients, err := c.src.FetchDoctorPatients(ctx, c.doctorID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.finish(Error, ctxErr)
			return ctxErr
		}
		if err == nil {
			c.finish(Success, nil)
			c.onSuccess(patients)
			return nil
		}

		c.mu.Lock()
		c.lastErr = err
		retry := c.retryCount < c.maxRetries
		if retry {
			c.retryCount++
			c.state = Error
		} else {
			c.state = Failed
		}
		attempt := c.retryCount
		c.mu.Unlock()

		if !retry {
			c.log.Error().Err(err).Int("retries", attempt).Msg("patient fetch failed, giving up")
			return fmt.Errorf("fetch patients after %d retries: %w", attempt, err)
		}

		c.log.Warn().
			Err(err).
			Int("retry", attempt).
			Int("max_retries", c.maxRetries).
			Dur("delay", c.delay).
			Msg("patient fetch failed, retrying")

		if werr := c.wait(ctx, c.delay); werr != nil {
			c.finish(Error, werr)
			return werr
		}
	}
}

func (c *Controller) finish(s State, err error) {
	c.mu.Lock()
	c.state = s
	c.lastErr = err
	c.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
