// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package waiter drives asynchronous cloud provisioning steps to a terminal
// state. A step is either polled until it reports READY or retried a fixed
// number of times until it succeeds.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned by Poll when the elapsed bound of the policy is exceeded.
	ErrTimeout = errors.New("provisioning did not complete in time")

	// ErrRetryExhausted is returned by Retry when every attempt failed.
	ErrRetryExhausted = errors.New("provisioning retries exhausted")

	ErrNilFunc = errors.New("no poll or attempt function provided")
)

// State is the state of a provisioned resource.
type State int

const (
	Absent State = iota
	Pending
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Status is what a single poll observed.
type Status struct {
	// Done is true once the resource stopped processing.
	Done bool

	// Detail is a short human readable description of the observation.
	Detail string
}

// Policy describes how long and how often to poll or retry.
type Policy struct {
	// Interval is the pause between two polls or attempts.
	Interval time.Duration

	// MaxElapsed bounds the total time spent waiting while polling.
	// Zero means unbounded.
	MaxElapsed time.Duration

	// MaxAttempts bounds the number of attempts made by Retry.
	// (Optional). Defaults to 1.
	MaxAttempts int
}

// PollFunc observes a resource once. An error means the observation failed
// and the resource is still considered pending.
type PollFunc func(context.Context) (Status, error)

// AttemptFunc tries to perform a step once.
type AttemptFunc func(ctx context.Context, attempt int) error

// Observer is notified after every poll or attempt. It is useful for
// narrating progress.
type Observer func(state State, attempt int, status Status, err error)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Waiter runs polling and retry loops.
type Waiter struct {
	// Sleep is used between polls and attempts.
	// (Optional). Defaults to a timer based sleep.
	Sleep Sleeper

	// Observe is called after every poll or attempt.
	// (Optional).
	Observe Observer
}

// Poll runs the poll loop: the resource starts PENDING and moves to READY
// once fn reports Done. Poll errors keep the resource PENDING. Once the
// accumulated wait exceeds the policy's MaxElapsed the resource is FAILED and
// ErrTimeout is returned.
func (w Waiter) Poll(ctx context.Context, p Policy, fn PollFunc) (State, error) {
	if fn == nil {
		return Failed, ErrNilFunc
	}
	var waited time.Duration
	for attempt := 1; ; attempt++ {
		status, err := fn(ctx)
		if err == nil && status.Done {
			w.observe(Ready, attempt, status, nil)
			return Ready, nil
		}
		w.observe(Pending, attempt, status, err)

		if p.MaxElapsed > 0 && waited+p.Interval > p.MaxElapsed {
			w.observe(Failed, attempt, status, ErrTimeout)
			return Failed, fmt.Errorf("%w: waited %s", ErrTimeout, waited)
		}
		if err := w.sleep(ctx, p.Interval); err != nil {
			return Failed, err
		}
		waited += p.Interval
	}
}

// Retry calls fn until it succeeds or the policy's MaxAttempts is reached,
// sleeping Interval between attempts. An error wrapped with Stop ends the
// loop at once and is returned unwrapped.
func (w Waiter) Retry(ctx context.Context, p Policy, fn AttemptFunc) error {
	if fn == nil {
		return ErrNilFunc
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			w.observe(Ready, attempt, Status{Done: true}, nil)
			return nil
		}
		var stop stopError
		if errors.As(err, &stop) {
			w.observe(Failed, attempt, Status{}, stop.err)
			return stop.err
		}
		if attempt == maxAttempts {
			break
		}
		w.observe(Pending, attempt, Status{}, err)
		if serr := w.sleep(ctx, p.Interval); serr != nil {
			return serr
		}
	}
	w.observe(Failed, maxAttempts, Status{}, err)
	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, maxAttempts, err)
}

// Stop marks err as permanent so that Retry gives up without further attempts.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return stopError{err: err}
}

type stopError struct {
	err error
}

func (s stopError) Error() string { return s.err.Error() }

func (s stopError) Unwrap() error { return s.err }

func (w Waiter) observe(state State, attempt int, status Status, err error) {
	if w.Observe != nil {
		w.Observe(state, attempt, status, err)
	}
}

func (w Waiter) sleep(ctx context.Context, d time.Duration) error {
	if w.Sleep != nil {
		return w.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d, returning early with the context's error if ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
