// Package runner executes planned tool calls with bounded concurrency and a
// per-call timeout. A failing call never aborts its siblings; every call
// produces a Result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrency is the number of calls in flight at once.
	DefaultConcurrency = 4
	// DefaultTimeout bounds a single call.
	DefaultTimeout = 30 * time.Second
)

// Call is one planned tool invocation.
type Call struct {
	Server string         `json:"server"`
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
}

func (c Call) String() string { return c.Server + "/" + c.Tool }

// Result is the outcome of one call.
type Result struct {
	Call    Call          `json:"call"`
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Payload any           `json:"-"`
}

// Batch holds results in plan order plus the failure count.
type Batch struct {
	Results  []Result `json:"results"`
	Failures int      `json:"failures"`
}

// TimeoutError is returned for a call that did not settle within the
// runner's timeout.
type TimeoutError struct {
	Call    Call
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Call, e.Timeout)
}

// InvokeFunc performs a call and returns its decoded payload.
type InvokeFunc func(ctx context.Context, server, tool string, args map[string]any) (any, error)

// Observer receives one notification per finished call.
type Observer interface {
	ObserveCall(server, tool string, ok bool, elapsed time.Duration)
}

// Runner drains a call queue with at most Concurrency calls in flight.
type Runner struct {
	Concurrency int
	Timeout     time.Duration
	Logger      *zap.Logger
	Observer    Observer
}

// New returns a runner with the given limits. Non-positive values fall back
// to the defaults.
func New(concurrency int, timeout time.Duration, logger *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Concurrency: concurrency, Timeout: timeout, Logger: logger}
}

// Run executes every call and returns once the queue is empty and nothing
// is in flight. Results keep the order of calls.
func (r *Runner) Run(ctx context.Context, calls []Call, invoke InvokeFunc) Batch {
	results := make([]Result, len(calls))

	g := new(errgroup.Group)
	g.SetLimit(r.limit())
	for i, c := range calls {
		g.Go(func() error {
			results[i] = r.one(ctx, c, invoke)
			return nil
		})
	}
	_ = g.Wait()

	b := Batch{Results: results}
	for _, res := range results {
		if !res.OK {
			b.Failures++
		}
	}
	return b
}

func (r *Runner) limit() int {
	if r.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return r.Concurrency
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

type outcome struct {
	payload any
	err     error
}

// one races the call against its timer. A call that ignores cancellation
// is abandoned; its late result is dropped.
func (r *Runner) one(ctx context.Context, c Call, invoke InvokeFunc) Result {
	start := time.Now()
	timeout := r.timeout()
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("%s panicked: %v", c, p)}
			}
		}()
		payload, err := invoke(cctx, c.Server, c.Tool, c.Args)
		done <- outcome{payload: payload, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
		if out.err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			out.err = &TimeoutError{Call: c, Timeout: timeout}
		}
	case <-cctx.Done():
		if ctx.Err() != nil {
			out.err = ctx.Err()
		} else {
			out.err = &TimeoutError{Call: c, Timeout: timeout}
		}
	}

	res := Result{Call: c, OK: out.err == nil, Payload: out.payload, Elapsed: time.Since(start)}
	if out.err != nil {
		res.Error = out.err.Error()
		res.Payload = nil
		r.logger().Warn("tool call failed",
			zap.String("server", c.Server),
			zap.String("tool", c.Tool),
			zap.Duration("elapsed", res.Elapsed),
			zap.Error(out.err),
		)
	} else {
		r.logger().Debug("tool call",
			zap.String("server", c.Server),
			zap.String("tool", c.Tool),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	if r.Observer != nil {
		r.Observer.ObserveCall(c.Server, c.Tool, res.OK, res.Elapsed)
	}
	return res
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
