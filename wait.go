package chromepdf

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/avezou/go-chromepdf/internal/cdp"
)

// Wait engine defaults.
const (
	// DefaultPollInterval is used by polling waits when none is given.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultQuietPeriod is used by WaitNetworkIdle when none is given.
	DefaultQuietPeriod = 500 * time.Millisecond

	// idleCheckInterval is how often the network-idle loop re-checks.
	idleCheckInterval = 50 * time.Millisecond

	// expressionPreviewLen truncates expressions quoted in timeout errors.
	expressionPreviewLen = 100

	// domainCleanupGrace bounds the deferred domain-disable calls, which run
	// on a fresh context because the caller's may already be done.
	domainCleanupGrace = 2 * time.Second
)

// waitSession is the slice of the control session the wait engine consumes.
// Narrowed to an interface so strategies are testable without a browser.
type waitSession interface {
	Evaluate(ctx context.Context, expression string) (cdp.RemoteObject, error)
	EnableRuntime(ctx context.Context) error
	DisableRuntime(ctx context.Context) error
	EnableNetwork(ctx context.Context) error
	DisableNetwork(ctx context.Context) error
	SubscribeNetwork(fn func(cdp.NetworkEvent)) (cancel func())
}

// Compile-time interface check
var _ waitSession = (*cdp.Session)(nil)

type waitKind int

const (
	waitKindDelay waitKind = iota
	waitKindNetworkIdle
	waitKindElement
	waitKindExpression
)

// WaitSpec describes one readiness condition. Specs are immutable values;
// the same spec can be awaited any number of times and carries no state
// between calls. Build one with WaitDelay, WaitNetworkIdle, WaitElement, or
// WaitExpression.
type WaitSpec struct {
	kind waitKind

	delay time.Duration

	quietPeriod time.Duration
	maxInflight int

	selector    string
	visibleOnly bool

	expression string

	pollInterval time.Duration
}

// WaitDelay blocks unconditionally for d. The await timeout does not bound
// the sleep; callers are expected to pass a timeout at least as large.
func WaitDelay(d time.Duration) WaitSpec {
	return WaitSpec{kind: waitKindDelay, delay: d}
}

// WaitNetworkIdle completes once at most maxInflight requests are in flight
// and no network activity has happened for quietPeriod. quietPeriod <= 0
// means DefaultQuietPeriod.
func WaitNetworkIdle(quietPeriod time.Duration, maxInflight int) WaitSpec {
	if quietPeriod <= 0 {
		quietPeriod = DefaultQuietPeriod
	}
	return WaitSpec{kind: waitKindNetworkIdle, quietPeriod: quietPeriod, maxInflight: maxInflight}
}

// WaitElement completes once an element matching selector exists. With
// visibleOnly it must also have a non-zero rendered box and not be hidden by
// style. pollInterval <= 0 means DefaultPollInterval.
func WaitElement(selector string, visibleOnly bool, pollInterval time.Duration) WaitSpec {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return WaitSpec{kind: waitKindElement, selector: selector, visibleOnly: visibleOnly, pollInterval: pollInterval}
}

// WaitExpression completes once expression evaluates truthy under JavaScript
// rules. pollInterval <= 0 means DefaultPollInterval.
func WaitExpression(expression string, pollInterval time.Duration) WaitSpec {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return WaitSpec{kind: waitKindExpression, expression: expression, pollInterval: pollInterval}
}

// validate rejects specs with missing required fields.
func (w WaitSpec) validate() error {
	switch w.kind {
	case waitKindDelay:
		if w.delay <= 0 {
			return fmt.Errorf("%w: delay must be positive", ErrInvalidWaitSpec)
		}
	case waitKindElement:
		if w.selector == "" {
			return fmt.Errorf("%w: selector cannot be empty", ErrInvalidWaitSpec)
		}
	case waitKindExpression:
		if w.expression == "" {
			return fmt.Errorf("%w: expression cannot be empty", ErrInvalidWaitSpec)
		}
	case waitKindNetworkIdle:
		if w.maxInflight < 0 {
			return fmt.Errorf("%w: maxInflight cannot be negative", ErrInvalidWaitSpec)
		}
	}
	return nil
}

// String describes the condition, for logs and error messages.
func (w WaitSpec) String() string {
	switch w.kind {
	case waitKindDelay:
		return fmt.Sprintf("delay(%s)", w.delay)
	case waitKindNetworkIdle:
		return fmt.Sprintf("network-idle(quiet=%s, maxInflight=%d)", w.quietPeriod, w.maxInflight)
	case waitKindElement:
		check := "present"
		if w.visibleOnly {
			check = "visible"
		}
		return fmt.Sprintf("element(%q, %s)", w.selector, check)
	case waitKindExpression:
		return fmt.Sprintf("expression(%s)", truncateExpression(w.expression))
	}
	return "unknown"
}

// await blocks until the condition holds, timeout elapses, or ctx is done.
// Returns nil, an ErrWaitTimeout-wrapped error, or ctx.Err(). Cancellation
// is honored within one poll interval.
func (w WaitSpec) await(ctx context.Context, s waitSession, timeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch w.kind {
	case waitKindDelay:
		return awaitDelay(ctx, w.delay)
	case waitKindNetworkIdle:
		return w.awaitNetworkIdle(ctx, s, timeout, logger)
	default:
		return w.awaitPolling(ctx, s, timeout, logger)
	}
}

// awaitDelay sleeps for the full duration, ignoring the await timeout.
func awaitDelay(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitPolling drives the element and expression variants: evaluate, sleep,
// repeat. Evaluation failures and falsy results both mean "not yet ready";
// transient script errors never abort the wait early.
func (w WaitSpec) awaitPolling(ctx context.Context, s waitSession, timeout time.Duration, logger *zap.Logger) error {
	if err := s.EnableRuntime(ctx); err != nil {
		return fmt.Errorf("enabling runtime domain: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), domainCleanupGrace)
		defer cancel()
		if err := s.DisableRuntime(ctx); err != nil {
			logger.Debug("disabling runtime domain", zap.Error(err))
		}
	}()

	expr := w.pollExpression()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		obj, err := s.Evaluate(ctx, expr)
		switch {
		case err != nil:
			logger.Debug("readiness evaluation failed, retrying", zap.String("condition", w.String()), zap.Error(err))
		case obj.Truthy():
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return w.timeoutError(timeout, 0)
		case <-ticker.C:
		}
	}
}

// pollExpression builds the script evaluated by a polling wait.
func (w WaitSpec) pollExpression() string {
	switch w.kind {
	case waitKindElement:
		selector := strconv.Quote(w.selector)
		if !w.visibleOnly {
			return fmt.Sprintf("document.querySelector(%s) !== null", selector)
		}
		return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
})()`, selector)
	default:
		return w.expression
	}
}

// awaitNetworkIdle is event-driven: the network subscription maintains an
// in-flight counter and a last-activity timestamp, and a short-interval
// ticker decides when the page has gone quiet. Subscription and ticker are
// torn down on every exit path.
func (w WaitSpec) awaitNetworkIdle(ctx context.Context, s waitSession, timeout time.Duration, logger *zap.Logger) error {
	if err := s.EnableNetwork(ctx); err != nil {
		return fmt.Errorf("enabling network domain: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), domainCleanupGrace)
		defer cancel()
		if err := s.DisableNetwork(ctx); err != nil {
			logger.Debug("disabling network domain", zap.Error(err))
		}
	}()

	var inflight atomic.Int64
	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())

	unsubscribe := s.SubscribeNetwork(func(ev cdp.NetworkEvent) {
		switch ev.Kind {
		case cdp.NetworkRequestStarted:
			inflight.Add(1)
		case cdp.NetworkRequestFinished, cdp.NetworkRequestFailed:
			// Completions for requests started before the subscription
			// must not drive the counter negative.
			if inflight.Add(-1) < 0 {
				inflight.Store(0)
			}
		}
		lastActivity.Store(time.Now().UnixNano())
	})
	defer unsubscribe()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(idleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return w.timeoutError(timeout, inflight.Load())
		case <-ticker.C:
			quietFor := time.Since(time.Unix(0, lastActivity.Load()))
			if inflight.Load() <= int64(w.maxInflight) && quietFor >= w.quietPeriod {
				return nil
			}
		}
	}
}

// timeoutError builds the variant-specific ErrWaitTimeout.
func (w WaitSpec) timeoutError(timeout time.Duration, inflight int64) error {
	switch w.kind {
	case waitKindElement:
		check := "present"
		if w.visibleOnly {
			check = "visible"
		}
		return fmt.Errorf("%w: element %q not %s after %s", ErrWaitTimeout, w.selector, check, timeout)
	case waitKindExpression:
		return fmt.Errorf("%w: expression %q not truthy after %s", ErrWaitTimeout, truncateExpression(w.expression), timeout)
	case waitKindNetworkIdle:
		return fmt.Errorf("%w: network not idle after %s (%d requests in flight)", ErrWaitTimeout, timeout, inflight)
	}
	return fmt.Errorf("%w: %s after %s", ErrWaitTimeout, w.String(), timeout)
}

// truncateExpression shortens long expressions for error messages.
func truncateExpression(expr string) string {
	if len(expr) <= expressionPreviewLen {
		return expr
	}
	return expr[:expressionPreviewLen] + "..."
}
