package cdp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for session operations.
var (
	ErrEvaluate = errors.New("cdp: evaluation failed")
	ErrNavigate = errors.New("cdp: navigation failed")
)

// closeGrace bounds the best-effort target teardown inside Close.
const closeGrace = 2 * time.Second

// Session is one page target attached over a Client. Exactly one Session is
// opened per supervised browser; it owns the channel and closes it.
type Session struct {
	client    *Client
	targetID  string
	sessionID string
	logger    *zap.Logger

	closeOnce sync.Once
}

// Connect dials the browser's DevTools endpoint, creates a fresh page
// target, and attaches to it with the flat protocol. Kept separate from any
// constructor so connection failures are observable and retryable.
func Connect(ctx context.Context, wsURL string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := Dial(ctx, wsURL, logger)
	if err != nil {
		return nil, err
	}

	s := &Session{client: client, logger: logger}

	var created struct {
		TargetID string `json:"targetId"`
	}
	if err := client.Call(ctx, "", "Target.createTarget",
		map[string]any{"url": "about:blank"}, &created); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("creating page target: %w", err)
	}
	s.targetID = created.TargetID

	var attached struct {
		SessionID string `json:"sessionId"`
	}
	if err := client.Call(ctx, "", "Target.attachToTarget",
		map[string]any{"targetId": s.targetID, "flatten": true}, &attached); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("attaching to page target: %w", err)
	}
	s.sessionID = attached.SessionID

	if err := s.call(ctx, "Page.enable", nil, nil); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("enabling page domain: %w", err)
	}

	return s, nil
}

// call issues a session-scoped command.
func (s *Session) call(ctx context.Context, method string, params, result any) error {
	return s.client.Call(ctx, s.sessionID, method, params, result)
}

// Navigate loads url and blocks until the page's load event fires or ctx is
// done. The event subscription is installed before the navigate command so
// fast loads cannot slip past it.
func (s *Session) Navigate(ctx context.Context, url string) error {
	loaded := make(chan struct{}, 1)
	cancel := s.client.OnEvent(func(method, sessionID string, _ json.RawMessage) {
		if method == "Page.loadEventFired" && sessionID == s.sessionID {
			select {
			case loaded <- struct{}{}:
			default:
			}
		}
	})
	defer cancel()

	var res struct {
		ErrorText string `json:"errorText"`
	}
	if err := s.call(ctx, "Page.navigate", map[string]any{"url": url}, &res); err != nil {
		return err
	}
	if res.ErrorText != "" {
		return fmt.Errorf("%w: %s: %s", ErrNavigate, url, res.ErrorText)
	}

	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.client.closed:
		return ErrClientClosed
	}
}

// Evaluate runs expression in the page and returns its by-value result.
// A thrown exception surfaces as an ErrEvaluate-wrapped error.
func (s *Session) Evaluate(ctx context.Context, expression string) (RemoteObject, error) {
	var res struct {
		Result           RemoteObject `json:"result"`
		ExceptionDetails *struct {
			Text      string        `json:"text"`
			Exception *RemoteObject `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := s.call(ctx, "Runtime.evaluate",
		map[string]any{"expression": expression, "returnByValue": true}, &res); err != nil {
		return RemoteObject{}, err
	}
	if res.ExceptionDetails != nil {
		desc := res.ExceptionDetails.Text
		if res.ExceptionDetails.Exception != nil && res.ExceptionDetails.Exception.Description != "" {
			desc = res.ExceptionDetails.Exception.Description
		}
		return RemoteObject{}, fmt.Errorf("%w: %s", ErrEvaluate, desc)
	}
	return res.Result, nil
}

// EnableRuntime enables the scripting domain.
func (s *Session) EnableRuntime(ctx context.Context) error {
	return s.call(ctx, "Runtime.enable", nil, nil)
}

// DisableRuntime disables the scripting domain.
func (s *Session) DisableRuntime(ctx context.Context) error {
	return s.call(ctx, "Runtime.disable", nil, nil)
}

// EnableNetwork enables network lifecycle events.
func (s *Session) EnableNetwork(ctx context.Context) error {
	return s.call(ctx, "Network.enable", nil, nil)
}

// DisableNetwork disables network lifecycle events.
func (s *Session) DisableNetwork(ctx context.Context) error {
	return s.call(ctx, "Network.disable", nil, nil)
}

// SubscribeNetwork registers fn for this session's network lifecycle events
// and returns its removal function. fn runs on the read loop and must not
// block.
func (s *Session) SubscribeNetwork(fn func(NetworkEvent)) (cancel func()) {
	return s.client.OnEvent(func(method, sessionID string, params json.RawMessage) {
		if sessionID != s.sessionID {
			return
		}
		var kind NetworkEventKind
		switch method {
		case "Network.requestWillBeSent":
			kind = NetworkRequestStarted
		case "Network.loadingFinished":
			kind = NetworkRequestFinished
		case "Network.loadingFailed":
			kind = NetworkRequestFailed
		default:
			return
		}
		var p struct {
			RequestID string `json:"requestId"`
		}
		_ = json.Unmarshal(params, &p)
		fn(NetworkEvent{Kind: kind, RequestID: p.RequestID})
	})
}

// PrintToPDF renders the current page and returns the raw PDF bytes.
func (s *Session) PrintToPDF(ctx context.Context, params *PrintParams) ([]byte, error) {
	if params == nil {
		params = &PrintParams{}
	}
	var res struct {
		Data string `json:"data"`
	}
	if err := s.call(ctx, "Page.printToPDF", params, &res); err != nil {
		return nil, err
	}
	pdf, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return nil, fmt.Errorf("cdp: decoding printToPDF payload: %w", err)
	}
	return pdf, nil
}

// Close tears the session down: best-effort target close, then the channel.
// Idempotent; secondary errors are logged, never propagated.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
		defer cancel()
		if s.targetID != "" {
			if err := s.client.Call(ctx, "", "Target.closeTarget",
				map[string]any{"targetId": s.targetID}, nil); err != nil {
				s.logger.Debug("closing page target", zap.Error(err))
			}
		}
		_ = s.client.Close()
	})
	return nil
}
