// File: client/redial.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Caller-side reconnection. The stream core only detects and reports
// connection death; deciding to dial again, and how fast, happens here.

package client

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/momentics/twitterstream/api"
	"github.com/momentics/twitterstream/stream"
)

// RedialPolicy configures the reconnect loop.
type RedialPolicy struct {
	Attempts int           // total connection attempts; retry.UnlimitedAttempts for no cap
	Delay    time.Duration // initial delay between attempts
	MaxDelay time.Duration // backoff ceiling
	Clock    clock.Clock   // nil selects the wall clock
}

// DefaultRedialPolicy returns a conservative doubling backoff.
func DefaultRedialPolicy() RedialPolicy {
	return RedialPolicy{
		Attempts: 10,
		Delay:    time.Second,
		MaxDelay: 2 * time.Minute,
	}
}

// Redial connects and hands the stream to consume, reconnecting with
// backoff whenever the stream (or the connection attempt) ends with a
// retryable condition. consume returning nil ends the loop cleanly.
// The stream is closed after every consume call.
func Redial(ctx context.Context, b *Builder, policy RedialPolicy, consume func(*stream.Stream) error) error {
	clk := policy.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	return retry.Call(retry.CallArgs{
		Clock:       clk,
		Attempts:    policy.Attempts,
		Delay:       policy.Delay,
		MaxDelay:    policy.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Stop:        ctx.Done(),
		Func: func() error {
			st, err := b.Login(ctx)
			if err != nil {
				return errors.Trace(err)
			}
			defer st.Close()
			return consume(st)
		},
		IsFatalError: func(err error) bool {
			return !Retryable(err)
		},
		NotifyFunc: func(lastError error, attempt int) {
			logger.Debugf("stream attempt %d ended: %v", attempt, lastError)
		},
	})
}

// Retryable classifies terminal conditions worth reconnecting after:
// connection death, transport failures, truncation, server overload.
// Framing corruption and client-side errors are not retried.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case api.IsCode(err, api.ErrCodeKeepAliveTimeout),
		api.IsCode(err, api.ErrCodeTransport),
		api.IsCode(err, api.ErrCodeTruncatedStream):
		return true
	case api.IsCode(err, api.ErrCodeHTTPStatus):
		var se *api.Error
		if !errors.As(err, &se) {
			return false
		}
		status, _ := se.Context["status"].(int)
		// 420 is the API's rate-limit signal: back off and retry.
		return status >= 500 || status == 420
	default:
		return false
	}
}
