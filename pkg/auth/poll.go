package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/telekom/cogauth/pkg/metrics"
)

// RFC 8628 section 3.5 error codes.
const (
	errCodeAuthorizationPending = "authorization_pending"
	errCodeSlowDown             = "slow_down"
	errCodeExpiredToken         = "expired_token"
	errCodeAccessDenied         = "access_denied"
)

// pollResult classifies the outcome of one token exchange. Only pending and
// slowDown keep the loop alive.
type pollResult int

const (
	pollGranted pollResult = iota
	pollPending
	pollSlowDown
	pollExpired
	pollDenied
	pollRejected
	pollNetworkFailure
)

func (r pollResult) String() string {
	switch r {
	case pollGranted:
		return "granted"
	case pollPending:
		return "pending"
	case pollSlowDown:
		return "slow_down"
	case pollExpired:
		return "expired"
	case pollDenied:
		return "denied"
	case pollRejected:
		return "rejected"
	default:
		return "network_error"
	}
}

func classifyPoll(err error) pollResult {
	if err == nil {
		return pollGranted
	}
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return pollNetworkFailure
	}
	switch rerr.ErrorCode {
	case errCodeAuthorizationPending:
		return pollPending
	case errCodeSlowDown:
		return pollSlowDown
	case errCodeExpiredToken:
		return pollExpired
	case errCodeAccessDenied:
		return pollDenied
	default:
		return pollRejected
	}
}

// pollForToken runs the polling state machine. Two timers drive it: the
// per-iteration interval dictated by the server and the PollTimeout deadline
// fixed when the loop starts. Every wait is cut short by the deadline, so no
// token request is sent once it has passed. A slow_down response adds one
// extra interval before the next attempt without changing the interval itself.
func (p *DeviceCodeProvider) pollForToken(ctx context.Context, log *zap.SugaredLogger, endpoint oauth2.Endpoint, details *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	interval := time.Duration(details.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := p.clock.Now().Add(PollTimeout)

	for attempt := 1; ; attempt++ {
		if err := p.sleep(ctx, interval, deadline); err != nil {
			return nil, err
		}

		token, err := p.transport.exchangeDeviceCode(ctx, endpoint, p.clientID, details.DeviceCode)
		if err != nil && ctx.Err() != nil {
			return nil, authFailed(ctx.Err(), "")
		}
		result := classifyPoll(err)
		metrics.DeviceCodePolls.WithLabelValues(result.String()).Inc()
		log.Debugw("Polled token endpoint", "attempt", attempt, "result", result.String())

		switch result {
		case pollGranted:
			return token, nil
		case pollPending:
			continue
		case pollSlowDown:
			metrics.DeviceCodeSlowDowns.Inc()
			if err := p.sleep(ctx, interval, deadline); err != nil {
				return nil, err
			}
			continue
		case pollExpired:
			return nil, authFailed(ErrDeviceCodeExpired, "please try again")
		case pollDenied:
			return nil, authFailed(ErrAccessDenied, "")
		case pollRejected:
			return nil, authFailedWrap(ErrServerRejected, err)
		default:
			return nil, authFailedWrap(ErrNetwork, err)
		}
	}
}

// sleep waits for d on the provider clock, but never beyond deadline. It
// returns the timeout failure once the deadline is reached and the
// cancellation failure when ctx is done first.
func (p *DeviceCodeProvider) sleep(ctx context.Context, d time.Duration, deadline time.Time) error {
	remaining := deadline.Sub(p.clock.Now())
	if remaining <= 0 {
		return pollTimedOut()
	}
	if d > remaining {
		d = remaining
	}
	timer := p.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return authFailed(ctx.Err(), "")
	case <-timer.C():
	}
	if !p.clock.Now().Before(deadline) {
		return pollTimedOut()
	}
	return nil
}

func pollTimedOut() error {
	return authFailed(ErrTimeout, fmt.Sprintf("no approval within %s, please try again", PollTimeout))
}
