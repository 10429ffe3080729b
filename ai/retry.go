// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// maxBackoff caps the delay between two attempts.
const maxBackoff = 30 * time.Second

// Backoff describes how a hosted call is retried.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// BackoffFromConfig returns the retry policy carried by cfg.
func BackoffFromConfig(cfg *Config) Backoff {
	return Backoff{Attempts: cfg.MaxRetries, Delay: cfg.RetryDelay}
}

// wait returns the delay after the given failed attempt (1-based).
func (b Backoff) wait(attempt int) time.Duration {
	delay := b.Delay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so Retry returns it without another attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs operation until it succeeds, returns a Permanent error, the
// context ends or the attempts are used up. The delay doubles after every
// failure. It reports the number of attempts made along with the last error,
// with any Permanent marker removed.
func (b Backoff) Retry(ctx context.Context, operation func() error) (int, error) {
	if b.Attempts <= 0 {
		return 0, ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("hosted call succeeded after retry", "attempt", attempt)
			}
			return attempt, nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return attempt, perm.err
		}
		if attempt == b.Attempts {
			break
		}

		slog.Debug("hosted call failed, retrying", "attempt", attempt, "max_attempts", b.Attempts, "err", lastErr)
		timer := time.NewTimer(b.wait(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return b.Attempts, lastErr
}
