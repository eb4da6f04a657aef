package perception

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"patchpanel/internal/clock"
	"patchpanel/internal/logging"
)

// RetryPolicy bounds the backoff applied to rate-limited calls.
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt
	BaseDelay  time.Duration // first pause; doubles after every attempt
}

// DefaultRetryPolicy returns 3 retries starting at 2.5s (2.5s, 5s, 10s).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 2500 * time.Millisecond}
}

// IsRateLimit reports whether err signals a rate limit: an API error with
// code 429, or a message containing "429", "quota" or "RESOURCE_EXHAUSTED".
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr != nil && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	// Value-typed API errors render their code into the message.
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// Retry runs op, retrying only rate-limited failures per policy. Any other
// error is returned immediately. Pauses go through clk so tests do not wait.
func Retry[T any](ctx context.Context, clk clock.Clock, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	log := logging.Get(logging.CategoryAPI)
	delay := policy.BaseDelay

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRateLimit(err) {
			return result, err
		}
		if attempt >= policy.MaxRetries {
			return result, fmt.Errorf("rate limited after %d attempts: %w", attempt+1, err)
		}

		log.Warn("rate limited, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		if serr := clk.Sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}
		delay *= 2
	}
}

// retryingGenerator decorates a Generator with Retry.
type retryingGenerator struct {
	next   Generator
	clock  clock.Clock
	policy RetryPolicy
}

// WithRetry wraps next so every Generate call follows policy.
func WithRetry(next Generator, clk clock.Clock, policy RetryPolicy) Generator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &retryingGenerator{next: next, clock: clk, policy: policy}
}

func (g *retryingGenerator) Generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	return Retry(ctx, g.clock, g.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return g.next.Generate(ctx, prompt)
	})
}
