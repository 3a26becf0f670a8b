package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type retrying struct {
	Provider
	cfg   RetryConfig
	sleep func(context.Context, time.Duration) error
}

// WithRetry retries transient failures with jittered exponential backoff.
// Invalid output is retried once; rejected and truncated requests never are.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retrying{Provider: p, cfg: cfg, sleep: sleepCtx}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	var err error
	invalidSeen := false
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if serr := r.sleep(ctx, r.wait(attempt-1, err)); serr != nil {
				return nil, serr
			}
		}

		var resp *Response
		resp, err = r.Provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		var perr *Error
		if !errors.As(err, &perr) {
			// Context errors pass through unclassified.
			return nil, err
		}
		if !perr.Retryable() {
			return nil, err
		}
		if perr.Kind == KindInvalid {
			if invalidSeen {
				return nil, err
			}
			invalidSeen = true
		}
	}
	return nil, err
}

func (r *retrying) wait(attempt int, err error) time.Duration {
	var perr *Error
	if errors.As(err, &perr) && perr.RetryAfter > 0 {
		return perr.RetryAfter
	}
	d := float64(r.cfg.InitialWait)
	for range attempt {
		d *= r.cfg.Multiplier
	}
	if limit := float64(r.cfg.MaxWait); limit > 0 && d > limit {
		d = limit
	}
	// ±20%
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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

type bounded struct {
	Provider
	timeout time.Duration
}

// WithTimeout bounds each Generate call, retries included.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &bounded{Provider: p, timeout: d}
}

func (b *bounded) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.Provider.Generate(ctx, req)
}
