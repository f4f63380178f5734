package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/quebec-market/trends-cli/internal/resilience"
	"github.com/quebec-market/trends-cli/pkg/gtrends"
)

// retryingProvider retries transient provider failures (throttling, server
// errors, dropped connections) before the collector writes a keyword off
// as absent.
type retryingProvider struct {
	next Provider
	cfg  resilience.RetryConfig
	log  *zap.Logger
}

// NewRetryingProvider wraps a Provider with exponential-backoff retries.
// maxAttempts <= 0 uses the default. A nil logger falls back to the global
// zap logger.
func NewRetryingProvider(next Provider, maxAttempts int, log *zap.Logger) Provider {
	cfg := resilience.DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if log == nil {
		log = zap.L()
	}
	return &retryingProvider{next: next, cfg: cfg, log: log}
}

func (p *retryingProvider) InterestOverTime(ctx context.Context, req gtrends.Request) (*gtrends.Table, error) {
	cfg := p.cfg
	cfg.OnRetry = func(attempt int, err error) {
		p.log.Warn("retrying trends fetch",
			zap.Strings("keywords", req.Keywords),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return resilience.Do(ctx, cfg, func(ctx context.Context) (*gtrends.Table, error) {
		return p.next.InterestOverTime(ctx, req)
	})
}
