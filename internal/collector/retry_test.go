package collector

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quebec-market/trends-cli/pkg/gtrends"
)

// flakyProvider fails with the given errors in order, then succeeds.
type flakyProvider struct {
	errs  []error
	calls int
	table *gtrends.Table
}

func (f *flakyProvider) InterestOverTime(ctx context.Context, req gtrends.Request) (*gtrends.Table, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return f.table, nil
}

func TestRetryingProvider_RecoversFromThrottling(t *testing.T) {
	want := &gtrends.Table{Keywords: []string{"sofa"}}
	flaky := &flakyProvider{
		errs: []error{
			&gtrends.StatusError{Code: 429, Path: "/trends/api/explore"},
			&gtrends.StatusError{Code: 503, Path: "/trends/api/explore"},
		},
		table: want,
	}

	p := NewRetryingProvider(flaky, 3, zap.NewNop())
	retrying := p.(*retryingProvider)
	retrying.cfg.InitialBackoff = 1
	retrying.cfg.MaxBackoff = 1

	table, err := p.InterestOverTime(context.Background(), gtrends.Request{Keywords: []string{"sofa"}})
	require.NoError(t, err)
	assert.Same(t, want, table)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryingProvider_PermanentErrorPassesThrough(t *testing.T) {
	flaky := &flakyProvider{
		errs: []error{eris.New("gtrends: no keywords in request")},
	}

	p := NewRetryingProvider(flaky, 3, zap.NewNop())
	_, err := p.InterestOverTime(context.Background(), gtrends.Request{})
	require.Error(t, err)
	assert.Equal(t, 1, flaky.calls)
}

func TestRetryingProvider_GivesUpAfterMaxAttempts(t *testing.T) {
	throttle := &gtrends.StatusError{Code: 429, Path: "/trends/api/explore"}
	flaky := &flakyProvider{errs: []error{throttle, throttle, throttle, throttle}}

	p := NewRetryingProvider(flaky, 2, zap.NewNop())
	retrying := p.(*retryingProvider)
	retrying.cfg.InitialBackoff = 1
	retrying.cfg.MaxBackoff = 1

	_, err := p.InterestOverTime(context.Background(), gtrends.Request{Keywords: []string{"sofa"}})
	require.Error(t, err)
	assert.Equal(t, 2, flaky.calls)
}
