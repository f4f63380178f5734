package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedPacer_FirstWaitBlocksFullDelay(t *testing.T) {
	delay := 40 * time.Millisecond
	p := NewFixedPacer(delay)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestFixedPacer_ZeroDelayDoesNotBlock(t *testing.T) {
	p := NewFixedPacer(0)

	start := time.Now()
	for range 10 {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestFixedPacer_WaitHonorsContext(t *testing.T) {
	p := NewFixedPacer(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Wait(ctx)
	require.Error(t, err)
}

func TestNopPacer(t *testing.T) {
	require.NoError(t, NopPacer{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, NopPacer{}.Wait(ctx))
}
