// File: internal/extract/pacing_test.go
package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopPacer(t *testing.T) {
	start := time.Now()
	require.NoError(t, NopPacer{}.Wait(context.Background(), 60, 120))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerZeroWindowReturnsImmediately(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), 0, 0))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerWaitsAtLeastMin(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), 0.05, 0.1))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerHonorsCancellation(t *testing.T) {
	p := NewPacer(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, 60, 120)
	require.ErrorIs(t, err, context.Canceled)
}
