// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoImmediateSuccess(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Delay: Linear(time.Millisecond)}

	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Delay: Linear(time.Millisecond)}

	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	last := errors.New("still broken")
	p := Policy{MaxAttempts: 2, Delay: Linear(time.Millisecond)}

	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return last
	})
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 2, calls)
}

func TestDoPassesAttemptNumbers(t *testing.T) {
	var attempts []int
	p := Policy{MaxAttempts: 3, Delay: Linear(time.Millisecond)}

	_ = p.Do(context.Background(), func(attempt int) error {
		attempts = append(attempts, attempt)
		return errors.New("fail")
	})
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	p := Policy{}

	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	p := Policy{MaxAttempts: 5, Delay: Linear(time.Second)}

	err := p.Do(ctx, func(attempt int) error {
		calls++
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestLinear(t *testing.T) {
	delay := Linear(2 * time.Second)
	assert.Equal(t, 2*time.Second, delay(1))
	assert.Equal(t, 4*time.Second, delay(2))
	assert.Equal(t, 6*time.Second, delay(3))
}
