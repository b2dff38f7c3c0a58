// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

var errFlaky = errors.New("connection reset")

// failingFirst returns a FetchFunc that fails k times, then returns data.
func failingFirst(k int, data []byte, calls *int) FetchFunc {
	return func(context.Context) ([]byte, error) {
		*calls++
		if *calls <= k {
			return nil, errFlaky
		}
		return data, nil
	}
}

func TestFetch_ImmediateSuccess(t *testing.T) {
	var calls int
	r := &Retrier{Attempts: 3, Delay: time.Millisecond}

	data, err := r.Fetch(context.Background(), "1", failingFirst(0, []byte("%PDF"), &calls))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, 1, calls)
}

func TestFetch_SucceedsAfterFailures(t *testing.T) {
	for k := 1; k < 3; k++ {
		var calls int
		r := &Retrier{Attempts: 3, Delay: time.Millisecond}

		data, err := r.Fetch(context.Background(), "1", failingFirst(k, []byte("%PDF-1.7"), &calls))
		require.NoError(t, err, "k=%d", k)
		assert.Equal(t, []byte("%PDF-1.7"), data)
		assert.Equal(t, k+1, calls)
		assert.LessOrEqual(t, calls, r.Attempts)
	}
}

func TestFetch_ExhaustsAttempts(t *testing.T) {
	var calls int
	r := &Retrier{Attempts: 3, Delay: time.Millisecond}

	_, err := r.Fetch(context.Background(), "36912345", failingFirst(10, nil, &calls))
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "36912345", derr.ID)
	assert.Equal(t, 3, derr.Attempts)
	assert.ErrorIs(t, err, errFlaky)
}

func TestFetch_NothingToDownloadIsSuccess(t *testing.T) {
	var calls int
	r := &Retrier{Attempts: 3}

	data, err := r.Fetch(context.Background(), "1", func(context.Context) ([]byte, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Equal(t, 1, calls)
}

func TestFetch_DefaultAttempts(t *testing.T) {
	var calls int
	r := &Retrier{}

	_, err := r.Fetch(context.Background(), "1", failingFirst(10, nil, &calls))
	require.Error(t, err)
	assert.Equal(t, DefaultAttempts, calls)
}

func TestFetch_FixedDelayBetweenAttempts(t *testing.T) {
	var calls int
	delay := 30 * time.Millisecond
	r := &Retrier{Attempts: 3, Delay: delay}

	start := time.Now()
	_, err := r.Fetch(context.Background(), "1", failingFirst(10, nil, &calls))
	require.Error(t, err)
	// Two pauses between three attempts, none after the last.
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 2*delay+time.Second)
}

func TestFetch_ContextCancelledDuringDelay(t *testing.T) {
	var calls int
	r := &Retrier{Attempts: 5, Delay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Fetch(ctx, "1", failingFirst(10, nil, &calls))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)

	var derr *Error
	assert.False(t, errors.As(err, &derr), "cancellation is not a download failure")
}

func TestFetch_RetriesRequestTimeout(t *testing.T) {
	var calls int
	r := &Retrier{Attempts: 3, Delay: time.Millisecond}
	timeout := func(context.Context) ([]byte, error) {
		calls++
		return nil, fmt.Errorf("HTTP request: Get \"https://example.test/pdf/\": %w (Client.Timeout exceeded while awaiting headers)", context.DeadlineExceeded)
	}

	_, err := r.Fetch(context.Background(), "36912345", timeout)
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, 3, derr.Attempts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_Observer(t *testing.T) {
	var calls int
	var seen []int
	r := &Retrier{Attempts: 3, Delay: time.Millisecond, Observe: func(_ string, attempt int, _ error) {
		seen = append(seen, attempt)
	}}

	_, err := r.Fetch(context.Background(), "1", failingFirst(1, []byte("x"), &calls))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestNewRetrier(t *testing.T) {
	r := NewRetrier(types.DownloadConfig{MaxRetries: 4, RetryDelay: 2 * time.Second}, nil)
	assert.Equal(t, 4, r.Attempts)
	assert.Equal(t, 2*time.Second, r.Delay)
}
