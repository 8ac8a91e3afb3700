package handler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestReqBatcher_CoalescesConcurrentCalls(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	batcher := NewReqBatcher(func(ctx context.Context) (*string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		result := "stats"
		return &result, nil
	}, 50*time.Millisecond)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := batcher.GetBatch(context.Background())
			if err == nil {
				results[i] = *r
			}
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "stats", r)
	}
}

func TestReqBatcher_SharesErrors(t *testing.T) {
	batcher := NewReqBatcher(func(ctx context.Context) (*string, error) {
		return nil, errors.New("unavailable")
	}, time.Millisecond)

	_, err := batcher.GetBatch(context.Background())
	assert.EqualError(t, err, "unavailable")
}

func TestReqBatcher_ZeroWindowCallsThrough(t *testing.T) {
	var calls int32
	batcher := NewReqBatcher(func(ctx context.Context) (*int32, error) {
		n := atomic.AddInt32(&calls, 1)
		return &n, nil
	}, 0)

	first, err := batcher.GetBatch(context.Background())
	require.NoError(t, err)
	second, err := batcher.GetBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), *first)
	assert.Equal(t, int32(2), *second)
}

func TestReqBatcher_CallerCanGiveUp(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	batcher := NewReqBatcher(func(ctx context.Context) (*string, error) {
		<-release
		return nil, nil
	}, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := batcher.GetBatch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReqBatcher_ForwardsEveryCallerMetadata(t *testing.T) {
	var forwarded []string
	batcher := NewReqBatcher(func(ctx context.Context) (*string, error) {
		md, _ := metadata.FromOutgoingContext(ctx)
		forwarded = md.Get("x-request-id")
		result := "stats"
		return &result, nil
	}, 100*time.Millisecond)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			ctx := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", id)
			_, err := batcher.GetBatch(ctx)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"a", "b"}, forwarded)
}
