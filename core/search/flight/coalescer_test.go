package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mderrors "github.com/mealdex/mealdex/core/errors"
	"github.com/mealdex/mealdex/core/food"
)

func banana() []food.RankedResult {
	return []food.RankedResult{{Candidate: food.Candidate{ID: "1", Name: "Banana", Source: food.SourceFoodData, Confidence: 0.9}}}
}

// =============================================================================
// Coalescing
// =============================================================================

func TestDo_SingleCaller(t *testing.T) {
	c := NewCoalescer()
	results, err := c.Do(context.Background(), "banana", func(ctx context.Context) ([]food.RankedResult, error) {
		return banana(), nil
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 0, c.Count())
}

func TestDo_ConcurrentCallersShareOneAggregation(t *testing.T) {
	c := NewCoalescer()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(ctx context.Context) ([]food.RankedResult, error) {
		calls.Add(1)
		close(started)
		<-release
		return banana(), nil
	}

	type outcome struct {
		results []food.RankedResult
		err     error
	}
	outcomes := make(chan outcome, 2)

	go func() {
		r, err := c.Do(context.Background(), "banana", fn)
		outcomes <- outcome{r, err}
	}()

	<-started
	assert.Equal(t, 1, c.Count())

	go func() {
		r, err := c.Do(context.Background(), "banana", func(ctx context.Context) ([]food.RankedResult, error) {
			calls.Add(1)
			return nil, errors.New("second aggregation must never run")
		})
		outcomes <- outcome{r, err}
	}()

	// Give the second caller time to join before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)

	first := <-outcomes
	second := <-outcomes
	require.NoError(t, first.err)
	require.NoError(t, second.err)

	// Exactly one upstream aggregation, byte-identical shared results.
	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, &first.results[0], &second.results[0])
	assert.Equal(t, 0, c.Count())
}

func TestDo_DifferentKeysRunIndependently(t *testing.T) {
	c := NewCoalescer()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for _, key := range []string{"banana", "apple"} {
		key := key
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Do(context.Background(), key, func(ctx context.Context) ([]food.RankedResult, error) {
				calls.Add(1)
				return banana(), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_EntryRemovedOnError(t *testing.T) {
	c := NewCoalescer()
	wantErr := errors.New("upstream exploded")

	_, err := c.Do(context.Background(), "banana", func(ctx context.Context) ([]food.RankedResult, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, c.Count())

	// A later call starts a fresh aggregation rather than replaying the
	// failure.
	results, err := c.Do(context.Background(), "banana", func(ctx context.Context) ([]food.RankedResult, error) {
		return banana(), nil
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

// =============================================================================
// Cancellation
// =============================================================================

func TestDo_SoleWaiterCancelAbortsAggregation(t *testing.T) {
	c := NewCoalescer()
	aborted := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Do(ctx, "banana", func(runCtx context.Context) ([]food.RankedResult, error) {
		<-runCtx.Done()
		close(aborted)
		return nil, runCtx.Err()
	})

	assert.True(t, mderrors.IsAborted(err))

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("underlying aggregation was not aborted")
	}
}

func TestDo_RemainingWaiterKeepsAggregationAlive(t *testing.T) {
	c := NewCoalescer()
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(runCtx context.Context) ([]food.RankedResult, error) {
		close(started)
		select {
		case <-release:
			return banana(), nil
		case <-runCtx.Done():
			return nil, runCtx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Do(firstCtx, "banana", fn)
		firstDone <- err
	}()
	<-started

	secondDone := make(chan error, 1)
	var secondResults []food.RankedResult
	go func() {
		r, err := c.Do(context.Background(), "banana", func(context.Context) ([]food.RankedResult, error) {
			return nil, errors.New("must join, not start")
		})
		secondResults = r
		secondDone <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// First caller bails; the aggregation must keep running for the second.
	cancelFirst()
	assert.True(t, mderrors.IsAborted(<-firstDone))

	close(release)
	require.NoError(t, <-secondDone)
	assert.Len(t, secondResults, 1)
}

func TestDo_CallerDeadlineMapsToTimeout(t *testing.T) {
	c := NewCoalescer()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, "banana", func(runCtx context.Context) ([]food.RankedResult, error) {
		<-runCtx.Done()
		return nil, runCtx.Err()
	})
	assert.True(t, mderrors.IsTimeout(err))
}
