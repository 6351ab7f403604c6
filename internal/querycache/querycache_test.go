package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type task struct {
	ID    int64
	Title string
}

func TestFetch_CachesUntilInvalidated(t *testing.T) {
	c := New()
	ctx := context.Background()
	var calls int32
	load := func(context.Context) ([]task, error) {
		atomic.AddInt32(&calls, 1)
		return []task{{ID: 1, Title: "a"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, c, "tasks", load)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	c.Invalidate("tasks")
	assert.True(t, c.Stale("tasks"))
	_, err := Fetch(ctx, c, "tasks", load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.False(t, c.Stale("tasks"))
}

func TestFetch_DeduplicatesConcurrentLoads(t *testing.T) {
	c := New()
	release := make(chan struct{})
	var calls int32
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, "budgets", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestFetch_CancelledCallerDoesNotFailJoinedCallers(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	load := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return 7, ctx.Err()
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Fetch(first, c, "habits", load)
		firstErr <- err
	}()
	<-started

	second := make(chan int, 1)
	go func() {
		v, err := Fetch(context.Background(), c, "habits", load)
		assert.NoError(t, err)
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	assert.Equal(t, 7, <-second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	got, ok := Peek[int](c, "habits")
	require.True(t, ok)
	assert.Equal(t, 7, got)
}

func TestFetch_ErrorIsNotCached(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, "cards", func(context.Context) ([]int, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	got, err := Fetch(context.Background(), c, "cards", func(context.Context) ([]int, error) { return []int{1}, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestFetch_InvalidateDuringLoadDropsResult(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = Fetch(context.Background(), c, "tasks", func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
	}()
	<-started
	c.Invalidate("tasks")
	close(release)
	time.Sleep(10 * time.Millisecond)

	assert.True(t, c.Stale("tasks"))
}

func TestMutate_InvalidatesOnlyOnSuccess(t *testing.T) {
	c := New()
	c.Set("transactions", []int{1})

	_, err := Mutate(context.Background(), c, func(context.Context) (struct{}, error) {
		return struct{}{}, errors.New("nope")
	}, "transactions")
	require.Error(t, err)
	assert.False(t, c.Stale("transactions"))

	_, err = Mutate(context.Background(), c, func(context.Context) (int, error) { return 7, nil }, "transactions", "views")
	require.NoError(t, err)
	assert.True(t, c.Stale("transactions"))
}

func renameTask(id int64, title string) func([]task) []task {
	return func(ts []task) []task {
		out := make([]task, len(ts))
		copy(out, ts)
		for i := range out {
			if out[i].ID == id {
				out[i].Title = title
			}
		}
		return out
	}
}

func TestMutateOptimistic_RollsBackThenRefetches(t *testing.T) {
	c := New()
	ctx := context.Background()
	server := []task{{ID: 1, Title: "write report"}, {ID: 2, Title: "call bank"}}
	load := func(context.Context) ([]task, error) {
		out := make([]task, len(server))
		copy(out, server)
		return out, nil
	}
	before, err := Fetch(ctx, c, "tasks", load)
	require.NoError(t, err)

	var during []task
	_, err = MutateOptimistic(ctx, c, "tasks", renameTask(1, "changed"), func(context.Context) (task, error) {
		during, _ = Peek[[]task](c, "tasks")
		return task{}, errors.New("request failed with status 500")
	})
	require.Error(t, err)
	assert.Equal(t, "changed", during[0].Title)

	rolledBack, ok := Peek[[]task](c, "tasks")
	require.True(t, ok)
	assert.Equal(t, before, rolledBack)
	assert.True(t, c.Stale("tasks"))

	fresh, err := Fetch(ctx, c, "tasks", load)
	require.NoError(t, err)
	assert.Equal(t, server, fresh)
}

func TestMutateOptimistic_SuccessKeepsAppliedValueUntilRefetch(t *testing.T) {
	c := New()
	c.Set("tasks", []task{{ID: 1, Title: "a"}})

	res, err := MutateOptimistic(context.Background(), c, "tasks", renameTask(1, "b"), func(context.Context) (task, error) {
		return task{ID: 1, Title: "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b", res.Title)

	got, _ := Peek[[]task](c, "tasks")
	assert.Equal(t, "b", got[0].Title)
	assert.True(t, c.Stale("tasks"))
}

func TestMutateOptimistic_EmptyCacheStillSends(t *testing.T) {
	c := New()
	sent := false
	_, err := MutateOptimistic(context.Background(), c, "tasks", renameTask(1, "x"), func(context.Context) (int, error) {
		sent = true
		return 0, nil
	})
	require.NoError(t, err)
	assert.True(t, sent)
	_, ok := Peek[[]task](c, "tasks")
	assert.False(t, ok)
}
