package ringbuffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(b *RingBuffer[string]) []string {
	var values []string

	b.Range(func(_ int64, value string) bool {
		values = append(values, value)
		return true
	})

	return values
}

func TestNewClampsCapacity(t *testing.T) {
	require.Equal(t, 8, New[string](8).Capacity())
	require.Equal(t, 1, New[string](0).Capacity())
	require.Equal(t, 1, New[string](-3).Capacity())
}

func TestPushEvictsOldest(t *testing.T) {
	b := New[string](3)

	b.Push(1, "loading")
	b.Push(2, "authenticated")
	require.Equal(t, 2, b.Len())
	require.Equal(t, []string{"loading", "authenticated"}, collect(b))

	b.Push(3, "unauthenticated")
	b.Push(4, "loading")

	require.Equal(t, 3, b.Len())
	require.Equal(t, []string{"authenticated", "unauthenticated", "loading"}, collect(b))
}

func TestRangeStopsEarly(t *testing.T) {
	b := New[string](4)
	b.Push(1, "a")
	b.Push(2, "b")
	b.Push(3, "c")

	var visited []int64

	b.Range(func(timestamp int64, _ string) bool {
		visited = append(visited, timestamp)
		return timestamp < 2
	})

	require.Equal(t, []int64{1, 2}, visited)
}

func TestCleanupBefore(t *testing.T) {
	b := New[string](4)
	b.Push(10, "a")
	b.Push(20, "b")
	b.Push(30, "c")

	require.Equal(t, 2, b.CleanupBefore(30))
	require.Equal(t, 1, b.Len())
	require.Equal(t, []string{"c"}, collect(b))

	// Nothing older than the cutoff left.
	require.Zero(t, b.CleanupBefore(30))
}

func TestCleanupBeforeEmptiesBuffer(t *testing.T) {
	b := New[string](2)
	b.Push(1, "a")
	b.Push(2, "b")

	require.Equal(t, 2, b.CleanupBefore(100))
	require.Zero(t, b.Len())
	require.Empty(t, collect(b))

	// Wrapped indices keep working after a full drain.
	b.Push(3, "c")
	require.Equal(t, []string{"c"}, collect(b))
}

func TestConcurrentPushAndRange(t *testing.T) {
	b := New[int](64)

	var wg sync.WaitGroup

	for i := range 4 {
		wg.Add(1)

		go func(base int) {
			defer wg.Done()

			for j := range 100 {
				b.Push(int64(base*1000+j), j)
			}
		}(i)
	}

	for range 50 {
		b.Range(func(int64, int) bool { return true })
	}

	wg.Wait()
	require.Equal(t, 64, b.Len())
}
