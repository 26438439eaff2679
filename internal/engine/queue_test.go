package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objstore/internal/ir"
)

func newRequest(label string) *request {
	return &request{sender: ir.AddressFromLabel(label), done: make(chan result, 1)}
}

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()

	for _, l := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(newRequest(l)))
	}
	assert.Equal(t, 3, q.Len())

	for _, l := range []string{"a", "b", "c"} {
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, ir.AddressFromLabel(l), r.sender)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestRequestQueue_SignalCoalesces(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(newRequest("a"))
	q.Enqueue(newRequest("b"))

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("expected signal")
	}

	// Only one signal is buffered for two enqueues.
	select {
	case <-q.Wait():
		t.Fatal("signal should coalesce")
	default:
	}
}

func TestRequestQueue_CloseReturnsPending(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(newRequest("a"))
	q.Enqueue(newRequest("b"))

	pending := q.Close()
	assert.Len(t, pending, 2)
	assert.True(t, q.Closed())
	assert.Equal(t, 0, q.Len())

	assert.False(t, q.Enqueue(newRequest("c")), "enqueue after close must fail")
	assert.Nil(t, q.Close(), "second close is a no-op")

	select {
	case <-q.Wait():
	default:
		t.Fatal("closed queue must wake waiters")
	}
}

func TestRequestQueue_ConcurrentEnqueue(t *testing.T) {
	q := newRequestQueue()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(newRequest("x"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, q.Len())
}
