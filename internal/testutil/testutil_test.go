package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialDigests(t *testing.T) {
	g := NewSequentialDigests("scn")
	assert.Equal(t, "scn-1", g.Generate())
	assert.Equal(t, "scn-2", g.Generate())
	assert.Equal(t, 2, g.Count())

	g.Reset()
	assert.Equal(t, "scn-1", g.Generate())
}

func TestSequentialDigests_AdvanceTo(t *testing.T) {
	g := NewSequentialDigests("scn")
	g.AdvanceTo(4)
	assert.Equal(t, "scn-5", g.Generate())

	g.AdvanceTo(2)
	assert.Equal(t, "scn-6", g.Generate())
}

func TestSequentialDigests_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "tx-1", NewSequentialDigests("").Generate())
}

func TestSequentialDigests_Concurrent(t *testing.T) {
	g := NewSequentialDigests("c")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := g.Generate()
			mu.Lock()
			seen[d] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 100)
}

func TestOpenJournal(t *testing.T) {
	j := OpenJournal(t)
	seq, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, seq)
}
