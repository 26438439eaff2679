package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bag struct {
	Items  []int
	Labels map[string][]string
	Best   *sword
	Extra  any
}

type ledger struct {
	entries []int
}

func (l ledger) DeepClone() any {
	return ledger{entries: append([]int(nil), l.entries...)}
}

type node struct {
	Next  *node
	Value int
}

func TestClonedSliceIsIndependent(t *testing.T) {
	orig := Store([]int{1, 2, 3})
	work := orig.Clone()

	p, err := Pointer[[]int](work)
	require.NoError(t, err)
	(*p)[0] = 99

	got, err := ExtractAs[[]int](orig)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestExtractedValueDoesNotAlias(t *testing.T) {
	c := Store(bag{
		Items:  []int{1},
		Labels: map[string][]string{"k": {"a"}},
		Best:   &sword{Name: "a"},
		Extra:  []string{"x"},
	})

	out, err := ExtractAs[bag](c)
	require.NoError(t, err)
	out.Items[0] = 666
	out.Labels["k"][0] = "changed"
	out.Best.Name = "changed"
	out.Extra.([]string)[0] = "changed"

	again, err := ExtractAs[bag](c)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, again.Items)
	assert.Equal(t, []string{"a"}, again.Labels["k"])
	assert.Equal(t, "a", again.Best.Name)
	assert.Equal(t, []string{"x"}, again.Extra)
}

func TestStoreCopiesInput(t *testing.T) {
	items := []int{1, 2}
	c := Store(items)
	items[0] = 50

	got, err := ExtractAs[[]int](c)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestValueDoesNotAlias(t *testing.T) {
	c := Store(bag{Items: []int{7}})
	v := c.Value().(bag)
	v.Items[0] = 8

	got, err := ExtractAs[bag](c)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got.Items)
}

func TestClonerHook(t *testing.T) {
	orig := Store(ledger{entries: []int{4}})
	work := orig.Clone()

	p, err := Pointer[ledger](work)
	require.NoError(t, err)
	p.entries[0] = 5

	got, err := ExtractAs[ledger](orig)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, got.entries)
}

func TestCopyPreservesCyclesAndNils(t *testing.T) {
	a := &node{Value: 1}
	a.Next = &node{Value: 2, Next: a}

	b := Copy(a)
	require.NotSame(t, a, b)
	assert.Same(t, b, b.Next.Next)
	assert.Equal(t, 2, b.Next.Value)

	var empty bag
	assert.Equal(t, empty, Copy(empty))
	assert.Nil(t, Copy[[]int](nil))
}
