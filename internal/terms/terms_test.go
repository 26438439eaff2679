package terms

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name     string `json:"name"`
	Category uint64 `json:"category"`
	Variant  uint64 `json:"variant"`
}

var engines = []Engine{EngineExpr, EngineCEL, EngineJS}

func TestDefaultExpressionAllEngines(t *testing.T) {
	a := item{Name: "red gem", Category: 5, Variant: 1}
	b := item{Name: "blue gem", Category: 5, Variant: 2}
	same := item{Name: "red gem", Category: 5, Variant: 1}
	other := item{Name: "sword", Category: 6, Variant: 2}

	for _, engine := range engines {
		t.Run(string(engine), func(t *testing.T) {
			p, err := Compile(engine, DefaultExpression)
			require.NoError(t, err)

			ok, err := p.Match(a, b)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = p.Match(a, same)
			require.NoError(t, err)
			assert.False(t, ok, "equal variants must not match")

			ok, err = p.Match(a, other)
			require.NoError(t, err)
			assert.False(t, ok, "different categories must not match")
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, engine := range engines {
		t.Run(string(engine), func(t *testing.T) {
			_, err := Compile(engine, "a.category ==")
			require.Error(t, err)

			var evalErr *EvaluationError
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, engine, evalErr.Engine)
		})
	}

	_, err := Compile(EngineExpr, "")
	assert.Error(t, err)
	_, err = Compile("lua", DefaultExpression)
	assert.Error(t, err)
}

func TestNonBooleanResult(t *testing.T) {
	p, err := Compile(EngineJS, "a.category")
	require.NoError(t, err)

	_, err = p.Match(item{Category: 1}, item{})
	assert.Error(t, err)
}

func TestMatchRejectsUnencodableItems(t *testing.T) {
	p, err := Compile(EngineExpr, DefaultExpression)
	require.NoError(t, err)

	_, err = p.Match(1.5, item{})
	assert.Error(t, err)
}

func TestParseEngine(t *testing.T) {
	e, err := ParseEngine("")
	require.NoError(t, err)
	assert.Equal(t, EngineExpr, e)

	e, err = ParseEngine("cel")
	require.NoError(t, err)
	assert.Equal(t, EngineCEL, e)

	_, err = ParseEngine("python")
	assert.Error(t, err)
}

type countingCache struct {
	ProgramCache
	sets int
}

func (c *countingCache) Set(key string, value any) {
	c.sets++
	c.ProgramCache.Set(key, value)
}

func TestProgramCacheReusesCompiledPrograms(t *testing.T) {
	cache := &countingCache{ProgramCache: NewProgramCache(DefaultProgramTTL)}

	for i := 0; i < 3; i++ {
		p, err := Compile(EngineCEL, DefaultExpression, WithProgramCache(cache))
		require.NoError(t, err)
		assert.Equal(t, DefaultExpression, p.String())
	}
	assert.Equal(t, 1, cache.sets)

	_, err := Compile(EngineExpr, DefaultExpression, WithProgramCache(cache))
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets, "cache key includes the engine")

	_, ok := cache.Get("cel:" + DefaultExpression)
	assert.True(t, ok)
}

func TestNoExpirationCache(t *testing.T) {
	c := NewProgramCache(0)
	c.Set("k", 1)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestProgramCacheExpiresAfterStore(t *testing.T) {
	cache := NewProgramCache(30 * time.Millisecond)
	cache.Set("k", 1)

	_, ok := cache.Get("k")
	require.True(t, ok)
	time.Sleep(15 * time.Millisecond)
	_, ok = cache.Get("k")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok, "reads do not extend an entry")
}

func TestProgramCacheWithoutTTLKeepsEntries(t *testing.T) {
	cache := NewProgramCache(0)
	cache.Set("k", 1)
	time.Sleep(5 * time.Millisecond)
	v, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}
