package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"Aa": IRInt(4),
	}

	assert.Equal(t, []string{"A", "Aa", "a", "aa"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Negative(t, compareKeysRFC8785("a", "b"))
	assert.Zero(t, compareKeysRFC8785("same", "same"))
	assert.Negative(t, compareKeysRFC8785("\U00010000", "\uE000"))
}

func TestIRNullRoundTripsThroughJournalJSON(t *testing.T) {
	obj := IRObject{"present": IRString("value"), "missing": IRNull{}}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"missing":null,"present":"value"}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, isNull := decoded["missing"].(IRNull)
	assert.True(t, isNull, "expected IRNull, got %T", decoded["missing"])
}

func TestUnmarshalIRValueRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"float", `3.14`, "float"},
		{"exponent", `1e10`, "float"},
		{"nested float", `{"a": {"b": [1.5]}}`, "float"},
		{"null", `null`, "null"},
		{"null in array", `[1, null]`, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestUnmarshalIRValueNested(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"name":"sword","tags":["sharp",2,true]}`))
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"name": IRString("sword"),
		"tags": IRArray{IRString("sharp"), IRInt(2), IRBool(true)},
	}, v)
}

func TestFromGo(t *testing.T) {
	type gem struct {
		Name  string `json:"name"`
		Carat uint16 `json:"carat"`
	}

	v, err := FromGo(gem{Name: "ruby", Carat: 3})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"name": IRString("ruby"), "carat": IRInt(3)}, v)

	same, err := FromGo(IRInt(5))
	require.NoError(t, err)
	assert.Equal(t, IRInt(5), same)

	_, err = FromGo(2.5)
	assert.Error(t, err)

	_, err = FromGo(make(chan int))
	assert.Error(t, err)
}

func TestToGo(t *testing.T) {
	v := IRObject{
		"category": IRString("blade"),
		"variant":  IRInt(2),
		"rare":     IRBool(true),
		"tags":     IRArray{IRString("a")},
		"none":     IRNull{},
	}

	assert.Equal(t, map[string]any{
		"category": "blade",
		"variant":  int64(2),
		"rare":     true,
		"tags":     []any{"a"},
		"none":     nil,
	}, ToGo(v))
}
