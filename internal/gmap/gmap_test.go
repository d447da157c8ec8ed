package gmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2}
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, Concat(m, nil))
	assert.Equal(t, map[string]int{"a": 1, "b": -1, "c": 3}, Concat(m, map[string]int{"b": -1, "c": 3}))
	assert.NotNil(t, Concat[string, int]())
	// 入参不被修改
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, m)
}

func TestClone(t *testing.T) {
	var nilMap map[string]any
	assert.Nil(t, Clone(nilMap))

	m := map[string]any{"k": "v"}
	c := Clone(m)
	c["k"] = "changed"
	assert.Equal(t, "v", m["k"])
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
