package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := NewSet("b")
	assert.True(t, s.Add("c"))
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Has("b"))
	assert.False(t, s.Has("z"))
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())

	data, err := s.Data()
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","c"]`, string(data))

	loaded := NewSet[string]()
	require.NoError(t, loaded.Load(data))
	assert.Equal(t, s.Keys(), loaded.Keys())
	assert.Error(t, loaded.Load([]byte(`{"a":1}`)))
}
