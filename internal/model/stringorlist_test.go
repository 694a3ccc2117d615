package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringOrList_UnmarshalScalar(t *testing.T) {
	var s StringOrList
	require.NoError(t, json.Unmarshal([]byte(`"main"`), &s))
	assert.Equal(t, StringOrList{"main"}, s)
}

func TestStringOrList_UnmarshalArray(t *testing.T) {
	var s StringOrList
	require.NoError(t, json.Unmarshal([]byte(`["main","dev"]`), &s))
	assert.Equal(t, StringOrList{"main", "dev"}, s)
}

func TestStringOrList_MarshalSingleAsScalar(t *testing.T) {
	b, err := json.Marshal(StringOrList{"main"})
	require.NoError(t, err)
	assert.JSONEq(t, `"main"`, string(b))
}

func TestStringOrList_MarshalMultipleAsArray(t *testing.T) {
	b, err := json.Marshal(StringOrList{"main", "dev"})
	require.NoError(t, err)
	assert.JSONEq(t, `["main","dev"]`, string(b))
}

func TestStringOrList_Contains(t *testing.T) {
	s := StringOrList{"a", "b"}
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("c"))
}
