package server

import (
	"testing"

	"stock-historian/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry_PutGetClear(t *testing.T) {
	reg := NewSessionRegistry()

	assert.Nil(t, reg.Get("s1"))

	reg.Put("s1", "AAA", []models.MPriceRecord{{Volume: 1}})

	pending := reg.Get("s1")
	require.NotNil(t, pending)
	assert.Equal(t, "AAA", pending.Symbol)
	assert.Nil(t, reg.Get("s2"))

	reg.Clear("s1")
	assert.Nil(t, reg.Get("s1"))
}

func TestSessionRegistry_PutReplacesPrevious(t *testing.T) {
	reg := NewSessionRegistry()

	reg.Put("s1", "AAA", []models.MPriceRecord{{Volume: 1}})
	reg.Put("s1", "BBB", []models.MPriceRecord{{Volume: 2}, {Volume: 3}})

	pending := reg.Get("s1")
	require.NotNil(t, pending)
	assert.Equal(t, "BBB", pending.Symbol)
	assert.Len(t, pending.Records, 2)
}

func TestNewSessionID_IsUnique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
	assert.Len(t, NewSessionID(), 32)
}
