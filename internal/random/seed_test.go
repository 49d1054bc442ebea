package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
