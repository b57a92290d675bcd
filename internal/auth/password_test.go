package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPasswordHash(hash, "hunter22"))
	assert.False(t, CheckPasswordHash(hash, "hunter23"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := HashPassword("hunter22")
	require.NoError(t, err)

	second, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
