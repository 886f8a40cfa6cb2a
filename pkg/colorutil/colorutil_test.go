package colorutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#FF8800")
	require.NoError(t, err)
	assert.Equal(t, Orange, c)

	c, err = ParseHex("#00f")
	require.NoError(t, err)
	assert.Equal(t, Blue, c)

	_, err = ParseHex("red")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "#ff0000", Normalize("#F00", "#000000"))
	assert.Equal(t, "#000000", Normalize("nope", "#000000"))
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, "#0000ff", Distinct("#ff0000"))
	assert.Equal(t, "#ff0000", Distinct("#0000ff"))
	assert.Equal(t, "#0000ff", Distinct("garbage"))
}
