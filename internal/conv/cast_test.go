package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64ToInt32(t *testing.T) {
	v, err := Int64ToInt32(math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), v)

	_, err = Int64ToInt32(math.MaxInt32 + 1)
	require.Error(t, err)

	_, err = Int64ToInt32(math.MinInt32 - 1)
	require.Error(t, err)
}

func TestIntToInt32(t *testing.T) {
	v, err := IntToInt32(42)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	_, err = IntToInt32(math.MaxInt32 + 1)
	require.Error(t, err)
}

func TestInt64ToUint64(t *testing.T) {
	v, err := Int64ToUint64(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	_, err = Int64ToUint64(-1)
	require.Error(t, err)
}

func TestInt64ToInt(t *testing.T) {
	v, err := Int64ToInt(1 << 40)
	require.NoError(t, err)
	assert.Equal(t, 1<<40, v)
}
