package kind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		token string
		want  Kind
	}{
		{"logical", Bool},
		{"integer", Int32},
		{"double", Float64},
		{"complex", Complex128},
		{"character", String},
		{"raw", Byte},
		{"list", Any},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := Parse(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.token, got.String())
			assert.True(t, got.Valid())
		})
	}
}

func TestParseUnknownToken(t *testing.T) {
	for _, token := range []string{"", "numeric", "float", "LOGICAL"} {
		_, err := Parse(token)
		require.ErrorIs(t, err, ErrUnsupportedKind, "token %q", token)
	}
}

func TestKindSize(t *testing.T) {
	assert.Equal(t, 4, Bool.Size())
	assert.Equal(t, 4, Int32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, 16, Complex128.Size())
	assert.Equal(t, 1, Byte.Size())
	assert.Equal(t, 0, Kind(0).Size())
}

func TestKindZero(t *testing.T) {
	assert.Equal(t, int32(0), Bool.Zero())
	assert.Equal(t, int32(0), Int32.Zero())
	assert.Equal(t, float64(0), Float64.Zero())
	assert.Equal(t, complex128(0), Complex128.Zero())
	assert.Equal(t, byte(0), Byte.Zero())
	assert.Equal(t, "", String.Zero())
	assert.Nil(t, Any.Zero())
}

func TestInvalidKind(t *testing.T) {
	assert.False(t, Kind(0).Valid())
	assert.False(t, Kind(99).Valid())
}
