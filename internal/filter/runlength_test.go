package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRunLength(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"literal run", []byte{2, 'a', 'b', 'c'}, "abc"},
		{"repeat run", []byte{257 - 5, 'x'}, "xxxxx"},
		{"eod stops early", []byte{2, 'a', 'b', 'c', 128, 9, 9, 9}, "abc"},
		{"mixed", []byte{1, 'h', 'i', 255, 'Y', 128}, "hiYY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRunLength(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDecodeRunLength_TruncatedRepeatCountIgnored(t *testing.T) {
	got, err := decodeRunLength([]byte{255})
	require.NoError(t, err)
	assert.Empty(t, got)
}
