package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeASCIIHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "48656C6C6F>", "Hello"},
		{"whitespace ignored", "48 65\n6C 6C\t6F>", "Hello"},
		{"odd trailing nibble padded", "48656C6C6F0>", "Hello\x00"},
		{"missing terminator tolerated", "48656C6C6F", "Hello"},
		{"lowercase hex", "68656c6c6f>", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeASCIIHex([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDecodeASCIIHex_InvalidDigitErrors(t *testing.T) {
	_, err := decodeASCIIHex([]byte("48ZZ>"))
	assert.Error(t, err)
}
