package sha256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPartsSinglePartDigest(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.HashParts("hello world")
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)
}

func TestHashParts(t *testing.T) {
	t.Parallel()

	h := New()
	tests := []struct {
		name string
		a, b []string
		same bool
	}{
		{"boundary shift", []string{"ab", "c"}, []string{"a", "bc"}, false},
		{"category scopes url", []string{"BBC_DETAIL", "https://x/1"}, []string{"CNN_DETAIL", "https://x/1"}, false},
		{"deterministic", []string{"BBC_DETAIL", "https://x/1"}, []string{"BBC_DETAIL", "https://x/1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := h.HashParts(tt.a...)
			require.NoError(t, err)
			b, err := h.HashParts(tt.b...)
			require.NoError(t, err)
			if tt.same {
				assert.Equal(t, a, b)
			} else {
				assert.NotEqual(t, a, b)
			}
		})
	}
}
