package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest("U1", "P001", "great headphones", "2026-01-02T15:04:05Z")
	b := Digest("U1", "P001", "great headphones", "2026-01-02T15:04:05Z")
	require.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDigestPerturbations(t *testing.T) {
	base := Digest("U1", "P001", "great headphones")

	perturbed := []struct {
		name  string
		parts []string
	}{
		{"changed user", []string{"U2", "P001", "great headphones"}},
		{"changed product", []string{"U1", "P002", "great headphones"}},
		{"changed one character", []string{"U1", "P001", "great headphonez"}},
		{"reordered parts", []string{"P001", "U1", "great headphones"}},
		{"shifted delimiter", []string{"U1", "P001|great", "headphones"}},
	}
	for _, tc := range perturbed {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, base, Digest(tc.parts...))
		})
	}
}

func TestTxRefPrefix(t *testing.T) {
	ref := TxRef("U1", "P001", "text")
	require.Len(t, ref, 66)
	assert.Equal(t, "0x", ref[:2])
	assert.Equal(t, Digest("U1", "P001", "text"), ref[2:])
}
