package montgomery

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b, q uint32
		want    uint32
	}{
		{"below modulus", 3, 4, 17, 7},
		{"wraps once", 5, 14, 17, 2},
		{"zero modulus offset", 0, 0, 17, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.a, tt.b, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddDebugOutOfRange(t *testing.T) {
	DebugChecks = true
	defer func() { DebugChecks = false }()

	_, err := Add(16, 16, 17) // sum=32 >= 2*17=34? no, 32<34, should pass
	require.NoError(t, err)

	_, err = Add(30, 30, 17) // sum=60 >= 34
	require.Error(t, err)
	var rangeErr *OutOfRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestSub(t *testing.T) {
	got := Sub(5, 14, 17) // (5-14) mod 17 = -9 mod 17 = 8
	assert.Equal(t, uint32(8), got)
}

// montgomeryReference re-derives the §4.A REDC sequence with big.Int
// arithmetic instead of wrapping uint64 math, so a silent overflow bug in
// Mul would show up as a mismatch here even though the two share the same
// (non-textbook) k = q-2 constant the P-ISA source uses instead of the
// conventional precomputed -q^-1 mod 2^32.
func montgomeryReference(a, b, q uint32) uint32 {
	mod32 := new(big.Int).Lsh(big.NewInt(1), 32)
	u := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
	k := new(big.Int).Sub(big.NewInt(int64(q)), big.NewInt(2))
	k.Mod(k, mod32)
	t := new(big.Int).Mod(u, mod32)
	m := new(big.Int).Mul(t, k)
	m.Mod(m, mod32)
	uPrime := new(big.Int).Mul(m, big.NewInt(int64(q)))
	uPrime.Add(uPrime, u)
	uPrime.Rsh(uPrime, 32)
	if uPrime.Cmp(big.NewInt(int64(q))) >= 0 {
		uPrime.Sub(uPrime, big.NewInt(int64(q)))
	}
	return uint32(uPrime.Int64())
}

func TestMulAgreesWithReference(t *testing.T) {
	q := uint32(17)
	for a := uint32(0); a < q; a++ {
		for b := uint32(0); b < q; b++ {
			got := Mul(a, b, q)
			want := montgomeryReference(a, b, q)
			require.Equalf(t, want, got, "Mul(%d,%d,%d)", a, b, q)
			assert.Lessf(t, got, q, "Mul(%d,%d,%d) result must be in [0,q)", a, b, q)
		}
	}
}

func TestMulIdentityLane(t *testing.T) {
	// S2: q=17, a=b=1 (already in Montgomery form as supplied by the test
	// vector); result must stay within [0, q).
	got := Mul(1, 1, 17)
	assert.Less(t, got, uint32(17))
}

func TestPlainFallback(t *testing.T) {
	assert.Equal(t, uint32(2), PlainAdd(5, 14, 17))
	assert.Equal(t, uint32(15), PlainMul(3, 5, 17))
}

func TestKernelDispatch(t *testing.T) {
	UseMontgomery = false
	defer func() { UseMontgomery = true }()
	assert.Equal(t, PlainAdd(5, 14, 17), KernelAdd(5, 14, 17))
	assert.Equal(t, PlainMul(3, 5, 17), KernelMul(3, 5, 17))
}
