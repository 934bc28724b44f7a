package multireg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLaneWise(t *testing.T) {
	a := FromSlice([]uint32{3, 5, 1, 1, 1, 1, 1, 1})
	b := FromSlice([]uint32{4, 14, 1, 1, 1, 1, 1, 1})
	c, err := a.Add(b, 17)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), c.At(0))
	assert.Equal(t, uint32(2), c.At(1))
}

func TestSizeMismatch(t *testing.T) {
	a := New(8)
	b := New(4)
	_, err := a.Add(b, 17)
	require.Error(t, err)
	var mismatch *SizeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestCloneIsIndependent(t *testing.T) {
	a := New(4)
	a.Set(0, 99)
	b := a.Clone()
	b.Set(0, 1)
	assert.Equal(t, uint32(99), a.At(0))
	assert.Equal(t, uint32(1), b.At(0))
}

func TestRotate(t *testing.T) {
	a := FromSlice([]uint32{1, 2, 3, 4})
	rotated := a.Rotate(1)
	assert.Equal(t, []uint32{4, 1, 2, 3}, rotated.Lanes())
}

func TestCSVRoundTrip(t *testing.T) {
	a := FromSlice([]uint32{1, 2, 3})
	csv := a.ToCSV()
	fields := csv[1:] // drop leading comma
	b, err := FromCSVFields(splitCSV(fields))
	require.NoError(t, err)
	assert.Equal(t, a.Lanes(), b.Lanes())
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
