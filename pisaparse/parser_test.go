package pisaparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturnelabs/pisasim/isa"
)

func TestParseAdd(t *testing.T) {
	in, err := ParseLine("13, add, out0 (1), in0 (0), in1 (0), 0")
	require.NoError(t, err)
	assert.Equal(t, isa.OpAdd, in.Opcode)
	assert.Equal(t, 13, in.PMD)
	assert.Equal(t, "out0", in.Outputs[0].Location)
	assert.Equal(t, 1, in.Outputs[0].Bank)
	assert.Equal(t, "in0", in.Inputs[0].Location)
	assert.Equal(t, 0, in.Residual)
}

func TestParseMuli(t *testing.T) {
	in, err := ParseLine("13, muli, d, a, i0, 2")
	require.NoError(t, err)
	assert.Equal(t, isa.OpMuli, in.Opcode)
	assert.Equal(t, "i0", in.Immediate.Location)
	assert.True(t, in.Immediate.Immediate)
}

func TestParseNTT(t *testing.T) {
	in, err := ParseLine("13, ntt, d0, d1, s0, s1, w_2_5_3, 2")
	require.NoError(t, err)
	assert.Equal(t, isa.OpNTT, in.Opcode)
	assert.Equal(t, isa.WParam{Residual: 2, Stage: 5, Block: 3}, in.W)
	assert.Equal(t, 2, in.Residual)
}

func TestParseINTT(t *testing.T) {
	in, err := ParseLine("13, intt, d0, d1, s0, s1, w_2_5_3, 2, 1")
	require.NoError(t, err)
	assert.Equal(t, isa.OpINTT, in.Opcode)
	assert.Equal(t, "1", in.GaloisElement)
}

func TestUnknownOpcodeFatal(t *testing.T) {
	_, err := ParseLine("13, frobnicate, a, b")
	require.Error(t, err)
}

func TestArityMismatchFatal(t *testing.T) {
	_, err := ParseLine("13, add, out0, in0, 0")
	require.Error(t, err)
}

// TestRoundTrip checks parse(print(I)) == I for every opcode with every
// descriptor field populated (spec.md §8 testable property 2, scenario S5).
func TestRoundTrip(t *testing.T) {
	lines := []string{
		"13,add,r_0_1 (2),r_0_2 (0),r_0_3 (0),0",
		"13,sub,c,a,b,1",
		"13,mul,c,a,b,2",
		"13,muli,d,a,i0,2",
		"13,mac,dst,a,b,0",
		"13,maci,dst,a,i0,0",
		"13,copy,dst,src",
		"13,ntt,d0,d1,s0,s1,w_2_5_3,2",
		"13,intt,d0,d1,s0,s1,w_2_5_3,2,1",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			in, err := ParseLine(line)
			require.NoError(t, err)
			var buf strings.Builder
			require.NoError(t, Print(&buf, []isa.Instruction{in}))
			printed := strings.TrimSuffix(buf.String(), "\n")
			in2, err := ParseLine(printed)
			require.NoError(t, err)
			assert.Equal(t, in, in2)
		})
	}
}

func TestParseProgram(t *testing.T) {
	src := "13, add, c, a, b, 0\n13, mul, e, c, d, 0\n"
	program, err := ParseProgram(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, program, 2)
	assert.Equal(t, isa.OpAdd, program[0].Opcode)
	assert.Equal(t, isa.OpMul, program[1].Opcode)
}

func TestParseProgramPreservesOffendingLine(t *testing.T) {
	src := "13, add, c, a, b, 0\nbogus line here\n"
	_, err := ParseProgram(strings.NewReader(src))
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Contains(t, perr.Text, "bogus line here")
}
