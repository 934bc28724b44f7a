package testvector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/runtime"
)

const doc = `{
	"modulus_chain": [17],
	"inputs": {"a": [1, 2], "b": [3, 4]},
	"immediates": {}
}`

func TestLoadAndInstall(t *testing.T) {
	v, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []uint32{17}, v.ModulusChain)

	rt := runtime.New(2)
	require.NoError(t, Install(rt, v))
	assert.True(t, rt.Model.Memory.Has("a_0"))
}

func TestValidatePassesOnMatch(t *testing.T) {
	v, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	rt := runtime.New(2)
	require.NoError(t, Install(rt, v))

	program := []isa.Instruction{
		{Opcode: isa.OpAdd, PMD: 1, Outputs: []isa.Operand{{Location: "c_0"}}, Inputs: []isa.Operand{{Location: "a_0"}, {Location: "b_0"}}},
	}
	require.NoError(t, rt.ExecuteProgram(program))

	v.Outputs = map[string][]uint32{"c": {4, 6}}
	assert.NoError(t, Validate(rt, v))
}

func TestValidateReportsMismatch(t *testing.T) {
	v, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	rt := runtime.New(2)
	require.NoError(t, Install(rt, v))

	program := []isa.Instruction{
		{Opcode: isa.OpAdd, PMD: 1, Outputs: []isa.Operand{{Location: "c_0"}}, Inputs: []isa.Operand{{Location: "a_0"}, {Location: "b_0"}}},
	}
	require.NoError(t, rt.ExecuteProgram(program))

	v.Outputs = map[string][]uint32{"c": {0, 0}}
	err = Validate(rt, v)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Mismatches, 2)
}
