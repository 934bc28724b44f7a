package runtime

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/multireg"
)

func TestSetParamMemoryToMultiRegisterSplitsIntoChunks(t *testing.T) {
	rt := New(4)
	err := rt.SetParamMemoryToMultiRegister("p", []uint32{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.True(t, rt.Model.Memory.Has("p_0"))
	assert.True(t, rt.Model.Memory.Has("p_1"))
	assert.Equal(t, []uint32{5, 6, 7, 8}, rt.Model.Memory.Read("p_1").Lanes())
}

func TestSetParamMemoryRejectsNonMultiple(t *testing.T) {
	rt := New(4)
	err := rt.SetParamMemoryToMultiRegister("p", []uint32{1, 2, 3})
	require.Error(t, err)
}

func TestGetParamMemoryRoundTrip(t *testing.T) {
	rt := New(2)
	require.NoError(t, rt.SetParamMemoryToMultiRegister("p", []uint32{1, 2, 3, 4}))
	out, err := rt.GetParamMemoryFromMultiRegister("p")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 4}, out)
}

func TestExecuteProgramSequentialOrder(t *testing.T) {
	rt := New(2)
	rt.SetModulusChain([]uint32{17})
	rt.Model.Memory.Write("a_0", multireg.FromSlice([]uint32{1, 2}))
	rt.Model.Memory.Write("b_0", multireg.FromSlice([]uint32{3, 4}))

	program := []isa.Instruction{
		{Opcode: isa.OpAdd, PMD: 1, Outputs: []isa.Operand{{Location: "c_0"}}, Inputs: []isa.Operand{{Location: "a_0"}, {Location: "b_0"}}},
	}
	require.NoError(t, rt.ExecuteProgram(program))
	assert.True(t, rt.Model.Memory.Has("c_0"))
}

func TestDumpAndSetDeviceMemoryRoundTrip(t *testing.T) {
	rt := New(2)
	rt.SetModulusChain([]uint32{17, 19})
	rt.Model.Memory.Write("a_0", multireg.FromSlice([]uint32{1, 2}))

	var buf bytes.Buffer
	require.NoError(t, rt.DumpDeviceMemory(&buf, nil))

	rt2 := New(2)
	require.NoError(t, rt2.SetDeviceMemory(&buf))
	assert.Equal(t, []uint32{1, 2}, rt2.Model.Memory.Read("a_0").Lanes())
	assert.Equal(t, []uint32{17, 19}, rt2.Model.ModulusChain)
}

func TestRenameIntermediatesPreservesDependencies(t *testing.T) {
	program := []isa.Instruction{
		{Opcode: isa.OpAdd, Outputs: []isa.Operand{{Location: "c_0"}}, Inputs: []isa.Operand{{Location: "a_0"}, {Location: "b_0"}}},
		{Opcode: isa.OpMul, Outputs: []isa.Operand{{Location: "d_0"}}, Inputs: []isa.Operand{{Location: "c_0"}, {Location: "b_0"}}},
	}
	renamed := RenameIntermediates(program)
	require.Len(t, renamed, 2)
	assert.Equal(t, renamed[0].Outputs[0].Location, renamed[1].Inputs[0].Location)
	assert.Equal(t, "a_0", renamed[0].Inputs[0].Location)
}
