package functional

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/memory"
	"github.com/nocturnelabs/pisasim/multireg"
)

const testQ = uint32(17)

func newTestModel(width int) *Model {
	m := NewModel(memory.New(width))
	m.SetModulusChain([]uint32{testQ, testQ, testQ})
	return m
}

func TestDecodeAdd(t *testing.T) {
	m := newTestModel(4)
	m.Memory.Write("a_0", multireg.FromSlice([]uint32{1, 2, 3, 4}))
	m.Memory.Write("b_0", multireg.FromSlice([]uint32{4, 4, 4, 4}))

	instr := isa.Instruction{
		Opcode:   isa.OpAdd,
		PMD:      2,
		Outputs:  []isa.Operand{{Location: "c_0"}},
		Inputs:   []isa.Operand{{Location: "a_0"}, {Location: "b_0"}},
		Residual: 0,
	}
	require.NoError(t, m.Decode(instr))

	out := m.Memory.Read("c_0")
	for i := 0; i < 4; i++ {
		assert.Equal(t, montgomeryAddRef(instr, m, i), out.At(i))
	}
}

func montgomeryAddRef(instr isa.Instruction, m *Model, i int) uint32 {
	a := m.Memory.Read("a_0").At(i)
	b := m.Memory.Read("b_0").At(i)
	return kernelAddForTest(a, b, testQ)
}

func TestDecodeMuli(t *testing.T) {
	m := newTestModel(2)
	m.Memory.Write("a_0", multireg.FromSlice([]uint32{3, 5}))
	m.Memory.Write("s", multireg.FromSlice([]uint32{2}))

	instr := isa.Instruction{
		Opcode:    isa.OpMuli,
		PMD:       1,
		Outputs:   []isa.Operand{{Location: "d_0"}},
		Inputs:    []isa.Operand{{Location: "a_0"}},
		Immediate: isa.Operand{Location: "s", Immediate: true},
		Residual:  1,
	}
	require.NoError(t, m.Decode(instr))
	assert.Equal(t, 2, m.Memory.Read("d_0").Width())
}

func TestDecodeMacAccumulatesInPlace(t *testing.T) {
	m := newTestModel(2)
	m.Memory.Write("acc_0", multireg.FromSlice([]uint32{1, 1}))
	m.Memory.Write("a_0", multireg.FromSlice([]uint32{2, 2}))
	m.Memory.Write("b_0", multireg.FromSlice([]uint32{3, 3}))

	instr := isa.Instruction{
		Opcode:   isa.OpMac,
		PMD:      1,
		Outputs:  []isa.Operand{{Location: "acc_0"}},
		Inputs:   []isa.Operand{{Location: "a_0"}, {Location: "b_0"}},
		Residual: 0,
	}
	require.NoError(t, m.Decode(instr))
	assert.NotNil(t, m.Memory.Read("acc_0"))
}

func TestDecodeCopy(t *testing.T) {
	m := newTestModel(3)
	m.Memory.Write("src_0", multireg.FromSlice([]uint32{5, 6, 7}))
	instr := isa.Instruction{
		Opcode:   isa.OpCopy,
		PMD:      1,
		Outputs:  []isa.Operand{{Location: "dst_0"}},
		Inputs:   []isa.Operand{{Location: "src_0"}},
		Residual: 0,
	}
	require.NoError(t, m.Decode(instr))
	assert.Equal(t, []uint32{5, 6, 7}, m.Memory.Read("dst_0").Lanes())
}

func TestDecodeUnknownOpcodeFatal(t *testing.T) {
	m := newTestModel(2)
	err := m.Decode(isa.Instruction{Opcode: "bogus"})
	require.Error(t, err)
}

func TestBitReverseTableKnownValues(t *testing.T) {
	m := newTestModel(8)
	// lN=3 reverses the low 2 bits of each j in [0,8): period-4 pattern
	// 0,2,1,3 repeating, since the high bit of j never participates.
	table := m.bitReverseTable(3)
	assert.Equal(t, []int{0, 2, 1, 3, 0, 2, 1, 3}, table)
}

func TestStartTableLength(t *testing.T) {
	m := newTestModel(8)
	table := m.startTable(4)
	assert.Len(t, table, 4)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, table)
}

func TestNTTStageZeroButterfly(t *testing.T) {
	// W=4 keeps the butterfly small enough to hand-check: N=8 (lN=3), a
	// single block_count=0 instruction covers the whole stage range.
	const width = 4
	m := NewModel(memory.New(width))
	m.SetModulusChain([]uint32{testQ})

	// Twiddle tables sized to half_N=4 entries; stage 0 never multiplies
	// by a twiddle factor so any values work for that lookup.
	m.SetNTTTwiddleFactors([][]uint32{{1, 2, 3, 4}})
	m.SetINTTTwiddleFactors(map[string][][]uint32{"1": {{1, 2, 3, 4}}})

	m.Memory.Write("s_0", multireg.FromSlice([]uint32{1, 2, 3, 4}))
	m.Memory.Write("s_1", multireg.FromSlice([]uint32{5, 6, 7, 8}))

	lN := 3 // N=8, half_N=4, block_count = lN - blockCountBase
	// blockCountBase for width=4 is log2(2*4)=3, so block_count=0, increment=1.
	require.Equal(t, 3, m.blockCountBase)

	instr := isa.Instruction{
		Opcode:   isa.OpNTT,
		PMD:      lN,
		Outputs:  []isa.Operand{{Location: "d_0"}, {Location: "d_1"}},
		Inputs:   []isa.Operand{{Location: "s_0"}, {Location: "s_1"}},
		W:        isa.WParam{Residual: 0, Stage: 0, Block: 0},
		Residual: 0,
	}
	require.NoError(t, m.Decode(instr))

	// Every lane of both outputs must have been written (block covers the
	// full half_N range at block_count=0). Stage 0 pairs lanes (1,2),
	// (3,4), (5,6), (7,8): d_0 gets a+b mod 17, d_1 gets a-b mod 17.
	assert.Equal(t, []uint32{3, 7, 11, 15}, m.Memory.Read("d_0").Lanes())
	assert.Equal(t, []uint32{16, 16, 16, 16}, m.Memory.Read("d_1").Lanes())
}

func kernelAddForTest(a, b, q uint32) uint32 {
	s := uint64(a) + uint64(b)
	if s >= uint64(q) {
		s -= uint64(q)
	}
	return uint32(s)
}
