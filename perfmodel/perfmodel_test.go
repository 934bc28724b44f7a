package perfmodel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturnelabs/pisasim/hwdesc"
	"github.com/nocturnelabs/pisasim/isa"
)

func newSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func chainedProgram() []isa.Instruction {
	return []isa.Instruction{
		{Opcode: isa.OpAdd, Outputs: []isa.Operand{{Location: "c_0"}}, Inputs: []isa.Operand{{Location: "a_0"}, {Location: "b_0"}}},
		{Opcode: isa.OpMul, Outputs: []isa.Operand{{Location: "d_0"}}, Inputs: []isa.Operand{{Location: "c_0"}, {Location: "b_0"}}},
	}
}

func TestRunProducesNonZeroCycles(t *testing.T) {
	report := Run(chainedProgram(), hwdesc.Example(), Options{QuickSchedule: true})
	assert.Greater(t, report.TotalCyclesUsed, 0)
}

func TestRunWithTopology(t *testing.T) {
	report := Run(chainedProgram(), hwdesc.Example(), Options{QuickSchedule: true, IncludeTopology: true})
	require.NotNil(t, report.Topology)
	assert.Greater(t, report.Topology.Depth, 0)
	assert.Greater(t, report.Topology.TotalInputs, 0)
}

func TestRunRandomModeIsDeterministicWithFixedSeed(t *testing.T) {
	opts := Options{Mode: ScheduleRandom, RandSource: newSeededRand(42)}
	r1 := Run(chainedProgram(), hwdesc.Model1(), opts)
	opts2 := Options{Mode: ScheduleRandom, RandSource: newSeededRand(42)}
	r2 := Run(chainedProgram(), hwdesc.Model1(), opts2)
	assert.Equal(t, r1.TotalCyclesUsed, r2.TotalCyclesUsed)
}
