package functional

import (
	"golang.org/x/sync/errgroup"

	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/montgomery"
)

// execINTT implements the partial inverse butterfly (§4.F). Same index
// derivation as execNTT except the iteration range is a contiguous slice
// rather than a strided walk, and the twiddle lookup is additionally keyed
// by the instruction's Galois element. As in execNTT, modulus and twiddle
// lookups key off wparam.residual, not the trailing RESIDUAL slot.
func (m *Model) execINTT(instr isa.Instruction) error {
	lN := instr.PMD
	halfN := (1 << uint(lN)) / 2
	blockSize := 2 * m.width
	halfBlock := m.width
	residual := instr.W.Residual
	stage := instr.W.Stage
	block := instr.W.Block

	q, err := m.modulusFor(residual)
	if err != nil {
		return err
	}

	ge := instr.GaloisElement
	if ge == "" {
		ge = "default"
	}
	byResidual, ok := m.inttTwiddle[ge]
	if !ok {
		return &MissingTwiddleError{Galois: ge, Residual: residual}
	}
	if residual >= len(byResidual) {
		return &MissingTwiddleError{Galois: ge, Residual: residual}
	}
	tw := byResidual[residual]

	blockCount := lN - m.blockCountBase
	increment := 1 << uint(blockCount)
	if block < 0 || block >= increment {
		return &BlockOutOfRangeError{Block: block, StartTableLen: increment}
	}
	sliceSize := halfN / increment
	start := block * sliceSize
	end := start + sliceSize

	bitRev := m.bitReverseTable(lN)

	src0 := m.Memory.Read(instr.Inputs[0].Location).Lanes()
	src1 := m.Memory.Read(instr.Inputs[1].Location).Lanes()
	dst0 := m.Memory.Read(instr.Outputs[0].Location).Lanes()
	dst1 := m.Memory.Read(instr.Outputs[1].Location).Lanes()

	sp := uint(lN - 1 - stage)

	var g errgroup.Group
	for i := start; i < end; i++ {
		i := i
		g.Go(func() error {
			j := bitRev[i]
			in0 := i % halfBlock
			in1 := ((i + halfN) % halfBlock) + halfBlock
			out0 := (2 * i) % blockSize
			out1 := (2*i + 1) % blockSize
			k := (j >> sp) << sp

			xin0 := readLane(src0, src1, in0, halfBlock)
			xin1 := readLane(src0, src1, in1, halfBlock)

			if k >= len(tw) {
				return &MissingTwiddleError{Galois: ge, Residual: residual, Index: k}
			}
			t0 := xin0
			t1 := montgomery.KernelMul(xin1, tw[k], q)
			t2 := q - t1

			xout0 := montgomery.KernelAdd(t0, t1, q)
			xout1 := montgomery.KernelAdd(t0, t2, q)

			writeLane(dst0, dst1, out0, halfBlock, xout0)
			writeLane(dst0, dst1, out1, halfBlock, xout1)
			return nil
		})
	}
	return g.Wait()
}
