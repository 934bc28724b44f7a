package functional

import (
	"golang.org/x/sync/errgroup"

	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/montgomery"
)

// execNTT implements the partial forward butterfly (§4.F). The trailing
// RESIDUAL slot in the wire form mirrors wparam.residual for every program
// this core has observed; execution keys off wparam.residual directly, per
// the functional model's own parameter list.
func (m *Model) execNTT(instr isa.Instruction) error {
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
	if residual >= len(m.nttTwiddle) {
		return &MissingTwiddleError{Residual: residual}
	}
	tw := m.nttTwiddle[residual]

	blockCount := lN - m.blockCountBase
	increment := 1 << uint(blockCount)

	bitRev := m.bitReverseTable(lN)
	startTable := m.startTable(increment)
	if block < 0 || block >= len(startTable) {
		return &BlockOutOfRangeError{Block: block, StartTableLen: len(startTable)}
	}

	src0 := m.Memory.Read(instr.Inputs[0].Location).Lanes()
	src1 := m.Memory.Read(instr.Inputs[1].Location).Lanes()
	dst0 := m.Memory.Read(instr.Outputs[0].Location).Lanes()
	dst1 := m.Memory.Read(instr.Outputs[1].Location).Lanes()

	sp := uint(lN - 1 - stage)

	var g errgroup.Group
	for i := startTable[block]; i < halfN; i += increment {
		i := i
		g.Go(func() error {
			j := bitRev[i]
			in0 := (2 * j) % blockSize
			in1 := (2*j + 1) % blockSize
			out0 := j % halfBlock
			out1 := ((j + halfN) % halfBlock) + halfBlock
			k := (j >> sp) << sp

			xin0 := readLane(src0, src1, in0, halfBlock)
			xin1 := readLane(src0, src1, in1, halfBlock)

			t0 := xin0
			var t1 uint32
			if stage == 0 {
				t1 = xin1
			} else {
				if k >= len(tw) {
					return &MissingTwiddleError{Residual: residual, Index: k}
				}
				t1 = montgomery.KernelMul(xin1, tw[k], q)
			}
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
