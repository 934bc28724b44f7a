package functional

import (
	"github.com/pkg/errors"

	"github.com/nocturnelabs/pisasim/isa"
)

// execAdd implements dst[i] = montgomeryAdd(a[i], b[i], q).
func (m *Model) execAdd(instr isa.Instruction) error {
	q, err := m.modulusFor(instr.Residual)
	if err != nil {
		return err
	}
	a := m.Memory.Read(instr.Inputs[0].Location)
	b := m.Memory.Read(instr.Inputs[1].Location)
	out, err := a.Add(b, q)
	if err != nil {
		return errors.Wrap(err, "add")
	}
	m.Memory.Write(instr.Outputs[0].Location, out)
	return nil
}

// execSub implements the sub opcode's pre-corrected subtract-then-add.
func (m *Model) execSub(instr isa.Instruction) error {
	q, err := m.modulusFor(instr.Residual)
	if err != nil {
		return err
	}
	a := m.Memory.Read(instr.Inputs[0].Location)
	b := m.Memory.Read(instr.Inputs[1].Location)
	out, err := a.Sub(b, q)
	if err != nil {
		return errors.Wrap(err, "sub")
	}
	m.Memory.Write(instr.Outputs[0].Location, out)
	return nil
}

// execMul implements dst[i] = montgomeryMul(a[i], b[i], q).
func (m *Model) execMul(instr isa.Instruction) error {
	q, err := m.modulusFor(instr.Residual)
	if err != nil {
		return err
	}
	a := m.Memory.Read(instr.Inputs[0].Location)
	b := m.Memory.Read(instr.Inputs[1].Location)
	out, err := a.Mul(b, q)
	if err != nil {
		return errors.Wrap(err, "mul")
	}
	m.Memory.Write(instr.Outputs[0].Location, out)
	return nil
}

// execMuli implements dst[i] = montgomeryMul(a[i], s, q), s = imm[0].
func (m *Model) execMuli(instr isa.Instruction) error {
	q, err := m.modulusFor(instr.Residual)
	if err != nil {
		return err
	}
	a := m.Memory.Read(instr.Inputs[0].Location)
	s := m.Memory.ReadImmediate(instr.Immediate.Location).At(0)
	out := a.MulScalar(s, q)
	m.Memory.Write(instr.Outputs[0].Location, out)
	return nil
}

// execMac implements the accumulate-in-place opcode: t = mul(a,b,q);
// acc = add(acc, t, q). dst and acc share a single register (the
// InputOutput slot), per §4.F.
func (m *Model) execMac(instr isa.Instruction) error {
	q, err := m.modulusFor(instr.Residual)
	if err != nil {
		return err
	}
	a := m.Memory.Read(instr.Inputs[0].Location)
	b := m.Memory.Read(instr.Inputs[1].Location)
	t, err := a.Mul(b, q)
	if err != nil {
		return errors.Wrap(err, "mac")
	}
	accName := instr.Outputs[0].Location
	acc := m.Memory.Read(accName)
	out, err := acc.Add(t, q)
	if err != nil {
		return errors.Wrap(err, "mac")
	}
	m.Memory.Write(accName, out)
	return nil
}

// execMaci is execMac with a scalar immediate in place of the second input.
func (m *Model) execMaci(instr isa.Instruction) error {
	q, err := m.modulusFor(instr.Residual)
	if err != nil {
		return err
	}
	a := m.Memory.Read(instr.Inputs[0].Location)
	s := m.Memory.ReadImmediate(instr.Immediate.Location).At(0)
	t := a.MulScalar(s, q)
	accName := instr.Outputs[0].Location
	acc := m.Memory.Read(accName)
	out, err := acc.Add(t, q)
	if err != nil {
		return errors.Wrap(err, "maci")
	}
	m.Memory.Write(accName, out)
	return nil
}

// execCopy implements a whole-register copy.
func (m *Model) execCopy(instr isa.Instruction) error {
	src := m.Memory.Read(instr.Inputs[0].Location)
	m.Memory.Write(instr.Outputs[0].Location, src.Clone())
	return nil
}
