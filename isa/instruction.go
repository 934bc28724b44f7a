package isa

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Opcode is the tagged variant discriminator over the opcode set.
type Opcode string

const (
	OpAdd  Opcode = "add"
	OpSub  Opcode = "sub"
	OpMul  Opcode = "mul"
	OpMuli Opcode = "muli"
	OpMac  Opcode = "mac"
	OpMaci Opcode = "maci"
	OpNTT  Opcode = "ntt"
	OpINTT Opcode = "intt"
	OpCopy Opcode = "copy"
)

// Slot is one parameter position in an opcode's descriptor — the schema
// that is the single source of truth for both parsing and printing.
type Slot int

const (
	SlotOpName Slot = iota
	SlotInput
	SlotOutput
	SlotInputOutput
	SlotImmediate
	SlotPMD
	SlotResidual
	SlotWPacked
	SlotGalois
	SlotGroupID
	SlotStage
	SlotBlock
)

// Descriptor is the ordered list of slots an opcode's textual form is built
// from: the concatenation of descriptor slot renderings, separated by ",".
type Descriptor []Slot

// descriptors holds the fixed descriptor table keyed by opcode baseName,
// per the table in §3. This is the global instruction prototype table from
// §9's design note, expressed as a pure lookup function (OpcodeDescriptor)
// rather than a process-wide singleton of allocated prototype instances.
var descriptors = map[Opcode]Descriptor{
	OpAdd:  {SlotPMD, SlotOpName, SlotOutput, SlotInput, SlotInput, SlotResidual},
	OpSub:  {SlotPMD, SlotOpName, SlotOutput, SlotInput, SlotInput, SlotResidual},
	OpMul:  {SlotPMD, SlotOpName, SlotOutput, SlotInput, SlotInput, SlotResidual},
	OpMuli: {SlotPMD, SlotOpName, SlotOutput, SlotInput, SlotImmediate, SlotResidual},
	OpMac:  {SlotPMD, SlotOpName, SlotInputOutput, SlotInput, SlotInput, SlotResidual},
	OpMaci: {SlotPMD, SlotOpName, SlotInputOutput, SlotInput, SlotImmediate, SlotResidual},
	OpCopy: {SlotPMD, SlotOpName, SlotOutput, SlotInput},
	OpNTT:  {SlotPMD, SlotOpName, SlotOutput, SlotOutput, SlotInput, SlotInput, SlotWPacked, SlotResidual},
	OpINTT: {SlotPMD, SlotOpName, SlotOutput, SlotOutput, SlotInput, SlotInput, SlotWPacked, SlotResidual, SlotGalois},
}

// OpcodeDescriptor returns the fixed descriptor for name, or an error if
// the opcode is unknown. This is the pure lookup function the parser and
// printer both drive from.
func OpcodeDescriptor(name Opcode) (Descriptor, error) {
	d, ok := descriptors[name]
	if !ok {
		return nil, errors.Errorf("isa: unknown opcode %q", name)
	}
	return d, nil
}

// Instruction is the tagged variant over the opcode set. All opcodes share
// the header fields (PMD, Inputs, Outputs, Residual); ntt/intt additionally
// carry a WParam and (intt only) a Galois element. GroupID is reserved for
// future descriptor slots (SlotGroupID) not emitted by any opcode in this
// core's descriptor table, carried for forward compatibility with the
// instruction model's full slot set.
type Instruction struct {
	Opcode   Opcode
	PMD      int
	Inputs   []Operand
	Outputs  []Operand
	Residual int

	// Immediate is populated for muli/maci from the SlotImmediate token.
	Immediate Operand

	// W and GaloisElement are populated for ntt/intt.
	W             WParam
	GaloisElement string

	GroupID int
}

// Descriptor returns this instruction's fixed descriptor.
func (in Instruction) Descriptor() (Descriptor, error) {
	return OpcodeDescriptor(in.Opcode)
}

// String prints the instruction by walking its descriptor in order and
// rendering each slot, joined with "," — the inverse of pisaparse.ParseLine.
func (in Instruction) String() string {
	desc, err := in.Descriptor()
	if err != nil {
		return "<invalid instruction: " + err.Error() + ">"
	}
	var fields []string
	inputIdx, outputIdx := 0, 0
	for _, slot := range desc {
		switch slot {
		case SlotPMD:
			fields = append(fields, strconv.Itoa(in.PMD))
		case SlotOpName:
			fields = append(fields, string(in.Opcode))
		case SlotOutput:
			fields = append(fields, in.Outputs[outputIdx].String())
			outputIdx++
		case SlotInputOutput:
			// The inout slot reads its value from Outputs[0], matching
			// how mac/maci bind a single operand as both operand list's
			// shared name (§3: "dst and acc are the same register").
			fields = append(fields, in.Outputs[outputIdx].String())
			outputIdx++
		case SlotInput:
			fields = append(fields, in.Inputs[inputIdx].String())
			inputIdx++
		case SlotImmediate:
			fields = append(fields, in.Immediate.String())
		case SlotResidual:
			fields = append(fields, strconv.Itoa(in.Residual))
		case SlotWPacked:
			fields = append(fields, in.W.String())
		case SlotGalois:
			fields = append(fields, in.GaloisElement)
		case SlotGroupID:
			fields = append(fields, strconv.Itoa(in.GroupID))
		case SlotStage:
			fields = append(fields, strconv.Itoa(in.W.Stage))
		case SlotBlock:
			fields = append(fields, strconv.Itoa(in.W.Block))
		}
	}
	return strings.Join(fields, ",")
}

// AllInputs returns every operand the instruction reads from, including
// the inout operand for mac/maci (which is both read and written) and the
// immediate operand for muli/maci.
func (in Instruction) AllInputs() []Operand {
	out := in.Inputs
	if in.Opcode == OpMac || in.Opcode == OpMaci {
		withInout := make([]Operand, 0, len(in.Inputs)+1)
		withInout = append(withInout, in.Outputs[0])
		withInout = append(withInout, in.Inputs...)
		out = withInout
	}
	if in.Opcode == OpMuli || in.Opcode == OpMaci {
		withImmediate := make([]Operand, 0, len(out)+1)
		withImmediate = append(withImmediate, out...)
		withImmediate = append(withImmediate, in.Immediate)
		out = withImmediate
	}
	return out
}

// AllOutputs returns every operand the instruction writes to.
func (in Instruction) AllOutputs() []Operand {
	return in.Outputs
}
