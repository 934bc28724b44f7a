// Package pisaparse implements the text parser (component D): CSV line ->
// Instruction, driven by the opcode's descriptor.
package pisaparse

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nocturnelabs/pisasim/isa"
)

// ParseError reports a malformed line, preserving the offending text per
// §7/§4.D ("failure messages preserve the offending line").
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return "pisaparse: line " + strconv.Itoa(e.Line) + ": " + e.Reason + ": " + e.Text
}

// ParseProgram parses UTF-8 P-ISA text, one instruction per line, from r.
// Parsing stops at the first bad line (§4.D: "Opcode not found is fatal",
// "Mismatched arity is fatal").
func ParseProgram(r io.Reader) ([]isa.Instruction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var program []isa.Instruction
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		instr, err := ParseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: raw, Reason: err.Error()}
		}
		program = append(program, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "pisaparse: reading program")
	}
	return program, nil
}

// ParseLine parses a single CSV instruction line. The fields are
// comma-separated; whitespace around the opcode token is stripped. The
// second field (index 1) is the opcode name, used to look up the
// prototype descriptor; fields and descriptor slots are then walked in
// lockstep.
func ParseLine(line string) (isa.Instruction, error) {
	fields := splitFields(line)
	if len(fields) < 2 {
		return isa.Instruction{}, errors.New("line has fewer than 2 fields (pmd, opcode)")
	}

	opcodeName := isa.Opcode(strings.TrimSpace(fields[1]))
	desc, err := isa.OpcodeDescriptor(opcodeName)
	if err != nil {
		return isa.Instruction{}, err
	}

	if len(fields) != len(desc) {
		return isa.Instruction{}, errors.Errorf(
			"opcode %s expects %d fields, got %d", opcodeName, len(desc), len(fields))
	}

	instr := isa.Instruction{Opcode: opcodeName}
	for i, slot := range desc {
		field := fields[i]
		switch slot {
		case isa.SlotPMD:
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return isa.Instruction{}, errors.Wrap(err, "parsing pmd")
			}
			instr.PMD = v
		case isa.SlotOpName:
			// already consumed above; re-validate it matches.
			if isa.Opcode(strings.TrimSpace(field)) != opcodeName {
				return isa.Instruction{}, errors.Errorf("opcode field mismatch: %q", field)
			}
		case isa.SlotOutput:
			op, err := isa.ParseOperand(field, isa.KindOutput)
			if err != nil {
				return isa.Instruction{}, err
			}
			instr.Outputs = append(instr.Outputs, op)
		case isa.SlotInputOutput:
			op, err := isa.ParseOperand(field, isa.KindInputOutput)
			if err != nil {
				return isa.Instruction{}, err
			}
			instr.Outputs = append(instr.Outputs, op)
		case isa.SlotInput:
			op, err := isa.ParseOperand(field, isa.KindInput)
			if err != nil {
				return isa.Instruction{}, err
			}
			instr.Inputs = append(instr.Inputs, op)
		case isa.SlotImmediate:
			op, err := isa.ParseOperand(field, isa.KindImmediateOperand)
			if err != nil {
				return isa.Instruction{}, err
			}
			instr.Immediate = op
		case isa.SlotResidual:
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return isa.Instruction{}, errors.Wrap(err, "parsing residual")
			}
			instr.Residual = v
		case isa.SlotWPacked:
			w, err := isa.ParseWParam(field)
			if err != nil {
				return isa.Instruction{}, err
			}
			instr.W = w
		case isa.SlotGalois:
			instr.GaloisElement = strings.TrimSpace(field)
		case isa.SlotGroupID:
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return isa.Instruction{}, errors.Wrap(err, "parsing group id")
			}
			instr.GroupID = v
		case isa.SlotStage:
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return isa.Instruction{}, errors.Wrap(err, "parsing stage")
			}
			instr.W.Stage = v
		case isa.SlotBlock:
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return isa.Instruction{}, errors.Wrap(err, "parsing block")
			}
			instr.W.Block = v
		default:
			return isa.Instruction{}, errors.Errorf("unknown descriptor slot %v", slot)
		}
	}
	return instr, nil
}

// Print renders instructions back to P-ISA text, one per line, via each
// instruction's descriptor-driven String method.
func Print(w io.Writer, program []isa.Instruction) error {
	bw := bufio.NewWriter(w)
	for _, in := range program {
		if _, err := bw.WriteString(in.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// splitFields splits a CSV line on "," without trimming any field.
// ParseLine strips the whitespace around the opcode field (§4.D: "all
// whitespace around the opcode token is stripped"); other fields are
// trimmed by their slot-specific parse routines, mirroring the
// per-slot-type parsing the descriptor dispatch performs.
func splitFields(line string) []string {
	return strings.Split(line, ",")
}
