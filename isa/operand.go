// Package isa implements the instruction and operand model (component C):
// a tagged opcode set, each carrying a fixed printer/parser descriptor, and
// the Operand/WParam value types the descriptor slots parse into.
package isa

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Operand carries a location string (e.g. "r_0_3_1"), an optional bank
// integer parsed from a trailing "(n)", an immediate flag, and a derived
// (root, index) split of location.
type Operand struct {
	Location  string
	Bank      int // -1 when absent
	Immediate bool
}

// HasBank reports whether the operand carried a "(n)" bank annotation.
func (o Operand) HasBank() bool { return o.Bank != -1 }

// Split returns the operand's (root, index) pair per §3: count
// underscores in Location, remove the final one, the two halves are root
// and index. Root is the polynomial-level name; Location (with bank) is
// the resident-register name.
func (o Operand) Split() (root, index string) {
	i := strings.LastIndexByte(o.Location, '_')
	if i < 0 {
		return o.Location, ""
	}
	return o.Location[:i], o.Location[i+1:]
}

// String renders the operand back to its textual form: "name" or
// "name (bank)". This is the inverse of ParseOperand, preserving the bank
// annotation verbatim for round-trip fidelity (§9).
func (o Operand) String() string {
	if o.HasBank() {
		return o.Location + " (" + strconv.Itoa(o.Bank) + ")"
	}
	return o.Location
}

// OperandKind selects how ParseOperand treats a bare (non-banked) token's
// Immediate flag, per §4.C's parsing rules.
type OperandKind int

const (
	KindInput OperandKind = iota
	KindOutput
	KindInputOutput
	KindImmediateOperand
)

// ParseOperand parses a single CSV field token into an Operand, per §4.C:
//
//	"name (k)" -> location=name, bank=k, immediate=false
//	"name"     -> location=name, bank=-1, immediate = (kind == Immediate)
func ParseOperand(token string, kind OperandKind) (Operand, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Operand{}, errors.New("isa: empty operand token")
	}
	if open := strings.IndexByte(token, '('); open >= 0 {
		close := strings.IndexByte(token, ')')
		if close < open {
			return Operand{}, errors.Errorf("isa: malformed bank annotation in %q", token)
		}
		name := strings.TrimSpace(token[:open])
		bankStr := strings.TrimSpace(token[open+1 : close])
		bank, err := strconv.Atoi(bankStr)
		if err != nil {
			return Operand{}, errors.Wrapf(err, "isa: parsing bank in %q", token)
		}
		return Operand{Location: name, Bank: bank, Immediate: false}, nil
	}
	return Operand{
		Location:  token,
		Bank:      -1,
		Immediate: kind == KindImmediateOperand,
	}, nil
}

// WParam is the packed (residual, stage, block) tuple serialized as
// "w_<res>_<stage>_<block>". It identifies the twiddle-factor subset and
// butterfly schedule position for an ntt/intt instruction.
type WParam struct {
	Residual int
	Stage    int
	Block    int
}

func (w WParam) String() string {
	return "w_" + strconv.Itoa(w.Residual) + "_" + strconv.Itoa(w.Stage) + "_" + strconv.Itoa(w.Block)
}

// ParseWParam parses "w_<res>_<stage>_<block>" by splitting on "_".
func ParseWParam(token string) (WParam, error) {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, "_")
	if len(parts) != 4 || parts[0] != "w" {
		return WParam{}, errors.Errorf("isa: malformed WParam %q", token)
	}
	residual, err := strconv.Atoi(parts[1])
	if err != nil {
		return WParam{}, errors.Wrapf(err, "isa: parsing residual in %q", token)
	}
	stage, err := strconv.Atoi(parts[2])
	if err != nil {
		return WParam{}, errors.Wrapf(err, "isa: parsing stage in %q", token)
	}
	block, err := strconv.Atoi(parts[3])
	if err != nil {
		return WParam{}, errors.Wrapf(err, "isa: parsing block in %q", token)
	}
	return WParam{Residual: residual, Stage: stage, Block: block}, nil
}
