// Package testvector is the external test-vector collaborator (§6): JSON
// decode of a modulus chain, named flat polynomial inputs/outputs,
// immediates, and both twiddle tables, plus a validation pass that
// compares post-execution memory against expected outputs.
package testvector

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/nocturnelabs/pisasim/runtime"
)

// Vector is the decoded shape of an external test-vector document.
type Vector struct {
	ModulusChain []uint32             `json:"modulus_chain"`
	Inputs       map[string][]uint32  `json:"inputs"`
	Outputs      map[string][]uint32  `json:"outputs,omitempty"`
	Immediates   map[string]uint32    `json:"immediates"`
	NTT          [][]uint32           `json:"ntt_twiddle"`
	INTT         map[string][][]uint32 `json:"intt_twiddle"`
}

// Load decodes a Vector from JSON via jsoniter, the ecosystem-standard
// drop-in this core uses at every external I/O boundary.
func Load(r io.Reader) (*Vector, error) {
	var v Vector
	dec := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "testvector: decoding document")
	}
	return &v, nil
}

// Install pushes a Vector's modulus chain, twiddle tables, param memory,
// and immediates into rt, ready for ExecuteProgram.
func Install(rt *runtime.Runtime, v *Vector) error {
	rt.SetModulusChain(v.ModulusChain)
	if v.NTT != nil {
		rt.SetNTTTwiddleFactors(v.NTT)
	}
	if v.INTT != nil {
		rt.SetINTTTwiddleFactors(v.INTT)
	}
	for name, flat := range v.Inputs {
		if err := rt.SetParamMemoryToMultiRegister(name, flat); err != nil {
			return errors.Wrapf(err, "testvector: installing input %q", name)
		}
	}
	for name, val := range v.Immediates {
		rt.SetImmediateToMultiRegister(name, val)
	}
	return nil
}

// ValidationMismatch reports one expected-vs-actual lane divergence.
type ValidationMismatch struct {
	Name     string
	Index    int
	Expected uint32
	Actual   uint32
}

func (e *ValidationMismatch) Error() string {
	return errors.Errorf("testvector: %s[%d]: expected %d, got %d", e.Name, e.Index, e.Expected, e.Actual).Error()
}

// ValidationError aggregates every mismatch found by Validate into a
// single failure, per §6's "surfaced as a single aggregate failure".
type ValidationError struct {
	Mismatches []*ValidationMismatch
}

func (e *ValidationError) Error() string {
	if len(e.Mismatches) == 1 {
		return e.Mismatches[0].Error()
	}
	return errors.Errorf("testvector: %d mismatches, first: %s", len(e.Mismatches), e.Mismatches[0].Error()).Error()
}

// Validate compares rt's post-execution param memory for every name in
// v.Outputs against the expected flat values, aggregating every mismatch
// into a single ValidationError (nil if everything matches).
func Validate(rt *runtime.Runtime, v *Vector) error {
	var mismatches []*ValidationMismatch
	for name, expected := range v.Outputs {
		actual, err := rt.GetParamMemoryFromMultiRegister(name)
		if err != nil {
			return errors.Wrapf(err, "testvector: reading actual output %q", name)
		}
		n := len(expected)
		if len(actual) < n {
			n = len(actual)
		}
		for i := 0; i < n; i++ {
			if expected[i] != actual[i] {
				mismatches = append(mismatches, &ValidationMismatch{
					Name: name, Index: i, Expected: expected[i], Actual: actual[i],
				})
			}
		}
		for i := n; i < len(expected); i++ {
			mismatches = append(mismatches, &ValidationMismatch{Name: name, Index: i, Expected: expected[i]})
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &ValidationError{Mismatches: mismatches}
}
