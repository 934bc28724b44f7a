// Package runtime coordinates the surface exposed to host collaborators
// (component G): the functional model, bulk parameter I/O, program
// execution (sequential and layered), and CSV device-memory dumps.
package runtime

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nocturnelabs/pisasim/depgraph"
	"github.com/nocturnelabs/pisasim/functional"
	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/memory"
	"github.com/nocturnelabs/pisasim/multireg"
)

// Runtime wraps a functional.Model and adds the bulk parameter-memory,
// program-execution, and device-memory-dump operations host programs need.
type Runtime struct {
	Model  *functional.Model
	Logger zerolog.Logger
}

// New constructs a Runtime over a fresh register file of the given width.
func New(width int) *Runtime {
	return &Runtime{
		Model:  functional.NewModel(memory.New(width)),
		Logger: log.With().Str("component", "runtime").Logger(),
	}
}

// SetModulusChain installs the modulus chain used by every arithmetic and
// NTT/iNTT decode.
func (rt *Runtime) SetModulusChain(chain []uint32) {
	rt.Model.SetModulusChain(chain)
}

// SetNTTTwiddleFactors installs the forward-NTT twiddle table.
func (rt *Runtime) SetNTTTwiddleFactors(table [][]uint32) {
	rt.Model.SetNTTTwiddleFactors(table)
}

// SetINTTTwiddleFactors installs the inverse-NTT twiddle map.
func (rt *Runtime) SetINTTTwiddleFactors(table map[string][][]uint32) {
	rt.Model.SetINTTTwiddleFactors(table)
}

// SetParamMemoryToMultiRegister splits flatValues into W-sized chunks and
// writes the x-th chunk to register "<name>_<x>". len(flatValues) must be a
// multiple of W.
func (rt *Runtime) SetParamMemoryToMultiRegister(name string, flatValues []uint32) error {
	width := rt.Model.Memory.Width()
	if width == 0 || len(flatValues)%width != 0 {
		return errors.Errorf("runtime: %d values is not a multiple of register width %d", len(flatValues), width)
	}
	sliceCount := len(flatValues) / width
	for x := 0; x < sliceCount; x++ {
		chunk := make([]uint32, width)
		copy(chunk, flatValues[x*width:(x+1)*width])
		rt.Model.Memory.Write(fmt.Sprintf("%s_%d", name, x), multireg.FromSlice(chunk))
	}
	return nil
}

// SetImmediateToMultiRegister stores a one-lane register named name.
func (rt *Runtime) SetImmediateToMultiRegister(name string, v uint32) {
	rt.Model.Memory.Write(name, multireg.FromSlice([]uint32{v}))
}

// GetParamMemoryFromMultiRegister finds every resident register whose name
// matches "<root>_<n>", sorts by the integer suffix n ascending, and
// concatenates their lane data — the inverse of SetParamMemoryToMultiRegister
// up to chunk order.
func (rt *Runtime) GetParamMemoryFromMultiRegister(root string) ([]uint32, error) {
	prefix := root + "_"
	type indexed struct {
		idx int
		reg *multireg.MultiRegister
	}
	var chunks []indexed
	for _, nr := range rt.Model.Memory.Registers() {
		if !strings.HasPrefix(nr.Name, prefix) {
			continue
		}
		suffix := nr.Name[len(prefix):]
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		chunks = append(chunks, indexed{idx: n, reg: nr.Register})
	}
	if len(chunks) == 0 {
		return nil, errors.Errorf("runtime: no resident registers matching %q", prefix)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].idx < chunks[j].idx })

	out := make([]uint32, 0, len(chunks)*rt.Model.Memory.Width())
	for _, c := range chunks {
		out = append(out, c.reg.Lanes()...)
	}
	return out, nil
}

// ExecuteProgram decodes instructions in order, matching program source
// order exactly (§5's sequential ordering guarantee).
func (rt *Runtime) ExecuteProgram(program []isa.Instruction) error {
	for i, instr := range program {
		if err := rt.Model.Decode(instr); err != nil {
			return errors.Wrapf(err, "runtime: executing instruction %d", i)
		}
	}
	return nil
}

// ExecuteLayeredProgram runs the opt-in parallel path: within a layer,
// instructions are independent and run concurrently; layers are strictly
// ordered (a barrier between them), per §5.
func (rt *Runtime) ExecuteLayeredProgram(layers []depgraph.InstructionLayer) error {
	for li, layer := range layers {
		errs := make(chan error, len(layer.Instructions))
		for _, instr := range layer.Instructions {
			instr := instr
			go func() { errs <- rt.Model.Decode(instr) }()
		}
		for range layer.Instructions {
			if err := <-errs; err != nil {
				return errors.Wrapf(err, "runtime: executing layer %d", li)
			}
		}
	}
	return nil
}

// DumpDeviceMemory writes every resident register, the modulus chain, and
// (if present) both twiddle tables as CSV records (§6). addresses, if
// non-empty, restricts register dumps to that subset of names.
func (rt *Runtime) DumpDeviceMemory(w io.Writer, addresses []string) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	want := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		want[a] = true
	}

	for _, nr := range rt.Model.Memory.Registers() {
		if len(want) > 0 && !want[nr.Name] {
			continue
		}
		if _, err := fmt.Fprintf(bw, "memory,%s%s\n", nr.Name, nr.Register.ToCSV()); err != nil {
			return errors.Wrap(err, "runtime: writing memory record")
		}
	}

	if len(rt.Model.ModulusChain) > 0 {
		fields := make([]string, len(rt.Model.ModulusChain))
		for i, q := range rt.Model.ModulusChain {
			fields[i] = strconv.FormatUint(uint64(q), 10)
		}
		if _, err := fmt.Fprintf(bw, "modulus_chain,%s\n", strings.Join(fields, ",")); err != nil {
			return errors.Wrap(err, "runtime: writing modulus chain record")
		}
	}

	for residual, factors := range rt.Model.NTTTwiddleFactors() {
		if _, err := fmt.Fprintf(bw, "ntt,%d,%s\n", residual, joinUint32(factors)); err != nil {
			return errors.Wrap(err, "runtime: writing ntt record")
		}
	}
	for ge, byResidual := range rt.Model.INTTTwiddleFactors() {
		for residual, factors := range byResidual {
			if _, err := fmt.Fprintf(bw, "intt,%s,%d,%s\n", ge, residual, joinUint32(factors)); err != nil {
				return errors.Wrap(err, "runtime: writing intt record")
			}
		}
	}
	return nil
}

func joinUint32(vals []uint32) string {
	fields := make([]string, len(vals))
	for i, v := range vals {
		fields[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(fields, ",")
}

// RenameIntermediates is an opt-in post-processing pass that replaces every
// output location (whatever its name) with a deterministic "tmp_<n>"
// scheme, numbered in order of first write; an input takes the new name of
// a location written earlier in the program, and any other input keeps its
// name. The caller's program is left unmodified.
// The original source applies a similar pass unconditionally; this core
// exposes it as an explicit, skippable transform instead (§5 open
// question) since nothing in decode/exec depends on register naming.
func RenameIntermediates(program []isa.Instruction) []isa.Instruction {
	next := 0
	renamed := make(map[string]string)
	rename := func(loc string) string {
		if r, ok := renamed[loc]; ok {
			return r
		}
		r := fmt.Sprintf("tmp_%d", next)
		next++
		renamed[loc] = r
		return r
	}

	out := make([]isa.Instruction, len(program))
	for i, instr := range program {
		out[i] = instr
		out[i].Inputs = append([]isa.Operand(nil), instr.Inputs...)
		out[i].Outputs = append([]isa.Operand(nil), instr.Outputs...)
		// Inputs that reference an already-renamed output resolve to the
		// same new name; inputs never previously seen as an output
		// (primary inputs) are left untouched.
		for j, in := range out[i].Inputs {
			if r, ok := renamed[in.Location]; ok {
				out[i].Inputs[j].Location = r
			}
		}
		for j := range out[i].Outputs {
			out[i].Outputs[j].Location = rename(out[i].Outputs[j].Location)
		}
	}
	return out
}
