// Package functional implements the functional (execute) model (component
// F): decode+execute for every opcode, owning the register file, the
// modulus chain, and both twiddle tables. This is the hardest component in
// the simulator — the NTT/iNTT partial-butterfly index math in ntt.go and
// intt.go is bit-exact against the original P-ISA tooling, not merely
// "close enough".
package functional

import (
	"math/bits"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nocturnelabs/pisasim/isa"
	"github.com/nocturnelabs/pisasim/memory"
	"github.com/nocturnelabs/pisasim/multireg"
)

// SizeMismatchError reports register widths that don't match at decode
// time — e.g. two lane-wise operands of different widths.
type SizeMismatchError struct {
	Expected, Got int
}

func (e *SizeMismatchError) Error() string {
	return errors.Errorf("functional: size mismatch, expected %d, got %d", e.Expected, e.Got).Error()
}

// MissingTwiddleError reports a decode that could not find the required
// NTT/iNTT twiddle factor for a (galois, residual[, index]) key.
type MissingTwiddleError struct {
	Galois   string
	Residual int
	Index    int
}

func (e *MissingTwiddleError) Error() string {
	if e.Galois == "" {
		return errors.Errorf("functional: missing ntt twiddle for residual=%d index=%d", e.Residual, e.Index).Error()
	}
	return errors.Errorf("functional: missing intt twiddle for galois=%s residual=%d index=%d", e.Galois, e.Residual, e.Index).Error()
}

// BlockOutOfRangeError reports an ntt/intt wparam.block value outside the
// range the derived start table (or slice count) supports for this pmd.
type BlockOutOfRangeError struct {
	Block         int
	StartTableLen int
}

func (e *BlockOutOfRangeError) Error() string {
	return errors.Errorf("functional: block %d out of range for start table of length %d", e.Block, e.StartTableLen).Error()
}

// Trace is a per-instruction input/output snapshot, captured when Tracing
// is enabled, and surfaced in diagnostics on decode failure (§4.F step
// 1/3, §7's propagation policy).
type Trace struct {
	Opcode  isa.Opcode
	Inputs  map[string]*multireg.MultiRegister
	Outputs map[string]*multireg.MultiRegister
}

// traceCapacity bounds the retained trace history so a long-running
// program under tracing doesn't grow this without limit; only the tail is
// useful for diagnosing the instruction that just failed.
const traceCapacity = 256

// Model is the functional execution engine: memory, modulus chain, both
// twiddle tables, and the bit-reversal lookups the NTT/iNTT kernels share.
type Model struct {
	Memory       *memory.Memory
	ModulusChain []uint32

	// nttTwiddle[residual] is a flat vector of factors, indexed ntt[residual][k].
	nttTwiddle [][]uint32
	// inttTwiddle[galois][residual] is a flat vector; "default" aliases "1".
	inttTwiddle map[string][][]uint32

	width          int
	blockCountBase int

	Tracing bool
	traces  []Trace

	Logger zerolog.Logger

	mu              sync.Mutex
	bitReverseCache map[int][]int
	startTableCache map[int][]int
}

// NewModel constructs a functional model over mem, whose register width W
// determines the derived block-count base (§9 open question: parameterize
// "14" on W instead of hard-wiring it — see SPEC_FULL.md §5).
func NewModel(mem *memory.Memory) *Model {
	width := mem.Width()
	return &Model{
		Memory:          mem,
		width:           width,
		blockCountBase:  bits.Len(uint(2*width)) - 1,
		inttTwiddle:     make(map[string][][]uint32),
		Logger:          log.With().Str("component", "functional").Logger(),
		bitReverseCache: make(map[int][]int),
		startTableCache: make(map[int][]int),
	}
}

// SetModulusChain installs the ordered modulus chain q[0..].
func (m *Model) SetModulusChain(chain []uint32) {
	m.ModulusChain = chain
}

// SetNTTTwiddleFactors installs the forward-NTT twiddle table, indexed
// ntt[residual][k].
func (m *Model) SetNTTTwiddleFactors(table [][]uint32) {
	m.nttTwiddle = table
}

// SetINTTTwiddleFactors installs the inverse-NTT twiddle map, keyed by
// Galois element string. "default" is aliased to "1" on load per §3.
func (m *Model) SetINTTTwiddleFactors(table map[string][][]uint32) {
	m.inttTwiddle = make(map[string][][]uint32, len(table))
	for k, v := range table {
		m.inttTwiddle[k] = v
	}
	if def, ok := m.inttTwiddle["default"]; ok {
		m.inttTwiddle["1"] = def
	}
}

// Traces returns the retained per-instruction trace history (most recent
// last), when Tracing is enabled.
func (m *Model) Traces() []Trace { return m.traces }

// NTTTwiddleFactors returns the installed forward-NTT twiddle table.
func (m *Model) NTTTwiddleFactors() [][]uint32 { return m.nttTwiddle }

// INTTTwiddleFactors returns the installed inverse-NTT twiddle map.
func (m *Model) INTTTwiddleFactors() map[string][][]uint32 { return m.inttTwiddle }

func (m *Model) modulusFor(residual int) (uint32, error) {
	if residual < 0 || residual >= len(m.ModulusChain) {
		return 0, errors.Errorf("functional: residual %d out of range for modulus chain of length %d", residual, len(m.ModulusChain))
	}
	return m.ModulusChain[residual], nil
}

// Decode executes a single instruction (§4.F entry point): snapshot
// inputs if tracing, dispatch on opcode, snapshot outputs if tracing.
// Unknown opcode is fatal; per-instruction failures are logged with the
// opcode name and (if tracing) the input trace, then rethrown.
func (m *Model) Decode(instr isa.Instruction) error {
	var trace *Trace
	if m.Tracing {
		trace = &Trace{Opcode: instr.Opcode, Inputs: m.snapshot(instr.AllInputs())}
	}

	err := m.dispatch(instr)
	if err != nil {
		event := m.Logger.Error().Str("opcode", string(instr.Opcode)).Err(err)
		if trace != nil {
			event = event.Interface("trace_inputs", traceNames(trace.Inputs))
		}
		event.Msg("decode failed")
		return errors.Wrapf(err, "functional: decode %s", instr.Opcode)
	}

	if trace != nil {
		trace.Outputs = m.snapshot(instr.AllOutputs())
		m.traces = append(m.traces, *trace)
		if len(m.traces) > traceCapacity {
			m.traces = m.traces[len(m.traces)-traceCapacity:]
		}
	}
	return nil
}

func (m *Model) snapshot(operands []isa.Operand) map[string]*multireg.MultiRegister {
	out := make(map[string]*multireg.MultiRegister, len(operands))
	for _, op := range operands {
		if op.Immediate {
			out[op.Location] = m.Memory.ReadImmediate(op.Location).Clone()
			continue
		}
		out[op.Location] = m.Memory.Read(op.Location).Clone()
	}
	return out
}

func traceNames(m map[string]*multireg.MultiRegister) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

func (m *Model) dispatch(instr isa.Instruction) error {
	switch instr.Opcode {
	case isa.OpAdd:
		return m.execAdd(instr)
	case isa.OpSub:
		return m.execSub(instr)
	case isa.OpMul:
		return m.execMul(instr)
	case isa.OpMuli:
		return m.execMuli(instr)
	case isa.OpMac:
		return m.execMac(instr)
	case isa.OpMaci:
		return m.execMaci(instr)
	case isa.OpCopy:
		return m.execCopy(instr)
	case isa.OpNTT:
		return m.execNTT(instr)
	case isa.OpINTT:
		return m.execINTT(instr)
	default:
		return errors.Errorf("functional: unknown opcode %q", instr.Opcode)
	}
}
