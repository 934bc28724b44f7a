// Package multireg implements the MultiRegister (component B): a
// fixed-width, lane-parallel vector of modular integers, the machine's
// natural data width.
package multireg

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nocturnelabs/pisasim/montgomery"
)

// DefaultWidth is the default lane count W, matching the spec's default
// 8192-wide hardware registers.
const DefaultWidth = 8192

// lanewiseParallelThreshold is the minimum register width below which a
// lane-parallel worker pool isn't worth the goroutine overhead; below it
// MultiRegister just loops sequentially.
const lanewiseParallelThreshold = 2048

// MultiRegister is an ordered sequence of exactly Width lanes of uint32.
// Immediate registers are size 1; all others are sized to the engine's
// configured W. There is no cross-lane communication except in the NTT
// kernels, which address lanes explicitly.
type MultiRegister struct {
	lanes []uint32
}

// New allocates a MultiRegister of the given width, zero-initialized.
func New(width int) *MultiRegister {
	return &MultiRegister{lanes: make([]uint32, width)}
}

// FromSlice wraps an existing slice as a MultiRegister without copying.
// Callers that need independent storage should Clone the result.
func FromSlice(lanes []uint32) *MultiRegister {
	return &MultiRegister{lanes: lanes}
}

// Width returns the lane count.
func (m *MultiRegister) Width() int { return len(m.lanes) }

// Lanes exposes the underlying slice for direct indexed access by the
// functional model's NTT/iNTT kernels, which address lanes explicitly
// rather than through the lane-wise operators below.
func (m *MultiRegister) Lanes() []uint32 { return m.lanes }

// At returns lane i.
func (m *MultiRegister) At(i int) uint32 { return m.lanes[i] }

// Set writes lane i.
func (m *MultiRegister) Set(i int, v uint32) { m.lanes[i] = v }

// Clone returns a deep copy.
func (m *MultiRegister) Clone() *MultiRegister {
	out := make([]uint32, len(m.lanes))
	copy(out, m.lanes)
	return &MultiRegister{lanes: out}
}

// SizeMismatchError reports a lane-wise operation attempted across
// registers of different widths.
type SizeMismatchError struct {
	Expected, Got int
}

func (e *SizeMismatchError) Error() string {
	return errors.Errorf("multireg: size mismatch, expected %d lanes, got %d", e.Expected, e.Got).Error()
}

func (m *MultiRegister) checkSameWidth(other *MultiRegister) error {
	if len(m.lanes) != len(other.lanes) {
		return &SizeMismatchError{Expected: len(m.lanes), Got: len(other.lanes)}
	}
	return nil
}

// forEachLane runs fn(i) over every lane index, optionally in parallel
// across a worker pool when the register is wide enough to make it worth
// it. Every lane-wise op in this file routes through here so the
// parallel/sequential decision lives in one place.
func forEachLane(width int, fn func(i int)) {
	if width < lanewiseParallelThreshold {
		for i := 0; i < width; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	workers := 8
	chunk := (width + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= width {
			break
		}
		if end > width {
			end = width
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait() // fn never returns an error
}

// Add returns the lane-wise sum under the given modulus chain entry q,
// using the package-selected kernel (Montgomery by default).
func (m *MultiRegister) Add(other *MultiRegister, q uint32) (*MultiRegister, error) {
	if err := m.checkSameWidth(other); err != nil {
		return nil, err
	}
	out := New(len(m.lanes))
	forEachLane(len(m.lanes), func(i int) {
		out.lanes[i] = montgomery.KernelAdd(m.lanes[i], other.lanes[i], q)
	})
	return out, nil
}

// Sub returns the lane-wise difference under modulus q.
func (m *MultiRegister) Sub(other *MultiRegister, q uint32) (*MultiRegister, error) {
	if err := m.checkSameWidth(other); err != nil {
		return nil, err
	}
	out := New(len(m.lanes))
	forEachLane(len(m.lanes), func(i int) {
		out.lanes[i] = montgomery.KernelSub(m.lanes[i], other.lanes[i], q)
	})
	return out, nil
}

// Mul returns the lane-wise product under modulus q.
func (m *MultiRegister) Mul(other *MultiRegister, q uint32) (*MultiRegister, error) {
	if err := m.checkSameWidth(other); err != nil {
		return nil, err
	}
	out := New(len(m.lanes))
	forEachLane(len(m.lanes), func(i int) {
		out.lanes[i] = montgomery.KernelMul(m.lanes[i], other.lanes[i], q)
	})
	return out, nil
}

// MulScalar returns the lane-wise product of every lane by a single scalar
// under modulus q (used by muli/maci, where the scalar is read from lane 0
// of the immediate operand by the caller).
func (m *MultiRegister) MulScalar(scalar, q uint32) *MultiRegister {
	out := New(len(m.lanes))
	forEachLane(len(m.lanes), func(i int) {
		out.lanes[i] = montgomery.KernelMul(m.lanes[i], scalar, q)
	})
	return out
}

// MontgomeryAddModulus reduces a slice of pre-summed, not-yet-reduced lane
// values (each assumed < 2q, i.e. the raw output of an unreduced lane-wise
// add) down into a new MultiRegister, per §4.B's "lane-wise reduction
// helper" — the uint64 intermediate lets a lane value exceed uint32 range
// before reduction the way the source's templated MultiRegister<uint64_t>
// instantiation does.
func MontgomeryAddModulus(raw []uint64, q uint32) (*MultiRegister, error) {
	out := New(len(raw))
	var rangeErr error
	forEachLane(len(raw), func(i int) {
		if rangeErr != nil {
			return
		}
		u := raw[i]
		if montgomery.DebugChecks && u >= 2*uint64(q) {
			rangeErr = &montgomery.OutOfRangeError{Value: u, Modulus: q}
			return
		}
		if u >= uint64(q) {
			u -= uint64(q)
		}
		out.lanes[i] = uint32(u)
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}

// MontgomeryMulModulus reduces a slice of pre-multiplied, not-yet-reduced
// 64-bit lane products (each the raw a*b for one lane) via REDC, mirroring
// MontgomeryAddModulus above.
func MontgomeryMulModulus(raw []uint64, q uint32) *MultiRegister {
	out := New(len(raw))
	k := uint64(q) - 2
	forEachLane(len(raw), func(i int) {
		u := raw[i]
		t := u & 0xFFFFFFFF
		m := (t * k) & 0xFFFFFFFF
		uPrime := (u + m*uint64(q)) >> 32
		if uPrime >= uint64(q) {
			uPrime -= uint64(q)
		}
		out.lanes[i] = uint32(uPrime)
	})
	return out
}

// Rotate returns a cyclic rotation of the register by n lanes. Positive n
// rotates left (lane i moves to i-n mod W).
func (m *MultiRegister) Rotate(n int) *MultiRegister {
	w := len(m.lanes)
	if w == 0 {
		return New(0)
	}
	n = ((n % w) + w) % w
	out := New(w)
	for i := 0; i < w; i++ {
		out.lanes[(i-n+w)%w] = m.lanes[i]
	}
	return out
}

// ToCSV serializes the register as comma-separated lane values, matching
// the memory dump format's per-record field layout (§6): the caller
// prepends the record's leading tag and name fields.
func (m *MultiRegister) ToCSV() string {
	var b strings.Builder
	for _, v := range m.lanes {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}

// FromCSVFields parses a slice of decimal lane-value strings into a new
// MultiRegister.
func FromCSVFields(fields []string) (*MultiRegister, error) {
	lanes := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "multireg: parsing lane %d value %q", i, f)
		}
		lanes[i] = uint32(v)
	}
	return &MultiRegister{lanes: lanes}, nil
}
