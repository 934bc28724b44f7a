// Package memory implements the register file (component E): a named,
// lazily-allocated mapping from register name to MultiRegister.
package memory

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/nocturnelabs/pisasim/multireg"
)

// UnallocatedReadError is returned by Copy when the source name has never
// been referenced.
type UnallocatedReadError struct {
	Name string
}

func (e *UnallocatedReadError) Error() string {
	return "memory: unallocated read of register " + e.Name
}

// Memory is the register file: name -> *MultiRegister, lazily allocated on
// first reference. Insertion order is irrelevant.
type Memory struct {
	mu       sync.RWMutex
	width    int
	registers map[string]*multireg.MultiRegister
}

// New constructs a Memory with the given default register width W.
func New(width int) *Memory {
	if width <= 0 {
		width = multireg.DefaultWidth
	}
	return &Memory{width: width, registers: make(map[string]*multireg.MultiRegister)}
}

// Read returns the register named name, lazily allocating a width-W
// register if absent.
func (m *Memory) Read(name string) *multireg.MultiRegister {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrAllocateLocked(name, m.width)
}

// ReadImmediate returns a size-1 register named name, lazily allocating it
// if absent.
func (m *Memory) ReadImmediate(name string) *multireg.MultiRegister {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrAllocateLocked(name, 1)
}

func (m *Memory) getOrAllocateLocked(name string, width int) *multireg.MultiRegister {
	if r, ok := m.registers[name]; ok {
		return r
	}
	r := multireg.New(width)
	m.registers[name] = r
	return r
}

// Write stores v (as-is; callers that need isolation should Clone first)
// under name, lazily creating the entry.
func (m *Memory) Write(name string, v *multireg.MultiRegister) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers[name] = v
}

// Index returns the register named name, resized to m.width if its
// current size differs (allocating if absent).
func (m *Memory) Index(name string) *multireg.MultiRegister {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.registers[name]
	if !ok {
		r = multireg.New(m.width)
		m.registers[name] = r
		return r
	}
	if r.Width() != m.width {
		resized := multireg.New(m.width)
		copy(resized.Lanes(), r.Lanes())
		m.registers[name] = resized
		return resized
	}
	return r
}

// Copy returns a deep copy of the register named name, or
// UnallocatedReadError if it has never been referenced. Unlike Read/Index,
// Copy does not lazily allocate — copying is defined only for registers
// that already hold data (§4.E).
func (m *Memory) Copy(name string) (*multireg.MultiRegister, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.registers[name]
	if !ok {
		return nil, errors.WithStack(&UnallocatedReadError{Name: name})
	}
	return r.Clone(), nil
}

// Has reports whether name has been referenced (read, written, or
// indexed) without allocating it.
func (m *Memory) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.registers[name]
	return ok
}

// NamedRegister pairs a register name with its data, returned by
// Registers() in deterministic (sorted) order.
type NamedRegister struct {
	Name     string
	Register *multireg.MultiRegister
}

// Registers returns every resident (name, register) pair, sorted by name
// so callers that iterate for CSV dumps get deterministic output.
func (m *Memory) Registers() []NamedRegister {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]NamedRegister, 0, len(m.registers))
	for name, r := range m.registers {
		out = append(out, NamedRegister{Name: name, Register: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Width returns the configured default register width.
func (m *Memory) Width() int { return m.width }
