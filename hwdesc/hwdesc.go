// Package hwdesc implements the hardware descriptor (component J): named
// throughput/latency per opcode and per memory tier, plus per-tier
// capacity sizes used by the performance modeler's tiering rule.
package hwdesc

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/nocturnelabs/pisasim/isa"
)

// Timing is a (throughput, latency) pair, both measured in cycles.
type Timing struct {
	Throughput int `json:"throughput"`
	Latency    int `json:"latency"`
}

// MemoryTier names the coarse memory classification the performance
// modeler assigns to a data node.
type MemoryTier string

const (
	TierRegister    MemoryTier = "register"
	TierCache       MemoryTier = "cache"
	TierMemoryCache MemoryTier = "memory_cache"
)

// Descriptor is plain data: opcode -> timing, memory tier -> timing, and
// memory tier -> capacity size (used by the modeler's staleness-based
// tiering rule, not by Timing lookups directly).
type Descriptor struct {
	Name                        string                `json:"name"`
	ISAInstructionPerformanceMap map[isa.Opcode]Timing `json:"isa_instruction_performance_map"`
	ISAInstructionMemoryMap     map[MemoryTier]Timing `json:"isa_instruction_memory_map"`
	TierSizes                   map[MemoryTier]int    `json:"tier_sizes"`
}

// InstructionTiming looks up (throughput, latency) for an opcode.
func (d *Descriptor) InstructionTiming(op isa.Opcode) (Timing, bool) {
	t, ok := d.ISAInstructionPerformanceMap[op]
	return t, ok
}

// MemoryTiming looks up (throughput, latency) for a memory tier.
func (d *Descriptor) MemoryTiming(tier MemoryTier) (Timing, bool) {
	t, ok := d.ISAInstructionMemoryMap[tier]
	return t, ok
}

// TierSize returns the capacity (in access-count units) configured for a
// tier, used by the modeler's staleness thresholds.
func (d *Descriptor) TierSize(tier MemoryTier) int {
	return d.TierSizes[tier]
}

var arithmeticOpcodes = []isa.Opcode{
	isa.OpAdd, isa.OpSub, isa.OpMul, isa.OpMuli, isa.OpMac, isa.OpMaci, isa.OpCopy, isa.OpNTT, isa.OpINTT,
}

func uniformPerfMap(t Timing) map[isa.Opcode]Timing {
	m := make(map[isa.Opcode]Timing, len(arithmeticOpcodes))
	for _, op := range arithmeticOpcodes {
		m[op] = t
	}
	return m
}

// Example is the smallest canonical profile: uniform 1-cycle throughput,
// low latency, used for hand-checkable performance scenarios.
func Example() *Descriptor {
	return &Descriptor{
		Name:                        "example",
		ISAInstructionPerformanceMap: uniformPerfMap(Timing{Throughput: 1, Latency: 2}),
		ISAInstructionMemoryMap: map[MemoryTier]Timing{
			TierRegister:    {Throughput: 1, Latency: 1},
			TierCache:       {Throughput: 1, Latency: 4},
			TierMemoryCache: {Throughput: 1, Latency: 16},
		},
		TierSizes: map[MemoryTier]int{
			TierRegister: 8,
			TierCache:    64,
		},
	}
}

// Model1 is a mid-range profile: NTT/iNTT costlier than plain arithmetic,
// a modest cache window.
func Model1() *Descriptor {
	perf := uniformPerfMap(Timing{Throughput: 1, Latency: 3})
	perf[isa.OpMul] = Timing{Throughput: 1, Latency: 5}
	perf[isa.OpMac] = Timing{Throughput: 1, Latency: 5}
	perf[isa.OpMaci] = Timing{Throughput: 1, Latency: 5}
	perf[isa.OpNTT] = Timing{Throughput: 2, Latency: 10}
	perf[isa.OpINTT] = Timing{Throughput: 2, Latency: 10}
	return &Descriptor{
		Name:                        "model1",
		ISAInstructionPerformanceMap: perf,
		ISAInstructionMemoryMap: map[MemoryTier]Timing{
			TierRegister:    {Throughput: 1, Latency: 1},
			TierCache:       {Throughput: 2, Latency: 8},
			TierMemoryCache: {Throughput: 4, Latency: 40},
		},
		TierSizes: map[MemoryTier]int{
			TierRegister: 16,
			TierCache:    256,
		},
	}
}

// Model2 is a wide-pipeline, expensive-memory profile: cheap arithmetic
// throughput but steep DRAM-tier latency, exercising the modeler's
// staleness thresholds more aggressively than Model1.
func Model2() *Descriptor {
	perf := uniformPerfMap(Timing{Throughput: 1, Latency: 2})
	perf[isa.OpMul] = Timing{Throughput: 1, Latency: 4}
	perf[isa.OpMac] = Timing{Throughput: 1, Latency: 4}
	perf[isa.OpMaci] = Timing{Throughput: 1, Latency: 4}
	perf[isa.OpNTT] = Timing{Throughput: 1, Latency: 14}
	perf[isa.OpINTT] = Timing{Throughput: 1, Latency: 14}
	return &Descriptor{
		Name:                        "model2",
		ISAInstructionPerformanceMap: perf,
		ISAInstructionMemoryMap: map[MemoryTier]Timing{
			TierRegister:    {Throughput: 1, Latency: 1},
			TierCache:       {Throughput: 1, Latency: 12},
			TierMemoryCache: {Throughput: 8, Latency: 120},
		},
		TierSizes: map[MemoryTier]int{
			TierRegister: 32,
			TierCache:    1024,
		},
	}
}

// Profiles is the named lookup of canonical descriptors.
var Profiles = map[string]func() *Descriptor{
	"example": Example,
	"model1":  Model1,
	"model2":  Model2,
}

// Load returns the canonical profile named by name.
func Load(name string) (*Descriptor, error) {
	factory, ok := Profiles[name]
	if !ok {
		return nil, errors.Errorf("hwdesc: unknown profile %q", name)
	}
	return factory(), nil
}

// LoadFile decodes a Descriptor from JSON, using jsoniter for
// ecosystem-standard fast decoding (the "external JSON I/O" collaborator
// named in spec.md §6, applied here to hardware profiles rather than test
// vectors), so a host can supply a hardware profile beyond the three
// canonical ones without a rebuild.
func LoadFile(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	dec := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return nil, errors.New("hwdesc: empty profile document")
		}
		return nil, errors.Wrap(err, "hwdesc: decoding profile")
	}
	return &d, nil
}
