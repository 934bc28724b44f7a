// Package perfmodel implements the performance modeler (component I): a
// simulated two-queue cooperative scheduler over the dependency graph,
// producing cycle counts, NOP counts, timelines, and optional graph
// topology statistics.
package perfmodel

import (
	"math/rand"

	"github.com/nocturnelabs/pisasim/depgraph"
	"github.com/nocturnelabs/pisasim/hwdesc"
	"github.com/nocturnelabs/pisasim/isa"
)

// ScheduleMode selects the ready-set dispatch order.
type ScheduleMode int

const (
	ScheduleInOrder ScheduleMode = iota
	ScheduleRandom
)

// TimelineEntry is one tick's worth of either a NOP or a dispatched node.
type TimelineEntry struct {
	Tick    int
	NOP     bool
	NodeID  depgraph.NodeID
	Opcode  isa.Opcode // set only for operation entries
	Latency int
}

// TopologyStats summarizes the dependency graph's shape, reported
// optionally alongside the cycle/NOP counts.
type TopologyStats struct {
	Depth        int
	MinWidth     int
	AvgWidth     float64
	MaxWidth     int
	TotalInputs  int
	TotalOutputs int
}

// PerformanceReport is the modeler's output.
type PerformanceReport struct {
	TotalCyclesUsed  int
	TotalNopsIssued  int
	OperationTimeline []TimelineEntry
	MemoryTimeline    []TimelineEntry
	Topology          *TopologyStats
}

// Options configures a Run.
type Options struct {
	Mode            ScheduleMode
	QuickSchedule   bool
	IncludeTopology bool
	RandSource      *rand.Rand // used only when Mode == ScheduleRandom
}

// nodeStatus tracks a node through the scheduler's lifecycle: it becomes
// ready once its remaining in-degree hits 0, dispatched once a queue
// clock admits it (with an end_time set), and retired once system_clock
// reaches that end_time (unblocking its successors).
type nodeStatus int

const (
	statusPending nodeStatus = iota
	statusDispatched
	statusRetired
)

type memoryNodeState struct {
	classification hwdesc.MemoryTier
	lastAccess     int
}

// Run executes the simulated schedule over program against descriptor, per
// §4.I.
func Run(program []isa.Instruction, descriptor *hwdesc.Descriptor, opts Options) *PerformanceReport {
	g := depgraph.Build(program)
	mem := classifyMemoryNodes(g)

	n := g.NodeCount()
	remainingIn := make([]int, n)
	status := make([]nodeStatus, n)
	endTime := make([]int, n)
	for i := 0; i < n; i++ {
		remainingIn[i] = g.InDegree(depgraph.NodeID(i))
	}

	var ready []depgraph.NodeID
	refreshReady := func() {
		ready = ready[:0]
		for i := 0; i < n; i++ {
			if status[i] == statusPending && remainingIn[i] == 0 {
				ready = append(ready, depgraph.NodeID(i))
			}
		}
	}
	refreshReady()

	// compactReady drops entries that have since been dispatched or
	// retired, so len(ready) reflects only nodes still actually pending.
	compactReady := func() {
		out := ready[:0]
		for _, id := range ready {
			if status[id] == statusPending {
				out = append(out, id)
			}
		}
		ready = out
	}

	rnd := opts.RandSource
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}

	report := &PerformanceReport{}
	systemClock := 0
	instrQueueClock := 0
	memQueueClock := 0
	memAccessCounter := 0

	retiredCount := 0
	for retiredCount < n {
		// Step 1: retire dispatched nodes whose end_time <= system_clock,
		// unblocking their successors.
		for i := 0; i < n; i++ {
			if status[i] == statusDispatched && endTime[i] <= systemClock {
				status[i] = statusRetired
				retiredCount++
				for _, succ := range g.Successors(depgraph.NodeID(i)) {
					remainingIn[succ]--
					if remainingIn[succ] == 0 && status[succ] == statusPending {
						ready = append(ready, succ)
					}
				}
			}
		}

		compactReady()
		if len(ready) < 2 || !opts.QuickSchedule {
			refreshReady()
		}
		if opts.Mode == ScheduleRandom {
			rnd.Shuffle(len(ready), func(i, j int) { ready[i], ready[j] = ready[j], ready[i] })
		}

		dispatchedOp := false
		for _, id := range ready {
			node := g.Node(id)
			if node.Kind != depgraph.KindOperation || status[id] != statusPending {
				continue
			}
			if instrQueueClock > systemClock {
				continue
			}
			timing, ok := descriptor.InstructionTiming(node.Instruction.Opcode)
			if !ok {
				continue
			}
			for k := 0; k < timing.Throughput-1; k++ {
				report.OperationTimeline = append(report.OperationTimeline, TimelineEntry{Tick: systemClock, NOP: true})
				report.TotalNopsIssued++
			}
			report.OperationTimeline = append(report.OperationTimeline, TimelineEntry{
				Tick: systemClock, NodeID: id, Opcode: node.Instruction.Opcode, Latency: timing.Latency,
			})
			endTime[id] = systemClock + timing.Latency
			status[id] = statusDispatched
			instrQueueClock += timing.Throughput
			systemClock += timing.Throughput - 1
			dispatchedOp = true
			break
		}

		for _, id := range ready {
			node := g.Node(id)
			if node.Kind == depgraph.KindOperation || status[id] != statusPending {
				continue
			}
			if memQueueClock > systemClock {
				continue
			}
			memAccessCounter++
			tier := classifyTier(mem, id, memAccessCounter, descriptor)
			timing, ok := descriptor.MemoryTiming(tier)
			if !ok {
				continue
			}
			for k := 0; k < timing.Throughput-1; k++ {
				report.MemoryTimeline = append(report.MemoryTimeline, TimelineEntry{Tick: systemClock, NOP: true})
			}
			report.MemoryTimeline = append(report.MemoryTimeline, TimelineEntry{
				Tick: systemClock, NodeID: id, Latency: timing.Latency,
			})
			endTime[id] = systemClock + timing.Latency
			status[id] = statusDispatched
			memQueueClock += timing.Throughput
			systemClock += timing.Throughput - 1
			break
		}

		if !dispatchedOp {
			report.OperationTimeline = append(report.OperationTimeline, TimelineEntry{Tick: systemClock, NOP: true})
			report.TotalNopsIssued++
		}
		systemClock++
	}

	report.TotalCyclesUsed = systemClock
	if opts.IncludeTopology {
		report.Topology = computeTopology(g)
	}
	return report
}

func classifyMemoryNodes(g *depgraph.Graph) map[depgraph.NodeID]*memoryNodeState {
	out := make(map[depgraph.NodeID]*memoryNodeState)
	for i := 0; i < g.NodeCount(); i++ {
		id := depgraph.NodeID(i)
		if g.Node(id).Kind == depgraph.KindOperation {
			continue
		}
		tier := hwdesc.TierRegister
		if g.InDegree(id) == 0 || g.OutDegree(id) == 0 {
			tier = hwdesc.TierMemoryCache
		}
		out[id] = &memoryNodeState{classification: tier, lastAccess: 0}
	}
	return out
}

// classifyTier implements the staleness-based tiering rule (§4.I). A data
// node classified MEMORY_CACHE at graph-build time stays there; otherwise
// its tier depends on how long it has been since last_access_time.
func classifyTier(mem map[depgraph.NodeID]*memoryNodeState, id depgraph.NodeID, now int, descriptor *hwdesc.Descriptor) hwdesc.MemoryTier {
	state, ok := mem[id]
	if !ok {
		return hwdesc.TierMemoryCache
	}
	if state.classification == hwdesc.TierMemoryCache {
		state.lastAccess = now
		return hwdesc.TierMemoryCache
	}
	age := now - state.lastAccess
	state.lastAccess = now
	if age < descriptor.TierSize(hwdesc.TierRegister) {
		return hwdesc.TierRegister
	}
	if age < descriptor.TierSize(hwdesc.TierCache) {
		return hwdesc.TierCache
	}
	return hwdesc.TierMemoryCache
}

func computeTopology(g *depgraph.Graph) *TopologyStats {
	layers := g.GetInputLayers()
	stats := &TopologyStats{Depth: len(layers)}
	if len(layers) == 0 {
		return stats
	}
	stats.MinWidth = len(layers[0].Nodes)
	total := 0
	for _, l := range layers {
		w := len(l.Nodes)
		if w < stats.MinWidth {
			stats.MinWidth = w
		}
		if w > stats.MaxWidth {
			stats.MaxWidth = w
		}
		total += w
	}
	stats.AvgWidth = float64(total) / float64(len(layers))

	for i := 0; i < g.NodeCount(); i++ {
		id := depgraph.NodeID(i)
		if g.Node(id).Kind != depgraph.KindOperation {
			continue
		}
		stats.TotalInputs += g.InDegree(id)
		stats.TotalOutputs += g.OutDegree(id)
	}
	return stats
}
