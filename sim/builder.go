package sim

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// poolDecl is one AddPool call, kept in declaration order so that ids are
// assigned deterministically.
type poolDecl struct {
	name    string
	size    int
	factory func() Process
}

// Builder accumulates the static description of a simulation. All methods
// return the builder for chaining; nothing is validated until Build.
type Builder struct {
	seed        Seed
	budget      Jiffies
	bandwidth   BandwidthDescription
	pools       []poolDecl
	rules       []LatencyRule
	recordTrace bool
}

// NewBuilder returns a builder with seed 0, the default time budget and
// unbounded bandwidth.
func NewBuilder() *Builder {
	return &Builder{
		budget:    DefaultTimeBudget,
		bandwidth: Unbounded(),
	}
}

// Seed sets the master seed of the run.
func (b *Builder) Seed(seed Seed) *Builder {
	b.seed = seed
	return b
}

// TimeBudget sets the virtual time horizon. Events beyond the budget are
// never dispatched.
func (b *Builder) TimeBudget(budget Jiffies) *Builder {
	b.budget = budget
	return b
}

// NICBandwidth sets the outbound bandwidth applied to every process.
func (b *Builder) NICBandwidth(desc BandwidthDescription) *Builder {
	b.bandwidth = desc
	return b
}

// AddPool declares a named pool of size processes, each constructed by
// factory. Ids are assigned in declaration order across pools, starting
// at 0.
func (b *Builder) AddPool(name string, size int, factory func() Process) *Builder {
	b.pools = append(b.pools, poolDecl{name: name, size: size, factory: factory})
	return b
}

// LatencyTopology sets the ordered latency rules. The first matching rule
// decides the delay law of an edge; unmatched edges have zero delay.
func (b *Builder) LatencyTopology(rules ...LatencyRule) *Builder {
	b.rules = rules
	return b
}

// RecordTrace enables recording of the dispatch sequence, retrievable via
// Simulation.Trace after the run.
func (b *Builder) RecordTrace() *Builder {
	b.recordTrace = true
	return b
}

// Build validates the accumulated description, assembles the engine and
// installs it as the active simulation. Configuration mistakes surface here
// as errors, not later as panics.
func (b *Builder) Build() (*Simulation, error) {
	if len(b.pools) == 0 {
		return nil, fmt.Errorf("simulation has no pools")
	}
	if b.bandwidth.bounded && b.bandwidth.bytesPerJiffy == 0 {
		return nil, fmt.Errorf("bounded bandwidth of 0 bytes per jiffy would never transmit")
	}

	table := &processTable{pools: map[string][]ProcessID{GlobalPool: nil}}
	seen := make(map[string]bool)
	for _, decl := range b.pools {
		if decl.name == GlobalPool {
			return nil, fmt.Errorf("pool name %q is reserved", GlobalPool)
		}
		if decl.name == "" {
			return nil, fmt.Errorf("pool name must not be empty")
		}
		if seen[decl.name] {
			return nil, fmt.Errorf("pool %q declared twice", decl.name)
		}
		seen[decl.name] = true
		if decl.size <= 0 {
			return nil, fmt.Errorf("pool %q has non-positive size %d", decl.name, decl.size)
		}
		if decl.factory == nil {
			return nil, fmt.Errorf("pool %q has no process factory", decl.name)
		}
		for i := 0; i < decl.size; i++ {
			id := ProcessID(len(table.records))
			gate := &bandwidthGate{desc: b.bandwidth}
			table.records = append(table.records, &processRecord{
				id:       id,
				pool:     decl.name,
				behavior: decl.factory(),
				seed:     processSeed(b.seed, id),
				gate:     gate,
				timers:   newTimerRegistry(),
			})
			table.pools[decl.name] = append(table.pools[decl.name], id)
			table.pools[GlobalPool] = append(table.pools[GlobalPool], id)
		}
	}

	for i, rule := range b.rules {
		for _, pool := range []string{rule.a, rule.b} {
			if pool != GlobalPool && !seen[pool] {
				return nil, fmt.Errorf("latency rule %d references unknown pool %q", i, pool)
			}
		}
		if rule.dist == nil {
			return nil, fmt.Errorf("latency rule %d has no distribution", i)
		}
		if err := rule.dist.validate(); err != nil {
			return nil, fmt.Errorf("latency rule %d: %w", i, err)
		}
	}

	src := rand.NewSource(uint64(b.seed))
	k := &kernel{
		budget:      b.budget,
		table:       table,
		matrix:      newLatencyMatrix(b.rules, table),
		seed:        b.seed,
		src:         src,
		rng:         rand.New(src),
		kv:          newKVStore(),
		lastArrival: make(map[edgeKey]Jiffies),
		metrics:     NewMetrics(),
		recordTrace: b.recordTrace,
	}
	installKernel(k)
	return &Simulation{k: k}, nil
}
