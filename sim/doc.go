// Package sim provides a deterministic, single-threaded, discrete-event
// simulation engine for distributed systems. User code supplies process
// behaviors and message payloads; the engine virtualizes time, network
// latency and per-process bandwidth so that a cluster of cooperating
// processes can be exercised reproducibly from one OS thread. Given a fixed
// seed and identical user code, every run yields identical event orderings.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: the event kinds that drive the simulation (delivery, timer fire)
//   - engine.go: the kernel state, the run loop and virtual-clock advancement
//   - access.go: the ambient "current process" cell and the free functions
//     (SendTo, Broadcast, ScheduleTimerAfter, Rank, Now, ...) user code calls
//
// # Architecture
//
// A Builder collects pools, topology, bandwidth, seed and budget, validates
// them, and materializes a Simulation. The run loop pops the next event from
// a (time, seq)-ordered heap, advances the virtual clock, installs the target
// process as current and invokes its handler. Handlers emit new events
// through the bandwidth gate of their process and the latency matrix of the
// edge, which together decide each delivery's arrival time.
//
// Supporting pieces:
//   - latency.go: latency distributions (Uniform, Normal, Bernoulli) and the
//     first-match rule matrix over pool edges
//   - bandwidth.go: the per-process outbound gate serializing emissions
//   - timer.go: per-process timer registries with silent retirement
//   - anykv.go: the shared observational key-value store
//   - config.go: YAML/TOML scenario files mapped onto a Builder
//
// Built-in demonstration systems live in sim/systems and are exposed through
// the CLI in cmd/.
package sim
