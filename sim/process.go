package sim

import "fmt"

// ProcessID is a dense non-negative identifier assigned in pool-declaration
// order across all pools, starting at 0. Ids are stable for the run.
type ProcessID int

// GlobalPool is the implicit pool containing every process.
const GlobalPool = "global"

// Process is the behavior contract every simulated process implements.
// Handlers run to completion; there is no preemption and no yield within a
// handler. The process on whose behalf a handler runs is "current" for the
// duration of the handler, which is what enables the free functions in
// access.go.
type Process interface {
	// Start is invoked exactly once at engine start, in ascending ProcessID
	// order.
	Start()
	// OnMessage is invoked for each delivered envelope.
	OnMessage(from ProcessID, env *Envelope)
	// OnTimer is invoked for each timer fire whose id is still live.
	OnTimer(id TimerID)
}

// processRecord holds the per-process engine state.
type processRecord struct {
	id       ProcessID
	pool     string
	behavior Process
	seed     uint64
	gate     *bandwidthGate
	timers   *timerRegistry
}

// processTable stores the ordered process records, the pool membership map
// and the reverse pid-to-pool mapping (via the records). Membership is
// immutable after Build.
type processTable struct {
	records []*processRecord
	pools   map[string][]ProcessID
}

func (t *processTable) size() int {
	return len(t.records)
}

func (t *processTable) record(id ProcessID) *processRecord {
	if id < 0 || int(id) >= len(t.records) {
		panic(fmt.Sprintf("sim: unknown process id %d (have %d processes)", id, len(t.records)))
	}
	return t.records[id]
}

// listPool returns the members of the named pool in ascending ProcessID
// order. Unknown pools are a fatal diagnostic.
func (t *processTable) listPool(name string) []ProcessID {
	ids, ok := t.pools[name]
	if !ok {
		panic(fmt.Sprintf("sim: unknown pool %q", name))
	}
	return ids
}

// member reports whether id belongs to the named pool. Every process is a
// member of GlobalPool.
func (t *processTable) member(name string, id ProcessID) bool {
	if name == GlobalPool {
		return true
	}
	return t.record(id).pool == name
}
