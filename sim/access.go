package sim

import "fmt"

// The ambient execution context: the kernel installed by the last Build and
// the process the run loop is currently dispatching. The engine is
// single-threaded by design, so a package-level cell needs no
// synchronization. Only Build replaces the kernel and only the run loop
// moves the current process; user code reaches both through the free
// functions below.
var activeKernel *kernel

func installKernel(k *kernel) {
	activeKernel = k
}

func mustKernel() *kernel {
	if activeKernel == nil {
		panic("sim: no simulation has been built")
	}
	return activeKernel
}

func mustCurrent() (*kernel, ProcessID) {
	k := mustKernel()
	if !k.hasCurrent {
		panic("sim: no process is current; context-aware functions may only be called from Start, OnMessage or OnTimer")
	}
	return k, k.current
}

// Rank returns the id of the current process.
func Rank() ProcessID {
	_, pid := mustCurrent()
	return pid
}

// Now returns the current virtual time.
func Now() Jiffies {
	k, _ := mustCurrent()
	return k.clock
}

// SendTo sends msg to a single process. Sending to self is permitted and
// consumes bandwidth like any other outbound emission.
func SendTo(to ProcessID, msg Message) {
	k, pid := mustCurrent()
	k.table.record(to) // reject unknown destinations before scheduling
	k.send(pid, to, msg)
}

// Broadcast sends msg to every process except the sender.
func Broadcast(msg Message) {
	k, pid := mustCurrent()
	k.broadcastWithin(pid, GlobalPool, msg)
}

// BroadcastWithinPool sends msg to every member of the named pool except the
// sender.
func BroadcastWithinPool(pool string, msg Message) {
	k, pid := mustCurrent()
	k.broadcastWithin(pid, pool, msg)
}

// SendRandom sends msg to one uniformly chosen process, excluding the
// sender.
func SendRandom(msg Message) {
	k, pid := mustCurrent()
	k.sendRandom(pid, GlobalPool, msg)
}

// SendRandomFromPool sends msg to one uniformly chosen member of the named
// pool, excluding the sender.
func SendRandomFromPool(pool string, msg Message) {
	k, pid := mustCurrent()
	k.sendRandom(pid, pool, msg)
}

// ScheduleTimerAfter schedules a fresh timer of the current process to fire
// after the given delay and returns its id. Timers do not consume bandwidth.
func ScheduleTimerAfter(after Jiffies) TimerID {
	k, pid := mustCurrent()
	return k.scheduleTimer(pid, after)
}

// ListPool returns the members of the named pool in ascending ProcessID
// order. Unknown pools are a fatal diagnostic.
func ListPool(pool string) []ProcessID {
	k, _ := mustCurrent()
	ids := k.table.listPool(pool)
	out := make([]ProcessID, len(ids))
	copy(out, ids)
	return out
}

// ChooseFromPool returns one uniformly chosen member of the named pool. The
// current process is part of the candidate set when it belongs to the pool.
func ChooseFromPool(pool string) ProcessID {
	k, _ := mustCurrent()
	ids := k.table.listPool(pool)
	return ids[k.rng.Intn(len(ids))]
}

// GlobalUniqueID returns the next value of a monotonic counter shared by all
// processes, starting at 0.
func GlobalUniqueID() uint64 {
	k, _ := mustCurrent()
	id := k.uid
	k.uid++
	return id
}

// ProcessSeed returns the deterministic per-process seed, derived from the
// master seed and the current process id.
func ProcessSeed() uint64 {
	k, pid := mustCurrent()
	return k.table.record(pid).seed
}

// ProcessNumber returns the total number of processes in the simulation.
func ProcessNumber() int {
	k, _ := mustCurrent()
	return k.table.size()
}

// requireContext guards the AnyKV accessors in anykv.go.
func requireContext(op string) *kernel {
	k := mustKernel()
	if !k.hasCurrent {
		panic(fmt.Sprintf("sim: %s called with no current process", op))
	}
	return k
}
