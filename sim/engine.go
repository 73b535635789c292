package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// DispatchKind tags one entry of a recorded dispatch trace.
type DispatchKind string

const (
	DispatchDeliver DispatchKind = "deliver"
	DispatchTimer   DispatchKind = "timer"
)

// Dispatch is one dispatched event as observed by the trace recorder:
// the virtual time, the event kind and the process that was current.
type Dispatch struct {
	Time Jiffies
	Kind DispatchKind
	PID  ProcessID
}

type edgeKey struct {
	src, dst ProcessID
}

// kernel owns all mutable engine state for one simulation run. Structural
// fields are mutated only by the run loop between handler invocations; user
// code reaches the kernel indirectly through the free functions in
// access.go.
type kernel struct {
	clock  Jiffies
	budget Jiffies

	queue   eventQueue
	nextSeq uint64

	table  *processTable
	matrix *latencyMatrix

	seed Seed
	src  rand.Source
	rng  *rand.Rand

	current    ProcessID
	hasCurrent bool

	uid uint64
	kv  *kvStore

	// lastArrival keeps deliveries on one (src, dst) edge from overtaking
	// earlier ones: a later emission never arrives before a preceding one,
	// and equal arrival times resolve by seq, i.e. emission order.
	lastArrival map[edgeKey]Jiffies

	metrics     *Metrics
	trace       []Dispatch
	recordTrace bool
}

// schedule pushes ev with the next sequence number. Scheduling into the past
// is an internal invariant violation.
func (k *kernel) schedule(ev event) {
	if ev.timestamp() < k.clock {
		panic(fmt.Sprintf("sim: internal invariant violated: event at t=%d scheduled before clock t=%d", uint64(ev.timestamp()), uint64(k.clock)))
	}
	item := scheduledItem{ev: ev, seq: k.nextSeq}
	k.nextSeq++
	heap.Push(&k.queue, item)
}

// withCurrent installs id as the current process around one handler
// invocation. At most one process is current at any instant; outside
// dispatch there is none.
func (k *kernel) withCurrent(id ProcessID, f func(Process)) {
	k.current = id
	k.hasCurrent = true
	f(k.table.record(id).behavior)
	k.hasCurrent = false
}

func (k *kernel) recordDispatch(kind DispatchKind, pid ProcessID) {
	if k.recordTrace {
		k.trace = append(k.trace, Dispatch{Time: k.clock, Kind: kind, PID: pid})
	}
}

// emitTo routes one emission of size bytes from src to dst: the bandwidth
// gate decides departure, the latency matrix decides the extra delay, and
// the resulting delivery is pushed onto the event queue.
func (k *kernel) emitTo(src, dst ProcessID, size int, msg Message) {
	rec := k.table.record(src)
	departed := rec.gate.emit(k.clock, size)
	arrival := departed.Add(k.matrix.sample(k.src, src, dst))

	edge := edgeKey{src: src, dst: dst}
	if last, ok := k.lastArrival[edge]; ok && arrival < last {
		arrival = last
	}
	k.lastArrival[edge] = arrival

	k.metrics.EmittedMessages++
	k.metrics.EmittedBytes += uint64(size)
	logrus.Debugf("[t=%d] emit %d -> %d size=%d departs=%d arrives=%d", uint64(k.clock), int(src), int(dst), size, uint64(departed), uint64(arrival))
	k.schedule(&deliveryEvent{time: arrival, src: src, dst: dst, env: wrap(msg)})
}

// send delivers msg to a single destination. The virtual size is sampled
// exactly once, here.
func (k *kernel) send(src, dst ProcessID, msg Message) {
	k.emitTo(src, dst, msg.VirtualSize(), msg)
}

// broadcastWithin delivers msg to every member of the named pool except the
// sender, in ascending ProcessID order. Each recipient's transmission claims
// the outbound link exactly as a separate send would; latency is sampled
// independently per recipient.
func (k *kernel) broadcastWithin(src ProcessID, pool string, msg Message) {
	size := msg.VirtualSize()
	for _, dst := range k.table.listPool(pool) {
		if dst == src {
			continue
		}
		k.emitTo(src, dst, size, msg)
	}
}

// sendRandom delivers msg to one uniformly chosen member of the named pool,
// excluding the sender. The target draw precedes the latency sample.
func (k *kernel) sendRandom(src ProcessID, pool string, msg Message) {
	candidates := make([]ProcessID, 0, len(k.table.listPool(pool)))
	for _, id := range k.table.listPool(pool) {
		if id != src {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		panic(fmt.Sprintf("sim: pool %q has no recipient other than process %d", pool, int(src)))
	}
	dst := candidates[k.rng.Intn(len(candidates))]
	k.send(src, dst, msg)
}

func (k *kernel) scheduleTimer(owner ProcessID, after Jiffies) TimerID {
	id := k.table.record(owner).timers.issue()
	k.schedule(&timerFireEvent{time: k.clock.Add(after), dst: owner, id: id})
	return id
}

// === Simulation ===

// Simulation wraps a fully built kernel, ready to run once.
type Simulation struct {
	k *kernel
}

// Run starts every process in ascending ProcessID order, then drains the
// event queue in (time, seq) order until it empties or the next event lies
// beyond the time budget. An event beyond the budget is not dispatched.
func (s *Simulation) Run() {
	k := s.k

	for _, rec := range k.table.records {
		k.withCurrent(rec.id, func(p Process) {
			p.Start()
		})
	}

	progress := newProgressMeter(k.budget)
	for len(k.queue) > 0 {
		if next := k.queue[0].ev.timestamp(); next > k.budget {
			logrus.Infof("[t=%d] time budget %d reached, next event at t=%d not dispatched", uint64(k.clock), uint64(k.budget), uint64(next))
			break
		}
		item := heap.Pop(&k.queue).(scheduledItem)
		t := item.ev.timestamp()
		if t < k.clock {
			panic(fmt.Sprintf("sim: internal invariant violated: event time t=%d behind clock t=%d", uint64(t), uint64(k.clock)))
		}
		k.clock = t
		item.ev.execute(k)
		progress.advance(k.clock)
	}

	k.metrics.SimEndedTime = min(k.clock, k.budget)
	logrus.Infof("[t=%d] simulation ended", uint64(k.clock))
}

// Metrics returns the counters gathered during the run.
func (s *Simulation) Metrics() *Metrics {
	return s.k.metrics
}

// Trace returns the recorded dispatch sequence. Empty unless the builder
// enabled RecordTrace.
func (s *Simulation) Trace() []Dispatch {
	return s.k.trace
}

// progressMeter emits a coarse info-level progress line whenever the run
// crosses another tenth of the time budget. Small runs finish before the
// first line.
type progressMeter struct {
	budget Jiffies
	tenth  Jiffies
	next   Jiffies
}

func newProgressMeter(budget Jiffies) *progressMeter {
	tenth := budget / 10
	return &progressMeter{budget: budget, tenth: tenth, next: tenth}
}

func (p *progressMeter) advance(now Jiffies) {
	if p.tenth == 0 || now < p.next {
		return
	}
	for p.next <= now && p.next <= p.budget {
		p.next += p.tenth
	}
	logrus.Infof("[t=%d] progress: %d%% of time budget", uint64(now), uint64(now*100/p.budget))
}
