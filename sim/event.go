package sim

import "github.com/sirupsen/logrus"

// event is a scheduled engine action. Each event has a fire time (in
// jiffies) and an execute method that advances simulation state when the run
// loop dispatches it.
type event interface {
	timestamp() Jiffies
	execute(k *kernel)
}

// deliveryEvent hands an envelope to its destination's OnMessage handler.
type deliveryEvent struct {
	time     Jiffies
	src, dst ProcessID
	env      *Envelope
}

func (e *deliveryEvent) timestamp() Jiffies {
	return e.time
}

func (e *deliveryEvent) execute(k *kernel) {
	logrus.Debugf("[t=%d] deliver %d -> %d", uint64(e.time), int(e.src), int(e.dst))
	k.metrics.DeliveredMessages++
	k.recordDispatch(DispatchDeliver, e.dst)
	k.withCurrent(e.dst, func(p Process) {
		p.OnMessage(e.src, e.env)
	})
}

// timerFireEvent fires one timer of one process. Fires for retired ids are
// dropped without touching the process.
type timerFireEvent struct {
	time Jiffies
	dst  ProcessID
	id   TimerID
}

func (e *timerFireEvent) timestamp() Jiffies {
	return e.time
}

func (e *timerFireEvent) execute(k *kernel) {
	if !k.table.record(e.dst).timers.retire(e.id) {
		logrus.Debugf("[t=%d] timer %d of process %d already retired, dropping", uint64(e.time), int(e.id), int(e.dst))
		k.metrics.DroppedTimerFires++
		return
	}
	logrus.Debugf("[t=%d] timer %d fires at process %d", uint64(e.time), int(e.id), int(e.dst))
	k.metrics.FiredTimers++
	k.recordDispatch(DispatchTimer, e.dst)
	k.withCurrent(e.dst, func(p Process) {
		p.OnTimer(e.id)
	})
}
