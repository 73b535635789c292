package systems

import "github.com/kshprenger/matrix/sim"

const beatCountKey = "heartbeat.total"

// Heartbeat schedules a periodic timer and counts its fires, both locally
// and in a simulation-wide counter kept in the key-value store. Messages are
// never sent, so the behavior runs identically under any bandwidth limit.
type Heartbeat struct {
	Period sim.Jiffies
	Beats  int
}

func NewHeartbeat() sim.Process {
	return &Heartbeat{Period: 50}
}

func (h *Heartbeat) Start() {
	if sim.Rank() == 0 {
		sim.KVSet(beatCountKey, uint64(0))
	}
	sim.ScheduleTimerAfter(h.Period)
}

func (h *Heartbeat) OnMessage(sim.ProcessID, *sim.Envelope) {}

func (h *Heartbeat) OnTimer(id sim.TimerID) {
	h.Beats++
	sim.KVModify(beatCountKey, func(total *uint64) { *total++ })
	sim.Debugf("beat %d (timer %d)", h.Beats, int(id))
	sim.ScheduleTimerAfter(h.Period)
}
