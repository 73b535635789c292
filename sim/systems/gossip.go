package systems

import "github.com/kshprenger/matrix/sim"

// Rumor is a gossip payload with a hop budget.
type Rumor struct {
	Origin sim.ProcessID
	TTL    int
}

func (Rumor) VirtualSize() int { return 32 }

// Gossiper spreads a rumor by random peer-to-peer forwarding: process 0
// starts a rumor with a fixed hop budget and every process that receives it
// forwards it to one random peer with the budget decremented, until the
// budget reaches zero. Heard records whether a process has received it.
type Gossiper struct {
	Heard bool
}

func NewGossiper() sim.Process {
	return &Gossiper{}
}

func (g *Gossiper) Start() {
	if sim.Rank() != 0 {
		return
	}
	g.Heard = true
	sim.SendRandom(Rumor{Origin: sim.Rank(), TTL: 2 * sim.ProcessNumber()})
}

func (g *Gossiper) OnMessage(from sim.ProcessID, env *sim.Envelope) {
	r := sim.MustAs[Rumor](env)
	first := !g.Heard
	g.Heard = true
	if first {
		sim.Debugf("heard rumor of %d via %d, ttl=%d", int(r.Origin), int(from), r.TTL)
	}
	if r.TTL <= 0 {
		return
	}
	sim.SendRandom(Rumor{Origin: r.Origin, TTL: r.TTL - 1})
}

func (g *Gossiper) OnTimer(sim.TimerID) {}
