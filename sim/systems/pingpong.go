package systems

import "github.com/kshprenger/matrix/sim"

// Ball is the message bounced between the two ping-pong processes.
type Ball struct{}

func (Ball) VirtualSize() int { return 16 }

// PingPong bounces a single ball between process 0 and its peer until the
// time budget runs out. Process 0 serves.
type PingPong struct {
	Rallies int
}

func NewPingPong() sim.Process {
	return &PingPong{}
}

func (p *PingPong) Start() {
	if sim.Rank() == 0 {
		sim.SendTo(1, Ball{})
	}
}

func (p *PingPong) OnMessage(from sim.ProcessID, env *sim.Envelope) {
	sim.MustAs[Ball](env)
	p.Rallies++
	sim.Debugf("rally %d, returning ball to %d", p.Rallies, int(from))
	sim.SendTo(from, Ball{})
}

func (p *PingPong) OnTimer(sim.TimerID) {}
