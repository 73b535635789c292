package systems

import "github.com/kshprenger/matrix/sim"

// Payload is an opaque blob whose virtual size is chosen by the sender.
type Payload struct {
	Bytes int
}

func (p Payload) VirtualSize() int { return p.Bytes }

// BurstSender exercises the outbound bandwidth gate: process 0 emits Bursts
// back-to-back payloads of Size bytes to process 1 at start, so each
// transmission queues behind the previous one.
type BurstSender struct {
	Bursts   int
	Size     int
	Received int
}

func NewBurstSender() sim.Process {
	return &BurstSender{Bursts: 2, Size: 250}
}

func (s *BurstSender) Start() {
	if sim.Rank() != 0 {
		return
	}
	for i := 0; i < s.Bursts; i++ {
		sim.SendTo(1, Payload{Bytes: s.Size})
	}
}

func (s *BurstSender) OnMessage(from sim.ProcessID, env *sim.Envelope) {
	p := sim.MustAs[Payload](env)
	s.Received++
	sim.Debugf("payload %d of %d bytes from %d", s.Received, p.Bytes, int(from))
}

func (s *BurstSender) OnTimer(sim.TimerID) {}
