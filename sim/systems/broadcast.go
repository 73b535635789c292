package systems

import "github.com/kshprenger/matrix/sim"

// Announce carries one broadcast round, tagged with a globally unique
// sequence number.
type Announce struct {
	Seq uint64
}

func (Announce) VirtualSize() int { return 64 }

// Ack confirms receipt of an Announce.
type Ack struct {
	Seq uint64
}

func (Ack) VirtualSize() int { return 8 }

// Broadcaster implements a fully acknowledged broadcast: process 0 announces
// to everyone and collects one Ack per peer; the other processes just
// acknowledge. Acked reports whether the round completed.
type Broadcaster struct {
	acks  *sim.Combiner[sim.ProcessID]
	Acked bool
}

func NewBroadcaster() sim.Process {
	return &Broadcaster{}
}

func (b *Broadcaster) Start() {
	if sim.Rank() != 0 {
		return
	}
	b.acks = sim.NewCombiner[sim.ProcessID](sim.ProcessNumber() - 1)
	sim.Broadcast(Announce{Seq: sim.GlobalUniqueID()})
}

func (b *Broadcaster) OnMessage(from sim.ProcessID, env *sim.Envelope) {
	if a, ok := sim.TryAs[Announce](env); ok {
		sim.Debugf("announce %d from %d, acking", a.Seq, int(from))
		sim.SendTo(from, Ack{Seq: a.Seq})
		return
	}
	ack := sim.MustAs[Ack](env)
	if peers, done := b.acks.Add(from); done {
		b.Acked = true
		sim.Debugf("round %d acknowledged by all %d peers", ack.Seq, len(peers))
	}
}

func (b *Broadcaster) OnTimer(sim.TimerID) {}
