package systems

import "github.com/kshprenger/matrix/sim"

// Behaviors resolves behavior names used in scenario files to process
// factories.
var Behaviors = map[string]func() sim.Process{
	"pingpong":  NewPingPong,
	"broadcast": NewBroadcaster,
	"burst":     NewBurstSender,
	"heartbeat": NewHeartbeat,
	"gossip":    NewGossiper,
}

// Scenarios maps a system name to a ready-to-build preset, used when the CLI
// runs without a scenario file.
var Scenarios = map[string]func() *sim.Builder{
	"pingpong": func() *sim.Builder {
		return sim.NewBuilder().
			AddPool("players", 2, NewPingPong).
			LatencyTopology(sim.WithinPool("players", sim.Uniform{Lo: 1, Hi: 1}))
	},
	"broadcast": func() *sim.Builder {
		return sim.NewBuilder().
			AddPool("nodes", 5, NewBroadcaster).
			LatencyTopology(sim.WithinPool("nodes", sim.Uniform{Lo: 3, Hi: 7}))
	},
	"bandwidth": func() *sim.Builder {
		return sim.NewBuilder().
			NICBandwidth(sim.Bounded(100)).
			AddPool("links", 2, NewBurstSender)
	},
	"timers": func() *sim.Builder {
		return sim.NewBuilder().
			NICBandwidth(sim.Bounded(1)).
			AddPool("clocks", 3, NewHeartbeat)
	},
	"gossip": func() *sim.Builder {
		return sim.NewBuilder().
			AddPool("peers", 8, NewGossiper).
			LatencyTopology(sim.WithinPool("peers", sim.Normal{Mean: 10, StdDev: 2}))
	},
}
