package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProc adapts closures to the Process interface so tests can define
// behaviors inline.
type scriptedProc struct {
	start     func()
	onMessage func(from ProcessID, env *Envelope)
	onTimer   func(id TimerID)
}

func (p *scriptedProc) Start() {
	if p.start != nil {
		p.start()
	}
}

func (p *scriptedProc) OnMessage(from ProcessID, env *Envelope) {
	if p.onMessage != nil {
		p.onMessage(from, env)
	}
}

func (p *scriptedProc) OnTimer(id TimerID) {
	if p.onTimer != nil {
		p.onTimer(id)
	}
}

type testMsg struct {
	seq  int
	size int
}

func (m testMsg) VirtualSize() int { return m.size }

type arrival struct {
	at  Jiffies
	dst ProcessID
	seq int
}

func TestSimulation_PingPong_AlternatesEveryJiffy(t *testing.T) {
	// GIVEN two processes with a constant one-jiffy link, where process 0
	// serves and both return every ball
	var arrivals []arrival
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				if Rank() == 0 {
					SendTo(1, testMsg{size: 16})
				}
			},
			onMessage: func(from ProcessID, env *Envelope) {
				MustAs[testMsg](env)
				arrivals = append(arrivals, arrival{at: Now(), dst: Rank()})
				SendTo(from, testMsg{size: 16})
			},
		}
	}
	s, err := NewBuilder().
		TimeBudget(4).
		AddPool("players", 2, factory).
		LatencyTopology(WithinPool("players", Uniform{Lo: 1, Hi: 1})).
		Build()
	require.NoError(t, err)

	// WHEN the simulation runs to its budget
	s.Run()

	// THEN the ball arrives once per jiffy, alternating between the peers
	want := []arrival{{1, 1, 0}, {2, 0, 0}, {3, 1, 0}, {4, 0, 0}}
	assert.Equal(t, want, arrivals)
	assert.Equal(t, Jiffies(4), s.Metrics().SimEndedTime)
	assert.Equal(t, uint64(4), s.Metrics().DeliveredMessages)
}

func TestSimulation_Broadcast_DeliversInAscendingIdOrder(t *testing.T) {
	// GIVEN four processes on a constant five-jiffy mesh where process 0
	// broadcasts once at start
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				if Rank() == 0 {
					Broadcast(testMsg{size: 64})
				}
			},
		}
	}
	s, err := NewBuilder().
		TimeBudget(10).
		RecordTrace().
		AddPool("nodes", 4, factory).
		LatencyTopology(WithinPool("nodes", Uniform{Lo: 5, Hi: 5})).
		Build()
	require.NoError(t, err)

	// WHEN the simulation runs
	s.Run()

	// THEN all three deliveries happen at t=5, tie-broken by emission order,
	// which is ascending destination id
	want := []Dispatch{
		{Time: 5, Kind: DispatchDeliver, PID: 1},
		{Time: 5, Kind: DispatchDeliver, PID: 2},
		{Time: 5, Kind: DispatchDeliver, PID: 3},
	}
	assert.Equal(t, want, s.Trace())
}

func TestSimulation_BoundedBandwidth_SerializesBackToBackSends(t *testing.T) {
	// GIVEN a 100 B/jiffy uplink and two 250 B messages emitted together
	var arrivals []Jiffies
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				if Rank() == 0 {
					SendTo(1, testMsg{size: 250})
					SendTo(1, testMsg{size: 250})
				}
			},
			onMessage: func(ProcessID, *Envelope) {
				arrivals = append(arrivals, Now())
			},
		}
	}
	s, err := NewBuilder().
		TimeBudget(100).
		NICBandwidth(Bounded(100)).
		AddPool("links", 2, factory).
		Build()
	require.NoError(t, err)

	// WHEN the simulation runs
	s.Run()

	// THEN each transmission takes ceil(250/100)=3 jiffies and the second
	// queues behind the first
	assert.Equal(t, []Jiffies{3, 6}, arrivals)
	assert.Equal(t, uint64(500), s.Metrics().EmittedBytes)
}

func gossipBuilder(seed Seed) *Simulation {
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				if Rank() == 0 {
					SendRandom(testMsg{seq: 6, size: 32})
				}
			},
			onMessage: func(from ProcessID, env *Envelope) {
				m := MustAs[testMsg](env)
				if m.seq > 0 {
					SendRandom(testMsg{seq: m.seq - 1, size: 32})
				}
			},
		}
	}
	s, err := NewBuilder().
		Seed(seed).
		TimeBudget(1000).
		RecordTrace().
		AddPool("peers", 5, factory).
		LatencyTopology(WithinPool("peers", Normal{Mean: 10, StdDev: 2})).
		Build()
	if err != nil {
		panic(err)
	}
	return s
}

func TestSimulation_SameSeed_ReproducesIdenticalTrace(t *testing.T) {
	// GIVEN two runs of the same random-forwarding system with one seed
	a := gossipBuilder(42)
	a.Run()
	b := gossipBuilder(42)
	b.Run()

	// THEN the dispatch traces match event for event
	require.NotEmpty(t, a.Trace())
	assert.Equal(t, a.Trace(), b.Trace())
}

func TestSimulation_DifferentSeed_DivergesTrace(t *testing.T) {
	a := gossipBuilder(42)
	a.Run()
	b := gossipBuilder(43)
	b.Run()
	assert.NotEqual(t, a.Trace(), b.Trace())
}

func TestSimulation_Timers_IgnoreBandwidth(t *testing.T) {
	// GIVEN a crawling 1 B/jiffy link and a single timer scheduled at start
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				ScheduleTimerAfter(50)
			},
		}
	}
	s, err := NewBuilder().
		TimeBudget(100).
		RecordTrace().
		NICBandwidth(Bounded(1)).
		AddPool("clocks", 1, factory).
		Build()
	require.NoError(t, err)

	// WHEN the simulation runs
	s.Run()

	// THEN the timer fires at exactly t=50, unaffected by the limit
	assert.Equal(t, []Dispatch{{Time: 50, Kind: DispatchTimer, PID: 0}}, s.Trace())
	assert.Equal(t, uint64(1), s.Metrics().FiredTimers)
	assert.Equal(t, uint64(0), s.Metrics().DroppedTimerFires)
}

func TestSimulation_TimeBudget_StopsBeforeEventBeyondIt(t *testing.T) {
	// GIVEN a budget of 25 and a single timer due at t=30
	fired := false
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				ScheduleTimerAfter(30)
			},
			onTimer: func(TimerID) {
				fired = true
			},
		}
	}
	s, err := NewBuilder().
		TimeBudget(25).
		RecordTrace().
		AddPool("clocks", 1, factory).
		Build()
	require.NoError(t, err)

	// WHEN the simulation runs
	s.Run()

	// THEN the event beyond the budget is never dispatched
	assert.False(t, fired)
	assert.Empty(t, s.Trace())
	assert.Equal(t, uint64(0), s.Metrics().FiredTimers)
}

func TestSimulation_PerEdgeDeliveries_NeverReorder(t *testing.T) {
	// GIVEN a jittery 0-10 jiffy link and 50 numbered messages emitted in one
	// start handler
	const sends = 50
	var got []arrival
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				if Rank() != 0 {
					return
				}
				for i := 0; i < sends; i++ {
					SendTo(1, testMsg{seq: i, size: 1})
				}
			},
			onMessage: func(_ ProcessID, env *Envelope) {
				m := MustAs[testMsg](env)
				got = append(got, arrival{at: Now(), dst: Rank(), seq: m.seq})
			},
		}
	}
	s, err := NewBuilder().
		Seed(7).
		TimeBudget(1000).
		AddPool("pair", 2, factory).
		LatencyTopology(WithinPool("pair", Uniform{Lo: 0, Hi: 10})).
		Build()
	require.NoError(t, err)

	// WHEN the simulation runs
	s.Run()

	// THEN all messages arrive, in emission order, at non-decreasing times
	require.Len(t, got, sends)
	for i, a := range got {
		if a.seq != i {
			t.Fatalf("delivery %d: got message seq %d, want %d", i, a.seq, i)
		}
		if i > 0 && a.at < got[i-1].at {
			t.Fatalf("delivery %d at t=%d overtook delivery %d at t=%d", i, uint64(a.at), i-1, uint64(got[i-1].at))
		}
	}
}

func TestSimulation_SendToSelf_ConsumesBandwidth(t *testing.T) {
	// GIVEN a 1 B/jiffy link and a 5 B message sent to self
	var arrivedAt Jiffies
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				SendTo(Rank(), testMsg{size: 5})
			},
			onMessage: func(from ProcessID, _ *Envelope) {
				arrivedAt = Now()
				assert.Equal(t, Rank(), from)
			},
		}
	}
	s, err := NewBuilder().
		TimeBudget(100).
		NICBandwidth(Bounded(1)).
		AddPool("solo", 1, factory).
		Build()
	require.NoError(t, err)

	// WHEN the simulation runs
	s.Run()

	// THEN the self-delivery waited out the 5-jiffy transmission
	assert.Equal(t, Jiffies(5), arrivedAt)
}

func TestAccess_ContextFunctions_InsideHandlers(t *testing.T) {
	// GIVEN one process inspecting its ambient context at start
	var (
		rank  ProcessID
		count int
		seed  uint64
		uids  []uint64
		pool  []ProcessID
	)
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				rank = Rank()
				count = ProcessNumber()
				seed = ProcessSeed()
				uids = append(uids, GlobalUniqueID(), GlobalUniqueID(), GlobalUniqueID())
				pool = ListPool("nodes")
			},
		}
	}
	s, err := NewBuilder().Seed(9).AddPool("nodes", 1, factory).Build()
	require.NoError(t, err)

	// WHEN the simulation runs
	s.Run()

	// THEN every accessor reflects the built topology
	assert.Equal(t, ProcessID(0), rank)
	assert.Equal(t, 1, count)
	assert.Equal(t, processSeed(9, 0), seed)
	assert.Equal(t, []uint64{0, 1, 2}, uids)
	assert.Equal(t, []ProcessID{0}, pool)
}

func TestAccess_ChooseFromPool_IncludesSelf(t *testing.T) {
	// A one-member pool can only ever choose the current process.
	var chosen ProcessID
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				chosen = ChooseFromPool("solo")
			},
		}
	}
	s, err := NewBuilder().AddPool("solo", 1, factory).Build()
	require.NoError(t, err)
	s.Run()
	assert.Equal(t, ProcessID(0), chosen)
}

func TestAccess_OutsideHandler_Panics(t *testing.T) {
	// GIVEN a built simulation with no handler running
	_, err := NewBuilder().AddPool("nodes", 1, newIdle).Build()
	require.NoError(t, err)

	// THEN context-aware functions refuse to run
	assert.Panics(t, func() { Rank() })
	assert.Panics(t, func() { Now() })
	assert.Panics(t, func() { SendTo(0, testMsg{}) })
	assert.Panics(t, func() { ScheduleTimerAfter(1) })
}

func TestAccess_SendRandom_SoleProcess_Panics(t *testing.T) {
	// A process with no possible recipient is a programming error.
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				SendRandom(testMsg{size: 1})
			},
		}
	}
	s, err := NewBuilder().AddPool("solo", 1, factory).Build()
	require.NoError(t, err)
	assert.Panics(t, func() { s.Run() })
}

func TestAccess_UnknownPool_Panics(t *testing.T) {
	factory := func() Process {
		return &scriptedProc{
			start: func() {
				ListPool("ghost")
			},
		}
	}
	s, err := NewBuilder().AddPool("nodes", 2, factory).Build()
	require.NoError(t, err)
	assert.Panics(t, func() { s.Run() })
}
