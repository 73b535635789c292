package sim

import "github.com/sirupsen/logrus"

// Metrics aggregates counters for a single run.
type Metrics struct {
	EmittedMessages   uint64
	EmittedBytes      uint64
	DeliveredMessages uint64
	FiredTimers       uint64
	DroppedTimerFires uint64
	// SimEndedTime is the virtual time at which the run stopped, capped at
	// the time budget.
	SimEndedTime Jiffies
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Print logs a run summary at info level.
func (m *Metrics) Print() {
	logrus.Infof("=== Simulation summary ===")
	logrus.Infof("ended at:           t=%d", uint64(m.SimEndedTime))
	logrus.Infof("messages emitted:   %d (%d bytes)", m.EmittedMessages, m.EmittedBytes)
	logrus.Infof("messages delivered: %d", m.DeliveredMessages)
	logrus.Infof("timers fired:       %d (%d stale fires dropped)", m.FiredTimers, m.DroppedTimerFires)
}
