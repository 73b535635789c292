package sim

// BandwidthDescription describes the outbound capacity of a process NIC in
// bytes per jiffy. The zero value is unbounded.
type BandwidthDescription struct {
	bounded       bool
	bytesPerJiffy uint64
}

// Unbounded returns a description with no bandwidth limit: transmission
// takes zero jiffies regardless of message size.
func Unbounded() BandwidthDescription {
	return BandwidthDescription{}
}

// Bounded returns a description limited to b bytes per jiffy. b must be
// positive; Build rejects a zero rate.
func Bounded(b uint64) BandwidthDescription {
	return BandwidthDescription{bounded: true, bytesPerJiffy: b}
}

// bandwidthGate models the serial outbound link of one process. All
// emissions from the process claim the link in emission order; a later
// emission that finds the link busy is deferred past preceding traffic.
type bandwidthGate struct {
	desc BandwidthDescription
	// readyAt is the time at which the link becomes idle again.
	readyAt Jiffies
}

// emit reserves the link for one message of size bytes at time now and
// returns the time the last byte leaves the NIC (departure + transmission).
func (g *bandwidthGate) emit(now Jiffies, size int) Jiffies {
	dep := now
	if g.readyAt > dep {
		dep = g.readyAt
	}
	var dur Jiffies
	if g.desc.bounded && size > 0 {
		dur = Jiffies((uint64(size) + g.desc.bytesPerJiffy - 1) / g.desc.bytesPerJiffy)
	}
	g.readyAt = dep.Add(dur)
	return g.readyAt
}
