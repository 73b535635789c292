package sim

// scheduledItem pairs an event with its enqueue sequence number. seq is a
// process-wide monotone counter incremented once per enqueue, so two
// distinct items never share an identical (timestamp, seq) key.
type scheduledItem struct {
	ev  event
	seq uint64
}

// eventQueue implements heap.Interface and orders items by
// (timestamp asc, seq asc). Ties at equal fire time therefore resolve in
// enqueue order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventQueue []scheduledItem

func (eq eventQueue) Len() int { return len(eq) }

func (eq eventQueue) Less(i, j int) bool {
	ti, tj := eq[i].ev.timestamp(), eq[j].ev.timestamp()
	if ti != tj {
		return ti < tj
	}
	return eq[i].seq < eq[j].seq
}

func (eq eventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(scheduledItem))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}
