package grid

import "container/heap"

// delayedActionItem orders by due tick, then by insertion sequence so that
// actions delayed to the same tick run FIFO. A heap on the due tick alone
// would reorder same-tick entries and break determinism.
type delayedActionItem struct {
	dueTick  int32
	seq      uint64
	playerID uint32
	action   Action
}

type delayedActionHeap []delayedActionItem

func (h delayedActionHeap) Len() int { return len(h) }

func (h delayedActionHeap) Less(i, j int) bool {
	if h[i].dueTick != h[j].dueTick {
		return h[i].dueTick < h[j].dueTick
	}
	return h[i].seq < h[j].seq
}

func (h delayedActionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *delayedActionHeap) Push(x any) { *h = append(*h, x.(delayedActionItem)) }

func (h *delayedActionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// DelayedActionQueue is a min-heap of actions scheduled for future ticks.
type DelayedActionQueue struct {
	items delayedActionHeap
	seq   uint64
}

func (q *DelayedActionQueue) Len() int { return q.items.Len() }

func (q *DelayedActionQueue) push(dueTick int32, playerID uint32, action Action) {
	q.seq++
	heap.Push(&q.items, delayedActionItem{dueTick: dueTick, seq: q.seq, playerID: playerID, action: action})
}

func (q *DelayedActionQueue) peekDue() (int32, bool) {
	if q.items.Len() == 0 {
		return 0, false
	}
	return q.items[0].dueTick, true
}

func (q *DelayedActionQueue) pop() delayedActionItem {
	return heap.Pop(&q.items).(delayedActionItem)
}

func (q *DelayedActionQueue) clear() {
	q.items = q.items[:0]
	q.seq = 0
}
