package search

import (
	"container/heap"
	"fmt"
)

type frontierItem struct {
	cell  int
	f     int
	h     int
	seq   uint64
	index int
}

// frontierQueue implements heap.Interface. Ordering: lower f, then lower h,
// then earlier first insertion.
type frontierQueue []*frontierItem

func (q frontierQueue) Len() int { return len(q) }

func (q frontierQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	return q[i].seq < q[j].seq
}

func (q frontierQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *frontierQueue) Push(x any) {
	item := x.(*frontierItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *frontierQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = notInFrontier
	*q = old[:n-1]
	return item
}

// Frontier is the open set: an indexed binary heap over cell indices with
// O(1) membership and in-place priority updates.
type Frontier struct {
	queue   frontierQueue
	members []*frontierItem
	nextSeq uint64
}

// NewFrontier creates a frontier able to hold cell indices in [0, capacity).
func NewFrontier(capacity int) *Frontier {
	return &Frontier{
		queue:   make(frontierQueue, 0, capacity),
		members: make([]*frontierItem, capacity),
	}
}

// Len returns the number of members
func (f *Frontier) Len() int { return f.queue.Len() }

// Contains reports whether cell is a member.
func (f *Frontier) Contains(cell int) bool {
	return cell >= 0 && cell < len(f.members) && f.members[cell] != nil
}

// Insert adds cell with priority (fCost, hCost).
func (f *Frontier) Insert(cell, fCost, hCost int) error {
	if cell < 0 || cell >= len(f.members) {
		return fmt.Errorf("frontier insert %d: %w", cell, ErrInvalidBounds)
	}
	if f.members[cell] != nil {
		return fmt.Errorf("frontier insert %d: %w", cell, ErrDuplicateInsert)
	}
	item := &frontierItem{cell: cell, f: fCost, h: hCost, seq: f.nextSeq}
	f.nextSeq++
	heap.Push(&f.queue, item)
	f.members[cell] = item
	return nil
}

// ExtractMin removes and returns the member with the smallest priority.
func (f *Frontier) ExtractMin() (int, bool) {
	if f.queue.Len() == 0 {
		return 0, false
	}
	item := heap.Pop(&f.queue).(*frontierItem)
	f.members[item.cell] = nil
	return item.cell, true
}

// UpdatePriority repositions an existing member after its cost changed.
// The insertion sequence is kept so tie-breaking stays stable.
func (f *Frontier) UpdatePriority(cell, fCost, hCost int) error {
	if !f.Contains(cell) {
		return fmt.Errorf("frontier update %d: not a member: %w", cell, ErrInternalInvariantViolation)
	}
	item := f.members[cell]
	item.f = fCost
	item.h = hCost
	heap.Fix(&f.queue, item.index)
	return nil
}

// Members returns the member cell indices in heap order.
func (f *Frontier) Members() []int {
	out := make([]int, 0, len(f.queue))
	for _, item := range f.queue {
		out = append(out, item.cell)
	}
	return out
}

// Clear removes every member and restarts the insertion sequence.
func (f *Frontier) Clear() {
	for i, item := range f.queue {
		f.members[item.cell] = nil
		f.queue[i] = nil
	}
	f.queue = f.queue[:0]
	f.nextSeq = 0
}
