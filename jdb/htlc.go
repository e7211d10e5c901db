package jdb

import (
	"container/heap"
)

// Htlc is an in-flight conditional obligation in a channel direction.
// Balances aren't modeled, so an HTLC only carries the success-case fee.
// An HTLC is immutable once inserted into a queue.
type Htlc struct {
	// ResolutionTime is the absolute simulated time at which the HTLC may
	// be resolved.
	ResolutionTime float64

	// DesiredResult is true for honest payments and false for jams. Only
	// an HTLC with a true desired result moves its success fee on
	// resolution.
	DesiredResult bool

	// SuccessFee is paid from Upstream to Downstream if the HTLC resolves
	// with its desired result being true.
	SuccessFee float64

	Upstream   NodeID
	Downstream NodeID
}

// HtlcQueue keeps in-flight HTLCs ordered by resolution time, earliest
// first. HTLCs with equal resolution times pop in insertion order.
type HtlcQueue struct {
	entries htlcHeap
	seq     uint64
}

// Len returns the number of queued HTLCs.
func (q *HtlcQueue) Len() int {
	return len(q.entries)
}

// Push inserts an HTLC into the queue.
func (q *HtlcQueue) Push(h Htlc) {
	q.seq++
	heap.Push(&q.entries, htlcEntry{htlc: h, seq: q.seq})
}

// PeekEarliest returns the HTLC with the earliest resolution time without
// removing it. The second return value is false if the queue is empty.
func (q *HtlcQueue) PeekEarliest() (Htlc, bool) {
	if len(q.entries) == 0 {
		return Htlc{}, false
	}
	return q.entries[0].htlc, true
}

// PopEarliest removes and returns the HTLC with the earliest resolution
// time. The second return value is false if the queue is empty.
func (q *HtlcQueue) PopEarliest() (Htlc, bool) {
	if len(q.entries) == 0 {
		return Htlc{}, false
	}
	entry := heap.Pop(&q.entries).(htlcEntry)
	return entry.htlc, true
}

type htlcEntry struct {
	htlc Htlc
	seq  uint64
}

type htlcHeap []htlcEntry

func (h htlcHeap) Len() int { return len(h) }

func (h htlcHeap) Less(i, j int) bool {
	if h[i].htlc.ResolutionTime != h[j].htlc.ResolutionTime {
		return h[i].htlc.ResolutionTime < h[j].htlc.ResolutionTime
	}
	return h[i].seq < h[j].seq
}

func (h htlcHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *htlcHeap) Push(x interface{}) {
	*h = append(*h, x.(htlcEntry))
}

func (h *htlcHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
