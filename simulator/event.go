package simulator

import (
	"container/heap"

	"github.com/the-lightning-land/jammed/jdb"
)

// Event is a planned payment stored in a Schedule.
type Event struct {
	Sender   jdb.NodeID
	Receiver jdb.NodeID

	// Amount is what the receiver gets if the payment succeeds.
	Amount int64

	// DesiredResult is true for honest payments and false for jams.
	DesiredResult bool

	// ProcessingDelay is how long an HTLC created for this payment stays
	// in flight before it may be resolved.
	ProcessingDelay float64

	// MustRouteVia lists nodes the route must visit, in order.
	MustRouteVia []jdb.NodeID
}

// Schedule is a time-ordered queue of events. Events with equal timestamps
// pop in insertion order.
type Schedule struct {
	endTime float64
	entries eventHeap
	seq     uint64
}

// NewSchedule creates an empty schedule that ends at the given time. The
// end time is independent of the last event's time.
func NewSchedule(endTime float64) *Schedule {
	return &Schedule{endTime: endTime}
}

// EndTime returns the simulation end time.
func (s *Schedule) EndTime() float64 {
	return s.endTime
}

// Push inserts an event at the given time.
func (s *Schedule) Push(time float64, event Event) {
	s.seq++
	heap.Push(&s.entries, eventEntry{time: time, event: event, seq: s.seq})
}

// PopEarliest removes and returns the earliest event along with its time.
// The last return value is false if the schedule is empty.
func (s *Schedule) PopEarliest() (float64, Event, bool) {
	if len(s.entries) == 0 {
		return 0, Event{}, false
	}
	entry := heap.Pop(&s.entries).(eventEntry)
	return entry.time, entry.event, true
}

// IsEmpty reports whether no events remain.
func (s *Schedule) IsEmpty() bool {
	return len(s.entries) == 0
}

// Len returns the number of pending events.
func (s *Schedule) Len() int {
	return len(s.entries)
}

type eventEntry struct {
	time  float64
	event Event
	seq   uint64
}

type eventHeap []eventEntry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(eventEntry))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
