package jdb

import (
	"testing"
)

func TestHtlcQueueOrder(t *testing.T) {
	queue := &HtlcQueue{}

	queue.Push(Htlc{ResolutionTime: 9, SuccessFee: 3})
	queue.Push(Htlc{ResolutionTime: 5, SuccessFee: 1})
	queue.Push(Htlc{ResolutionTime: 7, SuccessFee: 2})

	earliest, ok := queue.PeekEarliest()
	if !ok || earliest.ResolutionTime != 5 {
		t.Fatalf("Expected earliest resolution time of 5; got %v", earliest.ResolutionTime)
	}

	var times []float64
	for {
		htlc, ok := queue.PopEarliest()
		if !ok {
			break
		}
		times = append(times, htlc.ResolutionTime)
	}

	if len(times) != 3 || times[0] != 5 || times[1] != 7 || times[2] != 9 {
		t.Errorf("Expected resolution times 5, 7, 9; got %v", times)
	}
}

func TestHtlcQueueTieBreak(t *testing.T) {
	queue := &HtlcQueue{}

	queue.Push(Htlc{ResolutionTime: 5, SuccessFee: 1})
	queue.Push(Htlc{ResolutionTime: 5, SuccessFee: 2})
	queue.Push(Htlc{ResolutionTime: 5, SuccessFee: 3})

	// Equal resolution times pop in insertion order.
	for i, expected := range []float64{1, 2, 3} {
		htlc, ok := queue.PopEarliest()
		if !ok || htlc.SuccessFee != expected {
			t.Errorf("Pop %v: expected success fee %v; got %v", i, expected, htlc.SuccessFee)
		}
	}
}

func TestHtlcQueueEmpty(t *testing.T) {
	queue := &HtlcQueue{}

	if _, ok := queue.PeekEarliest(); ok {
		t.Errorf("Expected no HTLC in an empty queue")
	}

	if _, ok := queue.PopEarliest(); ok {
		t.Errorf("Expected no HTLC to pop from an empty queue")
	}
}
