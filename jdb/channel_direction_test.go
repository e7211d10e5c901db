package jdb

import (
	"math"
	"testing"
)

func TestComputeFees(t *testing.T) {
	state := NewChannelDirection(2, 1, 0.02)
	state.UpfrontBaseFee = 2
	state.UpfrontFeeRate = 0.01

	successFee, upfrontFee := state.ComputeFees(100, 103)

	if successFee != 1+0.02*100 {
		t.Errorf("Expected success fee of 3; got %v", successFee)
	}

	if math.Abs(upfrontFee-(2+0.01*103)) > 1e-9 {
		t.Errorf("Expected upfront fee of 3.03; got %v", upfrontFee)
	}
}

func TestSlotBudget(t *testing.T) {
	state := NewChannelDirection(2, 0, 0)

	if !state.HasFreeSlot() {
		t.Fatalf("Expected a fresh channel direction to have free slots")
	}

	if err := state.TryInsert(Htlc{ResolutionTime: 5}); err != nil {
		t.Fatalf("Could not insert first HTLC: %v", err)
	}
	if err := state.TryInsert(Htlc{ResolutionTime: 7}); err != nil {
		t.Fatalf("Could not insert second HTLC: %v", err)
	}

	if state.HasFreeSlot() {
		t.Errorf("Expected no free slot with both slots occupied")
	}

	if err := state.TryInsert(Htlc{ResolutionTime: 9}); err != SlotsFullError {
		t.Errorf("Expected SlotsFullError; got %v", err)
	}

	if state.NumSlotsOccupied() != 2 {
		t.Errorf("Expected 2 occupied slots; got %v", state.NumSlotsOccupied())
	}
}

func TestIsJammed(t *testing.T) {
	state := NewChannelDirection(1, 0, 0)

	if state.IsJammed(0) {
		t.Errorf("Expected an empty channel direction not to be jammed")
	}

	state.TryInsert(Htlc{ResolutionTime: 5})

	if !state.IsJammed(0) {
		t.Errorf("Expected jammed at time 0 with earliest HTLC resolving at 5")
	}

	// An outdated earliest HTLC means a slot can be freed up.
	if state.IsJammed(5) {
		t.Errorf("Expected not jammed at time 5 with earliest HTLC resolving at 5")
	}

	if state.IsJammed(10) {
		t.Errorf("Expected not jammed at time 10 with earliest HTLC resolving at 5")
	}
}

func TestReset(t *testing.T) {
	state := NewChannelDirection(1, 0, 0)
	state.TryInsert(Htlc{ResolutionTime: 5})

	state.Reset()

	if state.NumSlotsOccupied() != 0 {
		t.Errorf("Expected no occupied slots after reset; got %v", state.NumSlotsOccupied())
	}

	if !state.HasFreeSlot() {
		t.Errorf("Expected a free slot after reset")
	}
}

func TestTotalFee(t *testing.T) {
	state := NewChannelDirection(1, 1, 0)
	state.UpfrontBaseFee = 2
	state.UpfrontFeeRate = 0.01

	// success fee 1, upfront fee 2 + 0.01 * 101
	if state.TotalFee(100) != 1+2+0.01*101 {
		t.Errorf("Expected total fee of 4.01; got %v", state.TotalFee(100))
	}
}
