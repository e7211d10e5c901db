package jdb

import (
	"testing"
)

func twoChannelHop() *Hop {
	hop := NewHop("Alice", "Bob")

	cheap := NewChannel("500x1x0", 1000)
	cheap.EnableDirection(Alph, NewChannelDirection(2, 1, 0))

	expensive := NewChannel("500x2x0", 5000)
	expensive.EnableDirection(Alph, NewChannelDirection(2, 10, 0))
	expensive.EnableDirection(NonAlph, NewChannelDirection(2, 1, 0))

	hop.AddChannel(cheap)
	hop.AddChannel(expensive)

	return hop
}

func TestChanIDsCanForward(t *testing.T) {
	hop := twoChannelHop()

	cids := hop.ChanIDsCanForward(100, Alph)
	if len(cids) != 2 {
		t.Fatalf("Expected both channels to forward 100; got %v", cids)
	}

	// Only the bigger channel can carry 2000.
	cids = hop.ChanIDsCanForward(2000, Alph)
	if len(cids) != 1 || cids[0] != "500x2x0" {
		t.Errorf("Expected only 500x2x0 to forward 2000; got %v", cids)
	}

	// Only one channel is enabled in the non-alphabetical direction.
	cids = hop.ChanIDsCanForward(100, NonAlph)
	if len(cids) != 1 || cids[0] != "500x2x0" {
		t.Errorf("Expected only 500x2x0 to forward backwards; got %v", cids)
	}
}

func TestCheapestChanID(t *testing.T) {
	hop := twoChannelHop()

	cid, ok := hop.CheapestChanID(100, Alph)
	if !ok || cid != "500x1x0" {
		t.Errorf("Expected cheapest channel 500x1x0; got %v", cid)
	}

	cid, ok = hop.CheapestChanID(2000, Alph)
	if !ok || cid != "500x2x0" {
		t.Errorf("Expected only capable channel 500x2x0; got %v", cid)
	}

	if _, ok := hop.CheapestChanID(10000, Alph); ok {
		t.Errorf("Expected no capable channel for amount 10000")
	}
}

func TestCheapestChanIDTieBreak(t *testing.T) {
	hop := NewHop("Alice", "Bob")

	second := NewChannel("600x2x0", 1000)
	second.EnableDirection(Alph, NewChannelDirection(2, 1, 0))

	first := NewChannel("600x1x0", 1000)
	first.EnableDirection(Alph, NewChannelDirection(2, 1, 0))

	hop.AddChannel(second)
	hop.AddChannel(first)

	// Equal fees resolve to the lesser channel id.
	cid, ok := hop.CheapestChanID(100, Alph)
	if !ok || cid != "600x1x0" {
		t.Errorf("Expected tie to break towards 600x1x0; got %v", cid)
	}
}

func TestHopIsJammed(t *testing.T) {
	hop := twoChannelHop()

	if hop.IsJammed(Alph, 0) {
		t.Errorf("Expected hop with free slots not to be jammed")
	}

	for _, cid := range hop.ChanIDs() {
		state := hop.Channel(cid).Direction(Alph)
		for state.HasFreeSlot() {
			state.TryInsert(Htlc{ResolutionTime: 100})
		}
	}

	if !hop.IsJammed(Alph, 0) {
		t.Errorf("Expected hop to be jammed with all slots occupied")
	}

	if hop.IsJammed(NonAlph, 0) {
		t.Errorf("Expected other direction not to be jammed")
	}

	if hop.NumSlotsOccupied(Alph) != 4 {
		t.Errorf("Expected 4 occupied slots; got %v", hop.NumSlotsOccupied(Alph))
	}
}
