package jdb

import (
	"sort"

	"github.com/go-errors/errors"
)

// Hop is the set of parallel channels between an unordered pair of nodes.
// Routing picks one channel per hop.
type Hop struct {
	nodeA NodeID // nodeA < nodeB
	nodeB NodeID

	channels map[ChanID]*Channel
}

// NewHop creates an empty hop between two nodes.
func NewHop(a, b NodeID) *Hop {
	if b < a {
		a, b = b, a
	}
	return &Hop{
		nodeA:    a,
		nodeB:    b,
		channels: make(map[ChanID]*Channel),
	}
}

// Nodes returns the hop endpoints in identifier order.
func (h *Hop) Nodes() (NodeID, NodeID) {
	return h.nodeA, h.nodeB
}

// AddChannel registers a channel under its id.
func (h *Hop) AddChannel(ch *Channel) error {
	if _, ok := h.channels[ch.ChanID]; ok {
		return errors.Errorf("Channel %v already exists in hop %v-%v", ch.ChanID, h.nodeA, h.nodeB)
	}
	h.channels[ch.ChanID] = ch
	return nil
}

// Channel returns the channel with the given id, or nil.
func (h *Hop) Channel(cid ChanID) *Channel {
	return h.channels[cid]
}

// NumChannels returns the number of parallel channels in the hop.
func (h *Hop) NumChannels() int {
	return len(h.channels)
}

// ChanIDs returns all channel ids, sorted for deterministic iteration.
func (h *Hop) ChanIDs() []ChanID {
	cids := make([]ChanID, 0, len(h.channels))
	for cid := range h.channels {
		cids = append(cids, cid)
	}
	sort.Slice(cids, func(i, j int) bool { return cids[i] < cids[j] })
	return cids
}

// ChanIDsCanForward returns the ids of channels that are enabled in the
// given direction and have enough capacity for the amount, sorted by id.
func (h *Hop) ChanIDsCanForward(amount float64, direction Direction) []ChanID {
	var cids []ChanID
	for _, cid := range h.ChanIDs() {
		if h.channels[cid].CanForward(amount, direction) {
			cids = append(cids, cid)
		}
	}
	return cids
}

// CheapestChanID returns the id of the cheapest channel that can forward
// the amount in the given direction. Channels are compared by the total fee
// for the amount; ties break by channel id ascending. The second return
// value is false if no channel qualifies.
func (h *Hop) CheapestChanID(amount float64, direction Direction) (ChanID, bool) {
	cids := h.ChanIDsCanForward(amount, direction)
	if len(cids) == 0 {
		return "", false
	}
	sort.SliceStable(cids, func(i, j int) bool {
		feeI := h.channels[cids[i]].Direction(direction).TotalFee(amount)
		feeJ := h.channels[cids[j]].Direction(direction).TotalFee(amount)
		if feeI != feeJ {
			return feeI < feeJ
		}
		return cids[i] < cids[j]
	})
	return cids[0], true
}

// IsJammed reports whether every channel of the hop is jammed in the given
// direction at the given time.
func (h *Hop) IsJammed(direction Direction, time float64) bool {
	for _, ch := range h.channels {
		if !ch.IsJammed(direction, time) {
			return false
		}
	}
	return true
}

// NumSlotsOccupied sums the occupied slots over all channels of the hop in
// the given direction.
func (h *Hop) NumSlotsOccupied(direction Direction) int {
	total := 0
	for _, ch := range h.channels {
		if state := ch.Direction(direction); state != nil {
			total += state.NumSlotsOccupied()
		}
	}
	return total
}
