package jdb

import (
	"github.com/go-errors/errors"
)

// Channel is a single channel between two nodes with up to two directional
// states. A direction without a state is disabled.
type Channel struct {
	ChanID   ChanID
	Capacity int64

	directions [2]*ChannelDirection
}

// NewChannel creates a channel without any enabled direction.
func NewChannel(cid ChanID, capacity int64) *Channel {
	return &Channel{
		ChanID:   cid,
		Capacity: capacity,
	}
}

// EnableDirection attaches a directional state. A direction can only be
// enabled once.
func (c *Channel) EnableDirection(direction Direction, state *ChannelDirection) error {
	if c.directions[direction] != nil {
		return errors.Errorf("Direction %v of channel %v is already enabled", direction, c.ChanID)
	}
	c.directions[direction] = state
	return nil
}

// Direction returns the directional state, or nil if the direction is
// disabled.
func (c *Channel) Direction(direction Direction) *ChannelDirection {
	return c.directions[direction]
}

// IsEnabled reports whether the channel forwards in the given direction.
func (c *Channel) IsEnabled(direction Direction) bool {
	return c.directions[direction] != nil
}

// CanForward reports whether the channel can carry the amount in the given
// direction.
func (c *Channel) CanForward(amount float64, direction Direction) bool {
	return c.IsEnabled(direction) && amount <= float64(c.Capacity)
}

// IsJammed reports whether the direction is jammed at the given time. A
// disabled direction counts as jammed: nothing can be forwarded through it.
func (c *Channel) IsJammed(direction Direction, time float64) bool {
	state := c.directions[direction]
	if state == nil {
		return true
	}
	return state.IsJammed(time)
}

// Reset drops in-flight HTLCs in both directions.
func (c *Channel) Reset() {
	for _, state := range c.directions {
		if state != nil {
			state.Reset()
		}
	}
}
