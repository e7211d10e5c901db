package jdb

import (
	"fmt"
)

// AddJammerChannels connects the attacker to the topology: one channel
// from the jammer's sender node to every node it sends to, and one channel
// to the jammer's receiver node from every node it receives from. The
// jammer's channels get a larger slot budget than regular ones so that the
// attacker's own edges don't run out of slots before the targets do.
func (g *Graph) AddJammerChannels(sender NodeID, sendTo []NodeID,
	receiver NodeID, receiveFrom []NodeID, numSlots int, capacity int64) error {

	next := 0
	addChannel := func(from, to NodeID) error {
		next++
		cid := ChanID(fmt.Sprintf("jammer-%v", next))
		state := NewChannelDirection(numSlots, 0, 0)
		return g.AddChannelDirection(from, to, cid, capacity, state)
	}

	seen := make(map[NodeID]bool)
	for _, node := range sendTo {
		if seen[node] {
			continue
		}
		seen[node] = true
		if err := addChannel(sender, node); err != nil {
			return err
		}
	}

	seen = make(map[NodeID]bool)
	for _, node := range receiveFrom {
		if seen[node] {
			continue
		}
		seen[node] = true
		if err := addChannel(node, receiver); err != nil {
			return err
		}
	}

	return nil
}
