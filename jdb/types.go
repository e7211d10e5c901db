package jdb

// NodeID identifies a node in the channel graph. Node identifiers impose a
// total order which defines the direction of forwarding between two nodes.
type NodeID string

// ChanID identifies a channel. Snapshots encode it as a short channel id
// string such as "585x1x0".
type ChanID string

// NodePair is an ordered pair of adjacent nodes, used both for forwarding
// steps and for the attacker's target hops.
type NodePair struct {
	From NodeID
	To   NodeID
}

// Direction returns the direction of forwarding from p.From to p.To.
func (p NodePair) Direction() Direction {
	return DirectionBetween(p.From, p.To)
}
