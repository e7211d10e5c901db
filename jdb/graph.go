package jdb

import (
	"sort"

	"github.com/go-errors/errors"
)

// RoutingEdge is one enabled (channel, direction) pair in the directed
// routing graph. It carries only what path search needs.
type RoutingEdge struct {
	From     NodeID
	To       NodeID
	ChanID   ChanID
	Capacity int64
}

// Revenue is a node's running balance, split into the unconditional and
// success-case components.
type Revenue struct {
	Upfront float64
	Success float64
}

// Total returns the combined revenue.
func (r Revenue) Total() float64 {
	return r.Upfront + r.Success
}

// Graph is the network model. It owns all hops (and hence channels and
// their directional states) and exposes two views on them: an undirected
// hop index for state lookup, and a directed routing adjacency with one
// edge per enabled channel direction for path search. It also keeps the
// per-node revenue ledger.
type Graph struct {
	hops      map[NodePair]*Hop // keyed by normalized (lesser, greater) pair
	adjacency map[NodeID][]RoutingEdge
	revenues  map[NodeID]*Revenue

	defaultNumSlots int
}

// NewGraph creates an empty network model. New directional states default
// to the given slot budget.
func NewGraph(defaultNumSlots int) *Graph {
	return &Graph{
		hops:            make(map[NodePair]*Hop),
		adjacency:       make(map[NodeID][]RoutingEdge),
		revenues:        make(map[NodeID]*Revenue),
		defaultNumSlots: defaultNumSlots,
	}
}

// DefaultNumSlots returns the default slot budget per channel direction.
func (g *Graph) DefaultNumSlots() int {
	return g.defaultNumSlots
}

func hopKey(a, b NodeID) NodePair {
	if b < a {
		a, b = b, a
	}
	return NodePair{From: a, To: b}
}

// AddChannelDirection registers one enabled direction of a channel,
// forwarding from one node to another. Both directions of the same channel
// share one Channel entry; capacities of the two registrations must match.
func (g *Graph) AddChannelDirection(from, to NodeID, cid ChanID, capacity int64,
	state *ChannelDirection) error {

	if from == to {
		return errors.Errorf("Channel %v connects node %v to itself", cid, from)
	}

	key := hopKey(from, to)
	hop, ok := g.hops[key]
	if !ok {
		hop = NewHop(from, to)
		g.hops[key] = hop
	}

	ch := hop.Channel(cid)
	if ch == nil {
		ch = NewChannel(cid, capacity)
		if err := hop.AddChannel(ch); err != nil {
			return err
		}
	} else if ch.Capacity != capacity {
		return errors.Errorf("Channel %v has conflicting capacities %v and %v",
			cid, ch.Capacity, capacity)
	}

	if err := ch.EnableDirection(DirectionBetween(from, to), state); err != nil {
		return err
	}

	g.registerNode(from)
	g.registerNode(to)
	g.insertEdge(RoutingEdge{From: from, To: to, ChanID: cid, Capacity: capacity})

	return nil
}

func (g *Graph) registerNode(node NodeID) {
	if _, ok := g.revenues[node]; !ok {
		g.revenues[node] = &Revenue{}
	}
}

func (g *Graph) insertEdge(edge RoutingEdge) {
	edges := append(g.adjacency[edge.From], edge)
	// Adjacency stays sorted so that path search is deterministic.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].ChanID < edges[j].ChanID
	})
	g.adjacency[edge.From] = edges
}

// Hop returns the hop between two nodes, or nil if they aren't adjacent.
func (g *Graph) Hop(a, b NodeID) *Hop {
	return g.hops[hopKey(a, b)]
}

// ChannelDirection looks up the directional state for forwarding from one
// node to another through the given channel. Returns nil if absent.
func (g *Graph) ChannelDirection(from, to NodeID, cid ChanID) *ChannelDirection {
	hop := g.Hop(from, to)
	if hop == nil {
		return nil
	}
	ch := hop.Channel(cid)
	if ch == nil {
		return nil
	}
	return ch.Direction(DirectionBetween(from, to))
}

// HasNode reports whether the node has at least one channel.
func (g *Graph) HasNode(node NodeID) bool {
	_, ok := g.revenues[node]
	return ok
}

// Nodes returns all node ids in sorted order.
func (g *Graph) Nodes() []NodeID {
	nodes := make([]NodeID, 0, len(g.revenues))
	for node := range g.revenues {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// OutEdges returns the routing edges leaving a node, sorted by target node
// and channel id.
func (g *Graph) OutEdges(node NodeID) []RoutingEdge {
	return g.adjacency[node]
}

// InEdges returns the routing edges entering a node.
func (g *Graph) InEdges(node NodeID) []RoutingEdge {
	var edges []RoutingEdge
	for _, from := range g.Nodes() {
		for _, edge := range g.adjacency[from] {
			if edge.To == node {
				edges = append(edges, edge)
			}
		}
	}
	return edges
}

// ForEachChannelDirection visits every enabled channel direction in a
// deterministic order, following the routing edges.
func (g *Graph) ForEachChannelDirection(visit func(from, to NodeID, cid ChanID, state *ChannelDirection)) {
	for _, from := range g.Nodes() {
		for _, edge := range g.adjacency[from] {
			state := g.ChannelDirection(edge.From, edge.To, edge.ChanID)
			if state != nil {
				visit(edge.From, edge.To, edge.ChanID, state)
			}
		}
	}
}

// AddUpfrontRevenue adjusts a node's unconditional-fee balance.
func (g *Graph) AddUpfrontRevenue(node NodeID, delta float64) {
	g.registerNode(node)
	g.revenues[node].Upfront += delta
}

// AddSuccessRevenue adjusts a node's success-fee balance.
func (g *Graph) AddSuccessRevenue(node NodeID, delta float64) {
	g.registerNode(node)
	g.revenues[node].Success += delta
}

// Revenue returns a node's combined revenue.
func (g *Graph) Revenue(node NodeID) float64 {
	rev, ok := g.revenues[node]
	if !ok {
		return 0
	}
	return rev.Total()
}

// Revenues returns the combined revenue of every node.
func (g *Graph) Revenues() map[NodeID]float64 {
	revenues := make(map[NodeID]float64, len(g.revenues))
	for node, rev := range g.revenues {
		revenues[node] = rev.Total()
	}
	return revenues
}

// ResetRevenues zeroes the ledger.
func (g *Graph) ResetRevenues() {
	for _, rev := range g.revenues {
		*rev = Revenue{}
	}
}

// ResetHtlcs drops all in-flight HTLCs in all channels.
func (g *Graph) ResetHtlcs() {
	for _, hop := range g.hops {
		for _, cid := range hop.ChanIDs() {
			hop.Channel(cid).Reset()
		}
	}
}

// Reset prepares the model for a fresh run: empty queues, zero ledger. The
// topology and fee coefficients are kept.
func (g *Graph) Reset() {
	g.ResetRevenues()
	g.ResetHtlcs()
}

// SetSuccessFees sets the success-case fee coefficients on every enabled
// channel direction.
func (g *Graph) SetSuccessFees(baseFee, feeRate float64) {
	g.ForEachChannelDirection(func(_, _ NodeID, _ ChanID, state *ChannelDirection) {
		state.SuccessBaseFee = baseFee
		state.SuccessFeeRate = feeRate
	})
}

// SetUpfrontFeeCoeffs derives the unconditional-fee coefficients on every
// enabled channel direction as multiples of its success-case coefficients.
func (g *Graph) SetUpfrontFeeCoeffs(baseCoeff, rateCoeff float64) {
	g.ForEachChannelDirection(func(_, _ NodeID, _ ChanID, state *ChannelDirection) {
		state.UpfrontBaseFee = baseCoeff * state.SuccessBaseFee
		state.UpfrontFeeRate = rateCoeff * state.SuccessFeeRate
	})
}

// SetNumSlots resizes the slot budget of the only channel between two
// nodes, in both directions, dropping any in-flight HTLCs.
func (g *Graph) SetNumSlots(a, b NodeID, numSlots int) error {
	hop := g.Hop(a, b)
	if hop == nil {
		return errors.Errorf("No hop between %v and %v", a, b)
	}
	if hop.NumChannels() != 1 {
		return errors.Errorf("Expected a single channel between %v and %v, got %v",
			a, b, hop.NumChannels())
	}
	ch := hop.Channel(hop.ChanIDs()[0])
	for _, direction := range []Direction{Alph, NonAlph} {
		if state := ch.Direction(direction); state != nil {
			state.numSlots = numSlots
			state.Reset()
		}
	}
	return nil
}
