package jdb

import (
	"testing"
)

// Topology
//
// (Alice) --- (Hub) --- (Bob)
//
func threeNodeGraph(t *testing.T) *Graph {
	t.Helper()

	graph := NewGraph(483)

	channels := []struct {
		from, to NodeID
		cid      ChanID
	}{
		{"Alice", "Hub", "700x1x0"},
		{"Hub", "Alice", "700x1x0"},
		{"Bob", "Hub", "700x2x0"},
		{"Hub", "Bob", "700x2x0"},
	}

	for _, ch := range channels {
		err := graph.AddChannelDirection(ch.from, ch.to, ch.cid, 100000,
			NewChannelDirection(483, 1, 0))
		if err != nil {
			t.Fatalf("Could not add channel direction: %v", err)
		}
	}

	return graph
}

func TestAddChannelDirection(t *testing.T) {
	graph := threeNodeGraph(t)

	if len(graph.Nodes()) != 3 {
		t.Fatalf("Expected 3 nodes; got %v", len(graph.Nodes()))
	}

	hop := graph.Hop("Hub", "Alice")
	if hop == nil {
		t.Fatalf("Expected a hop between Alice and Hub")
	}

	// Both directions share one channel entry.
	if hop.NumChannels() != 1 {
		t.Errorf("Expected one channel in the hop; got %v", hop.NumChannels())
	}

	if graph.ChannelDirection("Alice", "Hub", "700x1x0") == nil {
		t.Errorf("Expected an enabled direction Alice -> Hub")
	}
	if graph.ChannelDirection("Hub", "Alice", "700x1x0") == nil {
		t.Errorf("Expected an enabled direction Hub -> Alice")
	}
}

func TestAddChannelDirectionErrors(t *testing.T) {
	graph := threeNodeGraph(t)

	err := graph.AddChannelDirection("Alice", "Hub", "700x1x0", 100000,
		NewChannelDirection(483, 1, 0))
	if err == nil {
		t.Errorf("Expected an error for a duplicate direction")
	}

	err = graph.AddChannelDirection("Bob", "Hub", "700x2x0", 50000,
		NewChannelDirection(483, 1, 0))
	if err == nil {
		t.Errorf("Expected an error for conflicting capacities")
	}

	err = graph.AddChannelDirection("Alice", "Alice", "700x9x0", 100000,
		NewChannelDirection(483, 1, 0))
	if err == nil {
		t.Errorf("Expected an error for a self-loop channel")
	}
}

func TestRoutingEdges(t *testing.T) {
	graph := threeNodeGraph(t)

	out := graph.OutEdges("Hub")
	if len(out) != 2 {
		t.Fatalf("Expected 2 edges out of Hub; got %v", len(out))
	}

	// Sorted by target node.
	if out[0].To != "Alice" || out[1].To != "Bob" {
		t.Errorf("Expected edges sorted towards Alice, Bob; got %v, %v", out[0].To, out[1].To)
	}

	in := graph.InEdges("Hub")
	if len(in) != 2 {
		t.Errorf("Expected 2 edges into Hub; got %v", len(in))
	}
}

func TestRevenueLedger(t *testing.T) {
	graph := threeNodeGraph(t)

	graph.AddUpfrontRevenue("Alice", -3)
	graph.AddUpfrontRevenue("Hub", 3)
	graph.AddSuccessRevenue("Hub", -1)
	graph.AddSuccessRevenue("Bob", 1)

	if graph.Revenue("Alice") != -3 {
		t.Errorf("Expected Alice's revenue of -3; got %v", graph.Revenue("Alice"))
	}
	if graph.Revenue("Hub") != 2 {
		t.Errorf("Expected Hub's revenue of 2; got %v", graph.Revenue("Hub"))
	}

	sum := 0.0
	for _, revenue := range graph.Revenues() {
		sum += revenue
	}
	if sum != 0 {
		t.Errorf("Expected revenues to sum to zero; got %v", sum)
	}

	graph.ResetRevenues()
	if graph.Revenue("Hub") != 0 {
		t.Errorf("Expected zero revenue after reset; got %v", graph.Revenue("Hub"))
	}
}

func TestSetUpfrontFeeCoeffs(t *testing.T) {
	graph := threeNodeGraph(t)
	graph.SetSuccessFees(2, 0.001)

	graph.SetUpfrontFeeCoeffs(3, 0.5)

	state := graph.ChannelDirection("Alice", "Hub", "700x1x0")
	if state.UpfrontBaseFee != 6 {
		t.Errorf("Expected upfront base fee of 6; got %v", state.UpfrontBaseFee)
	}
	if state.UpfrontFeeRate != 0.5*0.001 {
		t.Errorf("Expected upfront fee rate of 0.0005; got %v", state.UpfrontFeeRate)
	}
}

func TestGraphReset(t *testing.T) {
	graph := threeNodeGraph(t)

	state := graph.ChannelDirection("Alice", "Hub", "700x1x0")
	state.TryInsert(Htlc{ResolutionTime: 5})
	graph.AddSuccessRevenue("Alice", 10)

	graph.Reset()

	if state.NumSlotsOccupied() != 0 {
		t.Errorf("Expected empty queues after reset")
	}
	if graph.Revenue("Alice") != 0 {
		t.Errorf("Expected zero ledger after reset")
	}
}

func TestSetNumSlots(t *testing.T) {
	graph := threeNodeGraph(t)

	if err := graph.SetNumSlots("Alice", "Hub", 5); err != nil {
		t.Fatalf("Could not set num slots: %v", err)
	}

	state := graph.ChannelDirection("Alice", "Hub", "700x1x0")
	if state.NumSlots() != 5 {
		t.Errorf("Expected 5 slots; got %v", state.NumSlots())
	}

	if err := graph.SetNumSlots("Alice", "Bob", 5); err == nil {
		t.Errorf("Expected an error for nodes without a hop")
	}
}

func TestAddJammerChannels(t *testing.T) {
	graph := threeNodeGraph(t)

	err := graph.AddJammerChannels("JammerSender", []NodeID{"Alice", "Hub"},
		"JammerReceiver", []NodeID{"Hub", "Bob", "Bob"}, 100, 1000000)
	if err != nil {
		t.Fatalf("Could not add jammer channels: %v", err)
	}

	if len(graph.OutEdges("JammerSender")) != 2 {
		t.Errorf("Expected 2 edges out of the jammer's sender; got %v",
			len(graph.OutEdges("JammerSender")))
	}

	// Duplicate receive-from nodes collapse into one channel.
	if len(graph.InEdges("JammerReceiver")) != 2 {
		t.Errorf("Expected 2 edges into the jammer's receiver; got %v",
			len(graph.InEdges("JammerReceiver")))
	}

	edge := graph.OutEdges("JammerSender")[0]
	state := graph.ChannelDirection(edge.From, edge.To, edge.ChanID)
	if state.NumSlots() != 100 {
		t.Errorf("Expected 100 slots on the jammer's channel; got %v", state.NumSlots())
	}
}
