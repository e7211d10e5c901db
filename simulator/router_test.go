package simulator

import (
	"reflect"
	"testing"

	"github.com/the-lightning-land/jammed/jdb"
)

// addChannel adds a channel enabled in both directions.
func addChannel(t *testing.T, graph *jdb.Graph, a, b jdb.NodeID, cid jdb.ChanID,
	capacity int64, numSlots int, baseFee, feeRate float64) {

	t.Helper()

	err := graph.AddChannelDirection(a, b, cid, capacity,
		jdb.NewChannelDirection(numSlots, baseFee, feeRate))
	if err != nil {
		t.Fatalf("Could not add channel direction %v -> %v: %v", a, b, err)
	}
	err = graph.AddChannelDirection(b, a, cid, capacity,
		jdb.NewChannelDirection(numSlots, baseFee, feeRate))
	if err != nil {
		t.Fatalf("Could not add channel direction %v -> %v: %v", b, a, err)
	}
}

// Topology
//
//          (Bob)
//         /     \
// (Alice)       (Dave)
//         \     /
//         (Carol)
//
func diamondGraph(t *testing.T) *jdb.Graph {
	t.Helper()

	graph := jdb.NewGraph(483)
	addChannel(t, graph, "Alice", "Bob", "500x1x0", 100000, 483, 1, 0)
	addChannel(t, graph, "Bob", "Dave", "500x2x0", 100000, 483, 1, 0)
	addChannel(t, graph, "Alice", "Carol", "500x3x0", 100000, 483, 1, 0)
	addChannel(t, graph, "Carol", "Dave", "500x4x0", 100000, 483, 1, 0)
	return graph
}

func TestShortestPaths(t *testing.T) {
	router := NewRouter(diamondGraph(t), 100, 0)

	routes := router.ShortestPaths("Alice", "Dave")

	first, ok := routes.Next()
	if !ok || !reflect.DeepEqual(first, []jdb.NodeID{"Alice", "Bob", "Dave"}) {
		t.Errorf("Expected route Alice-Bob-Dave first; got %v", first)
	}

	second, ok := routes.Next()
	if !ok || !reflect.DeepEqual(second, []jdb.NodeID{"Alice", "Carol", "Dave"}) {
		t.Errorf("Expected route Alice-Carol-Dave second; got %v", second)
	}

	if _, ok := routes.Next(); ok {
		t.Errorf("Expected only two shortest routes")
	}
}

func TestShortestPathsUnreachable(t *testing.T) {
	graph := diamondGraph(t)
	addChannel(t, graph, "Erin", "Frank", "500x5x0", 100000, 483, 1, 0)

	router := NewRouter(graph, 100, 0)

	if _, ok := router.ShortestPaths("Alice", "Frank").Next(); ok {
		t.Errorf("Expected no route to a disconnected component")
	}

	if router.HasPath("Alice", "Frank") {
		t.Errorf("Expected no path to a disconnected component")
	}
}

func TestRouterCapacityFilter(t *testing.T) {
	graph := diamondGraph(t)

	// No channel covers the amount plus the safety margin, so every edge
	// is filtered out and no route remains.
	router := NewRouter(graph, 100000, 0)

	if _, ok := router.ShortestPaths("Alice", "Dave").Next(); ok {
		t.Errorf("Expected no route above the capacity filter")
	}
}

func TestRoutesVia(t *testing.T) {
	graph := diamondGraph(t)
	// A direct channel which would otherwise be the shortest route.
	addChannel(t, graph, "Alice", "Dave", "500x6x0", 100000, 483, 1, 0)

	router := NewRouter(graph, 100, 0)

	routes := router.Routes("Alice", "Dave", nil)
	direct, ok := routes.Next()
	if !ok || !reflect.DeepEqual(direct, []jdb.NodeID{"Alice", "Dave"}) {
		t.Errorf("Expected the direct route without via nodes; got %v", direct)
	}

	routes = router.Routes("Alice", "Dave", []jdb.NodeID{"Bob"})
	via, ok := routes.Next()
	if !ok || !reflect.DeepEqual(via, []jdb.NodeID{"Alice", "Bob", "Dave"}) {
		t.Errorf("Expected the route via Bob; got %v", via)
	}

	if _, ok := routes.Next(); ok {
		t.Errorf("Expected a single via route")
	}
}

// Topology
//
// (Sender) --- (Alice) --- (Hub) --- (Bob) --- (Receiver)
//
func chainGraph(t *testing.T) *jdb.Graph {
	t.Helper()

	graph := jdb.NewGraph(483)
	addChannel(t, graph, "Sender", "Alice", "600x1x0", 100000, 483, 0, 0)
	addChannel(t, graph, "Alice", "Hub", "600x2x0", 100000, 483, 0, 0)
	addChannel(t, graph, "Hub", "Bob", "600x3x0", 100000, 483, 0, 0)
	addChannel(t, graph, "Bob", "Receiver", "600x4x0", 100000, 483, 0, 0)
	return graph
}

func TestJamRoutesLoopedRoute(t *testing.T) {
	router := NewRouter(chainGraph(t), 354, 0)

	targets := []jdb.NodePair{
		{From: "Alice", To: "Hub"},
		{From: "Hub", To: "Alice"},
		{From: "Bob", To: "Hub"},
		{From: "Hub", To: "Bob"},
	}

	routes := router.JamRoutes("Sender", "Receiver", targets,
		func(jdb.NodePair) bool { return true }, 4)

	route, ok := routes.Next()
	if !ok {
		t.Fatalf("Expected a route threading all four targets")
	}

	// The route may revisit nodes and edges: every target traversal
	// occupies an independent slot.
	expected := []jdb.NodeID{
		"Sender", "Alice", "Hub", "Alice", "Hub", "Bob", "Hub", "Bob", "Receiver",
	}
	if !reflect.DeepEqual(route, expected) {
		t.Errorf("Expected the looped route %v; got %v", expected, route)
	}
}

func TestJamRoutesLiveRecheck(t *testing.T) {
	router := NewRouter(chainGraph(t), 354, 0)

	targets := []jdb.NodePair{
		{From: "Alice", To: "Hub"},
		{From: "Hub", To: "Alice"},
	}

	unjammed := map[jdb.NodePair]bool{
		targets[0]: true,
		targets[1]: true,
	}

	routes := router.JamRoutes("Sender", "Receiver", targets,
		func(pair jdb.NodePair) bool { return unjammed[pair] }, 2)

	if _, ok := routes.Next(); !ok {
		t.Fatalf("Expected a first jam route")
	}

	// Once every target is jammed, the iterator dries up even though
	// its enumeration isn't exhausted.
	delete(unjammed, targets[0])
	delete(unjammed, targets[1])

	if route, ok := routes.Next(); ok {
		t.Errorf("Expected no route with all targets jammed; got %v", route)
	}
}

func TestJamRoutesSubsetSizeFallback(t *testing.T) {
	router := NewRouter(chainGraph(t), 354, 0)

	// The second target is not an edge of the graph, so only singleton
	// routes through the first target exist.
	targets := []jdb.NodePair{
		{From: "Alice", To: "Hub"},
		{From: "Alice", To: "Bob"},
	}

	routes := router.JamRoutes("Sender", "Receiver", targets,
		func(jdb.NodePair) bool { return true }, 2)

	route, ok := routes.Next()
	if !ok {
		t.Fatalf("Expected a singleton route")
	}

	expected := []jdb.NodeID{"Sender", "Alice", "Hub", "Bob", "Receiver"}
	if !reflect.DeepEqual(route, expected) {
		t.Errorf("Expected route %v; got %v", expected, route)
	}
}
