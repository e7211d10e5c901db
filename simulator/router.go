package simulator

import (
	"sort"

	"github.com/the-lightning-land/jammed/jdb"
)

const (
	// capacityFilteringSafetyMargin widens the capacity filter during path
	// search to account for fees that aren't known until the payment is
	// constructed.
	capacityFilteringSafetyMargin = 0.05

	// defaultMaxRouteLength caps route length at the protocol's onion
	// packet limit.
	defaultMaxRouteLength = 20
)

// RouteIter yields routes one at a time. The second return value is false
// once the iterator is exhausted.
type RouteIter interface {
	Next() ([]jdb.NodeID, bool)
}

// Router searches the directed routing graph, filtered down to edges that
// can carry a given amount.
type Router struct {
	neighbors      map[jdb.NodeID][]jdb.NodeID
	hasEdge        map[jdb.NodePair]bool
	maxRouteLength int
}

// NewRouter prepares a routing view for the given amount. Only edges with
// capacity covering the amount plus a safety margin are considered.
func NewRouter(graph *jdb.Graph, amount float64, maxRouteLength int) *Router {
	if maxRouteLength <= 0 {
		maxRouteLength = defaultMaxRouteLength
	}

	required := amount * (1 + capacityFilteringSafetyMargin)

	router := &Router{
		neighbors:      make(map[jdb.NodeID][]jdb.NodeID),
		hasEdge:        make(map[jdb.NodePair]bool),
		maxRouteLength: maxRouteLength,
	}

	for _, from := range graph.Nodes() {
		seen := make(map[jdb.NodeID]bool)
		for _, edge := range graph.OutEdges(from) {
			if float64(edge.Capacity) < required {
				continue
			}
			router.hasEdge[jdb.NodePair{From: edge.From, To: edge.To}] = true
			if !seen[edge.To] {
				seen[edge.To] = true
				router.neighbors[from] = append(router.neighbors[from], edge.To)
			}
		}
		sort.Slice(router.neighbors[from], func(i, j int) bool {
			return router.neighbors[from][i] < router.neighbors[from][j]
		})
	}

	return router
}

// HasEdge reports whether a usable channel direction connects from to to.
func (r *Router) HasEdge(from, to jdb.NodeID) bool {
	return r.hasEdge[jdb.NodePair{From: from, To: to}]
}

// bfs returns hop distances from the source over the filtered graph.
func (r *Router) bfs(source jdb.NodeID) map[jdb.NodeID]int {
	dist := map[jdb.NodeID]int{source: 0}
	frontier := []jdb.NodeID{source}
	for len(frontier) > 0 {
		node := frontier[0]
		frontier = frontier[1:]
		for _, next := range r.neighbors[node] {
			if _, ok := dist[next]; !ok {
				dist[next] = dist[node] + 1
				frontier = append(frontier, next)
			}
		}
	}
	return dist
}

// ShortestPath returns one shortest path from source to target by hop
// count. Ties resolve towards lesser node identifiers. The second return
// value is false if no path exists.
func (r *Router) ShortestPath(source, target jdb.NodeID) ([]jdb.NodeID, bool) {
	iter := r.ShortestPaths(source, target)
	return iter.Next()
}

// HasPath reports whether target is reachable from source.
func (r *Router) HasPath(source, target jdb.NodeID) bool {
	_, ok := r.ShortestPath(source, target)
	return ok
}

// ShortestPaths enumerates all shortest paths from source to target in a
// deterministic order.
func (r *Router) ShortestPaths(source, target jdb.NodeID) RouteIter {
	dist := r.bfs(source)
	if _, ok := dist[target]; !ok || source == target {
		return emptyIter{}
	}

	// Predecessor lists over the BFS layering: following them from the
	// target back to the source spells out every shortest path.
	pred := make(map[jdb.NodeID][]jdb.NodeID)
	for node, d := range dist {
		for _, next := range r.neighbors[node] {
			if dn, ok := dist[next]; ok && dn == d+1 {
				pred[next] = append(pred[next], node)
			}
		}
	}
	for node := range pred {
		sort.Slice(pred[node], func(i, j int) bool {
			return pred[node][i] < pred[node][j]
		})
	}

	iter := &shortestPathsIter{
		source: source,
		pred:   pred,
	}
	iter.stack = append(iter.stack, pathFrame{node: target})
	return iter
}

// Routes yields honest routes from sender to receiver: all shortest paths,
// or, when via nodes are given, the single route concatenated from exact
// shortest sub-paths through them in order.
func (r *Router) Routes(sender, receiver jdb.NodeID, via []jdb.NodeID) RouteIter {
	if len(via) == 0 {
		return r.ShortestPaths(sender, receiver)
	}

	route := []jdb.NodeID{sender}
	current := sender
	for _, anchor := range append(append([]jdb.NodeID{}, via...), receiver) {
		if anchor == current {
			continue
		}
		sub, ok := r.ShortestPath(current, anchor)
		if !ok {
			return emptyIter{}
		}
		route = append(route, sub[1:]...)
		current = anchor
	}
	if len(route) > r.maxRouteLength {
		return emptyIter{}
	}
	return &singleRouteIter{route: route}
}

type emptyIter struct{}

func (emptyIter) Next() ([]jdb.NodeID, bool) { return nil, false }

type singleRouteIter struct {
	route []jdb.NodeID
	done  bool
}

func (it *singleRouteIter) Next() ([]jdb.NodeID, bool) {
	if it.done || it.route == nil {
		return nil, false
	}
	it.done = true
	return it.route, true
}

type pathFrame struct {
	node jdb.NodeID
	next int
}

// shortestPathsIter walks the predecessor DAG from the target back to the
// source with an explicit stack, yielding one complete path per call.
type shortestPathsIter struct {
	source jdb.NodeID
	pred   map[jdb.NodeID][]jdb.NodeID
	stack  []pathFrame
}

func (it *shortestPathsIter) Next() ([]jdb.NodeID, bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.node == it.source {
			// The stack spells the path target..source; reverse it.
			route := make([]jdb.NodeID, len(it.stack))
			for i, frame := range it.stack {
				route[len(it.stack)-1-i] = frame.node
			}
			it.stack = it.stack[:len(it.stack)-1]
			return route, true
		}

		preds := it.pred[top.node]
		if top.next >= len(preds) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		next := preds[top.next]
		top.next++
		it.stack = append(it.stack, pathFrame{node: next})
	}
	return nil, false
}

// JamRoutes enumerates routes threading as many yet-unjammed target pairs
// as possible: for subset sizes from maxTargetPairsPerRoute down to one,
// over subsets of the targets in combination order, over permutations of
// each subset. The unjammed predicate is re-checked on every pull, so
// targets jammed mid-batch prune the remaining enumeration. Routes may
// revisit nodes and edges.
func (r *Router) JamRoutes(sender, receiver jdb.NodeID, targets []jdb.NodePair,
	unjammed func(jdb.NodePair) bool, maxTargetPairsPerRoute int) RouteIter {

	if maxTargetPairsPerRoute > len(targets) {
		maxTargetPairsPerRoute = len(targets)
	}

	return &jamRoutesIter{
		router:   r,
		sender:   sender,
		receiver: receiver,
		targets:  targets,
		unjammed: unjammed,
		size:     maxTargetPairsPerRoute,
	}
}

type jamRoutesIter struct {
	router   *Router
	sender   jdb.NodeID
	receiver jdb.NodeID
	targets  []jdb.NodePair
	unjammed func(jdb.NodePair) bool

	size int   // current subset size
	comb []int // current combination of target indices, nil before first
	perm []int // current permutation of comb, nil before first
}

func (it *jamRoutesIter) Next() ([]jdb.NodeID, bool) {
	for it.size >= 1 {
		if !it.advance() {
			it.size--
			it.comb = nil
			it.perm = nil
			continue
		}

		pairs := make([]jdb.NodePair, len(it.perm))
		live := true
		for i, idx := range it.perm {
			pairs[i] = it.targets[idx]
			if !it.unjammed(pairs[i]) {
				live = false
				break
			}
		}
		if !live {
			continue
		}

		if route := it.buildRoute(pairs); route != nil {
			return route, true
		}
	}
	return nil, false
}

// advance steps to the next permutation, rolling over to the next
// combination when the permutations of the current one are exhausted.
func (it *jamRoutesIter) advance() bool {
	if it.comb == nil {
		if it.size > len(it.targets) {
			return false
		}
		it.comb = make([]int, it.size)
		for i := range it.comb {
			it.comb[i] = i
		}
		it.perm = append([]int{}, it.comb...)
		return true
	}

	if nextPermutation(it.perm) {
		return true
	}

	if !nextCombination(it.comb, len(it.targets)) {
		return false
	}
	it.perm = append(it.perm[:0], it.comb...)
	return true
}

// buildRoute concatenates shortest sub-paths through the target pairs in
// order. Returns nil if any sub-path or target edge is missing or the
// route grows too long.
func (it *jamRoutesIter) buildRoute(pairs []jdb.NodePair) []jdb.NodeID {
	route, ok := it.router.ShortestPath(it.sender, pairs[0].From)
	if !ok {
		if it.sender != pairs[0].From {
			return nil
		}
		route = []jdb.NodeID{it.sender}
	}

	for i, pair := range pairs {
		if !it.router.HasEdge(pair.From, pair.To) {
			return nil
		}
		if i > 0 {
			prev := pairs[i-1].To
			if prev != pair.From {
				sub, ok := it.router.ShortestPath(prev, pair.From)
				if !ok {
					return nil
				}
				route = append(route, sub[1:]...)
			}
		}
		route = append(route, pair.To)
		if len(route) > it.router.maxRouteLength {
			return nil
		}
	}

	last := pairs[len(pairs)-1].To
	if last != it.receiver {
		sub, ok := it.router.ShortestPath(last, it.receiver)
		if !ok {
			return nil
		}
		route = append(route, sub[1:]...)
	}
	if len(route) > it.router.maxRouteLength {
		return nil
	}
	return route
}

// nextCombination advances indices to the next k-combination of [0, n).
func nextCombination(comb []int, n int) bool {
	k := len(comb)
	for i := k - 1; i >= 0; i-- {
		if comb[i] < n-k+i {
			comb[i]++
			for j := i + 1; j < k; j++ {
				comb[j] = comb[j-1] + 1
			}
			return true
		}
	}
	return false
}

// nextPermutation advances the slice to the next lexicographic permutation.
func nextPermutation(perm []int) bool {
	i := len(perm) - 2
	for i >= 0 && perm[i] >= perm[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(perm) - 1
	for perm[j] <= perm[i] {
		j--
	}
	perm[i], perm[j] = perm[j], perm[i]
	for l, r := i+1, len(perm)-1; l < r; l, r = l+1, r-1 {
		perm[l], perm[r] = perm[r], perm[l]
	}
	return true
}
