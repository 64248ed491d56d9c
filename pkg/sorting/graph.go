// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package sorting

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/modsort/modsort/pkg/metadata"
	"github.com/modsort/modsort/pkg/plugin"
)

// pluginEntry is one plugin graph vertex: the plugin, its
// condition-filtered metadata split by source, and its input position.
type pluginEntry struct {
	plugin         plugin.Plugin
	name           string
	masterlistMeta metadata.PluginMetadata
	userMeta       metadata.PluginMetadata
	group          string
	position       int

	overrides []uint32
	assets    []uint64
}

func (e *pluginEntry) overrideCount() int {
	return len(e.overrides)
}

func (e *pluginEntry) assetCount() int {
	return len(e.assets)
}

// pluginGraph is an adjacency list over integer vertex IDs. Vertex IDs
// equal input positions. At most one edge of one kind exists per ordered
// pair; the first inserted kind wins, which is the highest-priority one
// given the strict tier order.
type pluginGraph struct {
	entries []*pluginEntry
	ids     map[string]int
	succ    [][]int
	kinds   map[[2]int]EdgeType

	// pathCache memoises per-source BFS results between edge
	// insertions.
	pathCache map[int][]bool

	logger zerolog.Logger
}

func newPluginGraph(entries []*pluginEntry, logger zerolog.Logger) *pluginGraph {
	g := &pluginGraph{
		entries:   entries,
		ids:       make(map[string]int, len(entries)),
		succ:      make([][]int, len(entries)),
		kinds:     make(map[[2]int]EdgeType),
		pathCache: make(map[int][]bool),
		logger:    logger.With().Str("component", "sorting.graph").Logger(),
	}
	for i, e := range entries {
		g.ids[strings.ToLower(e.name)] = i
	}
	return g
}

// vertexID resolves a filename to its vertex, case-insensitively.
func (g *pluginGraph) vertexID(name string) (int, bool) {
	id, ok := g.ids[strings.ToLower(name)]
	return id, ok
}

func (g *pluginGraph) hasEdge(from, to int) bool {
	_, ok := g.kinds[[2]int{from, to}]
	return ok
}

// addEdge inserts an edge. Self loops and duplicates are ignored.
func (g *pluginGraph) addEdge(from, to int, kind EdgeType) {
	if from == to || g.hasEdge(from, to) {
		return
	}

	g.succ[from] = append(g.succ[from], to)
	g.kinds[[2]int{from, to}] = kind
	g.pathCache = make(map[int][]bool)

	g.logger.Trace().
		Str("from", g.entries[from].name).
		Str("to", g.entries[to].name).
		Stringer("kind", kind).
		Msg("Added edge")
}

// pathExists reports whether to is reachable from from. BFS results are
// cached per source until the next edge insertion.
func (g *pluginGraph) pathExists(from, to int) bool {
	if visited, ok := g.pathCache[from]; ok {
		return visited[to]
	}

	visited := make([]bool, len(g.entries))
	visited[from] = true
	queue := []int{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, succ := range g.succ[id] {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}

	g.pathCache[from] = visited
	return visited[to]
}

// findPath returns the vertex IDs of a shortest path, or nil if none.
func (g *pluginGraph) findPath(from, to int) []int {
	parent := make([]int, len(g.entries))
	for i := range parent {
		parent[i] = -1
	}

	visited := make([]bool, len(g.entries))
	visited[from] = true
	queue := []int{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, succ := range g.succ[id] {
			if visited[succ] {
				continue
			}
			visited[succ] = true
			parent[succ] = id

			if succ == to {
				var path []int
				for v := to; v != -1; v = parent[v] {
					path = append(path, v)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, succ)
		}
	}

	return nil
}

// checkForCycles returns a CyclicInteractionError describing the first
// cycle found, or nil when the graph is acyclic.
func (g *pluginGraph) checkForCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.entries))
	var stack []int
	var cycle []Vertex

	var dfs func(id int) bool
	dfs = func(id int) bool {
		color[id] = gray
		stack = append(stack, id)

		for _, succ := range g.succ[id] {
			switch color[succ] {
			case white:
				if dfs(succ) {
					return true
				}
			case gray:
				cycle = g.extractCycle(stack, succ)
				return true
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for id := range g.entries {
		if color[id] == white && dfs(id) {
			return NewCyclicInteractionError(cycle)
		}
	}

	return nil
}

// extractCycle slices the recursion stack from the first occurrence of
// start to the top, annotating each vertex with its out-edge kind.
func (g *pluginGraph) extractCycle(stack []int, start int) []Vertex {
	from := 0
	for i, id := range stack {
		if id == start {
			from = i
			break
		}
	}

	cycleIDs := stack[from:]
	cycle := make([]Vertex, len(cycleIDs))
	for i, id := range cycleIDs {
		next := start
		if i+1 < len(cycleIDs) {
			next = cycleIDs[i+1]
		}
		cycle[i] = Vertex{Name: g.entries[id].name, EdgeType: g.kinds[[2]int{id, next}]}
	}
	return cycle
}

// describeWouldBeCycle renders the cycle that adding from -> to would
// close, for skip diagnostics.
func (g *pluginGraph) describeWouldBeCycle(from, to int, kind EdgeType) string {
	path := g.findPath(to, from)
	if path == nil {
		return ""
	}

	cycle := make([]Vertex, len(path))
	for i, id := range path {
		if i < len(path)-1 {
			cycle[i] = Vertex{Name: g.entries[id].name, EdgeType: g.kinds[[2]int{id, path[i+1]}]}
		} else {
			cycle[i] = Vertex{Name: g.entries[id].name, EdgeType: kind}
		}
	}
	return DescribeCycle(cycle)
}

// Tier 1: game-mandated orderings. The installed hardcoded plugins are
// chained in mandate order and precede every other plugin.
func (g *pluginGraph) addHardcodedEdges(hardcoded []string) {
	var installed []int
	isHardcoded := make([]bool, len(g.entries))
	for _, name := range hardcoded {
		if id, ok := g.vertexID(name); ok {
			installed = append(installed, id)
			isHardcoded[id] = true
		}
	}

	for i := 1; i < len(installed); i++ {
		g.addEdge(installed[i-1], installed[i], EdgeHardcoded)
	}

	if len(installed) == 0 {
		return
	}
	last := installed[len(installed)-1]
	for id := range g.entries {
		if !isHardcoded[id] {
			g.addEdge(last, id, EdgeHardcoded)
		}
	}
}

// Tier 2: non-masters load after masters, and blueprint masters load
// after every non-blueprint plugin.
func (g *pluginGraph) addMasterFlagEdges() {
	for i, a := range g.entries {
		for j, b := range g.entries {
			if i == j {
				continue
			}

			if a.plugin.IsBlueprintPlugin() {
				if !b.plugin.IsBlueprintPlugin() {
					g.addEdge(j, i, EdgeMasterFlag)
				}
				continue
			}

			if a.plugin.IsMaster() && !b.plugin.IsMaster() && !b.plugin.IsBlueprintPlugin() {
				g.addEdge(i, j, EdgeMasterFlag)
			}
		}
	}
}

// Tier 3: a plugin's declared masters precede it.
func (g *pluginGraph) addMasterEdges() {
	for id, e := range g.entries {
		for _, master := range e.plugin.Masters() {
			if masterID, ok := g.vertexID(master); ok {
				g.addEdge(masterID, id, EdgeMaster)
			}
		}
	}
}

// Tiers 4 and 5: requirements and load-after files from one metadata
// source.
func (g *pluginGraph) addMetadataEdges(userlist bool) {
	requirementKind, loadAfterKind := EdgeMasterlistRequirement, EdgeMasterlistLoadAfter
	if userlist {
		requirementKind, loadAfterKind = EdgeUserRequirement, EdgeUserLoadAfter
	}

	for id, e := range g.entries {
		meta := e.masterlistMeta
		if userlist {
			meta = e.userMeta
		}

		for _, f := range meta.Requirements {
			if fromID, ok := g.vertexID(f.Name); ok {
				g.addEdge(fromID, id, requirementKind)
			}
		}
		for _, f := range meta.LoadAfter {
			if fromID, ok := g.vertexID(f.Name); ok {
				g.addEdge(fromID, id, loadAfterKind)
			}
		}
	}
}

// Tier 6: for every ordered pair whose groups are connected in the group
// graph, add an edge unless it would close a cycle, in which case the
// edge is skipped with a warning.
func (g *pluginGraph) addGroupEdges(groups *GroupGraph) error {
	reachable := make(map[string]map[string][]Vertex)
	for _, e := range g.entries {
		if _, ok := reachable[e.group]; ok {
			continue
		}
		r, err := groups.Reachable(e.group)
		if err != nil {
			return err
		}
		reachable[e.group] = r
	}

	for i, a := range g.entries {
		for j, b := range g.entries {
			if i == j || a.group == b.group {
				continue
			}
			path, ok := reachable[a.group][b.group]
			if !ok {
				continue
			}
			if g.hasEdge(i, j) {
				continue
			}

			// A group path with any user-defined hop yields a user
			// group edge.
			kind := EdgeMasterlistGroup
			for _, v := range path[:len(path)-1] {
				if v.EdgeType == EdgeUserGroup {
					kind = EdgeUserGroup
					break
				}
			}

			if g.pathExists(j, i) {
				g.logger.Warn().
					Str("from", a.name).
					Str("to", b.name).
					Str("groupPath", describeGroupPath(path)).
					Str("cycle", g.describeWouldBeCycle(i, j, kind)).
					Msg("Skipping group edge that would close a cycle")
				continue
			}

			g.addEdge(i, j, kind)
		}
	}

	return nil
}

func describeGroupPath(path []Vertex) string {
	names := make([]string, len(path))
	for i, v := range path {
		names[i] = v.Name
	}
	return strings.Join(names, " -> ")
}

// Tier 7: plugins editing the same records or shipping the same assets
// are ordered so the one with the larger footprint loads later.
// Orientation falls through override record count, asset count, CRC and
// input position. Edges that would close a cycle are skipped.
func (g *pluginGraph) addOverlapEdges() {
	for i := range g.entries {
		for j := i + 1; j < len(g.entries); j++ {
			a, b := g.entries[i], g.entries[j]

			recordsOverlap := overlapUint32(a.overrides, b.overrides)
			assetsOverlap := overlapUint64(a.assets, b.assets)
			if !recordsOverlap && !assetsOverlap {
				continue
			}

			kind := EdgeRecordOverlap
			if !recordsOverlap {
				kind = EdgeAssetOverlap
			}

			// laterID is the plugin that must load later.
			laterID := -1
			switch {
			case recordsOverlap && a.overrideCount() != b.overrideCount():
				laterID = i
				if b.overrideCount() > a.overrideCount() {
					laterID = j
				}
			case a.assetCount() != b.assetCount():
				kind = EdgeAssetOverlap
				laterID = i
				if b.assetCount() > a.assetCount() {
					laterID = j
				}
			default:
				crcA, okA := a.plugin.CRC()
				crcB, okB := b.plugin.CRC()
				if okA && okB && crcA != crcB {
					laterID = i
					if crcB > crcA {
						laterID = j
					}
				} else {
					// Positions are distinct by construction.
					laterID = j
				}
			}

			earlierID := i
			if laterID == i {
				earlierID = j
			}

			if g.hasEdge(earlierID, laterID) {
				continue
			}
			if g.pathExists(laterID, earlierID) {
				g.logger.Warn().
					Str("from", g.entries[earlierID].name).
					Str("to", g.entries[laterID].name).
					Str("cycle", g.describeWouldBeCycle(earlierID, laterID, kind)).
					Msg("Skipping overlap edge that would close a cycle")
				continue
			}

			g.addEdge(earlierID, laterID, kind)
		}
	}
}

// Tier 8: every pair still incomparable is pinned to the input order.
// Only pairs with no path either way get an edge, so no cycle can form.
func (g *pluginGraph) addTieBreakEdges() {
	for i := range g.entries {
		for j := i + 1; j < len(g.entries); j++ {
			if g.pathExists(i, j) || g.pathExists(j, i) {
				continue
			}
			g.addEdge(i, j, EdgeTieBreak)
		}
	}
}

// overlapUint32 reports whether two ascending slices intersect.
func overlapUint32(a, b []uint32) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

func overlapUint64(a, b []uint64) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// positionHeap is a min-heap of vertex IDs keyed by input position.
// Vertex IDs equal input positions, so the IDs themselves are the keys.
type positionHeap []int

func (h positionHeap) Len() int            { return len(h) }
func (h positionHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h positionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *positionHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *positionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topologicalSort linearises the graph with Kahn's algorithm, always
// picking the ready vertex with the lowest input position. Among
// vertices whose order no edge constrains, the input order is
// preserved, so identical inputs sort identically.
func (g *pluginGraph) topologicalSort() ([]string, error) {
	inDegree := make([]int, len(g.entries))
	for _, succs := range g.succ {
		for _, succ := range succs {
			inDegree[succ]++
		}
	}

	ready := &positionHeap{}
	heap.Init(ready)
	for id, degree := range inDegree {
		if degree == 0 {
			heap.Push(ready, id)
		}
	}

	sorted := make([]string, 0, len(g.entries))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		sorted = append(sorted, g.entries[id].name)

		for _, succ := range g.succ[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				heap.Push(ready, succ)
			}
		}
	}

	if len(sorted) != len(g.entries) {
		return nil, fmt.Errorf("linearisation covered %d of %d plugins, graph is cyclic", len(sorted), len(g.entries))
	}

	return sorted, nil
}
