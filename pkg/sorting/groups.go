// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package sorting

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modsort/modsort/pkg/metadata"
)

// GroupGraph is the directed graph of group ordering constraints. An
// edge a -> g exists when group g lists a among its after-groups, i.e.
// plugins in a load before plugins in g. Every edge records whether it
// originated only in the userlist.
type GroupGraph struct {
	names []string
	ids   map[string]int
	succ  [][]int
	user  map[[2]int]bool

	logger zerolog.Logger
}

// BuildGroupGraph constructs the group graph from masterlist and
// userlist group definitions. The default group exists even when neither
// document defines it. An after-group reference to an unknown group
// fails with an UndefinedGroupError; a cycle that includes at least one
// user-defined edge fails with a CyclicInteractionError. Cycles made of
// masterlist edges alone are tolerated.
func BuildGroupGraph(masterlistGroups, userGroups []metadata.Group) (*GroupGraph, error) {
	g := &GroupGraph{
		ids:    make(map[string]int),
		user:   make(map[[2]int]bool),
		logger: log.With().Str("component", "sorting.groups").Logger(),
	}

	g.addVertex(metadata.DefaultGroupName)
	for _, group := range masterlistGroups {
		g.addVertex(group.Name)
	}
	for _, group := range userGroups {
		g.addVertex(group.Name)
	}

	if err := g.addEdges(masterlistGroups, false); err != nil {
		return nil, err
	}
	if err := g.addEdges(userGroups, true); err != nil {
		return nil, err
	}

	if err := g.checkForUserCycles(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *GroupGraph) addVertex(name string) int {
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := len(g.names)
	g.names = append(g.names, name)
	g.ids[name] = id
	g.succ = append(g.succ, nil)
	return id
}

func (g *GroupGraph) addEdges(groups []metadata.Group, userDefined bool) error {
	for _, group := range groups {
		to := g.ids[group.Name]
		for _, after := range group.After {
			from, ok := g.ids[after]
			if !ok {
				return NewUndefinedGroupError(after)
			}

			if g.hasEdge(from, to) {
				// Duplicates are idempotent; a masterlist edge also
				// absorbs the identical user edge.
				if !userDefined {
					g.user[[2]int{from, to}] = false
				}
				continue
			}

			g.succ[from] = append(g.succ[from], to)
			g.user[[2]int{from, to}] = userDefined

			g.logger.Trace().
				Str("from", after).
				Str("to", group.Name).
				Bool("user", userDefined).
				Msg("Added group edge")
		}
	}
	return nil
}

func (g *GroupGraph) hasEdge(from, to int) bool {
	for _, succ := range g.succ[from] {
		if succ == to {
			return true
		}
	}
	return false
}

// IsUserDefined reports whether the edge between the two groups
// originated only in the userlist. The second return is false when no
// such edge exists.
func (g *GroupGraph) IsUserDefined(from, to string) (bool, bool) {
	f, okF := g.ids[from]
	t, okT := g.ids[to]
	if !okF || !okT || !g.hasEdge(f, t) {
		return false, false
	}
	return g.user[[2]int{f, t}], true
}

// edgeType maps an edge to the group-edge kind used in paths.
func (g *GroupGraph) edgeType(from, to int) EdgeType {
	if g.user[[2]int{from, to}] {
		return EdgeUserGroup
	}
	return EdgeMasterlistGroup
}

// checkForUserCycles hunts for a cycle that includes at least one
// user-defined edge. Masterlist-only cycles are a known data-quality
// hazard and are left alone.
func (g *GroupGraph) checkForUserCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.names))
	var stack []int

	var dfs func(id int) error
	dfs = func(id int) error {
		color[id] = gray
		stack = append(stack, id)

		for _, succ := range g.succ[id] {
			switch color[succ] {
			case white:
				if err := dfs(succ); err != nil {
					return err
				}
			case gray:
				cycle := g.extractCycle(stack, succ)
				for _, v := range cycle {
					if v.EdgeType == EdgeUserGroup {
						return NewCyclicInteractionError(cycle)
					}
				}
				g.logger.Debug().
					Str("cycle", DescribeCycle(cycle)).
					Msg("Ignoring masterlist-only group cycle")
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for id := range g.names {
		if color[id] == white {
			if err := dfs(id); err != nil {
				return err
			}
		}
	}

	// The search above can pass over a user cycle that shares vertices
	// with a masterlist-only one, so every user edge from -> to is also
	// checked directly: it closes a cycle exactly when to reaches from.
	for from := range g.succ {
		for _, to := range g.succ[from] {
			if !g.user[[2]int{from, to}] {
				continue
			}
			if path, _ := g.Path(g.names[to], g.names[from]); path != nil {
				path[len(path)-1].EdgeType = EdgeUserGroup
				return NewCyclicInteractionError(path)
			}
		}
	}

	return nil
}

// extractCycle slices the recursion stack from the first occurrence of
// start to the top, annotating each vertex with its out-edge kind.
func (g *GroupGraph) extractCycle(stack []int, start int) []Vertex {
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
		cycle[i] = Vertex{Name: g.names[id], EdgeType: g.edgeType(id, next)}
	}
	return cycle
}

// Path returns the vertices of a shortest path between the two groups,
// each annotated with the kind of the edge to its successor. The result
// is empty when no path exists. Unknown group names fail with an
// UndefinedGroupError.
func (g *GroupGraph) Path(from, to string) ([]Vertex, error) {
	f, ok := g.ids[from]
	if !ok {
		return nil, NewUndefinedGroupError(from)
	}
	t, ok := g.ids[to]
	if !ok {
		return nil, NewUndefinedGroupError(to)
	}

	if f == t {
		return []Vertex{{Name: g.names[f]}}, nil
	}

	parent := make([]int, len(g.names))
	for i := range parent {
		parent[i] = -1
	}

	queue := []int{f}
	visited := make([]bool, len(g.names))
	visited[f] = true

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, succ := range g.succ[id] {
			if visited[succ] {
				continue
			}
			visited[succ] = true
			parent[succ] = id
			if succ == t {
				return g.tracePath(parent, f, t), nil
			}
			queue = append(queue, succ)
		}
	}

	return nil, nil
}

func (g *GroupGraph) tracePath(parent []int, from, to int) []Vertex {
	var ids []int
	for id := to; id != -1; id = parent[id] {
		ids = append(ids, id)
		if id == from {
			break
		}
	}

	// ids is reversed: to .. from.
	path := make([]Vertex, len(ids))
	for i := range ids {
		id := ids[len(ids)-1-i]
		v := Vertex{Name: g.names[id]}
		if i < len(ids)-1 {
			v.EdgeType = g.edgeType(id, ids[len(ids)-2-i])
		}
		path[i] = v
	}
	return path
}

// Reachable returns, for every group reachable from the named group, a
// representative path. The group itself is included with a single-vertex
// path: reachability is reflexive.
func (g *GroupGraph) Reachable(from string) (map[string][]Vertex, error) {
	f, ok := g.ids[from]
	if !ok {
		return nil, NewUndefinedGroupError(from)
	}

	parent := make([]int, len(g.names))
	for i := range parent {
		parent[i] = -1
	}

	visited := make([]bool, len(g.names))
	visited[f] = true
	queue := []int{f}

	reachable := map[string][]Vertex{
		g.names[f]: {{Name: g.names[f]}},
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, succ := range g.succ[id] {
			if visited[succ] {
				continue
			}
			visited[succ] = true
			parent[succ] = id
			reachable[g.names[succ]] = g.tracePath(parent, f, succ)
			queue = append(queue, succ)
		}
	}

	return reachable, nil
}

// Names returns the graph's group names in insertion order: the default
// group first, then masterlist groups, then user-only groups.
func (g *GroupGraph) Names() []string {
	names := make([]string, len(g.names))
	copy(names, g.names)
	return names
}
