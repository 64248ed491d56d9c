// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package sorting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsort/modsort/pkg/metadata"
	"github.com/modsort/modsort/pkg/plugin"
)

func esp(name string) plugin.Plugin {
	return plugin.NewRecord(plugin.RecordParams{Name: name})
}

func esm(name string) plugin.Plugin {
	return plugin.NewRecord(plugin.RecordParams{Name: name, IsMaster: true})
}

func userlistWith(t *testing.T, metas ...metadata.PluginMetadata) *metadata.List {
	t.Helper()
	l := metadata.NewList()
	for _, m := range metas {
		require.NoError(t, l.AddPlugin(m))
	}
	return l
}

func TestSortEmptyInput(t *testing.T) {
	sorted, err := Sort(Params{})
	require.NoError(t, err)
	assert.Empty(t, sorted)
}

func TestSortMastersFirstPreservingInputOrder(t *testing.T) {
	// Scenario: masters float ahead of non-masters, original relative
	// order otherwise preserved.
	sorted, err := Sort(Params{
		Plugins: []plugin.Plugin{esm("A.esp"), esp("B.esp"), esm("C.esp")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esp", "C.esp", "B.esp"}, sorted)
}

func TestSortNoMetadataPreservesInput(t *testing.T) {
	sorted, err := Sort(Params{
		Plugins: []plugin.Plugin{esp("C.esp"), esp("A.esp"), esp("B.esp")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C.esp", "A.esp", "B.esp"}, sorted)
}

func TestSortUserLoadAfter(t *testing.T) {
	userlist := userlistWith(t, metadata.PluginMetadata{
		Name:      "A.esp",
		LoadAfter: []metadata.File{{Name: "B.esp"}},
	})

	sorted, err := Sort(Params{
		Plugins:  []plugin.Plugin{esp("B.esp"), esp("A.esp")},
		Userlist: userlist,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esp", "A.esp"}, sorted)

	// The constraint holds regardless of input order.
	sorted, err = Sort(Params{
		Plugins:  []plugin.Plugin{esp("A.esp"), esp("B.esp")},
		Userlist: userlist,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esp", "A.esp"}, sorted)
}

func TestSortUserRequirementCycle(t *testing.T) {
	userlist := userlistWith(t,
		metadata.PluginMetadata{Name: "A.esp", Requirements: []metadata.File{{Name: "B.esp"}}},
		metadata.PluginMetadata{Name: "B.esp", Requirements: []metadata.File{{Name: "A.esp"}}},
	)

	_, err := Sort(Params{
		Plugins:  []plugin.Plugin{esp("A.esp"), esp("B.esp")},
		Userlist: userlist,
	})

	var cycleErr *CyclicInteractionError
	require.ErrorAs(t, err, &cycleErr)
	require.Len(t, cycleErr.Cycle, 2)

	names := []string{cycleErr.Cycle[0].Name, cycleErr.Cycle[1].Name}
	assert.ElementsMatch(t, []string{"A.esp", "B.esp"}, names)
	assert.Equal(t, EdgeUserRequirement, cycleErr.Cycle[0].EdgeType)
	assert.Equal(t, EdgeUserRequirement, cycleErr.Cycle[1].EdgeType)
}

func TestSortGroupEdges(t *testing.T) {
	// Scenario: groups default and late (after default); B sits in late
	// and sinks below A and C, which keep their input order.
	masterlist := metadata.NewList()
	masterlist.SetGroups([]metadata.Group{
		{Name: metadata.DefaultGroupName},
		{Name: "late", After: []string{metadata.DefaultGroupName}},
	})
	require.NoError(t, masterlist.AddPlugin(metadata.PluginMetadata{Name: "B.esp", Group: "late"}))

	sorted, err := Sort(Params{
		Plugins:    []plugin.Plugin{esp("B.esp"), esp("A.esp"), esp("C.esp")},
		Masterlist: masterlist,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esp", "C.esp", "B.esp"}, sorted)
}

func TestSortOverlap(t *testing.T) {
	// Scenario: P overrides two records, Q one; the shared record makes
	// them overlap and the bigger footprint loads later.
	p := plugin.NewRecord(plugin.RecordParams{Name: "P.esp", Overrides: []uint32{1, 2}})
	q := plugin.NewRecord(plugin.RecordParams{Name: "Q.esp", Overrides: []uint32{1}})

	sorted, err := Sort(Params{Plugins: []plugin.Plugin{p, q}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q.esp", "P.esp"}, sorted)
}

func TestSortOverlapAssetCountTieBreak(t *testing.T) {
	p := plugin.NewRecord(plugin.RecordParams{Name: "P.esp", Overrides: []uint32{1}, Assets: []uint64{7, 8}})
	q := plugin.NewRecord(plugin.RecordParams{Name: "Q.esp", Overrides: []uint32{1}, Assets: []uint64{9}})

	// Equal override counts; P ships more assets, so P loads later.
	sorted, err := Sort(Params{Plugins: []plugin.Plugin{p, q}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q.esp", "P.esp"}, sorted)
}

func TestSortOverlapCRCTieBreak(t *testing.T) {
	p := plugin.NewRecord(plugin.RecordParams{Name: "P.esp", Overrides: []uint32{1}, CRC: 0xFF, HasCRC: true})
	q := plugin.NewRecord(plugin.RecordParams{Name: "Q.esp", Overrides: []uint32{1}, CRC: 0x01, HasCRC: true})

	// Equal override and asset counts; the higher CRC loads later.
	sorted, err := Sort(Params{Plugins: []plugin.Plugin{p, q}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q.esp", "P.esp"}, sorted)
}

func TestSortOverlapPositionTieBreak(t *testing.T) {
	p := plugin.NewRecord(plugin.RecordParams{Name: "P.esp", Overrides: []uint32{1}})
	q := plugin.NewRecord(plugin.RecordParams{Name: "Q.esp", Overrides: []uint32{1}})

	// Indistinguishable overlap: the later input position loads later.
	sorted, err := Sort(Params{Plugins: []plugin.Plugin{p, q}})
	require.NoError(t, err)
	assert.Equal(t, []string{"P.esp", "Q.esp"}, sorted)
}

func TestSortDeclaredMasters(t *testing.T) {
	dependent := plugin.NewRecord(plugin.RecordParams{Name: "Child.esp", Masters: []string{"Parent.esm"}})

	sorted, err := Sort(Params{
		Plugins: []plugin.Plugin{dependent, esm("Parent.esm")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Parent.esm", "Child.esp"}, sorted)
}

func TestSortHardcodedFirst(t *testing.T) {
	sorted, err := Sort(Params{
		Plugins:   []plugin.Plugin{esp("Mod.esp"), esm("Skyrim.esm"), esm("Update.esm")},
		Hardcoded: []string{"Skyrim.esm", "Update.esm", "NotInstalled.esm"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Skyrim.esm", "Update.esm", "Mod.esp"}, sorted)
}

func TestSortBlueprintMastersLast(t *testing.T) {
	blueprint := plugin.NewRecord(plugin.RecordParams{Name: "BP.esm", IsMaster: true, IsBlueprint: true})

	sorted, err := Sort(Params{
		Plugins: []plugin.Plugin{blueprint, esp("A.esp"), esm("B.esm")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esm", "A.esp", "BP.esm"}, sorted)
}

func TestSortGroupEdgeSkippedWhenItWouldCloseCycle(t *testing.T) {
	// B declares A as master, but A's group loads after B's. The group
	// hint loses to the harder constraint and is skipped, not fatal.
	masterlist := metadata.NewList()
	masterlist.SetGroups([]metadata.Group{
		{Name: "late", After: []string{metadata.DefaultGroupName}},
	})
	require.NoError(t, masterlist.AddPlugin(metadata.PluginMetadata{Name: "A.esm", Group: "late"}))

	child := plugin.NewRecord(plugin.RecordParams{Name: "B.esp", Masters: []string{"A.esm"}})

	sorted, err := Sort(Params{
		Plugins:    []plugin.Plugin{esm("A.esm"), child},
		Masterlist: masterlist,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.esm", "B.esp"}, sorted)
}

func TestSortUndefinedPluginGroup(t *testing.T) {
	masterlist := metadata.NewList()
	require.NoError(t, masterlist.AddPlugin(metadata.PluginMetadata{Name: "A.esp", Group: "missing"}))

	_, err := Sort(Params{
		Plugins:    []plugin.Plugin{esp("A.esp"), esp("B.esp")},
		Masterlist: masterlist,
	})
	assert.ErrorIs(t, err, ErrUndefinedGroup)
}

func TestSortGroupCycleWithUserEdge(t *testing.T) {
	masterlist := metadata.NewList()
	masterlist.SetGroups([]metadata.Group{
		{Name: "a"},
		{Name: "b", After: []string{"a"}},
		{Name: "c", After: []string{"b"}},
	})
	userlist := metadata.NewList()
	userlist.SetGroups([]metadata.Group{
		{Name: "a", After: []string{"c"}},
	})

	_, err := Sort(Params{
		Plugins:    []plugin.Plugin{esp("A.esp")},
		Masterlist: masterlist,
		Userlist:   userlist,
	})
	assert.ErrorIs(t, err, ErrCyclicInteraction)
}

func TestSortIdempotent(t *testing.T) {
	masterlist := metadata.NewList()
	masterlist.SetGroups([]metadata.Group{
		{Name: "late", After: []string{metadata.DefaultGroupName}},
	})
	require.NoError(t, masterlist.AddPlugin(metadata.PluginMetadata{Name: "D.esp", Group: "late"}))

	plugins := []plugin.Plugin{
		esp("D.esp"),
		esm("A.esm"),
		plugin.NewRecord(plugin.RecordParams{Name: "B.esp", Masters: []string{"A.esm"}}),
		esp("C.esp"),
	}

	first, err := Sort(Params{Plugins: plugins, Masterlist: masterlist})
	require.NoError(t, err)

	byName := make(map[string]plugin.Plugin)
	for _, p := range plugins {
		byName[p.Name()] = p
	}
	resorted := make([]plugin.Plugin, len(first))
	for i, name := range first {
		resorted[i] = byName[name]
	}

	second, err := Sort(Params{Plugins: resorted, Masterlist: masterlist})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSortDoesNotMutateInput(t *testing.T) {
	plugins := []plugin.Plugin{esp("B.esp"), esm("A.esm")}

	_, err := Sort(Params{Plugins: plugins})
	require.NoError(t, err)

	assert.Equal(t, "B.esp", plugins[0].Name())
	assert.Equal(t, "A.esm", plugins[1].Name())
}

func TestSortOutputSatisfiesMetadataEdges(t *testing.T) {
	userlist := userlistWith(t,
		metadata.PluginMetadata{Name: "C.esp", LoadAfter: []metadata.File{{Name: "B.esp"}}},
		metadata.PluginMetadata{Name: "B.esp", Requirements: []metadata.File{{Name: "A.esp"}}},
	)

	sorted, err := Sort(Params{
		Plugins:  []plugin.Plugin{esp("C.esp"), esp("B.esp"), esp("A.esp")},
		Userlist: userlist,
	})
	require.NoError(t, err)

	index := make(map[string]int)
	for i, name := range sorted {
		index[name] = i
	}
	assert.Less(t, index["B.esp"], index["C.esp"])
	assert.Less(t, index["A.esp"], index["B.esp"])
}

func TestSortCaseInsensitivePluginIdentity(t *testing.T) {
	userlist := userlistWith(t, metadata.PluginMetadata{
		Name:      "a.ESP",
		LoadAfter: []metadata.File{{Name: "B.ESP"}},
	})

	sorted, err := Sort(Params{
		Plugins:  []plugin.Plugin{esp("A.esp"), esp("B.esp")},
		Userlist: userlist,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esp", "A.esp"}, sorted)
}

func TestSortCycleDiagnosticsNameEdgeKinds(t *testing.T) {
	userlist := userlistWith(t,
		metadata.PluginMetadata{Name: "A.esp", Requirements: []metadata.File{{Name: "B.esp"}}},
		metadata.PluginMetadata{Name: "B.esp", LoadAfter: []metadata.File{{Name: "A.esp"}}},
	)

	_, err := Sort(Params{
		Plugins:  []plugin.Plugin{esp("A.esp"), esp("B.esp")},
		Userlist: userlist,
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "User Requirement") || strings.Contains(err.Error(), "User Load After"))
}
