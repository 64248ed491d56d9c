// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package sorting

import (
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/modsort/modsort/pkg/condition"
	"github.com/modsort/modsort/pkg/metadata"
	"github.com/modsort/modsort/pkg/plugin"
)

// Params are the inputs of one sort: the installed plugins in their
// current load order, the two metadata stores, an optional condition
// evaluator and the game's hardcoded load-order prefix.
type Params struct {
	Plugins    []plugin.Plugin
	Masterlist *metadata.List
	Userlist   *metadata.List
	Evaluator  *condition.CachedEvaluator
	Hardcoded  []string
}

// Sort computes the load order for the given plugins. The input order is
// never mutated; it seeds the final tie-break, so sorting an already
// sorted list returns it unchanged. Every sort run gets its own ID,
// stamped on the log events of the driver and the plugin graph so
// concurrent sorts can be told apart; events logged by the group graph
// and the condition evaluator do not carry it.
func Sort(params Params) ([]string, error) {
	runLogger := log.With().Str("sort", uuid.NewString()).Logger()
	logger := runLogger.With().Str("component", "sorting").Logger()

	if len(params.Plugins) == 0 {
		return nil, nil
	}

	masterlist := params.Masterlist
	if masterlist == nil {
		masterlist = metadata.NewList()
	}
	userlist := params.Userlist
	if userlist == nil {
		userlist = metadata.NewList()
	}

	if params.Evaluator != nil {
		params.Evaluator.ClearCache()
	}

	entries, err := buildEntries(params.Plugins, masterlist, userlist, params.Evaluator)
	if err != nil {
		return nil, err
	}

	groupGraph, err := BuildGroupGraph(masterlist.Groups(), userlist.Groups())
	if err != nil {
		return nil, err
	}

	g := newPluginGraph(entries, runLogger)

	g.addHardcodedEdges(params.Hardcoded)
	if err := g.checkForCycles(); err != nil {
		return nil, err
	}

	g.addMasterFlagEdges()
	if err := g.checkForCycles(); err != nil {
		return nil, err
	}

	g.addMasterEdges()
	if err := g.checkForCycles(); err != nil {
		return nil, err
	}

	g.addMetadataEdges(false)

	g.addMetadataEdges(true)
	if err := g.checkForCycles(); err != nil {
		return nil, err
	}

	if err := g.addGroupEdges(groupGraph); err != nil {
		return nil, err
	}
	if err := g.checkForCycles(); err != nil {
		return nil, err
	}

	g.addOverlapEdges()
	if err := g.checkForCycles(); err != nil {
		return nil, err
	}

	g.addTieBreakEdges()

	sorted, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int("plugins", len(sorted)).
		Msg("Sorted load order")

	return sorted, nil
}

// buildEntries snapshots the plugins with their effective per-source
// metadata. Conditions are evaluated here so that every later tier sees
// only applicable metadata.
func buildEntries(plugins []plugin.Plugin, masterlist, userlist *metadata.List, evaluator *condition.CachedEvaluator) ([]*pluginEntry, error) {
	entries := make([]*pluginEntry, len(plugins))

	for i, p := range plugins {
		masterlistMeta, _ := masterlist.FindPlugin(p.Name())
		userMeta, _ := userlist.FindPlugin(p.Name())

		if evaluator != nil {
			var err error
			masterlistMeta, err = evaluator.EvaluateAll(masterlistMeta)
			if err != nil {
				return nil, err
			}
			userMeta, err = evaluator.EvaluateAll(userMeta)
			if err != nil {
				return nil, err
			}
		}

		group := metadata.DefaultGroupName
		if masterlistMeta.Group != "" {
			group = masterlistMeta.Group
		}
		if userMeta.Group != "" {
			group = userMeta.Group
		}

		// The overlap tier intersects these as sorted sets.
		overrides := p.OverrideRecords()
		sort.Slice(overrides, func(a, b int) bool { return overrides[a] < overrides[b] })
		assets := p.Assets()
		sort.Slice(assets, func(a, b int) bool { return assets[a] < assets[b] })

		entries[i] = &pluginEntry{
			plugin:         p,
			name:           p.Name(),
			masterlistMeta: masterlistMeta,
			userMeta:       userMeta,
			group:          group,
			position:       i,
			overrides:      overrides,
			assets:         assets,
		}
	}

	return entries, nil
}
