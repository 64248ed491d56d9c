// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package database exposes the metadata database façade: the
// masterlist/userlist store pair and the accessors built on top of it.
package database

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modsort/modsort/pkg/condition"
	"github.com/modsort/modsort/pkg/metadata"
	"github.com/modsort/modsort/pkg/sorting"
)

// Database holds one masterlist and one userlist, plus the condition
// evaluator used to filter metadata. It is not safe for concurrent
// mutation; callers serialise writes.
type Database struct {
	masterlist *metadata.List
	userlist   *metadata.List
	evaluator  *condition.CachedEvaluator

	// Paths of the documents last loaded, for ReloadMetadata and Watch.
	masterlistPath        string
	masterlistPreludePath string
	userlistPath          string

	logger zerolog.Logger
}

// New returns an empty database evaluating conditions with the given
// backend.
func New(evaluator condition.Evaluator) *Database {
	return &Database{
		masterlist: metadata.NewList(),
		userlist:   metadata.NewList(),
		evaluator:  condition.NewCachedEvaluator(evaluator),
		logger:     log.With().Str("component", "database").Logger(),
	}
}

// Masterlist returns the masterlist store.
func (d *Database) Masterlist() *metadata.List {
	return d.masterlist
}

// Userlist returns the userlist store.
func (d *Database) Userlist() *metadata.List {
	return d.userlist
}

// Evaluator returns the database's caching condition evaluator.
func (d *Database) Evaluator() *condition.CachedEvaluator {
	return d.evaluator
}

// LoadMasterlist replaces the masterlist with the given document.
func (d *Database) LoadMasterlist(path string) error {
	if err := d.masterlist.Load(path); err != nil {
		return err
	}
	d.masterlistPath = path
	d.masterlistPreludePath = ""
	return nil
}

// LoadMasterlistWithPrelude replaces the masterlist with the given
// document after substituting its prelude.
func (d *Database) LoadMasterlistWithPrelude(path, preludePath string) error {
	if err := d.masterlist.LoadWithPrelude(path, preludePath); err != nil {
		return err
	}
	d.masterlistPath = path
	d.masterlistPreludePath = preludePath
	return nil
}

// LoadUserlist replaces the userlist with the given document.
func (d *Database) LoadUserlist(path string) error {
	if err := d.userlist.Load(path); err != nil {
		return err
	}
	d.userlistPath = path
	return nil
}

// ReloadMetadata re-reads whichever metadata documents were previously
// loaded and clears the condition cache, so stale results do not
// outlive the documents they were computed against.
func (d *Database) ReloadMetadata() error {
	if d.masterlistPath != "" {
		var err error
		if d.masterlistPreludePath != "" {
			err = d.masterlist.LoadWithPrelude(d.masterlistPath, d.masterlistPreludePath)
		} else {
			err = d.masterlist.Load(d.masterlistPath)
		}
		if err != nil {
			return err
		}
	}

	if d.userlistPath != "" {
		if err := d.userlist.Load(d.userlistPath); err != nil {
			return err
		}
	}

	d.evaluator.ClearCache()
	return nil
}

// WriteUserMetadata serialises the userlist to the given path.
func (d *Database) WriteUserMetadata(path string, overwrite bool) error {
	return d.userlist.Save(path, overwrite)
}

// WriteMinimalList writes a masterlist reduced to Bash Tag suggestions
// and dirty info, the subset a downstream merging tool consumes.
func (d *Database) WriteMinimalList(path string, overwrite bool) error {
	minimal := metadata.NewList()
	for _, p := range d.masterlist.Plugins() {
		entry := metadata.PluginMetadata{
			Name:      p.Name,
			Tags:      p.Tags,
			DirtyInfo: p.DirtyInfo,
		}
		if entry.HasNameOnly() {
			continue
		}
		if err := minimal.AddPlugin(entry); err != nil {
			return err
		}
	}
	return minimal.Save(path, overwrite)
}

// KnownBashTags returns the Bash Tag names both documents declare,
// masterlist first.
func (d *Database) KnownBashTags() []string {
	return append(d.masterlist.BashTags(), d.userlist.BashTags()...)
}

// GeneralMessages returns the documents' general messages, optionally
// filtered through the condition evaluator.
func (d *Database) GeneralMessages(evaluateConditions bool) ([]metadata.Message, error) {
	messages := append(d.masterlist.Messages(), d.userlist.Messages()...)
	if !evaluateConditions {
		return messages, nil
	}

	d.evaluator.ClearCache()

	var kept []metadata.Message
	for _, m := range messages {
		ok, err := d.evaluator.Evaluate(m.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// Groups returns the masterlist groups, with userlist groups merged in
// when includeUser is set.
func (d *Database) Groups(includeUser bool) []metadata.Group {
	if includeUser {
		return metadata.MergeGroups(d.masterlist.Groups(), d.userlist.Groups())
	}
	return d.masterlist.Groups()
}

// UserGroups returns the userlist's groups.
func (d *Database) UserGroups() []metadata.Group {
	return d.userlist.Groups()
}

// SetUserGroups replaces the userlist's groups.
func (d *Database) SetUserGroups(groups []metadata.Group) {
	d.userlist.SetGroups(groups)
}

// GroupsPath returns the shortest path between two groups in the group
// graph, each vertex annotated with whether the edge to its successor is
// user-defined.
func (d *Database) GroupsPath(from, to string) ([]sorting.Vertex, error) {
	graph, err := sorting.BuildGroupGraph(d.Groups(false), d.UserGroups())
	if err != nil {
		return nil, err
	}
	return graph.Path(from, to)
}

// PluginMetadata returns the effective metadata for the named plugin:
// the masterlist entry, with the userlist entry merged over it when
// includeUser is set. The second return is false when neither document
// has a matching entry.
func (d *Database) PluginMetadata(name string, includeUser, evaluateConditions bool) (metadata.PluginMetadata, bool, error) {
	meta, found := d.masterlist.FindPlugin(name)

	if includeUser {
		if userMeta, ok := d.userlist.FindPlugin(name); ok {
			if found {
				meta = metadata.Merge(meta, userMeta)
			} else {
				meta = userMeta
			}
			found = true
		}
	}

	if !found {
		return metadata.PluginMetadata{}, false, nil
	}

	if evaluateConditions {
		filtered, err := d.evaluator.EvaluateAll(meta)
		if err != nil {
			return metadata.PluginMetadata{}, false, err
		}
		meta = filtered
	}

	return meta, true, nil
}

// PluginUserMetadata returns the userlist's effective metadata for the
// named plugin.
func (d *Database) PluginUserMetadata(name string, evaluateConditions bool) (metadata.PluginMetadata, bool, error) {
	meta, found := d.userlist.FindPlugin(name)
	if !found {
		return metadata.PluginMetadata{}, false, nil
	}

	if evaluateConditions {
		filtered, err := d.evaluator.EvaluateAll(meta)
		if err != nil {
			return metadata.PluginMetadata{}, false, err
		}
		meta = filtered
	}

	return meta, true, nil
}

// SetPluginUserMetadata replaces the userlist's entry for the plugin.
func (d *Database) SetPluginUserMetadata(meta metadata.PluginMetadata) error {
	d.userlist.ErasePlugin(meta.Name)
	return d.userlist.AddPlugin(meta)
}

// DiscardPluginUserMetadata removes the userlist's entry for the named
// plugin.
func (d *Database) DiscardPluginUserMetadata(name string) {
	d.userlist.ErasePlugin(name)
}

// DiscardAllUserMetadata empties the userlist, groups included.
func (d *Database) DiscardAllUserMetadata() {
	d.userlist.Clear()
}
