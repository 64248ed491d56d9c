// Copyright 2025 Modsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package database

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/modsort/modsort/pkg/metadata"
)

// defaultWatchDebounce coalesces editor write bursts into one reload.
const defaultWatchDebounce = 250 * time.Millisecond

// Watch blocks until ctx is done, reloading the database whenever one
// of its previously loaded metadata documents changes on disk. Every
// reload goes through ReloadMetadata, so the condition cache is
// invalidated along with the documents. After each reload attempt,
// onReload (if non-nil) receives the reload's outcome.
//
// A non-positive debounce falls back to a default suited to editor
// save bursts. Watching a database with no loaded documents is an
// InvalidArgument error.
func (d *Database) Watch(ctx context.Context, debounce time.Duration, onReload func(error)) error {
	paths := d.documentPaths()
	if len(paths) == 0 {
		return metadata.NewInvalidArgumentError("no metadata documents loaded to watch")
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			d.logger.Warn().Err(err).Msg("Error closing metadata watcher")
		}
	}()

	// fsnotify watches directories; remember which files inside them
	// matter.
	documents := make(map[string]bool, len(paths))
	directories := make(map[string]bool)
	for _, p := range paths {
		documents[filepath.Clean(p)] = true
		directories[filepath.Dir(p)] = true
	}
	for dir := range directories {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	// The timer is armed by events and drained before every reset, so
	// at most one reload fires per burst of writes.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	d.logger.Info().
		Strs("documents", paths).
		Dur("debounce", debounce).
		Msg("Watching metadata documents")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !documents[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			d.logger.Debug().
				Str("op", event.Op.String()).
				Str("document", event.Name).
				Msg("Metadata document changed")

			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			armed = true

		case <-timer.C:
			armed = false
			err := d.ReloadMetadata()
			if err != nil {
				d.logger.Error().Err(err).Msg("Failed to reload metadata documents")
			} else {
				d.logger.Debug().Msg("Reloaded metadata documents")
			}
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn().Err(err).Msg("Metadata watcher error")
		}
	}
}

// documentPaths lists the document paths the database was loaded from,
// prelude included.
func (d *Database) documentPaths() []string {
	var paths []string
	if d.masterlistPath != "" {
		paths = append(paths, d.masterlistPath)
		if d.masterlistPreludePath != "" {
			paths = append(paths, d.masterlistPreludePath)
		}
	}
	if d.userlistPath != "" {
		paths = append(paths, d.userlistPath)
	}
	return paths
}
