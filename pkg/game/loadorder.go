package game

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modsort/modsort/pkg/metadata"
)

// LoadOrderEntry is one line of the load-order file.
type LoadOrderEntry struct {
	Name   string
	Active bool
}

// LoadOrderFile reads and writes the textual load-order file. Writes
// take an advisory lock and go through a temporary file, so a failed
// sort never leaves a partial order behind.
type LoadOrderFile struct {
	path   string
	logger zerolog.Logger
}

// NewLoadOrderFile returns an oracle for the load-order file at path.
func NewLoadOrderFile(path string) *LoadOrderFile {
	return &LoadOrderFile{
		path:   path,
		logger: log.With().Str("component", "game.loadorder").Logger(),
	}
}

// Path returns the backing file path.
func (l *LoadOrderFile) Path() string {
	return l.path
}

// Read returns the recorded load order. A missing file is an empty
// order, not an error. A leading asterisk marks an active plugin;
// comment and blank lines are skipped.
func (l *LoadOrderFile) Read() ([]LoadOrderEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, metadata.NewFileAccessError(l.path, err.Error())
	}
	defer f.Close()

	var entries []LoadOrderEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		active := strings.HasPrefix(line, "*")
		entries = append(entries, LoadOrderEntry{
			Name:   strings.TrimPrefix(line, "*"),
			Active: active,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, metadata.NewFileAccessError(l.path, err.Error())
	}

	return entries, nil
}

// Write replaces the load order atomically: the new content is written
// to a temporary file in the same directory and renamed over the target
// while holding an advisory lock.
func (l *LoadOrderFile) Write(entries []LoadOrderEntry) error {
	dir := filepath.Dir(l.path)
	if _, err := os.Stat(dir); err != nil {
		return metadata.NewInvalidArgumentError(fmt.Sprintf("load order directory %q does not exist", dir))
	}

	lock := flock.New(l.path + ".lock")
	if err := lock.Lock(); err != nil {
		return metadata.NewFileAccessError(l.path, fmt.Sprintf("cannot lock load order file: %v", err))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to release load order lock")
		}
	}()

	var b strings.Builder
	for _, e := range entries {
		if e.Active {
			b.WriteString("*")
		}
		b.WriteString(e.Name)
		b.WriteString("\n")
	}

	tmp, err := os.CreateTemp(dir, ".loadorder-*")
	if err != nil {
		return metadata.NewFileAccessError(l.path, err.Error())
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return metadata.NewFileAccessError(l.path, err.Error())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return metadata.NewFileAccessError(l.path, err.Error())
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return metadata.NewFileAccessError(l.path, err.Error())
	}

	l.logger.Debug().
		Str("path", l.path).
		Int("plugins", len(entries)).
		Msg("Wrote load order")

	return nil
}
