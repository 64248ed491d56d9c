package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// document is the on-disk shape of a masterlist or userlist.
type document struct {
	Prelude  *yaml.Node       `yaml:"prelude,omitempty" validate:"-"`
	BashTags []string         `yaml:"bash_tags,omitempty"`
	Globals  []Message        `yaml:"globals,omitempty" validate:"omitempty,dive"`
	Groups   []Group          `yaml:"groups,omitempty" validate:"omitempty,dive"`
	Plugins  []PluginMetadata `yaml:"plugins,omitempty" validate:"omitempty,dive"`
}

// List is one collection of plugin and group metadata: a masterlist or a
// userlist. It is not safe for concurrent mutation; callers serialise
// writes.
type List struct {
	bashTags []string
	globals  []Message
	groups   []Group
	plugins  []PluginMetadata

	logger zerolog.Logger
}

// NewList returns an empty metadata list.
func NewList() *List {
	return &List{
		logger: log.With().Str("component", "metadata.list").Logger(),
	}
}

// Load replaces the list's contents with the given document. The previous
// contents survive any failure.
func (l *List) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewFileAccessError(path, "metadata document does not exist")
		}
		return NewFileAccessError(path, err.Error())
	}

	return l.loadBytes(data, path)
}

// LoadWithPrelude is Load with the masterlist's prelude block substituted
// by the contents of the prelude document before parsing.
func (l *List) LoadWithPrelude(path, preludePath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewFileAccessError(path, "metadata document does not exist")
		}
		return NewFileAccessError(path, err.Error())
	}

	prelude, err := os.ReadFile(preludePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewFileAccessError(preludePath, "prelude document does not exist")
		}
		return NewFileAccessError(preludePath, err.Error())
	}

	merged := ReplacePrelude(string(data), string(prelude))

	return l.loadBytes([]byte(merged), path)
}

func (l *List) loadBytes(data []byte, path string) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return NewParseError(path, err)
	}

	if err := validate.Struct(&doc); err != nil {
		return NewParseError(path, err)
	}

	l.bashTags = doc.BashTags
	l.globals = doc.Globals
	l.groups = doc.Groups
	l.plugins = doc.Plugins

	l.logger.Debug().
		Str("path", path).
		Int("plugins", len(doc.Plugins)).
		Int("groups", len(doc.Groups)).
		Msg("Loaded metadata document")

	return nil
}

// Save writes the list to path. The parent directory must exist; an
// existing file is only replaced when overwrite is set. Name-only plugin
// entries are omitted.
func (l *List) Save(path string, overwrite bool) error {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return NewInvalidArgumentError(fmt.Sprintf("output directory %q does not exist", filepath.Dir(path)))
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		return NewFileAccessError(path, "output file exists and overwrite is not set")
	}

	doc := document{
		BashTags: l.bashTags,
		Globals:  l.globals,
		Groups:   l.groups,
	}
	for _, p := range l.plugins {
		if !p.HasNameOnly() {
			doc.Plugins = append(doc.Plugins, p)
		}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return NewParseError(path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return NewFileAccessError(path, err.Error())
	}

	return nil
}

// BashTags returns the document's known Bash Tag names.
func (l *List) BashTags() []string {
	tags := make([]string, len(l.bashTags))
	copy(tags, l.bashTags)
	return tags
}

// Messages returns the document's general messages.
func (l *List) Messages() []Message {
	msgs := make([]Message, len(l.globals))
	copy(msgs, l.globals)
	return msgs
}

// Groups returns the document's group definitions.
func (l *List) Groups() []Group {
	groups := make([]Group, len(l.groups))
	copy(groups, l.groups)
	return groups
}

// SetGroups replaces the document's group definitions.
func (l *List) SetGroups(groups []Group) {
	l.groups = make([]Group, len(groups))
	copy(l.groups, groups)
}

// Plugins returns every plugin metadata entry, regex entries included.
func (l *List) Plugins() []PluginMetadata {
	plugins := make([]PluginMetadata, len(l.plugins))
	copy(plugins, l.plugins)
	return plugins
}

// FindPlugin returns the effective metadata for the named plugin: the
// merge, in document order, of every matching regex entry, then the exact
// entry. The second return is false when nothing matches.
func (l *List) FindPlugin(name string) (PluginMetadata, bool) {
	merged := PluginMetadata{Name: name}
	found := false

	for i := range l.plugins {
		if !l.plugins[i].IsRegexPlugin() || !l.plugins[i].NameMatches(name) {
			continue
		}
		merged = Merge(merged, l.plugins[i])
		found = true
	}

	for i := range l.plugins {
		if l.plugins[i].IsRegexPlugin() || !l.plugins[i].NameMatches(name) {
			continue
		}
		merged = Merge(merged, l.plugins[i])
		found = true
		break
	}

	if !found {
		return PluginMetadata{}, false
	}

	merged.Name = name
	return merged, true
}

// AddPlugin appends a plugin entry. Adding a second literal entry for the
// same filename is rejected; regex entries may coexist freely.
func (l *List) AddPlugin(meta PluginMetadata) error {
	compiled, err := NewPluginMetadata(meta.Name)
	if err != nil {
		return NewInvalidArgumentError(fmt.Sprintf("plugin name %q is not a valid regex: %v", meta.Name, err))
	}
	meta.nameRegex = compiled.nameRegex

	if !meta.IsRegexPlugin() {
		for i := range l.plugins {
			if !l.plugins[i].IsRegexPlugin() && l.plugins[i].NameMatches(meta.Name) {
				return NewInvalidArgumentError(fmt.Sprintf("metadata for plugin %q already exists", meta.Name))
			}
		}
	}

	l.plugins = append(l.plugins, meta)
	return nil
}

// ErasePlugin removes the literal entry for the named plugin, if any.
func (l *List) ErasePlugin(name string) {
	for i := range l.plugins {
		if !l.plugins[i].IsRegexPlugin() && l.plugins[i].NameMatches(name) {
			l.plugins = append(l.plugins[:i], l.plugins[i+1:]...)
			return
		}
	}
}

// Clear empties the list.
func (l *List) Clear() {
	l.bashTags = nil
	l.globals = nil
	l.groups = nil
	l.plugins = nil
}
