// Package metadata models the plugin and group metadata carried by
// masterlist and userlist documents, and the merge algebra between them.
package metadata

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Message types understood by downstream consumers.
const (
	MessageSay   = "say"
	MessageWarn  = "warn"
	MessageError = "error"
)

// Message is a note attached to a plugin or to a whole document.
type Message struct {
	Type          string   `yaml:"type" validate:"required,oneof=say warn error"`
	Content       string   `yaml:"content" validate:"required"`
	Condition     string   `yaml:"condition,omitempty"`
	Substitutions []string `yaml:"subs,omitempty"`
}

// messageContent is one localised string of a multilingual message.
type messageContent struct {
	Text string `yaml:"text"`
	Lang string `yaml:"lang"`
}

type rawMessage struct {
	Type          string    `yaml:"type"`
	Content       yaml.Node `yaml:"content"`
	Condition     string    `yaml:"condition"`
	Substitutions []string  `yaml:"subs"`
}

// UnmarshalYAML accepts content either as a scalar or as a list of
// localised strings, in which case the English string (or the first
// listed) is kept.
func (m *Message) UnmarshalYAML(value *yaml.Node) error {
	var raw rawMessage
	if err := value.Decode(&raw); err != nil {
		return err
	}

	m.Type = raw.Type
	m.Condition = raw.Condition
	m.Substitutions = raw.Substitutions

	switch raw.Content.Kind {
	case yaml.ScalarNode:
		return raw.Content.Decode(&m.Content)
	case yaml.SequenceNode:
		var contents []messageContent
		if err := raw.Content.Decode(&contents); err != nil {
			return err
		}
		if len(contents) == 0 {
			return fmt.Errorf("message content list is empty")
		}
		m.Content = contents[0].Text
		for _, c := range contents {
			if c.Lang == "en" {
				m.Content = c.Text
				break
			}
		}
		return nil
	case 0:
		return nil
	default:
		return fmt.Errorf("message content must be a string or a list of localised strings")
	}
}

// File references another plugin or data file, optionally conditioned.
type File struct {
	Name      string `yaml:"name" validate:"required"`
	Display   string `yaml:"display,omitempty"`
	Detail    string `yaml:"detail,omitempty"`
	Condition string `yaml:"condition,omitempty"`
}

type rawFile File

// UnmarshalYAML accepts either a bare filename scalar or the full map form.
func (f *File) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&f.Name)
	}
	var raw rawFile
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*f = File(raw)
	return nil
}

// MarshalYAML emits the scalar form when only the name is set.
func (f File) MarshalYAML() (interface{}, error) {
	if f.Display == "" && f.Detail == "" && f.Condition == "" {
		return f.Name, nil
	}
	return rawFile(f), nil
}

// DisplayName returns the display string, falling back to the filename.
func (f File) DisplayName() string {
	if f.Display != "" {
		return f.Display
	}
	return f.Name
}

// Tag is a Bash Tag suggestion: an addition or a removal of a named tag.
type Tag struct {
	Name      string `yaml:"name" validate:"required"`
	Addition  bool   `yaml:"-"`
	Condition string `yaml:"condition,omitempty"`
}

type rawTag struct {
	Name      string `yaml:"name"`
	Condition string `yaml:"condition"`
}

// UnmarshalYAML accepts "Name" / "-Name" scalars or the map form, where
// a leading dash marks a removal suggestion.
func (t *Tag) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if value.Kind == yaml.ScalarNode {
		if err := value.Decode(&name); err != nil {
			return err
		}
	} else {
		var raw rawTag
		if err := value.Decode(&raw); err != nil {
			return err
		}
		name = raw.Name
		t.Condition = raw.Condition
	}

	t.Addition = !strings.HasPrefix(name, "-")
	t.Name = strings.TrimPrefix(name, "-")
	return nil
}

// MarshalYAML emits the scalar form for unconditional tags.
func (t Tag) MarshalYAML() (interface{}, error) {
	name := t.Name
	if !t.Addition {
		name = "-" + name
	}
	if t.Condition == "" {
		return name, nil
	}
	return rawTag{Name: name, Condition: t.Condition}, nil
}

// Location records where a plugin can be obtained.
type Location struct {
	Link string `yaml:"link" validate:"required"`
	Name string `yaml:"name,omitempty"`
}

type rawLocation Location

// UnmarshalYAML accepts either a bare URL scalar or the map form.
func (l *Location) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&l.Link)
	}
	var raw rawLocation
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*l = Location(raw)
	return nil
}

// MarshalYAML emits the scalar form when the name is empty.
func (l Location) MarshalYAML() (interface{}, error) {
	if l.Name == "" {
		return l.Link, nil
	}
	return rawLocation(l), nil
}

// PluginCleaningData describes the result of checking one plugin revision
// (identified by CRC) with a cleaning utility.
type PluginCleaningData struct {
	CRC               uint32 `yaml:"crc" validate:"required"`
	CleaningUtility   string `yaml:"util" validate:"required"`
	ITMCount          int    `yaml:"itm,omitempty"`
	DeletedReferences int    `yaml:"udr,omitempty"`
	DeletedNavmeshes  int    `yaml:"nav,omitempty"`
	Detail            string `yaml:"detail,omitempty"`
}
