package metadata

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PluginMetadata is the metadata a document carries for one plugin. The
// name may be a literal filename or a regular expression matching several
// filenames; matching is case-insensitive either way.
type PluginMetadata struct {
	Name              string               `yaml:"name" validate:"required"`
	Group             string               `yaml:"group,omitempty"`
	LoadAfter         []File               `yaml:"after,omitempty"`
	Requirements      []File               `yaml:"req,omitempty"`
	Incompatibilities []File               `yaml:"inc,omitempty"`
	Messages          []Message            `yaml:"msg,omitempty"`
	Tags              []Tag                `yaml:"tag,omitempty"`
	DirtyInfo         []PluginCleaningData `yaml:"dirty,omitempty"`
	CleanInfo         []PluginCleaningData `yaml:"clean,omitempty"`
	Locations         []Location           `yaml:"url,omitempty"`

	nameRegex *regexp.Regexp
}

// NewPluginMetadata returns metadata for the named plugin. An error is
// returned only for regex names that do not compile.
func NewPluginMetadata(name string) (PluginMetadata, error) {
	m := PluginMetadata{Name: name}
	if err := m.compileName(); err != nil {
		return PluginMetadata{}, err
	}
	return m, nil
}

type rawPluginMetadata PluginMetadata

// UnmarshalYAML decodes the document form and precompiles regex names.
func (m *PluginMetadata) UnmarshalYAML(value *yaml.Node) error {
	var raw rawPluginMetadata
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*m = PluginMetadata(raw)
	return m.compileName()
}

// IsRegexPlugin reports whether the name is a regular expression rather
// than a literal filename. Filenames cannot contain any of ":\*?|", so
// the presence of one marks a regex.
func (m *PluginMetadata) IsRegexPlugin() bool {
	return strings.ContainsAny(m.Name, ":\\*?|")
}

// NameMatches reports whether this metadata applies to the given
// filename. Literal names compare case-insensitively; regex names match
// the whole filename case-insensitively.
func (m *PluginMetadata) NameMatches(filename string) bool {
	if !m.IsRegexPlugin() {
		return strings.EqualFold(m.Name, filename)
	}
	if m.nameRegex == nil {
		if err := m.compileName(); err != nil {
			return false
		}
	}
	return m.nameRegex.MatchString(filename)
}

// HasNameOnly reports whether the entry carries no metadata besides its
// name. Such entries are omitted when saving.
func (m *PluginMetadata) HasNameOnly() bool {
	return m.Group == "" &&
		len(m.LoadAfter) == 0 &&
		len(m.Requirements) == 0 &&
		len(m.Incompatibilities) == 0 &&
		len(m.Messages) == 0 &&
		len(m.Tags) == 0 &&
		len(m.DirtyInfo) == 0 &&
		len(m.CleanInfo) == 0 &&
		len(m.Locations) == 0
}

func (m *PluginMetadata) compileName() error {
	if !m.IsRegexPlugin() {
		return nil
	}
	re, err := regexp.Compile("(?i)^" + m.Name + "$")
	if err != nil {
		return err
	}
	m.nameRegex = re
	return nil
}

// GroupOrDefault returns the assigned group, or the default group when
// none is set.
func (m *PluginMetadata) GroupOrDefault() string {
	if m.Group == "" {
		return DefaultGroupName
	}
	return m.Group
}

// Merge combines two metadata entries for the same plugin, with b
// overriding a: b's group wins if set, list fields are unioned keeping
// a's entries first, messages are concatenated a then b, and cleaning
// data is unioned keyed by CRC.
func Merge(a, b PluginMetadata) PluginMetadata {
	merged := a

	if b.Group != "" {
		merged.Group = b.Group
	}

	merged.LoadAfter = mergeFiles(a.LoadAfter, b.LoadAfter)
	merged.Requirements = mergeFiles(a.Requirements, b.Requirements)
	merged.Incompatibilities = mergeFiles(a.Incompatibilities, b.Incompatibilities)
	merged.Tags = mergeTags(a.Tags, b.Tags)
	merged.Locations = mergeLocations(a.Locations, b.Locations)
	merged.DirtyInfo = mergeCleaningData(a.DirtyInfo, b.DirtyInfo)
	merged.CleanInfo = mergeCleaningData(a.CleanInfo, b.CleanInfo)

	merged.Messages = make([]Message, 0, len(a.Messages)+len(b.Messages))
	merged.Messages = append(merged.Messages, a.Messages...)
	merged.Messages = append(merged.Messages, b.Messages...)

	return merged
}

// mergeFiles appends entries of second that are not already present in
// first. Both inputs are expected to be small.
func mergeFiles(first, second []File) []File {
	merged := make([]File, len(first))
	copy(merged, first)
	for _, f := range second {
		present := false
		for _, existing := range first {
			if existing == f {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, f)
		}
	}
	return merged
}

func mergeTags(first, second []Tag) []Tag {
	merged := make([]Tag, len(first))
	copy(merged, first)
	for _, t := range second {
		present := false
		for _, existing := range first {
			if existing == t {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, t)
		}
	}
	return merged
}

func mergeLocations(first, second []Location) []Location {
	merged := make([]Location, len(first))
	copy(merged, first)
	for _, l := range second {
		present := false
		for _, existing := range first {
			if existing == l {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, l)
		}
	}
	return merged
}

// mergeCleaningData unions by CRC: an entry of second whose CRC is
// already covered by first is dropped.
func mergeCleaningData(first, second []PluginCleaningData) []PluginCleaningData {
	merged := make([]PluginCleaningData, len(first))
	copy(merged, first)
	for _, d := range second {
		present := false
		for _, existing := range first {
			if existing.CRC == d.CRC {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, d)
		}
	}
	return merged
}
