package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPluginMetadataIsRegexPlugin(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "Plugin.esp", want: false},
		{name: "Plugin 2.esp", want: false},
		{name: `Plugin.*\.esp`, want: true},
		{name: "Plugin?.esp", want: true},
		{name: "A|B.esp", want: true},
		{name: "Pre:fix.esp", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := PluginMetadata{Name: tt.name}
			assert.Equal(t, tt.want, m.IsRegexPlugin())
		})
	}
}

func TestPluginMetadataNameMatches(t *testing.T) {
	literal := PluginMetadata{Name: "Plugin.esp"}
	assert.True(t, literal.NameMatches("Plugin.esp"))
	assert.True(t, literal.NameMatches("PLUGIN.ESP"))
	assert.False(t, literal.NameMatches("Other.esp"))

	re, err := NewPluginMetadata(`Plugin.*\.esp`)
	require.NoError(t, err)
	assert.True(t, re.NameMatches("Plugin Variant.esp"))
	assert.True(t, re.NameMatches("PLUGIN.ESP"))
	assert.False(t, re.NameMatches("Plugin.esm"))
	assert.False(t, re.NameMatches("prefix Plugin.esp"))
}

func TestNewPluginMetadataInvalidRegex(t *testing.T) {
	_, err := NewPluginMetadata(`Plugin(*.esp`)
	require.Error(t, err)
}

func TestPluginMetadataGroupOrDefault(t *testing.T) {
	m := PluginMetadata{Name: "A.esp"}
	assert.Equal(t, DefaultGroupName, m.GroupOrDefault())

	m.Group = "late"
	assert.Equal(t, "late", m.GroupOrDefault())
}

func TestPluginMetadataHasNameOnly(t *testing.T) {
	m := PluginMetadata{Name: "A.esp"}
	assert.True(t, m.HasNameOnly())

	m.Tags = []Tag{{Name: "Delev", Addition: true}}
	assert.False(t, m.HasNameOnly())
}

func TestMergeGroupOverride(t *testing.T) {
	a := PluginMetadata{Name: "A.esp", Group: "early"}
	b := PluginMetadata{Name: "A.esp"}

	merged := Merge(a, b)
	assert.Equal(t, "early", merged.Group)

	b.Group = "late"
	merged = Merge(a, b)
	assert.Equal(t, "late", merged.Group)
}

func TestMergeListUnion(t *testing.T) {
	a := PluginMetadata{
		Name:      "A.esp",
		LoadAfter: []File{{Name: "X.esp"}, {Name: "Y.esp"}},
		Tags:      []Tag{{Name: "Delev", Addition: true}},
	}
	b := PluginMetadata{
		Name:      "A.esp",
		LoadAfter: []File{{Name: "Y.esp"}, {Name: "Z.esp"}},
		Tags:      []Tag{{Name: "Delev", Addition: true}, {Name: "Relev", Addition: false}},
	}

	merged := Merge(a, b)
	assert.Equal(t, []File{{Name: "X.esp"}, {Name: "Y.esp"}, {Name: "Z.esp"}}, merged.LoadAfter)
	assert.Equal(t, []Tag{
		{Name: "Delev", Addition: true},
		{Name: "Relev", Addition: false},
	}, merged.Tags)
}

func TestMergeMessagesConcatenate(t *testing.T) {
	a := PluginMetadata{Name: "A.esp", Messages: []Message{{Type: MessageSay, Content: "first"}}}
	b := PluginMetadata{Name: "A.esp", Messages: []Message{{Type: MessageSay, Content: "first"}, {Type: MessageWarn, Content: "second"}}}

	merged := Merge(a, b)
	require.Len(t, merged.Messages, 3)
	assert.Equal(t, "first", merged.Messages[0].Content)
	assert.Equal(t, "first", merged.Messages[1].Content)
	assert.Equal(t, "second", merged.Messages[2].Content)
}

func TestMergeCleaningDataKeyedByCRC(t *testing.T) {
	a := PluginMetadata{Name: "A.esp", DirtyInfo: []PluginCleaningData{
		{CRC: 0xDEADBEEF, CleaningUtility: "xEdit", ITMCount: 2},
	}}
	b := PluginMetadata{Name: "A.esp", DirtyInfo: []PluginCleaningData{
		{CRC: 0xDEADBEEF, CleaningUtility: "xEdit", ITMCount: 4},
		{CRC: 0xCAFEF00D, CleaningUtility: "xEdit"},
	}}

	merged := Merge(a, b)
	require.Len(t, merged.DirtyInfo, 2)
	assert.Equal(t, 2, merged.DirtyInfo[0].ITMCount)
	assert.Equal(t, uint32(0xCAFEF00D), merged.DirtyInfo[1].CRC)
}

func TestPluginMetadataUnmarshal(t *testing.T) {
	input := `
name: A.esp
group: late
after:
  - B.esp
  - {name: C.esp, condition: 'file("D.esp")'}
req: [X.esp]
msg:
  - {type: say, content: Hello}
tag: [Delev, -Relev]
dirty:
  - {crc: 0x12345678, util: xEdit, itm: 3, udr: 1}
url: [http://www.example.com]
`
	var m PluginMetadata
	require.NoError(t, yaml.Unmarshal([]byte(input), &m))

	assert.Equal(t, "A.esp", m.Name)
	assert.Equal(t, "late", m.Group)
	assert.Equal(t, []File{{Name: "B.esp"}, {Name: "C.esp", Condition: `file("D.esp")`}}, m.LoadAfter)
	assert.Equal(t, []File{{Name: "X.esp"}}, m.Requirements)
	require.Len(t, m.Messages, 1)
	assert.Equal(t, []Tag{{Name: "Delev", Addition: true}, {Name: "Relev", Addition: false}}, m.Tags)
	require.Len(t, m.DirtyInfo, 1)
	assert.Equal(t, uint32(0x12345678), m.DirtyInfo[0].CRC)
	assert.Equal(t, []Location{{Link: "http://www.example.com"}}, m.Locations)
}
