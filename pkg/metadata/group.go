package metadata

// DefaultGroupName is the group every plugin belongs to unless its
// metadata says otherwise. It always exists.
const DefaultGroupName = "default"

// Group is a named cohort of plugins with declarative "loads after group
// X" ordering.
type Group struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description,omitempty"`
	After       []string `yaml:"after,omitempty"`
}

// MergeGroups merges userlist groups into masterlist groups by name. The
// user description replaces the masterlist description if non-empty;
// after-group lists are concatenated masterlist-first, preserving order
// and duplicates. Groups only present in the userlist are appended.
func MergeGroups(masterlistGroups, userGroups []Group) []Group {
	merged := make([]Group, len(masterlistGroups))
	copy(merged, masterlistGroups)

	var newGroups []Group
	for _, userGroup := range userGroups {
		found := false
		for i := range merged {
			if merged[i].Name != userGroup.Name {
				continue
			}
			found = true

			description := merged[i].Description
			if userGroup.Description != "" {
				description = userGroup.Description
			}

			after := make([]string, 0, len(merged[i].After)+len(userGroup.After))
			after = append(after, merged[i].After...)
			after = append(after, userGroup.After...)

			merged[i] = Group{
				Name:        userGroup.Name,
				Description: description,
				After:       after,
			}
			break
		}

		if !found {
			newGroups = append(newGroups, userGroup)
		}
	}

	return append(merged, newGroups...)
}
