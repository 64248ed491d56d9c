package metadata

import "strings"

// ReplacePrelude substitutes the top-level prelude block of a masterlist
// document with the contents of a prelude document, indented to fit. The
// substitution is textual so that YAML anchors defined in the prelude
// stay resolvable from the rest of the masterlist. A masterlist without a
// prelude block is returned unchanged.
func ReplacePrelude(masterlist, prelude string) string {
	lines := strings.Split(masterlist, "\n")

	start := -1
	end := len(lines)
	for i, line := range lines {
		if start == -1 {
			if strings.HasPrefix(line, "prelude:") {
				start = i
			}
			continue
		}
		if line != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			end = i
			break
		}
	}

	if start == -1 {
		return masterlist
	}

	var b strings.Builder
	for _, line := range lines[:start] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("prelude:\n")
	for _, line := range strings.Split(strings.TrimRight(prelude, "\n"), "\n") {
		if line != "" {
			b.WriteString("  ")
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	for i, line := range lines[end:] {
		b.WriteString(line)
		if i < len(lines[end:])-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}
