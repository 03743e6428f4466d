package operations

import (
	"strings"
)

// ConfigDiff lists the candidate configuration lines missing from running.
// Added lines are prefixed "+ ". Indented lines are looked up within their
// parent section; when a section exists but some of its lines are missing,
// the parent is repeated once as context with a "  " prefix.
func ConfigDiff(candidate, running string) []string {
	top, sections := parseSections(running)

	var diff []string
	parent := ""
	parentShown := false
	for _, line := range strings.Split(candidate, "\n") {
		trimmed := strings.TrimSpace(line)
		if skipConfigLine(trimmed) {
			continue
		}
		if !isIndented(line) {
			parent = trimmed
			parentShown = false
			if !top[trimmed] {
				diff = append(diff, "+ "+trimmed)
				parentShown = true
			}
			continue
		}
		if parent == "" {
			if !top[trimmed] {
				diff = append(diff, "+ "+trimmed)
			}
			continue
		}
		if sections[parent][trimmed] {
			continue
		}
		if !parentShown {
			diff = append(diff, "  "+parent)
			parentShown = true
		}
		diff = append(diff, "+  "+trimmed)
	}
	return diff
}

// CountAdded returns the number of "+" lines in a diff.
func CountAdded(diff []string) int {
	n := 0
	for _, line := range diff {
		if strings.HasPrefix(line, "+") {
			n++
		}
	}
	return n
}

// parseSections indexes a running configuration: top-level lines, and the
// lines nested (at any depth) under each top-level line.
func parseSections(running string) (map[string]bool, map[string]map[string]bool) {
	top := map[string]bool{}
	sections := map[string]map[string]bool{}
	parent := ""
	for _, line := range strings.Split(running, "\n") {
		trimmed := strings.TrimSpace(line)
		if skipConfigLine(trimmed) {
			continue
		}
		if !isIndented(line) {
			parent = trimmed
			top[trimmed] = true
			continue
		}
		if parent == "" {
			continue
		}
		if sections[parent] == nil {
			sections[parent] = map[string]bool{}
		}
		sections[parent][trimmed] = true
	}
	return top, sections
}

func skipConfigLine(trimmed string) bool {
	return trimmed == "" ||
		strings.HasPrefix(trimmed, "!") ||
		strings.HasPrefix(trimmed, "Building configuration") ||
		strings.HasPrefix(trimmed, "Current configuration")
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// xrDiffChanges extracts the change lines from "show commit changes diff".
func xrDiffChanges(out string) []string {
	var changes []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "!!") {
			continue
		}
		if strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "#") {
			changes = append(changes, strings.TrimRight(line, " "))
		}
	}
	return changes
}
