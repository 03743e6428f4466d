package util

import "strings"

// SplitCommaSeparated splits a comma-separated string and trims whitespace from each element.
// Empty input returns nil.
func SplitCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// FlattenCSV expands repeatable flag values that may themselves be
// comma-separated ("--group a,b --group c") into a single list.
func FlattenCSV(values []string) []string {
	var result []string
	for _, v := range values {
		result = append(result, SplitCommaSeparated(v)...)
	}
	return result
}

// SafeFileName turns a device command or host name into a file name component:
// spaces, pipes and path separators become underscores.
func SafeFileName(name string) string {
	r := strings.NewReplacer(" ", "_", "|", "_", "/", "_", "\\", "_")
	return r.Replace(strings.TrimSpace(name))
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
