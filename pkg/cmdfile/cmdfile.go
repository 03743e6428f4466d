// Package cmdfile reads the plain-text command lists and configuration
// snippets handed to the show and push operations.
package cmdfile

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/newtron-network/netkit/pkg/util"
)

// A '#' at the start of a line or after whitespace begins a comment.
// "show run | include #" style pipes with no space before '#' are kept.
var inlineCommentRegexp = regexp.MustCompile(`(^|\s+)#.*$`)

// Snippet is a configuration snippet in the two forms the push engines use.
type Snippet struct {
	// Lines are the trimmed configuration commands, for line-by-line push.
	Lines []string
	// Text keeps indentation and ends with a newline, for staged merges.
	Text string
}

// LoadCommands reads a command list: one command per line, blank lines and
// comments dropped. Every line of the file is processed.
func LoadCommands(path string) ([]string, error) {
	data, err := readFile(path, "command file")
	if err != nil {
		return nil, err
	}
	cmds := ParseCommands(data)
	if len(cmds) == 0 {
		return nil, fmt.Errorf("command file %s: %w: no commands", path, util.ErrInvalidConfig)
	}
	return cmds, nil
}

// ParseCommands extracts commands from command-list content.
func ParseCommands(data []byte) []string {
	var cmds []string
	for _, raw := range splitLines(data) {
		line := inlineCommentRegexp.ReplaceAllString(raw, "")
		if line = strings.TrimSpace(line); line != "" {
			cmds = append(cmds, line)
		}
	}
	return cmds
}

// LoadSnippet reads a configuration snippet.
func LoadSnippet(path string) (*Snippet, error) {
	data, err := readFile(path, "snippet")
	if err != nil {
		return nil, err
	}
	s := ParseSnippet(data)
	if len(s.Lines) == 0 {
		return nil, fmt.Errorf("snippet %s: %w: no configuration lines", path, util.ErrInvalidConfig)
	}
	return s, nil
}

// ParseSnippet normalizes snippet content. Lines starting with '!' or '#'
// are comments. A leading "- " or a single '-' (but not "--") is removed so
// snippets written as YAML lists still apply.
func ParseSnippet(data []byte) *Snippet {
	s := &Snippet{}
	var text strings.Builder

	for _, line := range splitLines(data) {
		raw := strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimLeft(raw, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "!") || strings.HasPrefix(trimmed, "#") {
			continue
		}

		keep := raw
		if stripped, ok := stripBullet(trimmed); ok {
			keep = stripped
		}
		line := strings.TrimSpace(keep)
		if line == "" {
			continue
		}
		s.Lines = append(s.Lines, line)
		text.WriteString(keep)
		text.WriteByte('\n')
	}
	s.Text = text.String()
	return s
}

// splitLines splits content on newlines with no limit on line length, so a
// long banner line never cuts the file short.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func stripBullet(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, "- "):
		return strings.TrimLeft(line[2:], " \t"), true
	case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "--"):
		return strings.TrimLeft(line[1:], " \t"), true
	}
	return line, false
}

func readFile(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s %s: %w", what, path, util.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s %s: %w", what, path, err)
	}
	return data, nil
}
