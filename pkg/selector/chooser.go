package selector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/newtron-network/netkit/pkg/util"
)

// GroupChooser asks which groups to run against. A nil or empty result
// means every group.
type GroupChooser interface {
	ChooseGroups(available []string) ([]string, error)
}

// PromptChooser lists groups on Out and reads a comma-separated answer of
// indices or names from In.
type PromptChooser struct {
	In  io.Reader
	Out io.Writer
}

// NewPromptChooser creates a chooser on the process stdin/stdout.
func NewPromptChooser() *PromptChooser {
	return &PromptChooser{In: os.Stdin, Out: os.Stdout}
}

func (p *PromptChooser) ChooseGroups(available []string) ([]string, error) {
	if len(available) == 0 {
		return nil, nil
	}

	fmt.Fprintln(p.Out, "Available groups:")
	for i, g := range available {
		fmt.Fprintf(p.Out, "  %d. %s\n", i+1, g)
	}
	fmt.Fprint(p.Out, "Select groups (numbers or names, comma-separated; empty = ALL): ")

	reader := bufio.NewReader(p.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading group selection: %w", err)
	}

	var chosen []string
	for _, item := range util.SplitCommaSeparated(line) {
		if g, ok := lookupGroup(available, item); ok {
			chosen = util.MergeStringSlices(chosen, []string{g})
			continue
		}
		fmt.Fprintf(p.Out, "Ignoring unknown group %q\n", item)
	}
	return chosen, nil
}

func lookupGroup(available []string, item string) (string, bool) {
	if n, err := strconv.Atoi(item); err == nil {
		if n >= 1 && n <= len(available) {
			return available[n-1], true
		}
		return "", false
	}
	for _, g := range available {
		if strings.EqualFold(g, item) {
			return g, true
		}
	}
	return "", false
}

// Interactive reports whether both in and out are terminals.
func Interactive(in, out *os.File) bool {
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}
