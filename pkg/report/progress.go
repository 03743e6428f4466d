package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/newtron-network/netkit/pkg/cli"
)

// ProgressReporter receives lifecycle callbacks while a batch runs.
// HostStart and HostEnd may be called from several workers at once.
type ProgressReporter interface {
	RunStart(operation string, hosts []string)
	HostStart(name string, index, total int)
	HostEnd(result *OperationResult, index, total int)
	RunEnd(results []*OperationResult, duration time.Duration)
}

// ConsoleProgress is an append-only terminal reporter: one dot-padded line
// per finished host, then a summary.
type ConsoleProgress struct {
	W       io.Writer
	Verbose bool

	operation string
	dotWidth  int
}

// NewConsoleProgress creates a ConsoleProgress writing to stdout.
func NewConsoleProgress(verbose bool) *ConsoleProgress {
	return &ConsoleProgress{W: os.Stdout, Verbose: verbose}
}

func (p *ConsoleProgress) RunStart(operation string, hosts []string) {
	p.operation = operation
	maxName := 0
	for _, h := range hosts {
		if len(h) > maxName {
			maxName = len(h)
		}
	}
	p.dotWidth = maxName + 6
	fmt.Fprintf(p.W, "\nnetkit %s: %d hosts\n\n", operation, len(hosts))
}

func (p *ConsoleProgress) HostStart(name string, index, total int) {
	if p.Verbose {
		fmt.Fprintf(p.W, "  [%d/%d]  %s ...\n", index+1, total, name)
	}
}

func (p *ConsoleProgress) HostEnd(result *OperationResult, index, total int) {
	tag := fmt.Sprintf("[%d/%d]", index+1, total)
	padded := cli.DotPad(result.HostName, p.dotWidth)

	switch result.Status {
	case StatusOK:
		fmt.Fprintf(p.W, "  %-7s %s %s  (%s)\n", tag, padded, cli.Green("OK"), FormatDuration(result.Duration))
	case StatusSkipped:
		fmt.Fprintf(p.W, "  %-7s %s %s\n", tag, padded, cli.Yellow("SKIP"))
	case StatusFailed:
		fmt.Fprintf(p.W, "  %-7s %s %s  (%s)\n", tag, padded, cli.Red("FAIL"), FormatDuration(result.Duration))
	}
	if p.Verbose && result.Message() != "" {
		fmt.Fprintf(p.W, "          %s\n", cli.Dim(result.Message()))
	}
}

func (p *ConsoleProgress) RunEnd(results []*OperationResult, duration time.Duration) {
	var c Counts
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			c.OK++
		case StatusFailed:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		}
	}

	fmt.Fprintf(p.W, "\n---\n")
	fmt.Fprintf(p.W, "netkit %s: %d hosts", p.operation, len(results))

	parts := []string{}
	if c.OK > 0 {
		parts = append(parts, cli.Green(fmt.Sprintf("%d ok", c.OK)))
	}
	if c.Failed > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d failed", c.Failed)))
	}
	if c.Skipped > 0 {
		parts = append(parts, cli.Yellow(fmt.Sprintf("%d skipped", c.Skipped)))
	}
	if len(parts) > 0 {
		fmt.Fprintf(p.W, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(p.W, "  (%s)\n", FormatDuration(duration))

	if c.Failed > 0 {
		fmt.Fprintf(p.W, "\n  FAILED:\n")
		p.listStatus(results, StatusFailed)
	}
	if c.Skipped > 0 {
		fmt.Fprintf(p.W, "\n  SKIPPED:\n")
		p.listStatus(results, StatusSkipped)
	}
	fmt.Fprintln(p.W)
}

func (p *ConsoleProgress) listStatus(results []*OperationResult, status Status) {
	for i, r := range results {
		if r.Status != status {
			continue
		}
		msg := r.Message()
		if msg == "" {
			msg = strings.ToLower(string(status))
		}
		fmt.Fprintf(p.W, "    [%d]  %s %s\n", i+1, cli.DotPad(r.HostName, p.dotWidth), msg)
	}
}

// FormatDuration renders d compactly: <1s, 42s, 3m, 3m07s.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
