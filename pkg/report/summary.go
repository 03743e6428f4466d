package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryFile is written into every run directory.
const SummaryFile = "_summary.json"

// RunDirFormat names timestamped run directories.
const RunDirFormat = "20060102-150405"

// SummaryEntry is one host line of _summary.json.
type SummaryEntry struct {
	Host    string `json:"host"`
	Target  string `json:"target"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Summarize converts results to summary entries, keeping their order.
func Summarize(results []*OperationResult) []SummaryEntry {
	entries := make([]SummaryEntry, 0, len(results))
	for _, r := range results {
		e := SummaryEntry{
			Host:    r.HostName,
			Target:  r.Target,
			OK:      r.Succeeded(),
			Skipped: r.Status == StatusSkipped,
			Detail:  r.Detail,
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		entries = append(entries, e)
	}
	return entries
}

// WriteSummary writes _summary.json into dir and returns its path.
func WriteSummary(dir string, results []*OperationResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}
	return path, nil
}

// RunDir returns <base>/<kind>/<timestamp> for a run started at t.
func RunDir(base, kind string, t time.Time) string {
	return filepath.Join(base, kind, t.Format(RunDirFormat))
}
