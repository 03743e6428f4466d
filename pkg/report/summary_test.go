package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "show", "run")
	results := []*OperationResult{
		OK("core1", "10.0.0.1:22", "3 commands"),
		Failed("edge2", "edge2", errors.New("host edge2: missing required field \"host\"")),
		Skipped("xr1", "10.0.0.9:22", "line push is not supported on iosxr"),
	}

	path, err := WriteSummary(dir, results)
	if err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	if filepath.Base(path) != SummaryFile {
		t.Errorf("path = %s, want %s", path, SummaryFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []map[string]interface{}
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("summary is not a JSON list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}

	if entries[0]["host"] != "core1" || entries[0]["ok"] != true {
		t.Errorf("entries[0] = %v", entries[0])
	}
	if _, ok := entries[0]["error"]; ok {
		t.Error("successful entry should omit error")
	}
	if entries[1]["ok"] != false || entries[1]["error"] == nil {
		t.Errorf("entries[1] = %v, want failed with error", entries[1])
	}
	if entries[2]["skipped"] != true || entries[2]["ok"] != false {
		t.Errorf("entries[2] = %v, want skipped", entries[2])
	}
}

func TestRunDir(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	got := RunDir("out", "backups", ts)
	want := filepath.Join("out", "backups", "20240309-140507")
	if got != want {
		t.Errorf("RunDir() = %s, want %s", got, want)
	}
}
