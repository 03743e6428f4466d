// Package report collects per-host operation results, renders run progress
// and writes the machine-readable summary of a run.
package report

import (
	"sync"
	"time"
)

// Status is the outcome of one host in a run.
type Status string

const (
	StatusOK      Status = "OK"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// OperationResult is the outcome of one operation against one host.
type OperationResult struct {
	HostName string
	Target   string // host:port, or the bare host when the port is unusable
	Status   Status
	Detail   string
	Err      error
	Duration time.Duration
	Files    []string // artifacts written for this host
}

// Succeeded reports whether the host finished OK.
func (r *OperationResult) Succeeded() bool {
	return r.Status == StatusOK
}

// Message returns the error text, or Detail when there is no error.
func (r *OperationResult) Message() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Detail
}

// OK builds a successful result.
func OK(host, target, detail string) *OperationResult {
	return &OperationResult{HostName: host, Target: target, Status: StatusOK, Detail: detail}
}

// Failed builds a failed result carrying err.
func Failed(host, target string, err error) *OperationResult {
	return &OperationResult{HostName: host, Target: target, Status: StatusFailed, Err: err}
}

// Skipped builds a skipped result; reason ends up in Detail.
func Skipped(host, target, reason string) *OperationResult {
	return &OperationResult{HostName: host, Target: target, Status: StatusSkipped, Detail: reason}
}

// Counts tallies results by status.
type Counts struct {
	OK      int
	Failed  int
	Skipped int
}

// Total is the number of results counted.
func (c Counts) Total() int {
	return c.OK + c.Failed + c.Skipped
}

// Aggregator accumulates results in the order they are added. It is safe
// for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	results []*OperationResult
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends r. A nil result is ignored.
func (a *Aggregator) Add(r *OperationResult) {
	if r == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
}

// Results returns a copy of the results in add order.
func (a *Aggregator) Results() []*OperationResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*OperationResult, len(a.results))
	copy(out, a.results)
	return out
}

// Counts tallies the results added so far.
func (a *Aggregator) Counts() Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	var c Counts
	for _, r := range a.results {
		switch r.Status {
		case StatusOK:
			c.OK++
		case StatusFailed:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		}
	}
	return c
}

// Failed reports whether any host failed. Skipped hosts do not count.
func (a *Aggregator) Failed() bool {
	return a.Counts().Failed > 0
}

// ExitCode is the process exit status for a run: 1 when any host failed.
func ExitCode(a *Aggregator) int {
	if a.Failed() {
		return 1
	}
	return 0
}
