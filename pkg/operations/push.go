package operations

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/newtron-network/netkit/pkg/audit"
	"github.com/newtron-network/netkit/pkg/cmdfile"
	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/platform"
	"github.com/newtron-network/netkit/pkg/report"
	"github.com/newtron-network/netkit/pkg/util"
)

// CandidateFile is the name the snippet is staged under on the device.
const CandidateFile = "merge.cfg"

// Push applies a configuration snippet.
//
// The line engine sends the snippet to the running configuration; Commit
// then saves it to startup. The merge engine first stages the snippet and
// computes a diff; without Commit it only reports the diff.
type Push struct {
	Snippet     *cmdfile.Snippet
	SnippetPath string
	Engine      platform.Engine
	Commit      bool
	DestFS      string // filesystem override, e.g. "bootflash:"
	OutDir      string // transcripts go here when set

	mu       sync.Mutex
	outcomes map[string]*StrategyResult
}

// Name returns the operation name
func (op *Push) Name() string { return "push" }

// Description returns a human-readable description
func (op *Push) Description() string {
	mode := "dry run"
	if op.Commit {
		mode = "commit"
	}
	return fmt.Sprintf("push %s with the %s engine (%s)", op.SnippetPath, op.Engine, mode)
}

// Validate checks all preconditions
func (op *Push) Validate() error {
	p := NewPreconditionChecker(op.Name()).
		Check(op.Snippet != nil, "snippet", "snippet required", op.SnippetPath)
	if op.Snippet != nil {
		p.RequireNonEmpty("snippet", len(op.Snippet.Lines))
	}
	_, err := platform.ParseEngine(string(op.Engine))
	p.Check(err == nil, "engine", "must be merge or line", string(op.Engine))
	if op.OutDir != "" {
		p.RequireWritableDir("outdir", op.OutDir)
	}
	return p.Result()
}

// Supports rules out engine/family combinations before connecting.
func (op *Push) Supports(t device.Target) error {
	if !platform.SupportsPush(t.Family, op.Engine) {
		return util.NewUnsupportedOperationError(string(op.Engine)+" push", t.Family.String())
	}
	return nil
}

// Execute runs the engine's strategies and saves the transcript.
func (op *Push) Execute(ctx context.Context, sess device.Session, h *Host) (*report.OperationResult, error) {
	pc := &pushContext{sess: sess, host: h, push: op}

	var res *StrategyResult
	var err error
	if op.Engine == platform.EngineLine {
		res, err = op.lineEngine(ctx, pc)
	} else {
		res, err = runStrategies(ctx, pc, op.mergeStrategies(h.Target.Family))
	}

	out := &report.OperationResult{}
	if op.OutDir != "" && pc.transcript.Len() > 0 {
		if path, werr := writeArtifact(op.OutDir, hostFile(h.Name, ".push.log"), []byte(pc.transcript.String())); werr == nil {
			out.Files = append(out.Files, path)
		} else {
			h.Log.WithError(werr).Warn("Could not save push transcript")
		}
	}
	if err != nil {
		op.remember(h.Name, &StrategyResult{Strategy: pc.strategy})
		return out, err
	}

	op.remember(h.Name, res)
	out.Detail = res.Detail
	if res.Diff != "" {
		h.Log.Infof("Candidate diff:\n%s", res.Diff)
	}
	return out, nil
}

func (op *Push) lineStrategies(f platform.Family) []pushStrategy {
	if f == platform.NXOS {
		return []pushStrategy{
			{name: "file-copy", run: fileCopy},
			{name: "line-push", run: linePush},
		}
	}
	return []pushStrategy{{name: "line-push", run: linePush}}
}

func (op *Push) mergeStrategies(f platform.Family) []pushStrategy {
	if f == platform.IOSXR {
		return []pushStrategy{{name: "commit-merge", run: commitMerge}}
	}
	return []pushStrategy{{name: "staged-merge", run: stagedMerge}}
}

// lineEngine applies the snippet to the running configuration and saves
// it when Commit is set.
func (op *Push) lineEngine(ctx context.Context, pc *pushContext) (*StrategyResult, error) {
	res, err := runStrategies(ctx, pc, op.lineStrategies(pc.host.Target.Family))
	if err != nil {
		return nil, err
	}
	if op.Commit {
		if err := pc.save(ctx); err != nil {
			return nil, err
		}
		res.Detail += ", saved"
	}
	return res, nil
}

func (op *Push) remember(host string, res *StrategyResult) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.outcomes == nil {
		op.outcomes = map[string]*StrategyResult{}
	}
	op.outcomes[host] = res
}

func (op *Push) outcome(host string) *StrategyResult {
	op.mu.Lock()
	defer op.mu.Unlock()
	if res, ok := op.outcomes[host]; ok {
		return res
	}
	return &StrategyResult{}
}

// Finish writes one audit event per host.
func (op *Push) Finish(h *inventory.ResolvedHost, res *report.OperationResult) {
	outcome := op.outcome(h.Name)
	lines := 0
	if op.Snippet != nil {
		lines = len(op.Snippet.Lines)
	}
	event := audit.NewEvent(h.Name, op.Name()).
		WithAddress(h.Address()).
		WithPush(string(op.Engine), op.SnippetPath, lines, op.Commit).
		WithStrategy(outcome.Strategy).
		WithDiff(outcome.Diff).
		WithDuration(res.Duration)

	switch res.Status {
	case report.StatusOK:
		event.WithSuccess()
	case report.StatusSkipped:
		event.WithSkip(res.Detail)
	default:
		event.WithError(res.Err)
	}
	if err := audit.Log(event); err != nil {
		util.WithHost(h.Name, h.Address()).WithError(err).Warn("Could not write audit event")
	}
}

// pushContext is the per-host state shared by the strategies.
type pushContext struct {
	sess       device.Session
	host       *Host
	push       *Push
	transcript strings.Builder
	strategy   string // strategy that failed, for the audit record
}

func (pc *pushContext) record(cmd, out string) {
	fmt.Fprintf(&pc.transcript, "> %s\n", cmd)
	if out != "" {
		pc.transcript.WriteString(out + "\n")
	}
}

// run executes an exec command and records it in the transcript.
func (pc *pushContext) run(ctx context.Context, cmd string) (string, error) {
	out, err := pc.sess.RunCommand(ctx, cmd)
	if err != nil {
		pc.record(cmd, out+"\n"+err.Error())
		return out, err
	}
	pc.record(cmd, out)
	return out, nil
}

func (pc *pushContext) lines() []string {
	return pc.push.Snippet.Lines
}

// stage uploads the snippet to a probed filesystem and returns the
// candidate path.
func (pc *pushContext) stage(ctx context.Context) (string, error) {
	candidates := platform.FilesystemCandidates(pc.push.DestFS, pc.host.DestFileSystem, pc.host.Target.Family)
	fs := platform.PickFilesystem(ctx, candidates, pc.probe)
	path := fs + CandidateFile

	pc.host.Log.WithField("path", path).Debug("Staging candidate")
	if err := pc.sess.Upload(ctx, []byte(pc.push.Snippet.Text), path); err != nil {
		pc.record("upload "+path, err.Error())
		return path, err
	}
	pc.record("upload "+path, fmt.Sprintf("%d bytes", len(pc.push.Snippet.Text)))
	return path, nil
}

func (pc *pushContext) probe(ctx context.Context, fs string) bool {
	out, err := pc.run(ctx, "dir "+fs)
	return err == nil && !platform.ProbeFailed(out)
}

// save copies running to startup configuration.
func (pc *pushContext) save(ctx context.Context) error {
	cmd := "write memory"
	if pc.host.Target.Family == platform.NXOS {
		cmd = "copy running-config startup-config"
	}
	if _, err := pc.run(ctx, cmd); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	return nil
}

// remove deletes the staged candidate. Failures are only logged.
func (pc *pushContext) remove(ctx context.Context, path string) {
	cmd := "delete /force " + path
	if pc.host.Target.Family == platform.NXOS {
		cmd = "delete " + path + " no-prompt"
	}
	if _, err := pc.run(ctx, cmd); err != nil {
		pc.host.Log.WithError(err).Debug("Could not remove staged candidate")
	}
}

// fileCopy stages the snippet and copies it into the running configuration.
// A failed upload falls back to the next strategy.
func fileCopy(ctx context.Context, pc *pushContext) (*StrategyResult, error) {
	path, err := pc.stage(ctx)
	if err != nil {
		return nil, fallback("staging %s: %v", path, err)
	}
	if _, err := pc.run(ctx, "copy "+path+" running-config"); err != nil {
		return nil, fmt.Errorf("applying %s: %w", path, err)
	}
	return &StrategyResult{
		Detail:  fmt.Sprintf("copied %d line(s) from %s", len(pc.lines()), path),
		Changed: true,
	}, nil
}

// linePush sends the snippet line by line in configuration mode.
func linePush(ctx context.Context, pc *pushContext) (*StrategyResult, error) {
	out, err := pc.sess.PushConfigLines(ctx, pc.lines())
	pc.transcript.WriteString(out)
	if err != nil {
		return nil, fmt.Errorf("pushing configuration: %w", err)
	}
	return &StrategyResult{
		Detail:  fmt.Sprintf("pushed %d line(s)", len(pc.lines())),
		Changed: true,
	}, nil
}

// commitMerge uses the IOS-XR candidate configuration: load the lines,
// read the diff, then commit or abort.
func commitMerge(ctx context.Context, pc *pushContext) (*StrategyResult, error) {
	if _, err := pc.run(ctx, "configure"); err != nil {
		return nil, fmt.Errorf("entering configuration mode: %w", err)
	}
	abort := func() { pc.run(ctx, "abort") }

	for _, line := range pc.lines() {
		if _, err := pc.run(ctx, line); err != nil {
			abort()
			return nil, err
		}
	}

	out, err := pc.run(ctx, "show commit changes diff")
	if err != nil {
		abort()
		return nil, fmt.Errorf("reading candidate diff: %w", err)
	}
	changes := xrDiffChanges(out)
	if len(changes) == 0 {
		abort()
		return &StrategyResult{Detail: "No change"}, nil
	}
	diff := strings.Join(changes, "\n")

	if !pc.push.Commit {
		abort()
		return &StrategyResult{
			Detail: fmt.Sprintf("dry run, %d change(s) discarded", len(changes)),
			Diff:   diff,
		}, nil
	}
	if _, err := pc.run(ctx, "commit"); err != nil {
		// The failed items stay readable until the candidate is aborted.
		pc.run(ctx, "show configuration failed")
		abort()
		return nil, fmt.Errorf("committing: %w", err)
	}
	pc.run(ctx, "end")
	return &StrategyResult{
		Detail:  fmt.Sprintf("committed %d change(s)", len(changes)),
		Diff:    diff,
		Changed: true,
	}, nil
}

// stagedMerge uploads the candidate for IOS and NX-OS, diffs it against
// the running configuration and applies it only with Commit.
func stagedMerge(ctx context.Context, pc *pushContext) (*StrategyResult, error) {
	path, err := pc.stage(ctx)
	if err != nil {
		if !isTransferDisabled(err) {
			return nil, fmt.Errorf("staging %s: %w", path, err)
		}
		if !pc.push.Commit {
			return nil, fmt.Errorf("%w: file transfer is disabled on the device and a dry run does not fall back to line push", ErrSkipped)
		}
		pc.host.Log.Warn("File transfer disabled, falling back to the line engine")
		res, err := pc.push.lineEngine(ctx, pc)
		if err != nil {
			return nil, err
		}
		res.Detail = "file transfer disabled, " + res.Detail
		return res, nil
	}

	running, err := pc.sess.RunCommand(ctx, "show running-config")
	if err != nil {
		pc.remove(ctx, path)
		return nil, fmt.Errorf("reading running-config: %w", err)
	}
	pc.record("show running-config", fmt.Sprintf("(%d bytes)", len(running)))

	changes := ConfigDiff(pc.push.Snippet.Text, running)
	if len(changes) == 0 {
		pc.remove(ctx, path)
		return &StrategyResult{Detail: "No change"}, nil
	}
	diff := strings.Join(changes, "\n")
	added := CountAdded(changes)
	pc.record("diff", diff)

	if !pc.push.Commit {
		pc.remove(ctx, path)
		return &StrategyResult{
			Detail: fmt.Sprintf("dry run, %d line(s) would change", added),
			Diff:   diff,
		}, nil
	}

	if _, err := pc.run(ctx, "copy "+path+" running-config"); err != nil {
		return nil, fmt.Errorf("applying %s: %w", path, err)
	}
	if err := pc.save(ctx); err != nil {
		return nil, err
	}
	pc.remove(ctx, path)
	return &StrategyResult{
		Detail:  fmt.Sprintf("committed %d line(s)", added),
		Diff:    diff,
		Changed: true,
	}, nil
}
