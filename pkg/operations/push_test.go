package operations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newtron-network/netkit/pkg/audit"
	"github.com/newtron-network/netkit/pkg/cmdfile"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/platform"
	"github.com/newtron-network/netkit/pkg/util"
)

const uplinkSnippet = "interface Gi0/1\n description uplink\n"

func newPush(engine platform.Engine, commit bool) *Push {
	return &Push{
		Snippet:     cmdfile.ParseSnippet([]byte(uplinkSnippet)),
		SnippetPath: "uplink.cfg",
		Engine:      engine,
		Commit:      commit,
	}
}

func TestPushValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      *Push
		wantErr bool
	}{
		{"valid", newPush(platform.EngineMerge, false), false},
		{"no snippet", &Push{Engine: platform.EngineLine}, true},
		{"empty snippet", &Push{Snippet: &cmdfile.Snippet{}, Engine: platform.EngineLine}, true},
		{"bad engine", &Push{Snippet: cmdfile.ParseSnippet([]byte("hostname r1")), Engine: "replace"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPushSupports(t *testing.T) {
	xr := opHost(testHost("xr1", "cisco_xr")).Target
	ios := opHost(testHost("r1", "cisco_ios")).Target

	if err := newPush(platform.EngineLine, true).Supports(xr); !errors.Is(err, util.ErrUnsupported) {
		t.Errorf("line push on IOS-XR = %v, want unsupported", err)
	}
	if err := newPush(platform.EngineMerge, true).Supports(xr); err != nil {
		t.Errorf("merge push on IOS-XR = %v", err)
	}
	if err := newPush(platform.EngineLine, true).Supports(ios); err != nil {
		t.Errorf("line push on IOS = %v", err)
	}
}

func TestPushLineEngine(t *testing.T) {
	tests := []struct {
		name         string
		deviceType   string
		commit       bool
		uploadErr    error
		wantDetail   string
		wantStrategy string
		wantPushed   bool
		wantRan      []string
		wantNotRan   []string
	}{
		{
			name:         "ios commit",
			deviceType:   "cisco_ios",
			commit:       true,
			wantDetail:   "pushed 2 line(s), saved",
			wantStrategy: "line-push",
			wantPushed:   true,
			wantRan:      []string{"write memory"},
		},
		{
			name:         "ios without commit",
			deviceType:   "cisco_ios",
			wantDetail:   "pushed 2 line(s)",
			wantStrategy: "line-push",
			wantPushed:   true,
			wantNotRan:   []string{"write memory"},
		},
		{
			name:         "nxos file copy",
			deviceType:   "cisco_nxos",
			commit:       true,
			wantDetail:   "copied 2 line(s) from bootflash:merge.cfg, saved",
			wantStrategy: "file-copy",
			wantRan:      []string{"dir bootflash:", "copy bootflash:merge.cfg running-config", "copy running-config startup-config"},
		},
		{
			name:         "nxos falls back to line push",
			deviceType:   "cisco_nxos",
			uploadErr:    errors.New("sftp: permission denied"),
			wantDetail:   "pushed 2 line(s)",
			wantStrategy: "line-push",
			wantPushed:   true,
			wantNotRan:   []string{"copy bootflash:merge.cfg running-config"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession()
			sess.uploadErr = tt.uploadErr
			op := newPush(platform.EngineLine, tt.commit)
			h := opHost(testHost("r1", tt.deviceType))

			res, err := op.Execute(context.Background(), sess, h)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", res.Detail, tt.wantDetail)
			}
			if got := op.outcome("r1").Strategy; got != tt.wantStrategy {
				t.Errorf("strategy = %q, want %q", got, tt.wantStrategy)
			}
			if pushed := len(sess.pushed) > 0; pushed != tt.wantPushed {
				t.Errorf("lines pushed = %v, want %v", sess.pushed, tt.wantPushed)
			}
			for _, cmd := range tt.wantRan {
				if !sess.ran(cmd) {
					t.Errorf("%q not run; commands = %v", cmd, sess.commands)
				}
			}
			for _, cmd := range tt.wantNotRan {
				if sess.ran(cmd) {
					t.Errorf("%q should not run", cmd)
				}
			}
		})
	}
}

func TestPushLineEngineRejected(t *testing.T) {
	sess := newFakeSession()
	sess.pushErr = util.NewCommandError("interfac Gi0/1", "% Invalid input", nil)
	op := newPush(platform.EngineLine, true)

	_, err := op.Execute(context.Background(), sess, opHost(testHost("r1", "cisco_ios")))
	if !errors.Is(err, util.ErrCommand) {
		t.Fatalf("Execute() error = %v, want command error", err)
	}
	if sess.ran("write memory") {
		t.Error("a rejected push must not be saved")
	}
	if got := op.outcome("r1").Strategy; got != "line-push" {
		t.Errorf("failed strategy = %q, want line-push", got)
	}
}

func TestPushStagedMerge(t *testing.T) {
	tests := []struct {
		name       string
		deviceType string
		running    string
		commit     bool
		wantDetail string
		wantDiff   bool
		wantRan    []string
		wantNotRan []string
	}{
		{
			name:       "dry run",
			deviceType: "cisco_ios",
			running:    "hostname r1\n!\n",
			wantDetail: "dry run, 2 line(s) would change",
			wantDiff:   true,
			wantRan:    []string{"delete /force flash:merge.cfg"},
			wantNotRan: []string{"copy flash:merge.cfg running-config", "write memory"},
		},
		{
			name:       "no change",
			deviceType: "cisco_ios",
			running:    "hostname r1\n!\ninterface Gi0/1\n description uplink\n!\n",
			commit:     true,
			wantDetail: "No change",
			wantRan:    []string{"delete /force flash:merge.cfg"},
			wantNotRan: []string{"copy flash:merge.cfg running-config"},
		},
		{
			name:       "ios commit",
			deviceType: "cisco_ios",
			running:    "interface Gi0/1\n description old\n",
			commit:     true,
			wantDetail: "committed 1 line(s)",
			wantDiff:   true,
			wantRan:    []string{"copy flash:merge.cfg running-config", "write memory", "delete /force flash:merge.cfg"},
		},
		{
			name:       "nxos commit",
			deviceType: "cisco_nxos",
			running:    "",
			commit:     true,
			wantDetail: "committed 2 line(s)",
			wantDiff:   true,
			wantRan:    []string{"copy bootflash:merge.cfg running-config", "copy running-config startup-config", "delete bootflash:merge.cfg no-prompt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession()
			sess.replies["show running-config"] = tt.running
			op := newPush(platform.EngineMerge, tt.commit)
			h := opHost(testHost("r1", tt.deviceType))

			res, err := op.Execute(context.Background(), sess, h)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", res.Detail, tt.wantDetail)
			}
			outcome := op.outcome("r1")
			if outcome.Strategy != "staged-merge" {
				t.Errorf("strategy = %q", outcome.Strategy)
			}
			if (outcome.Diff != "") != tt.wantDiff {
				t.Errorf("diff = %q, want diff %v", outcome.Diff, tt.wantDiff)
			}
			if len(sess.uploads) != 1 {
				t.Errorf("uploads = %v, want one candidate", sess.uploads)
			}
			if sess.ran("terminal length 0") {
				t.Error("paging is disabled on open and should not be sent again")
			}
			for path, data := range sess.uploads {
				if !strings.HasSuffix(path, CandidateFile) || data != uplinkSnippet {
					t.Errorf("upload %s = %q", path, data)
				}
			}
			for _, cmd := range tt.wantRan {
				if !sess.ran(cmd) {
					t.Errorf("%q not run; commands = %v", cmd, sess.commands)
				}
			}
			for _, cmd := range tt.wantNotRan {
				if sess.ran(cmd) {
					t.Errorf("%q should not run", cmd)
				}
			}
		})
	}
}

func TestPushStagedMergeTransferDisabled(t *testing.T) {
	disabled := errors.New("scp: SCP file transfers are not enabled")

	t.Run("dry run skips", func(t *testing.T) {
		sess := newFakeSession()
		sess.uploadErr = disabled
		_, err := newPush(platform.EngineMerge, false).Execute(context.Background(), sess, opHost(testHost("r1", "cisco_ios")))
		if !errors.Is(err, ErrSkipped) {
			t.Fatalf("Execute() error = %v, want skip", err)
		}
		if len(sess.pushed) != 0 {
			t.Error("dry run must not push lines")
		}
	})

	t.Run("commit falls back to line engine", func(t *testing.T) {
		sess := newFakeSession()
		sess.uploadErr = disabled
		op := newPush(platform.EngineMerge, true)
		res, err := op.Execute(context.Background(), sess, opHost(testHost("r1", "cisco_ios")))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Detail != "file transfer disabled, pushed 2 line(s), saved" {
			t.Errorf("Detail = %q", res.Detail)
		}
		if len(sess.pushed) != 2 {
			t.Errorf("pushed = %v", sess.pushed)
		}
		if got := op.outcome("r1").Strategy; got != "line-push" {
			t.Errorf("strategy = %q, want line-push", got)
		}
	})

	t.Run("other upload errors fail", func(t *testing.T) {
		sess := newFakeSession()
		sess.uploadErr = errors.New("no space left on device")
		op := newPush(platform.EngineMerge, true)
		_, err := op.Execute(context.Background(), sess, opHost(testHost("r1", "cisco_ios")))
		if err == nil || errors.Is(err, ErrSkipped) {
			t.Fatalf("Execute() error = %v, want failure", err)
		}
		if got := op.outcome("r1").Strategy; got != "staged-merge" {
			t.Errorf("failed strategy = %q", got)
		}
	})
}

func TestPushCommitMergeIOSXR(t *testing.T) {
	diff := "Building configuration...\n!! IOS XR Configuration 7.3.2\n+hostname xr9\nend\n"
	tests := []struct {
		name       string
		reply      string
		commit     bool
		wantDetail string
		wantRan    []string
		wantNotRan []string
	}{
		{"dry run", diff, false, "dry run, 1 change(s) discarded", []string{"abort"}, []string{"commit"}},
		{"commit", diff, true, "committed 1 change(s)", []string{"commit", "end"}, []string{"abort"}},
		{"no change", "Building configuration...\nend\n", true, "No change", []string{"abort"}, []string{"commit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession()
			sess.replies["show commit changes diff"] = tt.reply
			op := &Push{
				Snippet: cmdfile.ParseSnippet([]byte("hostname xr9\n")),
				Engine:  platform.EngineMerge,
				Commit:  tt.commit,
			}
			res, err := op.Execute(context.Background(), sess, opHost(testHost("xr1", "cisco_xr")))
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", res.Detail, tt.wantDetail)
			}
			if !sess.ran("configure") || !sess.ran("hostname xr9") {
				t.Errorf("commands = %v", sess.commands)
			}
			for _, cmd := range tt.wantRan {
				if !sess.ran(cmd) {
					t.Errorf("%q not run; commands = %v", cmd, sess.commands)
				}
			}
			for _, cmd := range tt.wantNotRan {
				if sess.ran(cmd) {
					t.Errorf("%q should not run", cmd)
				}
			}
			if len(sess.uploads) != 0 {
				t.Error("IOS-XR merge should not stage a file")
			}
		})
	}
}

func TestPushRejectedByDevice(t *testing.T) {
	tests := []struct {
		name       string
		deviceType string
		engine     platform.Engine
		rejected   string
		output     string
		wantRan    []string
		wantNotRan []string
	}{
		{
			name:       "xr commit",
			deviceType: "cisco_xr",
			engine:     platform.EngineMerge,
			rejected:   "commit",
			output:     "% Failed to commit one or more configuration items. All changes made have been reverted.",
			wantRan:    []string{"show configuration failed", "abort"},
			wantNotRan: []string{"end"},
		},
		{
			name:       "nxos staged copy",
			deviceType: "cisco_nxos",
			engine:     platform.EngineMerge,
			rejected:   "copy bootflash:merge.cfg running-config",
			output:     "Syntax error while parsing 'interface Gi0/1'",
			wantNotRan: []string{"copy running-config startup-config"},
		},
		{
			name:       "nxos file copy",
			deviceType: "cisco_nxos",
			engine:     platform.EngineLine,
			rejected:   "copy bootflash:merge.cfg running-config",
			output:     "Syntax error while parsing 'interface Gi0/1'",
			wantNotRan: []string{"copy running-config startup-config"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession()
			sess.replies["show commit changes diff"] = "+interface Gi0/1\n+ description uplink\n"
			sess.errs[tt.rejected] = util.NewCommandError(tt.rejected, tt.output, nil)
			op := newPush(tt.engine, true)

			res, err := op.Execute(context.Background(), sess, opHost(testHost("r1", tt.deviceType)))
			if !errors.Is(err, util.ErrCommand) {
				t.Fatalf("Execute() error = %v, want command error", err)
			}
			if res.Detail != "" {
				t.Errorf("Detail = %q, want none for a rejected push", res.Detail)
			}
			if len(sess.pushed) != 0 {
				t.Errorf("rejected copy should not fall back to line push, pushed %v", sess.pushed)
			}
			for _, cmd := range tt.wantRan {
				if !sess.ran(cmd) {
					t.Errorf("%q not run; commands = %v", cmd, sess.commands)
				}
			}
			for _, cmd := range tt.wantNotRan {
				if sess.ran(cmd) {
					t.Errorf("%q should not run", cmd)
				}
			}
		})
	}
}

func TestPushWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	sess := newFakeSession()
	op := newPush(platform.EngineLine, true)
	op.OutDir = dir

	res, err := op.Execute(context.Background(), sess, opHost(testHost("r1", "cisco_ios")))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "r1.push.log"))
	if err != nil {
		t.Fatalf("transcript missing: %v", err)
	}
	if !strings.Contains(string(data), "> write memory") {
		t.Errorf("transcript = %q", data)
	}
	if len(res.Files) != 1 {
		t.Errorf("files = %v", res.Files)
	}
}

func TestPushAuditEvents(t *testing.T) {
	logger, err := audit.NewFileLogger(filepath.Join(t.TempDir(), "audit.log"), audit.RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	audit.SetDefaultLogger(logger)
	t.Cleanup(func() {
		audit.SetDefaultLogger(nil)
		logger.Close()
	})

	opener := newFakeOpener()
	opener.openErr["r2"] = errRefused
	hosts := []*inventory.ResolvedHost{
		testHost("r1", "cisco_ios"), testHost("xr1", "cisco_xr"), testHost("r2", "cisco_ios"),
	}
	agg, err := (&Runner{Opener: opener, Workers: 1}).Run(context.Background(), hosts, newPush(platform.EngineLine, true))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if c := agg.Counts(); c.OK != 1 || c.Skipped != 1 || c.Failed != 1 {
		t.Errorf("counts = %+v", c)
	}

	events, err := audit.Query(audit.Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	byHost := map[string]*audit.Event{}
	for _, e := range events {
		byHost[e.Host] = e
		if e.Operation != "push" || e.Engine != "line" || !e.Commit || e.Lines != 2 {
			t.Errorf("event %s = %+v", e.Host, e)
		}
	}
	if e := byHost["r1"]; !e.Success || e.Strategy != "line-push" {
		t.Errorf("r1 event = %+v", e)
	}
	if e := byHost["xr1"]; e.Success || !e.Skipped {
		t.Errorf("xr1 event = %+v", e)
	}
	if e := byHost["r2"]; e.Success || e.Skipped || !strings.Contains(e.Error, "connection refused") {
		t.Errorf("r2 event = %+v", e)
	}

	failed, err := audit.Query(audit.Filter{FailureOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 2 {
		t.Errorf("failure events = %d, want 2", len(failed))
	}
}
