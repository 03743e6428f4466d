package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/platform"
	"github.com/newtron-network/netkit/pkg/report"
	"github.com/newtron-network/netkit/pkg/util"
)

// Backup saves running and startup configuration plus device facts.
type Backup struct {
	OutDir string
}

// Name returns the operation name
func (op *Backup) Name() string { return "backup" }

// Description returns a human-readable description
func (op *Backup) Description() string {
	return "save running/startup configuration and facts to " + op.OutDir
}

// Validate checks all preconditions
func (op *Backup) Validate() error {
	return NewPreconditionChecker(op.Name()).
		RequireWritableDir("outdir", op.OutDir).
		Result()
}

// Execute writes <host>.running.cfg, <host>.startup.cfg when the device has
// one, and <host>.facts.json.
func (op *Backup) Execute(ctx context.Context, sess device.Session, h *Host) (*report.OperationResult, error) {
	res := &report.OperationResult{}
	saved := []string{}
	var note string

	running, err := sess.RunCommand(ctx, "show running-config")
	if err != nil {
		return res, fmt.Errorf("reading running-config: %w", err)
	}
	path, err := writeArtifact(op.OutDir, hostFile(h.Name, ".running.cfg"), []byte(running+"\n"))
	if err != nil {
		return res, err
	}
	res.Files = append(res.Files, path)
	saved = append(saved, "running")

	// IOS-XR keeps no separate startup configuration.
	if h.Target.Family == platform.IOSXR {
		note = "no startup-config on IOS-XR"
	} else {
		startup, err := sess.RunCommand(ctx, "show startup-config")
		switch {
		case err != nil && isDeviceRejection(err):
			h.Log.WithError(err).Warn("No startup-config available")
			note = "startup-config unavailable"
		case err != nil:
			return res, fmt.Errorf("reading startup-config: %w", err)
		case strings.TrimSpace(startup) != "":
			path, err := writeArtifact(op.OutDir, hostFile(h.Name, ".startup.cfg"), []byte(startup+"\n"))
			if err != nil {
				return res, err
			}
			res.Files = append(res.Files, path)
			saved = append(saved, "startup")
		}
	}

	version, err := sess.RunCommand(ctx, "show version")
	if err != nil {
		return res, fmt.Errorf("reading version: %w", err)
	}
	facts, err := platform.ParseVersion(h.Target.Family, version)
	if err != nil {
		return res, err
	}
	if path, err = writeJSON(op.OutDir, hostFile(h.Name, ".facts.json"), facts); err != nil {
		return res, err
	}
	res.Files = append(res.Files, path)
	saved = append(saved, "facts")

	res.Detail = "saved " + strings.Join(saved, ", ")
	if note != "" {
		res.Detail += " (" + note + ")"
	}
	return res, nil
}

// Finish leaves <host>_ERROR.txt behind for every failed host.
func (op *Backup) Finish(h *inventory.ResolvedHost, res *report.OperationResult) {
	if res.Status != report.StatusFailed {
		return
	}
	path, err := writeArtifact(op.OutDir, hostFile(h.Name, "_ERROR.txt"), []byte(res.Message()+"\n"))
	if err != nil {
		util.WithHost(h.Name, h.Address()).WithError(err).Warn("Could not save error file")
		return
	}
	res.Files = append(res.Files, path)
}
