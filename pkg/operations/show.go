package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/report"
	"github.com/newtron-network/netkit/pkg/util"
)

// ErrorKey holds the failure message in a host's show output file.
const ErrorKey = "__error__"

// Show runs a list of exec commands and saves the replies per host.
type Show struct {
	Commands []string
	OutDir   string
	SaveRaw  bool // also write one text file per command
}

// Name returns the operation name
func (op *Show) Name() string { return "show" }

// Description returns a human-readable description
func (op *Show) Description() string {
	return fmt.Sprintf("run %d command(s), save to %s", len(op.Commands), op.OutDir)
}

// Validate checks all preconditions
func (op *Show) Validate() error {
	return NewPreconditionChecker(op.Name()).
		RequireNonEmpty("commands", len(op.Commands)).
		RequireWritableDir("outdir", op.OutDir).
		Result()
}

// Execute runs every command in order. The first failing command stops the
// host; outputs gathered so far are saved along with the error.
func (op *Show) Execute(ctx context.Context, sess device.Session, h *Host) (*report.OperationResult, error) {
	outputs := newOrderedOutputs()
	var runErr error
	for _, cmd := range op.Commands {
		out, err := sess.RunCommand(ctx, cmd)
		if err != nil {
			runErr = err
			outputs.Set(ErrorKey, err.Error())
			break
		}
		outputs.Set(cmd, out)
	}

	res := &report.OperationResult{}
	files, err := op.save(h.Name, outputs)
	res.Files = files
	if runErr != nil {
		return res, runErr
	}
	if err != nil {
		return res, err
	}
	res.Detail = fmt.Sprintf("%d command(s)", len(op.Commands))
	return res, nil
}

func (op *Show) save(host string, outputs *orderedOutputs) ([]string, error) {
	var files []string
	path, err := writeJSON(op.OutDir, hostFile(host, ".json"), outputs)
	if err != nil {
		return nil, err
	}
	files = append(files, path)

	if !op.SaveRaw {
		return files, nil
	}
	for _, cmd := range outputs.keys {
		if strings.HasPrefix(cmd, "__") {
			continue
		}
		out, _ := outputs.Get(cmd)
		name := hostFile(host, "__"+util.SafeFileName(cmd)+".txt")
		path, err := writeArtifact(op.OutDir, name, []byte(out))
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

// Finish writes <host>.json holding only the error for hosts that failed
// before any command ran.
func (op *Show) Finish(h *inventory.ResolvedHost, res *report.OperationResult) {
	if res.Status != report.StatusFailed || len(res.Files) > 0 {
		return
	}
	outputs := newOrderedOutputs()
	outputs.Set(ErrorKey, res.Message())
	if path, err := writeJSON(op.OutDir, hostFile(h.Name, ".json"), outputs); err == nil {
		res.Files = append(res.Files, path)
	} else {
		util.WithHost(h.Name, h.Address()).WithError(err).Warn("Could not save error output")
	}
}
