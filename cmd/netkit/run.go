package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/operations"
	"github.com/newtron-network/netkit/pkg/report"
	"github.com/newtron-network/netkit/pkg/selector"
	"github.com/newtron-network/netkit/pkg/util"
)

// loadHosts loads the inventory and env file, resolves every host and
// applies the host selection flags. When no --group is given and the
// session is interactive, the user is asked to pick groups.
func loadHosts(chooser selector.GroupChooser) ([]*inventory.ResolvedHost, inventory.Env, error) {
	raw, err := inventory.Load(inventoryPath)
	if err != nil {
		return nil, nil, err
	}
	env, err := inventory.LoadEnv(envFile)
	if err != nil {
		return nil, nil, err
	}
	all := inventory.Resolve(raw, env)

	groups := util.FlattenCSV(groupNames)
	if len(groups) == 0 && chooser != nil {
		groups, err = chooser.ChooseGroups(selector.CollectGroups(all))
		if err != nil {
			return nil, nil, err
		}
	}

	hosts := selector.Filter(all, selector.Criteria{
		Only:   util.FlattenCSV(onlyHosts),
		Skip:   util.FlattenCSV(skipHosts),
		Groups: groups,
	})
	util.WithField("inventory", inventoryPath).Debugf("Selected %d of %d hosts", len(hosts), len(all))
	return hosts, env, nil
}

// groupChooser returns the interactive prompt, or nil when prompting is off.
func groupChooser() selector.GroupChooser {
	if noInteractive || !selector.Interactive(os.Stdin, os.Stdout) {
		return nil
	}
	return selector.NewPromptChooser()
}

// runDir is the artifact directory for a run of kind started now.
func runDir(kind string) string {
	return report.RunDir(outDir, kind, time.Now())
}

// runOperation executes op against hosts and writes the run summary into
// dir. It returns errInterrupted when the run was cut short and
// errHostsFailed when any host failed.
func runOperation(ctx context.Context, hosts []*inventory.ResolvedHost, env inventory.Env, op operations.Operation, dir string) error {
	if len(hosts) == 0 {
		return fmt.Errorf("no hosts selected from %s", inventoryPath)
	}

	runner := &operations.Runner{
		Opener:   device.NewSSHOpener(),
		Env:      env,
		Timeout:  timeout,
		Workers:  workers,
		Progress: report.NewConsoleProgress(verbose),
	}
	util.Infof("Starting %s on %d host(s)", op.Name(), len(hosts))
	util.WithOperation(op.Name()).Debug(op.Description())

	agg, err := runner.Run(ctx, hosts, op)
	if err != nil {
		return err
	}

	path, err := report.WriteSummary(dir, agg.Results())
	if err != nil {
		return err
	}
	fmt.Printf("Summary: %s\n", path)

	if ctx.Err() != nil {
		return errInterrupted
	}
	if report.ExitCode(agg) != 0 {
		return errHostsFailed
	}
	return nil
}
