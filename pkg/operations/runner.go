package operations

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/report"
	"github.com/newtron-network/netkit/pkg/util"
)

// InterruptedReason is the detail of hosts never started because the run
// was cancelled.
const InterruptedReason = "interrupted"

// Runner applies one Operation to a list of hosts.
type Runner struct {
	Opener   device.Opener
	Env      inventory.Env
	Timeout  time.Duration
	Workers  int // concurrent hosts; values below 1 mean 1
	Progress report.ProgressReporter
}

// Run validates op, then executes it against hosts. Every host yields
// exactly one result and results keep the order of hosts regardless of
// Workers. Per-host errors never abort the run. Once ctx is cancelled no
// further host is started; hosts already running finish.
func (r *Runner) Run(ctx context.Context, hosts []*inventory.ResolvedHost, op Operation) (*report.Aggregator, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Name
	}
	if r.Progress != nil {
		r.Progress.RunStart(op.Name(), names)
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	results := make([]*report.OperationResult, len(hosts))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, h := range hosts {
		if ctx.Err() != nil {
			results[i] = r.interrupted(h, op, i, len(hosts))
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = r.interrupted(h, op, i, len(hosts))
				return nil
			}
			if r.Progress != nil {
				r.Progress.HostStart(h.Name, i, len(hosts))
			}
			results[i] = r.runHost(context.WithoutCancel(ctx), h, op)
			if r.Progress != nil {
				r.Progress.HostEnd(results[i], i, len(hosts))
			}
			return nil
		})
	}
	g.Wait()

	agg := report.NewAggregator()
	for _, res := range results {
		agg.Add(res)
	}
	if r.Progress != nil {
		r.Progress.RunEnd(agg.Results(), time.Since(start))
	}
	return agg, nil
}

func (r *Runner) interrupted(h *inventory.ResolvedHost, op Operation, index, total int) *report.OperationResult {
	res := report.Skipped(h.Name, h.Address(), InterruptedReason)
	if f, ok := op.(Finisher); ok {
		f.Finish(h, res)
	}
	if r.Progress != nil {
		r.Progress.HostEnd(res, index, total)
	}
	return res
}

// runHost takes one host through credentials, session and operation.
// Nothing that happens here escapes as anything but the returned result.
func (r *Runner) runHost(ctx context.Context, h *inventory.ResolvedHost, op Operation) (res *report.OperationResult) {
	start := time.Now()
	log := util.WithHost(h.Name, h.Address()).WithField("operation", op.Name())

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("Operation panicked: %v", p)
			res = report.Failed(h.Name, h.Address(), errors.New("internal error during operation"))
		}
		res.HostName = h.Name
		res.Target = h.Address()
		res.Duration = time.Since(start)
		if f, ok := op.(Finisher); ok {
			f.Finish(h, res)
		}
		log.WithField("status", res.Status).Debug("Host done")
	}()

	if h.Err != nil {
		return report.Failed(h.Name, h.Address(), h.Err)
	}
	creds, err := inventory.SelectCredentials(h, r.Env)
	if err != nil {
		return report.Failed(h.Name, h.Address(), err)
	}
	enriched := inventory.Enrich(h, creds)
	target, err := device.TargetFor(enriched, creds, r.Timeout)
	if err != nil {
		return report.Failed(h.Name, h.Address(), err)
	}
	if s, ok := op.(Supporter); ok {
		if err := s.Supports(target); err != nil {
			return classify(h, nil, err)
		}
	}

	sess, err := r.Opener.Open(ctx, target)
	if err != nil {
		return report.Failed(h.Name, h.Address(), err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.WithError(err).Debug("Closing session")
		}
	}()

	out, err := op.Execute(ctx, sess, &Host{ResolvedHost: enriched, Target: target, Log: log})
	return classify(h, out, err)
}

// classify turns an Execute outcome into a result with a status.
func classify(h *inventory.ResolvedHost, out *report.OperationResult, err error) *report.OperationResult {
	if out == nil {
		out = &report.OperationResult{}
	}
	switch {
	case err == nil:
		out.Status = report.StatusOK
	case errors.Is(err, ErrSkipped) || errors.Is(err, util.ErrUnsupported):
		out.Status = report.StatusSkipped
		out.Detail = err.Error()
	default:
		out.Status = report.StatusFailed
		out.Err = err
	}
	out.HostName = h.Name
	out.Target = h.Address()
	return out
}
