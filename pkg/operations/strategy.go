package operations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newtron-network/netkit/pkg/util"
)

// ErrFallback is wrapped by a strategy that could not apply the change and
// wants the next strategy in the list to try.
var ErrFallback = errors.New("fall back to next strategy")

// StrategyResult is what a successful push strategy reports.
type StrategyResult struct {
	Strategy string
	Detail   string
	Diff     string
	Changed  bool
}

// pushStrategy is one way of getting a snippet onto a device.
type pushStrategy struct {
	name string
	run  func(ctx context.Context, pc *pushContext) (*StrategyResult, error)
}

// runStrategies tries strategies in order. Only an error wrapping
// ErrFallback moves on to the next one; any other error ends the push.
func runStrategies(ctx context.Context, pc *pushContext, strategies []pushStrategy) (*StrategyResult, error) {
	var fallbacks []string
	for _, s := range strategies {
		pc.host.Log.WithField("strategy", s.name).Debug("Trying push strategy")
		res, err := s.run(ctx, pc)
		if err == nil {
			if res.Strategy == "" {
				res.Strategy = s.name
			}
			return res, nil
		}
		if !errors.Is(err, ErrFallback) {
			pc.strategy = s.name
			return nil, err
		}
		pc.host.Log.WithField("strategy", s.name).WithError(err).Info("Push strategy fell back")
		fallbacks = append(fallbacks, err.Error())
	}
	return nil, fmt.Errorf("no push strategy succeeded: %s", strings.Join(fallbacks, "; "))
}

func fallback(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFallback, fmt.Sprintf(format, args...))
}

// isDeviceRejection reports whether err is the device refusing a command,
// as opposed to a transport failure.
func isDeviceRejection(err error) bool {
	var ce *util.CommandError
	return errors.As(err, &ce) && ce.Err == nil
}

// Messages a device returns when file transfer is turned off.
var transferDisabledMarkers = []string{
	"scp file transfers are not enabled",
	"ip scp server enable",
	"feature scp-server",
	"subsystem request failed",
}

// isTransferDisabled reports whether an upload failed because SCP/SFTP is
// disabled on the device.
func isTransferDisabled(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transferDisabledMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
