// Package operations implements the per-host operations netkit runs across
// an inventory (show, backup, push) and the batch Runner that drives them.
package operations

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/report"
)

// ErrSkipped marks a host the operation deliberately left untouched.
// Results wrapping it (or util.ErrUnsupported) are SKIPPED, not FAILED.
var ErrSkipped = errors.New("skipped")

// Operation is one action applied to every selected host.
type Operation interface {
	// Name returns the operation name
	Name() string

	// Description returns a human-readable description
	Description() string

	// Validate checks the operation inputs once, before any host is contacted.
	Validate() error

	// Execute runs against one open session. The returned result carries
	// Detail and Files; the Runner fills in host, target, status and timing.
	// A non-nil error fails the host unless it wraps ErrSkipped or
	// util.ErrUnsupported.
	Execute(ctx context.Context, sess device.Session, h *Host) (*report.OperationResult, error)
}

// Supporter is implemented by operations that can rule a host out before
// a session is opened.
type Supporter interface {
	Supports(t device.Target) error
}

// Finisher is implemented by operations that need to see every final
// result, including hosts that never reached Execute.
type Finisher interface {
	Finish(h *inventory.ResolvedHost, res *report.OperationResult)
}

// Host is the per-host context handed to Execute.
type Host struct {
	*inventory.ResolvedHost
	Target device.Target
	Log    *logrus.Entry
}
