package operations

import (
	"os"

	"github.com/newtron-network/netkit/pkg/util"
)

// PreconditionChecker accumulates input checks for an operation.
type PreconditionChecker struct {
	operation string
	errors    []error
}

// NewPreconditionChecker creates a new precondition checker
func NewPreconditionChecker(operation string) *PreconditionChecker {
	return &PreconditionChecker{operation: operation}
}

// Check runs a custom check
func (p *PreconditionChecker) Check(condition bool, resource, precondition, details string) *PreconditionChecker {
	if !condition {
		p.errors = append(p.errors, util.NewPreconditionError(p.operation, resource, precondition, details))
	}
	return p
}

// RequireNonEmpty checks that a list input has at least one entry.
func (p *PreconditionChecker) RequireNonEmpty(resource string, n int) *PreconditionChecker {
	return p.Check(n > 0, resource, "must not be empty", "")
}

// RequireWritableDir checks that dir exists or can be created.
func (p *PreconditionChecker) RequireWritableDir(resource, dir string) *PreconditionChecker {
	if dir == "" {
		return p.Check(false, resource, "output directory required", "")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return p.Check(false, resource, "output directory must be writable", err.Error())
	}
	return p
}

// Result returns the first error or nil if all checks passed
func (p *PreconditionChecker) Result() error {
	switch len(p.errors) {
	case 0:
		return nil
	case 1:
		return p.errors[0]
	}
	msgs := make([]string, len(p.errors))
	for i, e := range p.errors {
		msgs[i] = e.Error()
	}
	return util.NewValidationError(msgs...)
}

// HasErrors returns true if there are any errors
func (p *PreconditionChecker) HasErrors() bool {
	return len(p.errors) > 0
}
