// Package device drives CLI sessions on Cisco IOS, IOS-XE, NX-OS and IOS-XR
// devices over SSH.
//
// A Session is an interactive shell: commands are written to a PTY and the
// reply is read back until the device prompt reappears. Confirmation
// prompts (copy, write memory) are answered automatically and the pager is
// disabled on open.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/platform"
	"github.com/newtron-network/netkit/pkg/util"
)

// DefaultTimeout bounds dialing and each prompt wait.
const DefaultTimeout = 90 * time.Second

// Target is everything needed to open a session on one device.
type Target struct {
	Name     string
	Address  string
	Port     int
	Username string
	Password string
	Secret   string
	Family   platform.Family
	FastMode bool
	Timeout  time.Duration
}

// HostPort returns address:port for dialing.
func (t Target) HostPort() string {
	return fmt.Sprintf("%s:%d", t.Address, t.Port)
}

// TargetFor builds the Target for a resolved host with selected credentials.
// A port that could not be read as an integer is an *util.InvalidFieldError.
func TargetFor(h *inventory.ResolvedHost, creds inventory.Credentials, timeout time.Duration) (Target, error) {
	if h.RawPort != nil {
		return Target{}, util.NewInvalidFieldError(h.Name, "port", h.RawPort)
	}
	if h.Port <= 0 || h.Port > 65535 {
		return Target{}, util.NewInvalidFieldError(h.Name, "port", h.Port)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Target{
		Name:     h.Name,
		Address:  h.Host,
		Port:     h.Port,
		Username: creds.Username,
		Password: creds.Password,
		Secret:   creds.Secret,
		Family:   platform.Classify(h.DeviceType),
		FastMode: h.FastMode,
		Timeout:  timeout,
	}, nil
}

// Session is an open CLI session on one device.
type Session interface {
	// RunCommand runs one exec-mode command and returns its output with
	// the echoed command and trailing prompt removed.
	RunCommand(ctx context.Context, cmd string) (string, error)

	// PushConfigLines enters configuration mode, sends lines in order and
	// leaves configuration mode. The first rejected line aborts the push.
	PushConfigLines(ctx context.Context, lines []string) (string, error)

	// Upload writes data to a file on the device.
	Upload(ctx context.Context, data []byte, remotePath string) error

	Close() error
}

// Opener opens sessions. SSHOpener is the production implementation;
// tests substitute fakes.
type Opener interface {
	Open(ctx context.Context, t Target) (Session, error)
}
