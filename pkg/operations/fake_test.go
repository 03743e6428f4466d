package operations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/util"
)

// fakeSession answers commands from canned replies and records what it was sent.
type fakeSession struct {
	mu        sync.Mutex
	replies   map[string]string
	errs      map[string]error
	uploadErr error
	pushErr   error

	commands []string
	pushed   []string
	uploads  map[string]string
	closed   bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		replies: map[string]string{},
		errs:    map[string]error{},
		uploads: map[string]string{},
	}
}

func (s *fakeSession) RunCommand(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	if err, ok := s.errs[cmd]; ok {
		return "", err
	}
	return s.replies[cmd], nil
}

func (s *fakeSession) PushConfigLines(ctx context.Context, lines []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return "", s.pushErr
	}
	s.pushed = append(s.pushed, lines...)
	return fmt.Sprintf("pushed %d\n", len(lines)), nil
}

func (s *fakeSession) Upload(ctx context.Context, data []byte, remotePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads[remotePath] = string(data)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) ran(cmd string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if c == cmd {
			return true
		}
	}
	return false
}

// fakeOpener hands out one fakeSession per host name.
type fakeOpener struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	openErr  map[string]error
	delay    time.Duration
	opened   []string
	targets  map[string]device.Target

	active    int32
	maxActive int32
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		sessions: map[string]*fakeSession{},
		openErr:  map[string]error{},
		targets:  map[string]device.Target{},
	}
}

func (o *fakeOpener) session(name string) *fakeSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[name]
	if !ok {
		s = newFakeSession()
		o.sessions[name] = s
	}
	return s
}

func (o *fakeOpener) Open(ctx context.Context, t device.Target) (device.Session, error) {
	n := atomic.AddInt32(&o.active, 1)
	defer atomic.AddInt32(&o.active, -1)
	for {
		m := atomic.LoadInt32(&o.maxActive)
		if n <= m || atomic.CompareAndSwapInt32(&o.maxActive, m, n) {
			break
		}
	}
	if o.delay > 0 {
		time.Sleep(o.delay)
	}

	o.mu.Lock()
	o.opened = append(o.opened, t.Name)
	o.targets[t.Name] = t
	err := o.openErr[t.Name]
	o.mu.Unlock()
	if err != nil {
		return nil, util.NewConnectionError(t.HostPort(), err)
	}
	return o.session(t.Name), nil
}

func (o *fakeOpener) openedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened)
}

func testHost(name, deviceType string) *inventory.ResolvedHost {
	return &inventory.ResolvedHost{
		Name:       name,
		Host:       name + ".lab",
		DeviceType: deviceType,
		Port:       22,
		Username:   "admin",
		Password:   "admin",
		FastMode:   true,
	}
}

// opHost wraps a resolved host the way the Runner does for direct Execute calls.
func opHost(h *inventory.ResolvedHost) *Host {
	target, err := device.TargetFor(h, inventory.Credentials{Username: h.Username, Password: h.Password}, 0)
	if err != nil {
		panic(err)
	}
	return &Host{ResolvedHost: h, Target: target, Log: util.WithHost(h.Name, h.Address())}
}

var errRefused = errors.New("connection refused")
