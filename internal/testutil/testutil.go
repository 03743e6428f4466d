//go:build integration

// Package testutil provides helpers for integration tests against a real
// lab device. Tests skip unless NETKIT_LAB_HOST is set.
package testutil

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/newtron-network/netkit/pkg/device"
	"github.com/newtron-network/netkit/pkg/inventory"
)

// LabHost returns the lab device described by NETKIT_LAB_* variables:
// HOST (required), PORT, DEVICE_TYPE, USERNAME, PASSWORD and SECRET.
func LabHost() *inventory.ResolvedHost {
	addr := os.Getenv("NETKIT_LAB_HOST")
	if addr == "" {
		return nil
	}
	port := inventory.DefaultPort
	if p, err := strconv.Atoi(os.Getenv("NETKIT_LAB_PORT")); err == nil {
		port = p
	}
	deviceType := os.Getenv("NETKIT_LAB_DEVICE_TYPE")
	if deviceType == "" {
		deviceType = inventory.DefaultDeviceType
	}
	return &inventory.ResolvedHost{
		Name:       "lab1",
		Host:       addr,
		Port:       port,
		DeviceType: deviceType,
		Username:   os.Getenv("NETKIT_LAB_USERNAME"),
		Password:   os.Getenv("NETKIT_LAB_PASSWORD"),
		Secret:     os.Getenv("NETKIT_LAB_SECRET"),
		FastMode:   true,
	}
}

// SkipIfNoLab skips the test unless the lab device accepts TCP connections.
func SkipIfNoLab(t *testing.T) *inventory.ResolvedHost {
	t.Helper()

	h := LabHost()
	if h == nil {
		t.Skip("no lab device: set NETKIT_LAB_HOST and credentials")
	}
	conn, err := net.DialTimeout("tcp", h.Address(), 2*time.Second)
	if err != nil {
		t.Skipf("lab device not reachable at %s: %v", h.Address(), err)
	}
	conn.Close()
	return h
}

// LabTarget returns the Target for the lab device, skipping when absent.
func LabTarget(t *testing.T) device.Target {
	t.Helper()

	h := SkipIfNoLab(t)
	target, err := device.TargetFor(h, inventory.Credentials{
		Username: h.Username,
		Password: h.Password,
		Secret:   h.Secret,
	}, 30*time.Second)
	if err != nil {
		t.Fatalf("building lab target: %v", err)
	}
	return target
}

// OpenSession opens an SSH session on the lab device and closes it when
// the test ends.
func OpenSession(t *testing.T) (device.Session, device.Target) {
	t.Helper()

	target := LabTarget(t)
	sess, err := device.NewSSHOpener().Open(Context(t), target)
	if err != nil {
		t.Fatalf("opening lab session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess, target
}

// Context returns a context with a 60s timeout, cancelled when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)
	return ctx
}
