// Package platform classifies Cisco device types into vendor families and
// holds the per-family defaults netkit needs: filesystems, driver names,
// push-engine support and show-version parsing.
package platform

import (
	"fmt"
	"strings"
)

// Family is a normalized Cisco platform.
type Family int

const (
	IOS Family = iota
	IOSXR
	NXOS
)

func (f Family) String() string {
	switch f {
	case IOSXR:
		return "iosxr"
	case NXOS:
		return "nxos"
	default:
		return "ios"
	}
}

// Classify maps a free-form device type ("cisco_nxos", "cisco_xr",
// "ios-xe") to a Family. Unknown types are IOS.
func Classify(deviceType string) Family {
	dt := strings.ToLower(deviceType)
	switch {
	case strings.Contains(dt, "xr"):
		return IOSXR
	case strings.Contains(dt, "nx"):
		return NXOS
	default:
		return IOS
	}
}

// DefaultFileSystem is where candidate configs are staged when the
// inventory does not name a filesystem.
func DefaultFileSystem(f Family) string {
	switch f {
	case NXOS:
		return "bootflash:"
	case IOSXR:
		return "disk0:"
	default:
		return "flash:"
	}
}

// DriverName returns the session driver vocabulary for f.
func DriverName(f Family) string {
	switch f {
	case NXOS:
		return "cisco_nxos"
	case IOSXR:
		return "cisco_xr"
	default:
		return "cisco_ios"
	}
}

// Engine selects how a configuration snippet is applied.
type Engine string

const (
	// EngineMerge stages a candidate, diffs it and commits or discards it.
	EngineMerge Engine = "merge"
	// EngineLine sends the snippet line by line in configuration mode.
	EngineLine Engine = "line"
)

// ParseEngine validates an --engine flag value.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case EngineMerge:
		return EngineMerge, nil
	case EngineLine:
		return EngineLine, nil
	}
	return "", fmt.Errorf("unknown engine %q (valid: merge, line)", s)
}

// SupportsPush reports whether engine can push configuration to f.
// IOS-XR needs an explicit commit and is only handled by the merge engine.
func SupportsPush(f Family, engine Engine) bool {
	return !(f == IOSXR && engine == EngineLine)
}
