package platform

import (
	"context"
	"strings"

	"github.com/newtron-network/netkit/pkg/util"
)

// FallbackFileSystems are probed after the override, inventory and family
// default candidates.
var FallbackFileSystems = []string{"bootflash:", "flash:", "volatile:", "logflash:"}

// probeFailureMarkers appear in a "dir <fs>" reply for a missing filesystem.
var probeFailureMarkers = []string{"No such file or directory", "Error", "Invalid", "not found"}

// FilesystemCandidates orders the filesystems to try: CLI override, the
// inventory's dest_file_system, the family default, then the fallbacks.
// Empty entries are dropped and duplicates keep their first position.
func FilesystemCandidates(override, declared string, f Family) []string {
	return util.MergeStringSlices(
		[]string{normalizeFS(override), normalizeFS(declared), DefaultFileSystem(f)},
		FallbackFileSystems,
	)
}

// PickFilesystem returns the first candidate whose probe succeeds. When all
// probes fail it returns the first candidate so the transfer step reports
// the real error. An empty candidate list yields "".
func PickFilesystem(ctx context.Context, candidates []string, probe func(ctx context.Context, fs string) bool) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, fs := range candidates {
		if ctx.Err() != nil {
			break
		}
		if probe(ctx, fs) {
			return fs
		}
	}
	return candidates[0]
}

// ProbeFailed reports whether a "dir <fs>" reply indicates the filesystem
// is not usable.
func ProbeFailed(output string) bool {
	for _, marker := range probeFailureMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// normalizeFS appends the colon to a bare filesystem name ("bootflash").
func normalizeFS(fs string) string {
	fs = strings.TrimSpace(fs)
	if fs != "" && !strings.Contains(fs, ":") {
		fs += ":"
	}
	return fs
}
