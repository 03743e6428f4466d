// Package selector narrows the resolved host list by name and group before
// any device is contacted.
package selector

import (
	"sort"
	"strings"

	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/util"
)

// Criteria holds the --only, --skip and --group values.
type Criteria struct {
	Only   []string
	Skip   []string
	Groups []string
}

// Empty reports whether c selects every host.
func (c Criteria) Empty() bool {
	return len(c.Only) == 0 && len(c.Skip) == 0 && len(c.Groups) == 0
}

// Filter returns the hosts matching c, in input order.
//
// Skip is applied first and always wins: a host whose name contains any skip
// substring is dropped. A non-empty Only then requires a name substring
// match, and a non-empty Groups requires membership in one of the groups.
// Name matching is case-insensitive substring; group matching is exact and
// case-insensitive.
func Filter(hosts []*inventory.ResolvedHost, c Criteria) []*inventory.ResolvedHost {
	only := util.MergeStringSlices(c.Only)
	groups := util.MergeStringSlices(c.Groups)

	var out []*inventory.ResolvedHost
	for _, h := range hosts {
		if matchesAny(h.Name, c.Skip) {
			continue
		}
		if len(only) > 0 && !matchesAny(h.Name, only) {
			continue
		}
		if len(groups) > 0 && !inAnyGroup(h, groups) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// CollectGroups returns every group name used by hosts, sorted
// case-insensitively. Names differing only in case are listed once.
func CollectGroups(hosts []*inventory.ResolvedHost) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, h := range hosts {
		for _, g := range h.Groups {
			key := strings.ToLower(g)
			if seen[key] {
				continue
			}
			seen[key] = true
			groups = append(groups, g)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i]) < strings.ToLower(groups[j])
	})
	return groups
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && util.ContainsFold(name, p) {
			return true
		}
	}
	return false
}

func inAnyGroup(h *inventory.ResolvedHost, groups []string) bool {
	for _, g := range groups {
		if h.InGroup(g) {
			return true
		}
	}
	return false
}
