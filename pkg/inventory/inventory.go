// Package inventory loads the YAML device inventory and resolves it into
// per-host connection records.
//
// An inventory has three layers: defaults, named groups and hosts. Each host
// is resolved by merging defaults, then every group the host lists (left to
// right), then the host's own keys, after which whole-value ${VAR}
// placeholders are expanded from an environment snapshot.
package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/netkit/pkg/util"
)

// DefaultPath is used when neither --inventory nor settings name a file.
const DefaultPath = "inventory.yaml"

// HostEntry is one host as declared in the inventory, before layering.
type HostEntry struct {
	Name   string
	Config map[string]interface{}
}

// RawInventory is the parsed inventory document. Hosts keep document order.
type RawInventory struct {
	Defaults map[string]interface{}
	Groups   map[string]map[string]interface{}
	Hosts    []HostEntry
}

// Load reads and parses an inventory file. Every failure is an
// *util.InventoryLoadError.
func Load(path string) (*RawInventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, util.NewInventoryLoadError(path, err)
	}
	raw, err := Parse(data)
	if err != nil {
		return nil, util.NewInventoryLoadError(path, err)
	}
	return raw, nil
}

// Parse parses inventory YAML. Three shapes are accepted:
//
//	defaults/groups/hosts with hosts as a mapping of name to settings
//	a mapping with hosts as a list of settings mappings
//	a top-level list of settings mappings
//
// List entries are named by their "name" key, falling back to "host".
func Parse(data []byte) (*RawInventory, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", util.ErrInvalidConfig)
	}

	raw := &RawInventory{
		Defaults: map[string]interface{}{},
		Groups:   map[string]map[string]interface{}{},
	}
	v := &util.ValidationBuilder{}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		raw.Hosts = parseHostList(root, v)
	case yaml.MappingNode:
		var hostsNode *yaml.Node
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, val := root.Content[i].Value, root.Content[i+1]
			switch key {
			case "defaults":
				raw.Defaults = decodeMapping(val, "defaults", v)
			case "groups":
				raw.Groups = parseGroups(val, v)
			case "hosts":
				hostsNode = val
			}
		}
		if hostsNode == nil {
			return nil, fmt.Errorf("%w: missing required key \"hosts\"", util.ErrInvalidConfig)
		}
		switch hostsNode.Kind {
		case yaml.MappingNode:
			raw.Hosts = parseHostMap(hostsNode, v)
		case yaml.SequenceNode:
			raw.Hosts = parseHostList(hostsNode, v)
		default:
			if !isNull(hostsNode) {
				v.AddErrorf("hosts must be a mapping or a list (line %d)", hostsNode.Line)
			}
		}
	default:
		return nil, fmt.Errorf("%w: expected a mapping or a list at the top level", util.ErrInvalidConfig)
	}

	if err := v.Build(); err != nil {
		return nil, err
	}
	return raw, nil
}

func parseGroups(node *yaml.Node, v *util.ValidationBuilder) map[string]map[string]interface{} {
	groups := map[string]map[string]interface{}{}
	if isNull(node) {
		return groups
	}
	if node.Kind != yaml.MappingNode {
		v.AddErrorf("groups must be a mapping (line %d)", node.Line)
		return groups
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		groups[name] = decodeMapping(node.Content[i+1], "group "+name, v)
	}
	return groups
}

func parseHostMap(node *yaml.Node, v *util.ValidationBuilder) []HostEntry {
	hosts := make([]HostEntry, 0, len(node.Content)/2)
	seen := map[string]bool{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if seen[name] {
			v.AddErrorf("duplicate host %q (line %d)", name, node.Content[i].Line)
			continue
		}
		seen[name] = true
		hosts = append(hosts, HostEntry{
			Name:   name,
			Config: decodeMapping(node.Content[i+1], "host "+name, v),
		})
	}
	return hosts
}

func parseHostList(node *yaml.Node, v *util.ValidationBuilder) []HostEntry {
	hosts := make([]HostEntry, 0, len(node.Content))
	seen := map[string]bool{}
	for i, item := range node.Content {
		cfg := decodeMapping(item, fmt.Sprintf("hosts[%d]", i), v)
		name, _ := cfg["name"].(string)
		if name == "" {
			name, _ = cfg["host"].(string)
		}
		if name == "" {
			v.AddErrorf("hosts[%d]: entry needs a name or host key (line %d)", i, item.Line)
			continue
		}
		if seen[name] {
			v.AddErrorf("hosts[%d]: duplicate host %q (line %d)", i, name, item.Line)
			continue
		}
		seen[name] = true
		delete(cfg, "name")
		hosts = append(hosts, HostEntry{Name: name, Config: cfg})
	}
	return hosts
}

// decodeMapping decodes a mapping node; null decodes to an empty map.
func decodeMapping(node *yaml.Node, what string, v *util.ValidationBuilder) map[string]interface{} {
	out := map[string]interface{}{}
	if isNull(node) {
		return out
	}
	if node.Kind != yaml.MappingNode {
		v.AddErrorf("%s must be a mapping (line %d)", what, node.Line)
		return out
	}
	if err := node.Decode(&out); err != nil {
		v.AddErrorf("%s: %v", what, err)
	}
	return out
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}
