package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/newtron-network/netkit/pkg/util"
)

const layeredInventory = `
defaults:
  device_type: cisco_ios
  port: 22
groups:
  core:
    device_type: cisco_nxos
  dc1:
    dest_file_system: bootflash:
hosts:
  zeta:
    host: 10.0.0.9
  alpha:
    host: 10.0.0.1
    groups: [core, dc1]
  mid:
    host: 10.0.0.5
`

func entryNames(raw *RawInventory) []string {
	var names []string
	for _, h := range raw.Hosts {
		names = append(names, h.Name)
	}
	return names
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	raw, err := Parse([]byte(layeredInventory))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, want := entryNames(raw), []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(got, want) {
		t.Errorf("host order = %v, want %v", got, want)
	}
	if raw.Defaults["device_type"] != "cisco_ios" {
		t.Errorf("defaults.device_type = %v", raw.Defaults["device_type"])
	}
	if raw.Groups["core"]["device_type"] != "cisco_nxos" {
		t.Errorf("groups.core.device_type = %v", raw.Groups["core"]["device_type"])
	}
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "hosts mapping without defaults or groups",
			input: "hosts:\n  r1:\n    host: 10.0.0.1\n  r2:\n",
			want:  []string{"r1", "r2"},
		},
		{
			name:  "hosts list",
			input: "hosts:\n  - name: r1\n    host: 10.0.0.1\n  - host: 10.0.0.2\n",
			want:  []string{"r1", "10.0.0.2"},
		},
		{
			name:  "top-level list",
			input: "- name: sw1\n  host: 192.0.2.1\n- name: sw2\n  host: 192.0.2.2\n",
			want:  []string{"sw1", "sw2"},
		},
		{
			name:  "null sections",
			input: "defaults:\ngroups:\nhosts:\n  r1:\n    host: 10.0.0.1\n",
			want:  []string{"r1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := entryNames(raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("hosts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseListEntryDropsNameKey(t *testing.T) {
	raw, err := Parse([]byte("hosts:\n  - name: r1\n    host: 10.0.0.1\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := raw.Hosts[0].Config["name"]; ok {
		t.Errorf("Config should not keep the name key: %v", raw.Hosts[0].Config)
	}
	if raw.Hosts[0].Config["host"] != "10.0.0.1" {
		t.Errorf("Config.host = %v", raw.Hosts[0].Config["host"])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
	}{
		{"empty document", "", util.ErrInvalidConfig},
		{"missing hosts", "defaults:\n  port: 22\n", util.ErrInvalidConfig},
		{"scalar document", "just text\n", util.ErrInvalidConfig},
		{"groups not mapping", "groups: [a, b]\nhosts:\n  r1: {host: x}\n", util.ErrValidationFailed},
		{"host not mapping", "hosts:\n  r1: 10.0.0.1\n", util.ErrValidationFailed},
		{"list entry without name", "hosts:\n  - port: 22\n", util.ErrValidationFailed},
		{"duplicate mapping host", "hosts:\n  r1: {host: 10.0.0.1}\n  r1: {host: 10.0.0.2}\n", util.ErrValidationFailed},
		{"duplicate list host", "hosts:\n  - {name: r1, host: 10.0.0.1}\n  - {name: r1, host: 10.0.0.2}\n", util.ErrValidationFailed},
		{"duplicate list address", "- host: 10.0.0.1\n- host: 10.0.0.1\n", util.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Parse() error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestLoadDuplicateHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.yaml")
	if err := os.WriteFile(path, []byte("hosts:\n  r1: {host: 10.0.0.1}\n  r1: {host: 10.0.0.2}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, util.ErrInventoryLoad) {
		t.Fatalf("Load() error = %v, want ErrInventoryLoad", err)
	}
	if !strings.Contains(err.Error(), `duplicate host "r1"`) {
		t.Errorf("Load() error = %v, want it to name the duplicate", err)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("hosts: [unclosed\n")); err == nil {
		t.Error("Parse() error = nil for invalid YAML")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		path := filepath.Join(dir, "inventory.yaml")
		if err := os.WriteFile(path, []byte(layeredInventory), 0644); err != nil {
			t.Fatal(err)
		}
		raw, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(raw.Hosts) != 3 {
			t.Errorf("len(Hosts) = %d, want 3", len(raw.Hosts))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		if !errors.Is(err, util.ErrInventoryLoad) {
			t.Errorf("Load() error = %v, want ErrInventoryLoad", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Load() error = %v, want it to keep os.ErrNotExist", err)
		}
	})

	t.Run("unparsable", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("defaults: {}\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		var le *util.InventoryLoadError
		if !errors.As(err, &le) {
			t.Fatalf("Load() error = %v, want *InventoryLoadError", err)
		}
		if le.Path != path {
			t.Errorf("Path = %q, want %q", le.Path, path)
		}
	})
}
