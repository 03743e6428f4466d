package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newtron-network/netkit/pkg/util"
)

// Defaults applied after layering when the inventory leaves a field unset.
const (
	DefaultDeviceType = "cisco_ios"
	DefaultPort       = 22
)

// ResolvedHost is the connection record for one inventory host after
// layering, expansion and coercion. Err is set when the host cannot be used
// (for example, no address after layering); other hosts are unaffected.
type ResolvedHost struct {
	Name           string
	Host           string
	DeviceType     string
	Username       string
	Password       string
	Secret         string
	Port           int
	RawPort        interface{} // original value when port is not an integer
	FastMode       bool
	Groups         []string
	DestFileSystem string
	Vars           map[string]interface{}
	Err            error
}

// Address returns host:port, or just the host when the port is unusable.
func (h *ResolvedHost) Address() string {
	if h.RawPort != nil {
		return h.Host
	}
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// InGroup reports whether the host lists group, ignoring case.
func (h *ResolvedHost) InGroup(group string) bool {
	for _, g := range h.Groups {
		if strings.EqualFold(g, group) {
			return true
		}
	}
	return false
}

// Resolve layers every host of raw and returns one ResolvedHost per entry,
// in declaration order. A host that fails resolution carries Err instead of
// aborting the others.
func Resolve(raw *RawInventory, env Env) []*ResolvedHost {
	hosts := make([]*ResolvedHost, 0, len(raw.Hosts))
	for _, entry := range raw.Hosts {
		hosts = append(hosts, resolveHost(raw, entry, env))
	}
	return hosts
}

// Layer merges defaults, the host's groups in listed order, then the host
// itself. The result shares no storage with raw.
func Layer(raw *RawInventory, entry HostEntry) map[string]interface{} {
	merged := util.DeepCopy(raw.Defaults).(map[string]interface{})
	for _, g := range stringList(entry.Config["groups"]) {
		if groupCfg, ok := raw.Groups[g]; ok {
			merged = util.MergeMaps(merged, util.DeepCopy(groupCfg).(map[string]interface{}))
		}
	}
	return util.MergeMaps(merged, util.DeepCopy(entry.Config).(map[string]interface{}))
}

func resolveHost(raw *RawInventory, entry HostEntry, env Env) *ResolvedHost {
	vars := Expand(Layer(raw, entry), env).(map[string]interface{})

	h := &ResolvedHost{
		Name:           entry.Name,
		Host:           stringValue(vars["host"]),
		DeviceType:     stringValue(vars["device_type"]),
		Username:       stringValue(vars["username"]),
		Password:       stringValue(vars["password"]),
		Secret:         stringValue(vars["secret"]),
		Port:           DefaultPort,
		FastMode:       true,
		Groups:         stringList(entry.Config["groups"]),
		DestFileSystem: stringValue(vars["dest_file_system"]),
		Vars:           vars,
	}
	if h.DeviceType == "" {
		h.DeviceType = DefaultDeviceType
	}

	if v, ok := vars["fast_cli"]; ok {
		if b, ok := coerceBool(v); ok {
			vars["fast_cli"] = b
			h.FastMode = b
		}
	}

	if v, ok := vars["port"]; ok && v != nil {
		if port, ok := coercePort(v); ok {
			vars["port"] = port
			h.Port = port
		} else {
			h.RawPort = v
		}
	}

	if h.Host == "" {
		h.Err = util.NewMissingFieldError(entry.Name, "host")
	}
	return h
}

// coerceBool accepts booleans and the strings 1/0, true/false, yes/no,
// on/off in any case. Anything else is reported as not coercible.
func coerceBool(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off":
			return false, true
		}
	}
	return false, false
}

func coercePort(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

// stringList reads a YAML sequence of names; a single scalar is a one-element list.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}
