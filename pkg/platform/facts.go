package platform

import (
	"fmt"
	"strings"

	"github.com/netxops/gotextfsm"
)

// Facts is the summary extracted from "show version".
type Facts struct {
	Hostname string `json:"hostname,omitempty"`
	Vendor   string `json:"vendor"`
	Family   string `json:"os"`
	Version  string `json:"os_version,omitempty"`
	Model    string `json:"model,omitempty"`
	Serial   string `json:"serial_number,omitempty"`
	Uptime   string `json:"uptime,omitempty"`
}

const iosVersionTemplate = `Value HOSTNAME (\S+)
Value VERSION ([^,\s]+)
Value UPTIME (.+)
Value HARDWARE (\S+)
Value SERIAL (\S+)

Start
  ^.*Software.*Version\s+${VERSION}
  ^\s*${HOSTNAME}\s+uptime\s+is\s+${UPTIME}
  ^[Cc]isco\s+${HARDWARE}\s+\(.+\)\s+processor
  ^[Pp]rocessor\s+[Bb]oard\s+ID\s+${SERIAL}
`

const nxosVersionTemplate = `Value HOSTNAME (\S+)
Value VERSION (\S+)
Value UPTIME (.+)
Value HARDWARE (.+?)
Value SERIAL (\S+)

Start
  ^\s*(?:NXOS|NX-OS|system):\s+version\s+${VERSION}
  ^\s*cisco\s+${HARDWARE}\s+[Cc]hassis
  ^\s*Device\s+name:\s+${HOSTNAME}
  ^\s*Processor\s+[Bb]oard\s+ID\s+${SERIAL}
  ^Kernel\s+uptime\s+is\s+${UPTIME}
`

const iosxrVersionTemplate = `Value HOSTNAME (\S+)
Value VERSION ([^\s\[,]+)
Value UPTIME (.+)
Value HARDWARE (.+?)
Value SERIAL (\S+)

Start
  ^.*IOS\s+XR\s+Software.*Version\s+${VERSION}
  ^\s*${HOSTNAME}\s+uptime\s+is\s+${UPTIME}
  ^[Cc]isco\s+${HARDWARE}\s+(?:\(.*\)\s+)?processor
  ^\s*Processor\s+[Bb]oard\s+ID\s+${SERIAL}
`

var versionTemplates = map[Family]string{
	IOS:   iosVersionTemplate,
	NXOS:  nxosVersionTemplate,
	IOSXR: iosxrVersionTemplate,
}

// ParseVersion extracts Facts from a "show version" reply. Fields the
// template cannot find are left empty.
func ParseVersion(f Family, output string) (*Facts, error) {
	facts := &Facts{Vendor: "Cisco", Family: f.String()}

	fsm := gotextfsm.TextFSM{}
	if err := fsm.ParseString(versionTemplates[f]); err != nil {
		return nil, fmt.Errorf("parsing %s version template: %w", f, err)
	}
	parser := gotextfsm.ParserOutput{}
	if err := parser.ParseTextString(output, fsm, true); err != nil {
		return nil, fmt.Errorf("parsing show version: %w", err)
	}

	for _, record := range parser.Dict {
		facts.Hostname = firstNonEmpty(facts.Hostname, record["HOSTNAME"])
		facts.Version = firstNonEmpty(facts.Version, record["VERSION"])
		facts.Uptime = firstNonEmpty(facts.Uptime, record["UPTIME"])
		facts.Model = firstNonEmpty(facts.Model, record["HARDWARE"])
		facts.Serial = firstNonEmpty(facts.Serial, record["SERIAL"])
	}
	return facts, nil
}

func firstNonEmpty(current string, v interface{}) string {
	if current != "" {
		return current
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
