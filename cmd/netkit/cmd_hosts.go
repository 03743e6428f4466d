package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netkit/pkg/cli"
	"github.com/newtron-network/netkit/pkg/inventory"
	"github.com/newtron-network/netkit/pkg/platform"
)

var hostsJSON bool

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List the resolved and selected hosts",
	Long: `List hosts after inventory layering, ${VAR} expansion and selection.
No device is contacted.

Examples:
  netkit hosts
  netkit hosts --group core --skip lab
  netkit hosts --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, _, err := loadHosts(groupChooser())
		if err != nil {
			return err
		}

		rows := make([]hostRow, 0, len(hosts))
		for _, h := range hosts {
			rows = append(rows, newHostRow(h))
		}

		if hostsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No hosts selected")
			return nil
		}

		t := cli.NewTable("NAME", "ADDRESS", "FAMILY", "DRIVER", "GROUPS", "STATUS")
		for _, r := range rows {
			status := cli.Green("ok")
			if r.Error != "" {
				status = cli.Red(r.Error)
			}
			t.Row(r.Name, cli.OrDash(r.Address), r.Family, r.Driver, cli.OrDash(strings.Join(r.Groups, ",")), status)
		}
		t.Flush()
		fmt.Printf("\n%d host(s)\n", len(rows))
		return nil
	},
}

// hostRow is one line of the hosts listing. Credentials are never shown.
type hostRow struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Family  string   `json:"family"`
	Driver  string   `json:"driver"`
	Groups  []string `json:"groups,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func newHostRow(h *inventory.ResolvedHost) hostRow {
	family := platform.Classify(h.DeviceType)
	r := hostRow{
		Name:   h.Name,
		Family: family.String(),
		Driver: platform.DriverName(family),
		Groups: h.Groups,
	}
	if h.Host != "" {
		r.Address = h.Address()
	}
	if h.Err != nil {
		r.Error = h.Err.Error()
	} else if h.RawPort != nil {
		r.Error = fmt.Sprintf("invalid port %v", h.RawPort)
	}
	return r
}

func init() {
	hostsCmd.Flags().BoolVar(&hostsJSON, "json", false, "Output as JSON")
}
