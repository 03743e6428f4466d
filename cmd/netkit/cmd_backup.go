package main

import (
	"github.com/spf13/cobra"

	"github.com/newtron-network/netkit/pkg/operations"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Save running/startup configuration and device facts",
	Long: `Save each host's running configuration, startup configuration (not on
IOS-XR) and show version facts under <outdir>/backups/<timestamp>.
Hosts that fail leave a <host>_ERROR.txt behind.

Examples:
  netkit backup
  netkit backup --workers 8 --skip lab`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, env, err := loadHosts(groupChooser())
		if err != nil {
			return err
		}
		dir := runDir("backups")
		return runOperation(cmd.Context(), hosts, env, &operations.Backup{OutDir: dir}, dir)
	},
}
