package main

import (
	"github.com/spf13/cobra"

	"github.com/newtron-network/netkit/pkg/cmdfile"
	"github.com/newtron-network/netkit/pkg/operations"
)

var (
	showCommandsFile string
	showSaveRaw      bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Run show commands and save the output per host",
	Long: `Run every command in a commands file on each selected host.

Output goes to <outdir>/show/<timestamp>/<host>.json, a mapping of command
to output. A failing command stops that host and is recorded under
"__error__". Lines may carry trailing # comments.

Examples:
  netkit show --commands cmds.txt
  netkit show --commands cmds.txt --save-raw --group edge`,
	RunE: func(cmd *cobra.Command, args []string) error {
		commands, err := cmdfile.LoadCommands(showCommandsFile)
		if err != nil {
			return err
		}
		hosts, env, err := loadHosts(groupChooser())
		if err != nil {
			return err
		}
		dir := runDir("show")
		op := &operations.Show{Commands: commands, OutDir: dir, SaveRaw: showSaveRaw}
		return runOperation(cmd.Context(), hosts, env, op, dir)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showCommandsFile, "commands", "c", "", "File with one command per line")
	showCmd.Flags().BoolVar(&showSaveRaw, "save-raw", false, "Also save each command's output as a text file")
	showCmd.MarkFlagRequired("commands")
}
