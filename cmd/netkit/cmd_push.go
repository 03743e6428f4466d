package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netkit/pkg/cli"
	"github.com/newtron-network/netkit/pkg/cmdfile"
	"github.com/newtron-network/netkit/pkg/operations"
	"github.com/newtron-network/netkit/pkg/platform"
)

var (
	pushSnippetFile string
	pushCommit      bool
	pushEngine      string
	pushDestFS      string
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push a configuration snippet",
	Long: `Push a configuration snippet to every selected host.

Engines:
  merge  Stage the snippet, show what it would change and apply it only
         with --commit (IOS-XR uses its candidate configuration).
  line   Send the snippet in configuration mode; --commit also saves it to
         startup. Not available on IOS-XR.

Without --commit nothing is saved. Every push is recorded in the audit log.

Examples:
  netkit push --snippet ntp.cfg
  netkit push --snippet ntp.cfg --commit --group core
  netkit push --snippet banner.cfg --engine line --dest-fs bootflash:`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := platform.ParseEngine(pushEngine)
		if err != nil {
			return err
		}
		snippet, err := cmdfile.LoadSnippet(pushSnippetFile)
		if err != nil {
			return err
		}
		hosts, env, err := loadHosts(groupChooser())
		if err != nil {
			return err
		}

		if !pushCommit {
			fmt.Println(cli.Yellow("DRY-RUN: nothing will be saved. Use --commit to apply."))
		}

		dir := runDir("push")
		op := &operations.Push{
			Snippet:     snippet,
			SnippetPath: pushSnippetFile,
			Engine:      engine,
			Commit:      pushCommit,
			DestFS:      pushDestFS,
			OutDir:      dir,
		}
		return runOperation(cmd.Context(), hosts, env, op, dir)
	},
}

func init() {
	pushCmd.Flags().StringVarP(&pushSnippetFile, "snippet", "s", "", "Configuration snippet file")
	pushCmd.Flags().BoolVarP(&pushCommit, "commit", "x", false, "Apply and save (default is a dry run)")
	pushCmd.Flags().StringVar(&pushEngine, "engine", string(platform.EngineMerge), "Push engine: merge or line")
	pushCmd.Flags().StringVar(&pushDestFS, "dest-fs", "", "Filesystem for the staged candidate (e.g. bootflash:)")
	pushCmd.MarkFlagRequired("snippet")
}
