// Netkit - Cisco fleet automation over SSH
//
// Netkit reads a layered YAML inventory (defaults, groups, hosts), selects
// hosts by name and group, and runs one operation across them with a
// bounded worker pool:
//
//	netkit hosts                                   # resolved inventory
//	netkit show --commands cmds.txt --group core   # collect show output
//	netkit backup --workers 8                      # running/startup/facts
//	netkit push --snippet ntp.cfg                  # merge dry run (diff only)
//	netkit push --snippet ntp.cfg --commit         # merge, apply and save
//	netkit push --snippet ntp.cfg --engine line    # line-by-line push
//
// Every run writes per-host artifacts plus _summary.json under
// <outdir>/<kind>/<YYYYMMDD-HHMMSS>. The exit status is 1 when any host
// failed; skipped hosts do not count.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/newtron-network/netkit/pkg/audit"
	"github.com/newtron-network/netkit/pkg/cli"
	"github.com/newtron-network/netkit/pkg/settings"
	"github.com/newtron-network/netkit/pkg/util"
	"github.com/newtron-network/netkit/pkg/version"
)

var (
	// Inventory and selection flags
	inventoryPath string
	envFile       string
	onlyHosts     []string
	skipHosts     []string
	groupNames    []string
	noInteractive bool

	// Run flags
	workers int
	timeout time.Duration
	outDir  string
	verbose bool

	// Logging flags
	logJSON bool
	logFile string

	userSettings *settings.Settings
)

// errHostsFailed ends a run in which at least one host FAILED.
var errHostsFailed = errors.New("one or more hosts failed")

// errInterrupted ends a run stopped by SIGINT or SIGTERM.
var errInterrupted = errors.New("run interrupted")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Red("Error: ")+err.Error())
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netkit",
	Short:             "Cisco fleet automation over SSH",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netkit runs show, backup and configuration push operations across a
Cisco IOS, IOS-XE, NX-OS and IOS-XR fleet described by a YAML inventory.

Hosts are selected with --only/--skip (name substrings) and --group.
Pushes are dry runs unless --commit is given.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if err := configureLogging(logJSON, logFile); err != nil {
			return err
		}
		cli.SetColor(term.IsTerminal(int(os.Stdout.Fd())))

		if isMetaCommand(cmd) {
			return nil
		}

		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}
		applySettings(cmd, userSettings)

		auditPath := userSettings.AuditLog
		if auditPath == "" {
			auditPath = audit.DefaultPath()
		}
		auditLogger, err := audit.NewFileLogger(auditPath, audit.DefaultRotation)
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}
		return nil
	},
}

// configureLogging switches the log format to JSON and sends log output to
// path (appending) when requested.
func configureLogging(jsonFormat bool, path string) error {
	if jsonFormat {
		util.SetJSONFormat()
	}
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	util.SetLogOutput(f)
	return nil
}

// applySettings fills every flag the user did not pass from settings.
func applySettings(cmd *cobra.Command, s *settings.Settings) {
	flags := cmd.Flags()
	if !flags.Changed("inventory") {
		inventoryPath = s.GetInventory()
	}
	if !flags.Changed("env-file") {
		envFile = s.GetEnvFile()
	}
	if !flags.Changed("workers") {
		workers = s.GetWorkers()
	}
	if !flags.Changed("timeout") {
		timeout = s.GetTimeout()
	}
	if !flags.Changed("outdir") {
		outDir = s.GetOutDir()
	}
}

func isMetaCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "version", "help", "completion":
			return true
		}
	}
	return false
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&inventoryPath, "inventory", settings.DefaultInventory, "Inventory YAML file")
	pf.StringVar(&envFile, "env-file", settings.DefaultEnvFile, "Dotenv file with credentials")
	pf.StringSliceVar(&onlyHosts, "only", nil, "Only hosts whose name contains one of these (comma-separated)")
	pf.StringSliceVar(&skipHosts, "skip", nil, "Skip hosts whose name contains one of these (comma-separated)")
	pf.StringSliceVarP(&groupNames, "group", "g", nil, "Only hosts in these groups (repeatable, comma-separated)")
	pf.BoolVar(&noInteractive, "no-interactive", false, "Never prompt for groups")
	pf.IntVarP(&workers, "workers", "w", settings.DefaultWorkers, "Hosts processed concurrently")
	pf.DurationVar(&timeout, "timeout", settings.DefaultTimeout, "Per-host connect and command timeout")
	pf.StringVarP(&outDir, "outdir", "o", settings.DefaultOutDir, "Base output directory")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pf.BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	pf.StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "fleet", Title: "Fleet Operations:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)
	for _, cmd := range []*cobra.Command{hostsCmd, showCmd, backupCmd, pushCmd} {
		cmd.GroupID = "fleet"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Printf("netkit dev build (%s)\n", version.Info())
			return
		}
		fmt.Printf("netkit %s\n", version.Info())
	},
}
