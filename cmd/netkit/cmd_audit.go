package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netkit/pkg/audit"
	"github.com/newtron-network/netkit/pkg/cli"
	"github.com/newtron-network/netkit/pkg/report"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the push audit log",
	Long: `View the audit log of configuration pushes.

Every push records, per host: timestamp, user, engine, strategy, whether
it was committed, the diff, and the outcome.

Examples:
  netkit audit list --host core-sw1
  netkit audit list --last 24h
  netkit audit list --failures --json`,
}

var (
	auditHost     string
	auditUser     string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditJSON     bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Host:        auditHost,
			User:        auditUser,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}

		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(events)
		}
		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable("TIMESTAMP", "USER", "HOST", "ENGINE", "STRATEGY", "MODE", "STATUS", "DURATION")
		for _, e := range events {
			mode := "dry-run"
			if e.Commit {
				mode = "commit"
			}
			status := cli.Green("ok")
			switch {
			case e.Skipped:
				status = cli.Yellow("skipped")
			case !e.Success:
				status = cli.Red("failed")
			}
			t.Row(
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.User,
				e.Host,
				cli.OrDash(e.Engine),
				cli.OrDash(e.Strategy),
				mode,
				status,
				report.FormatDuration(e.Duration),
			)
		}
		t.Flush()
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditHost, "host", "", "Filter by host")
	auditListCmd.Flags().StringVar(&auditUser, "user", "", "Filter by user")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed pushes")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditListCmd)
}
