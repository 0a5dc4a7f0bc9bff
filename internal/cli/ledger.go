package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdeck/hostdeck/pkg/client"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect your resource ledger",
	}

	cmd.AddCommand(newLedgerShowCmd())
	cmd.AddCommand(newLedgerRefreshCmd())

	return cmd
}

func newLedgerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show limits and current usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			user, err := apiClient.Ledger(ctx)
			if err != nil {
				return fmt.Errorf("failed to get ledger: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(user)
			}

			fmt.Printf("Coins: %d   Rank: %s\n\n", user.Coins, formatRank(user.Rank))
			renderLedgerTable(user.Limits, user.Usage)
			return nil
		},
	}
}

func newLedgerRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-read live usage from the panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			res, err := apiClient.RefreshLedger(ctx)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(res)
			}

			if res.Updated {
				fmt.Println("Usage updated")
			} else {
				fmt.Println("Usage unchanged")
			}
			if res.DemoSkipped > 0 {
				fmt.Printf("Demo servers excluded: %d\n", res.DemoSkipped)
			}
			fmt.Printf("Took %.0fms\n", res.ElapsedMS)
			return nil
		},
	}
}

func renderLedgerTable(limits, usage client.Resources) {
	t := NewTable("RESOURCE", "USED", "LIMIT")
	rows := []struct {
		name  string
		used  int64
		limit int64
	}{
		{"cpu", usage.CPU, limits.CPU},
		{"memory", usage.Memory, limits.Memory},
		{"swap", usage.Swap, limits.Swap},
		{"disk", usage.Disk, limits.Disk},
		{"io", usage.IO, limits.IO},
		{"databases", usage.Databases, limits.Databases},
		{"allocations", usage.Allocations, limits.Allocations},
		{"backups", usage.Backups, limits.Backups},
		{"servers", usage.Servers, limits.Servers},
	}
	for _, r := range rows {
		t.AddRow(r.name, formatInt(r.used), formatInt(r.limit))
	}
	t.Render()
}
