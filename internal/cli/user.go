package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts (admin only)",
	}

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserCoinsCmd())
	cmd.AddCommand(newUserReconcileCmd())

	return cmd
}

func newUserListCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			list, err := apiClient.ListUsers(ctx, page, pageSize)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "USERNAME", "EMAIL", "RANK", "COINS", "PLANS")
			for _, u := range list.Data {
				t.AddRow(
					formatInt(u.ID),
					u.Username,
					truncate(u.Email, 32),
					u.Rank,
					formatInt(u.Coins),
					strconv.Itoa(len(u.OwnedPlans)),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d users)\n", list.Page, list.TotalPages, list.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "users per page")

	return cmd
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a user's account and ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id: %s", args[0])
			}

			u, err := apiClient.GetUser(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(u)
			}

			fmt.Printf("Username: %s\n", u.Username)
			fmt.Printf("Email:    %s\n", u.Email)
			fmt.Printf("Rank:     %s\n", formatRank(u.Rank))
			fmt.Printf("Coins:    %d\n", u.Coins)
			if u.PanelUserID != nil {
				fmt.Printf("Panel:    %d\n", *u.PanelUserID)
			} else {
				fmt.Println("Panel:    (not linked)")
			}
			fmt.Println()
			renderLedgerTable(u.Limits, u.Usage)
			return nil
		},
	}
}

func newUserCoinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coins <id> <delta>",
		Short: "Credit or debit a user's coin balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id: %s", args[0])
			}
			delta, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid delta: %s", args[1])
			}

			u, err := apiClient.AdjustCoins(context.Background(), id, delta)
			if err != nil {
				return fmt.Errorf("adjustment failed: %w", err)
			}

			fmt.Printf("%s now has %d coins\n", u.Username, u.Coins)
			return nil
		},
	}
}

func newUserReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <id>",
		Short: "Refresh a user's usage from the panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id: %s", args[0])
			}

			res, err := apiClient.ReconcileUser(context.Background(), id)
			if err != nil {
				return fmt.Errorf("reconcile failed: %w", err)
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
			return nil
		},
	}
}
