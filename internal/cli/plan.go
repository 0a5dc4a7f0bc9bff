package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hostdeck/hostdeck/pkg/client"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Browse and administer catalog plans",
	}

	cmd.AddCommand(newPlanListCmd())
	cmd.AddCommand(newPlanGetCmd())
	cmd.AddCommand(newPlanCreateCmd())
	cmd.AddCommand(newPlanDeleteCmd())
	cmd.AddCommand(newPlanGrantCmd())
	cmd.AddCommand(newPlanRevokeCmd())

	return cmd
}

func newPlanListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var (
				plans []*client.Plan
				err   error
			)
			if all {
				plans, err = apiClient.ListAllPlans(ctx)
			} else {
				plans, err = apiClient.Plans(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(plans)
			}

			t := NewTable("ID", "NAME", "PRICE", "VISIBLE", "DESCRIPTION")
			for _, p := range plans {
				t.AddRow(
					formatInt(p.ID),
					p.Name,
					formatInt(p.Price),
					strconv.FormatBool(p.Visible),
					truncate(p.Description, 40),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include hidden plans (admin only)")

	return cmd
}

func newPlanGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plan id: %s", args[0])
			}

			ctx := context.Background()
			p, err := apiClient.Plan(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(p)
			}

			fmt.Printf("Name:    %s\n", p.Name)
			fmt.Printf("Price:   %d coins\n", p.Price)
			fmt.Printf("Visible: %t\n", p.Visible)
			if p.DurationDays > 0 {
				fmt.Printf("Expires: %d days after grant\n", p.DurationDays)
			}
			if p.Description != "" {
				fmt.Printf("About:   %s\n", p.Description)
			}
			fmt.Println()
			renderLedgerTable(p.Resources, client.Resources{})
			return nil
		},
	}
}

func newPlanCreateCmd() *cobra.Command {
	var req client.PlanRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a plan to the catalog (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := apiClient.CreatePlan(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create plan: %w", err)
			}

			fmt.Printf("Created plan %d (%s)\n", p.ID, p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "plan name")
	cmd.Flags().StringVar(&req.Description, "description", "", "plan description")
	cmd.Flags().Int64Var(&req.Price, "price", 0, "price in coins")
	cmd.Flags().Int64Var(&req.DurationDays, "duration", 0, "grant lifetime in days (0 = permanent)")
	cmd.Flags().BoolVar(&req.Visible, "visible", true, "list the plan publicly")
	cmd.Flags().Int64Var(&req.Resources.CPU, "cpu", 0, "cpu share")
	cmd.Flags().Int64Var(&req.Resources.Memory, "memory", 0, "memory in MB")
	cmd.Flags().Int64Var(&req.Resources.Swap, "swap", 0, "swap in MB")
	cmd.Flags().Int64Var(&req.Resources.Disk, "disk", 0, "disk in MB")
	cmd.Flags().Int64Var(&req.Resources.IO, "io", 0, "io weight")
	cmd.Flags().Int64Var(&req.Resources.Databases, "databases", 0, "database slots")
	cmd.Flags().Int64Var(&req.Resources.Allocations, "allocations", 0, "port allocations")
	cmd.Flags().Int64Var(&req.Resources.Backups, "backups", 0, "backup slots")
	cmd.Flags().Int64Var(&req.Resources.Servers, "servers", 0, "server slots")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlanDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a plan from the catalog (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plan id: %s", args[0])
			}

			if err := apiClient.DeletePlan(context.Background(), id); err != nil {
				return fmt.Errorf("failed to delete plan: %w", err)
			}

			fmt.Printf("Deleted plan %d\n", id)
			return nil
		},
	}
}

func newPlanGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <plan-id> <user-id>",
		Short: "Grant a plan to a user (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, userID, err := parsePlanUserArgs(args)
			if err != nil {
				return err
			}

			u, err := apiClient.GrantPlan(context.Background(), planID, userID)
			if err != nil {
				return fmt.Errorf("grant failed: %w", err)
			}

			fmt.Printf("Granted plan %d to %s (rank: %s)\n", planID, u.Username, u.Rank)
			return nil
		},
	}
}

func newPlanRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <plan-id> <user-id>",
		Short: "Revoke a granted plan from a user (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, userID, err := parsePlanUserArgs(args)
			if err != nil {
				return err
			}

			u, err := apiClient.RevokePlan(context.Background(), planID, userID)
			if err != nil {
				return fmt.Errorf("revoke failed: %w", err)
			}

			fmt.Printf("Revoked plan %d from %s (rank: %s)\n", planID, u.Username, u.Rank)
			return nil
		},
	}
}

func parsePlanUserArgs(args []string) (int64, int64, error) {
	planID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid plan id: %s", args[0])
	}
	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid user id: %s", args[1])
	}
	return planID, userID, nil
}
