package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newShopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Buy resources with coins",
	}

	cmd.AddCommand(newShopTableCmd())
	cmd.AddCommand(newShopBuyCmd())

	return cmd
}

func newShopTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Show shop prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			table, err := apiClient.ShopTable(ctx)
			if err != nil {
				return fmt.Errorf("failed to get shop table: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(table)
			}

			keys := make([]string, 0, len(table.Prices))
			for k := range table.Prices {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			t := NewTable("RESOURCE", "AMOUNT", "COST", "MAX LIMIT", "STATUS")
			for _, k := range keys {
				p := table.Prices[k]
				status := "enabled"
				if !p.Enabled {
					status = "disabled"
				}
				max := "-"
				if m, ok := table.MaxLimits[k]; ok {
					max = formatInt(m)
				}
				t.AddRow(k, formatInt(p.Amount), formatInt(p.Cost), max, status)
			}
			t.Render()
			return nil
		},
	}
}

func newShopBuyCmd() *cobra.Command {
	var quantity int64

	cmd := &cobra.Command{
		Use:   "buy <resource>",
		Short: "Purchase units of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			res, err := apiClient.Purchase(ctx, args[0], quantity)
			if err != nil {
				return fmt.Errorf("purchase failed: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(res)
			}

			fmt.Printf("Bought %s x%s for %d coins\n", res.Resource, strconv.FormatInt(res.Quantity, 10), res.Cost)
			fmt.Printf("New %s limit: %d\n", res.Resource, res.NewLimit)
			fmt.Printf("Coins remaining: %d\n", res.Coins)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&quantity, "quantity", "q", 1, "number of units to buy")

	return cmd
}
