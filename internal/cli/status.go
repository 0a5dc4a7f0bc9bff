package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show account summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			user, err := apiClient.Ledger(ctx)
			if err != nil {
				return fmt.Errorf("failed to get ledger: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{
					"username":    user.Username,
					"rank":        user.Rank,
					"coins":       user.Coins,
					"owned_plans": len(user.OwnedPlans),
					"servers":     user.Usage.Servers,
				}
				return printOutput(summary)
			}

			fmt.Println("HostDeck Account")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  User:     %s (%s)\n", user.Username, formatRank(user.Rank))
			fmt.Printf("  Coins:    %d\n", user.Coins)
			fmt.Printf("  Plans:    %d owned\n", len(user.OwnedPlans))
			fmt.Printf("  Servers:  %d of %d slots\n", user.Usage.Servers, user.Limits.Servers)
			if user.PanelUserID == nil {
				fmt.Println("  Panel:    not linked (usage cannot be refreshed)")
			}
			return nil
		},
	}
}
