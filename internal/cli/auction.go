package cli

import (
	"github.com/spf13/cobra"
)

func newAuctionCmd() *cobra.Command {
	auctionCmd := &cobra.Command{
		Use:   "auction",
		Short: "Auction operations",
	}

	auctionCmd.AddCommand(newAuctionGetCmd())

	return auctionCmd
}

func newAuctionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <auction-id>",
		Short: "Show an auction's status and roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Auction

			if err := client.Get("/api/v1/auctions/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
