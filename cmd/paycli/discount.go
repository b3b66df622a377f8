package main

import (
	"github.com/spf13/cobra"
)

func newDiscountCmd(opts *globalOptions) *cobra.Command {
	var points, baseAmount int64

	cmd := &cobra.Command{
		Use:   "discount",
		Short: "Calculate a loyalty discount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.backend(cmd)
			if err != nil {
				return err
			}

			discount, err := b.LoyaltyDiscount(cmd.Context(), points, baseAmount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int64{"discount": discount})
		},
	}

	cmd.Flags().Int64Var(&points, "points", 0, "Loyalty points")
	cmd.Flags().Int64Var(&baseAmount, "base", 0, "Base amount in minor units")
	_ = cmd.MarkFlagRequired("base")

	return cmd
}
