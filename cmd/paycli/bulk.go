package main

import (
	"fmt"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"paysim/internal/payments"
)

func newBulkCmd(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Process a JSON array of payments",
		Long: `Reads a JSON array of payment requests from --file ("-" for stdin) and
prints one result per request, in input order. Invalid requests are reported
as REJECTED without stopping the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			var reqs []payments.PaymentRequest
			if err := sonic.Unmarshal(data, &reqs); err != nil {
				return fmt.Errorf("failed to decode %s: %w", file, err)
			}

			b, err := opts.backend(cmd)
			if err != nil {
				return err
			}

			results, err := b.BulkProcess(cmd.Context(), reqs)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with the payment requests")

	return cmd
}
