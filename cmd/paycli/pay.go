package main

import (
	"errors"
	"github.com/spf13/cobra"
	"paysim/internal/payments"
)

var errAsyncLocal = errors.New("--async queues the payment on the API and cannot be combined with --local")

func newPayCmd(opts *globalOptions) *cobra.Command {
	var (
		req   payments.PaymentRequest
		async bool
	)

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Process a single payment",
		Example: `  paycli pay --amount 1000 --card 4242424242424242 --expiry-month 12 --expiry-year 2030 --currency EUR --customer C1
  paycli pay --local --amount 17 --card 4242424242424242 --expiry-month 1 --expiry-year 2031 --customer C2
  paycli pay --async --amount 500 --card 4111111111111111 --expiry-month 6 --expiry-year 2030 --customer C3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if async {
				return submitAsync(cmd, opts, req)
			}

			b, err := opts.backend(cmd)
			if err != nil {
				return err
			}

			result, err := b.ProcessPayment(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Int64Var(&req.Amount, "amount", 0, "Amount in minor units")
	cmd.Flags().StringVar(&req.CardNumber, "card", "", "Card number")
	cmd.Flags().IntVar(&req.ExpiryMonth, "expiry-month", 0, "Card expiry month (1-12)")
	cmd.Flags().IntVar(&req.ExpiryYear, "expiry-year", 0, "Card expiry year")
	cmd.Flags().StringVar(&req.Currency, "currency", payments.BaseCurrency, "Currency code")
	cmd.Flags().StringVar(&req.CustomerID, "customer", "", "Customer id")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the payment for the stream worker and print its correlation id")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("card")

	return cmd
}

func submitAsync(cmd *cobra.Command, opts *globalOptions, req payments.PaymentRequest) error {
	if opts.local {
		return errAsyncLocal
	}

	c, err := opts.remote()
	if err != nil {
		return err
	}

	correlationID, err := c.SubmitAsync(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]string{"correlationId": correlationID})
}
