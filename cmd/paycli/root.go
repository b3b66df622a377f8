package main

import (
	"context"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"os"
	"paysim/config"
	"paysim/internal/payments"
	"paysim/internal/payments/client"
	"time"
)

// backend is either the in-process processor or the remote API.
type backend interface {
	ProcessPayment(ctx context.Context, req payments.PaymentRequest) (payments.PaymentResult, error)
	BulkProcess(ctx context.Context, reqs []payments.PaymentRequest) ([]payments.PaymentResult, error)
	LoyaltyDiscount(ctx context.Context, points, baseAmount int64) (int64, error)
}

type localBackend struct {
	processor *payments.Processor
}

func (b localBackend) ProcessPayment(ctx context.Context, req payments.PaymentRequest) (payments.PaymentResult, error) {
	return b.processor.ProcessPayment(ctx, req)
}

func (b localBackend) BulkProcess(ctx context.Context, reqs []payments.PaymentRequest) ([]payments.PaymentResult, error) {
	return b.processor.BulkProcess(ctx, reqs), nil
}

func (b localBackend) LoyaltyDiscount(_ context.Context, points, baseAmount int64) (int64, error) {
	return b.processor.CalculateLoyaltyDiscount(points, baseAmount)
}

type remoteBackend struct {
	client *client.Client
}

func (b remoteBackend) ProcessPayment(ctx context.Context, req payments.PaymentRequest) (payments.PaymentResult, error) {
	resp, err := b.client.ProcessPayment(ctx, req)
	return resp.PaymentResult, err
}

func (b remoteBackend) BulkProcess(ctx context.Context, reqs []payments.PaymentRequest) ([]payments.PaymentResult, error) {
	return b.client.BulkProcess(ctx, reqs)
}

func (b remoteBackend) LoyaltyDiscount(ctx context.Context, points, baseAmount int64) (int64, error) {
	return b.client.LoyaltyDiscount(ctx, points, baseAmount)
}

type globalOptions struct {
	local   bool
	url     string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "paycli",
		Short: "Run payments through the simulator",
		Long: `paycli submits payments, bulk batches and loyalty discount queries to the
payment simulator API, or runs them in-process with --local.

Rules and the API address come from the same configuration as the server
(environment variables or CONFIG_FILE).`,
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVar(&opts.local, "local", false, "Process in-process instead of calling the API")
	rootCmd.PersistentFlags().StringVar(&opts.url, "url", "", "API base URL (defaults to client.base_url)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "API request timeout (defaults to client.timeout)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log processing details to stderr")

	rootCmd.AddCommand(newPayCmd(opts))
	rootCmd.AddCommand(newBulkCmd(opts))
	rootCmd.AddCommand(newDiscountCmd(opts))

	return rootCmd
}

func (o *globalOptions) backend(cmd *cobra.Command) (backend, error) {
	appConfig, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if o.local {
		level := slog.LevelWarn
		if o.verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		processor, err := payments.NewProcessor(appConfig.Rules.ProcessingRules(), nil, logger)
		if err != nil {
			return nil, err
		}
		return localBackend{processor: processor}, nil
	}

	return remoteBackend{client: o.client(appConfig)}, nil
}

// remote returns an API client regardless of --local.
func (o *globalOptions) remote() (*client.Client, error) {
	appConfig, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return o.client(appConfig), nil
}

func (o *globalOptions) client(appConfig *config.AppConfig) *client.Client {
	url := appConfig.Client.BaseURL
	if o.url != "" {
		url = o.url
	}
	timeout := appConfig.Client.Timeout
	if o.timeout > 0 {
		timeout = o.timeout
	}

	return client.New(url, client.NewHTTPClient(timeout, appConfig.Telemetry.Enabled))
}

func printJSON(w io.Writer, v any) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
