package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/config"
	"github.com/halcyonex/routerd/internal/core/book"
	"github.com/halcyonex/routerd/internal/core/types"
	"github.com/halcyonex/routerd/internal/router"
)

var (
	quoteReceive string
	quotePay     string
	quoteAmount  uint64
)

// quoteCmd runs a one-shot route search without executing anything.
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute the best route for a pair and amount",
	Long: `Backfill the liquidity cache, run one route search for the given
pair and amount, print the decision as JSON and exit. No transaction is
composed or submitted.`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteReceive, "receive", "", "asset type to receive")
	quoteCmd.Flags().StringVar(&quotePay, "pay", "", "asset type to pay with")
	quoteCmd.Flags().Uint64Var(&quoteAmount, "amount", 0, "amount of the receive asset")
	quoteCmd.MarkFlagRequired("receive")
	quoteCmd.MarkFlagRequired("pay")
	quoteCmd.MarkFlagRequired("amount")
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if quoteAmount == 0 {
		return fmt.Errorf("amount must be positive")
	}

	client := chain.NewRPCClient(cfg.Chain.RPCEndpoint)
	if cfg.Chain.WSEndpoint != "" {
		client.SetWSEndpoint(cfg.Chain.WSEndpoint)
	}

	b := book.New()
	ingestor := book.NewIngestor(b, client, book.IngestorConfig{
		PackageID:    cfg.Chain.PackageID,
		PollInterval: cfg.Chain.PollInterval(),
		PollBatch:    cfg.Chain.PollBatch,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := ingestor.Start(ctx); err != nil {
		return fmt.Errorf("cache backfill failed: %w", err)
	}
	defer ingestor.Stop()

	r := router.New(b, buildExternalAdapters(cfg, client), router.Policy{
		MaxNativeLegs:    cfg.Router.MaxNativeLegs,
		MinLegAmount:     cfg.Router.MinLegAmount,
		EnableSplits:     cfg.Router.EnableSplits,
		NativeBiasBps:    cfg.Router.NativeBiasBps,
		QuoteDeadline:    cfg.Router.QuoteDeadline(),
		QuoteConcurrency: cfg.Router.QuoteConcurrency,
	})

	pair := types.Pair{Receive: quoteReceive, Pay: quotePay}
	decision, ok := r.FindRoute(ctx, pair, quoteAmount)
	if !ok {
		return fmt.Errorf("no route for %d of %s", quoteAmount, pair)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}
