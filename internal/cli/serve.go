package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyonex/routerd/internal/admin"
	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/compose"
	"github.com/halcyonex/routerd/internal/confidential"
	"github.com/halcyonex/routerd/internal/config"
	"github.com/halcyonex/routerd/internal/core/book"
	"github.com/halcyonex/routerd/internal/crypto"
	"github.com/halcyonex/routerd/internal/engine"
	"github.com/halcyonex/routerd/internal/router"
	"github.com/halcyonex/routerd/internal/state"
	"github.com/halcyonex/routerd/internal/venue"
)

// serveCmd runs the daemon: event ingestion, execution loop and the
// operational listeners.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the execution router daemon",
	Long: `Run the router daemon. It backfills the liquidity cache from the
protocol's event history, keeps it live over a push subscription with a
polling fallback, and executes pending intents every tick.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// serve is the default command.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if cfg.Executor.PrivateKey == "" {
		return fmt.Errorf("executor private key is required to serve (set ROUTERD_EXECUTOR_PRIVATE_KEY)")
	}
	if cfg.Executor.CapabilityID == "" {
		return fmt.Errorf("executor capability_id is required to serve")
	}
	keys, err := crypto.KeypairFromHex(cfg.Executor.PrivateKey)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("routerd %s, network %s, executor %s\n", rootCmd.Version, cfg.Network, keys.Address())
	}

	client := chain.NewRPCClient(cfg.Chain.RPCEndpoint)
	if cfg.Chain.WSEndpoint != "" {
		client.SetWSEndpoint(cfg.Chain.WSEndpoint)
	}
	targets := chain.Targets{PackageID: cfg.Chain.PackageID}

	var store *state.Store
	if cfg.State.Dir != "" {
		store, err = state.Open(cfg.State.Dir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	b := book.New()
	ingestor := book.NewIngestor(b, client, book.IngestorConfig{
		PackageID:    cfg.Chain.PackageID,
		PollInterval: cfg.Chain.PollInterval(),
		PollBatch:    cfg.Chain.PollBatch,
	})

	external := buildExternalAdapters(cfg, client)
	r := router.New(b, external, router.Policy{
		MaxNativeLegs:    cfg.Router.MaxNativeLegs,
		MinLegAmount:     cfg.Router.MinLegAmount,
		EnableSplits:     cfg.Router.EnableSplits,
		NativeBiasBps:    cfg.Router.NativeBiasBps,
		QuoteDeadline:    cfg.Router.QuoteDeadline(),
		QuoteConcurrency: cfg.Router.QuoteConcurrency,
	})

	composer := compose.New(targets, append(external, venue.NewNativeAdapter(targets)))
	composer.SetGasBudgets(cfg.Engine.GasBudgetDirect, cfg.Engine.GasBudgetComposite)

	var shim *confidential.Shim
	if cfg.Confidential.Enabled {
		shim = confidential.New(confidential.NewHTTPCollaborator(cfg.Confidential.Endpoint))
	} else {
		shim = confidential.New(nil)
	}

	eng := engine.New(engine.Config{
		TickInterval:  cfg.Engine.TickInterval(),
		RecentTTL:     cfg.Engine.RecentTTL(),
		MaxParallel:   cfg.Engine.MaxParallel,
		ExecutorCapID: cfg.Executor.CapabilityID,
		FundingCoins:  cfg.Executor.FundingCoins,
	}, b, r, composer, client, keys, shim)
	if store != nil {
		eng.SetJournal(store)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ingestor.Start(ctx); err != nil {
		return fmt.Errorf("cache backfill failed: %w", err)
	}
	offers, intents := b.Counts()
	log.Printf("cli: cache primed with %d offers, %d intents", offers, intents)

	eng.Start(ctx)

	var grpcSrv *admin.GRPCServer
	if cfg.Admin.GRPCAddress != "" {
		grpcSrv, err = admin.NewGRPCServer(&admin.GRPCConfig{
			Address:        cfg.Admin.GRPCAddress,
			MaxRecvMsgSize: 4 * 1024 * 1024,
			MaxSendMsgSize: 4 * 1024 * 1024,
		})
		if err != nil {
			return err
		}
		if err := grpcSrv.StartAsync(); err != nil {
			return err
		}
		grpcSrv.MarkReady()
		log.Printf("cli: health endpoint on %s", grpcSrv.Address())
	}

	var httpSrv *admin.HTTPServer
	if cfg.Admin.HTTPAddress != "" {
		httpSrv = admin.NewHTTPServer(cfg.Admin.HTTPAddress, cfg.Network, b, eng.Metrics())
		if err := httpSrv.StartAsync(); err != nil {
			return err
		}
		log.Printf("cli: metrics and status on %s", cfg.Admin.HTTPAddress)
	}

	<-ctx.Done()
	log.Printf("cli: shutting down")

	if grpcSrv != nil {
		grpcSrv.MarkNotReady()
	}
	eng.Stop()
	ingestor.Stop()
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Stop(shutdownCtx); err != nil {
			log.Printf("cli: http shutdown: %v", err)
		}
	}
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	return nil
}

// buildExternalAdapters wires the enabled venue adapters.
func buildExternalAdapters(cfg *config.Config, client chain.Client) []venue.Adapter {
	var adapters []venue.Adapter
	if cfg.Venues.AMM.Enabled {
		adapters = append(adapters, venue.NewAMMAdapter("amm",
			cfg.Venues.AMM.PackageID, cfg.Venues.AMM.PoolRegistryID, client,
			venue.Config{
				SlippageBps:        cfg.Venues.AMM.SlippageBps,
				MetadataTTLSeconds: cfg.Venues.AMM.CacheTTLMs / 1000,
			}))
	}
	if cfg.Venues.CLOB.Enabled {
		adapters = append(adapters, venue.NewCLOBAdapter("clob",
			cfg.Venues.CLOB.PackageID, cfg.Venues.CLOB.BookRegistryID, client,
			venue.Config{
				SlippageBps:        cfg.Venues.CLOB.SlippageBps,
				MetadataTTLSeconds: cfg.Venues.CLOB.CacheTTLMs / 1000,
			}))
	}
	return adapters
}
