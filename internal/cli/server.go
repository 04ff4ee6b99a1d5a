package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goMarketd/internal/config"
	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/state"
	grpcserver "github.com/LeJamon/goMarketd/internal/grpc"
	"github.com/LeJamon/goMarketd/internal/metrics"
	"github.com/LeJamon/goMarketd/internal/rpc"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
	"github.com/LeJamon/goMarketd/internal/storage"
	"github.com/LeJamon/goMarketd/internal/storage/journal"
	"github.com/LeJamon/goMarketd/internal/sweeper"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the marketplace daemon",
	Long: `Start the marketd server which provides:
- HTTP JSON-RPC API on / and /rpc
- WebSocket receipt stream on /ws
- Health check on /health and Prometheus metrics on /metrics
- gRPC health service when [grpc] address is set
- Expiry sweeper when [sweeper] schedule is set

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = runServer
}

// market is an engine over an opened state store.
type market struct {
	engine *settlement.Engine
	store  *state.Store
}

func (m *market) Close() error {
	return m.store.Close()
}

// openMarket opens the state database and bootstraps it from genesis_file
// when it has never been initialized.
func openMarket(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*market, error) {
	db, err := storage.OpenKV(cfg.Database.Type, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Type, err)
	}
	store, err := state.NewStore(db, cfg.Database.StoreOptions())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state store: %w", err)
	}

	policy, err := cfg.Market.Policy()
	if err != nil {
		store.Close()
		return nil, err
	}
	operator, err := cfg.Market.OperatorAddress()
	if err != nil {
		store.Close()
		return nil, err
	}

	engine, err := settlement.NewEngine(store, settlement.Options{
		Policy:             policy,
		AllowExpiredAccept: cfg.Market.AllowExpiredAccept,
		Operator:           operator,
		Logger:             logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m := &market{engine: engine, store: store}
	if err := bootstrap(ctx, m.engine, cfg, logger); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func bootstrap(ctx context.Context, engine *settlement.Engine, cfg *config.Config, logger *zap.Logger) error {
	initialized, err := engine.Initialized(ctx)
	if err != nil {
		return fmt.Errorf("failed to read market state: %w", err)
	}
	if initialized {
		return nil
	}
	if cfg.GenesisFile == "" {
		logger.Warn("market is not initialized and no genesis_file is configured")
		return nil
	}

	genesis, err := config.LoadGenesis(cfg.GenesisFile)
	if err != nil {
		return err
	}
	if err := engine.Bootstrap(ctx, genesis); err != nil {
		return fmt.Errorf("failed to bootstrap market: %w", err)
	}
	logger.Info("market bootstrapped",
		zap.String("genesis", cfg.GenesisFile),
		zap.Stringer("admin", genesis.Params.Admin),
		zap.Int("assets", len(genesis.Assets)),
		zap.Int("fee_entries", len(genesis.FeeEntries)))
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := openMarket(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	engine := m.engine

	reg := metrics.New()
	reg.WatchCache(m.store)
	engine.Subscribe(reg)

	services := &rpc_types.ServiceContainer{
		Market:    engine,
		Version:   rootCmd.Version,
		StartedAt: time.Now(),
	}

	if cfg.Journal.Enabled() {
		j, err := journal.Open(ctx, &cfg.Journal, logger)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer j.Close()
		engine.Subscribe(j)
		services.Journal = j
	}

	stream := rpc.NewStreamServer(cfg.RPC, logger)
	defer stream.Close()
	engine.Subscribe(stream)

	rpcServer := rpc.NewServer(cfg.RPC, services, reg, logger)
	httpServer := &http.Server{
		Addr: cfg.Server.ListenAddress(),
		Handler: rpc.NewRouter(rpc.RouterOptions{
			RPC:     rpcServer,
			Stream:  stream,
			Health:  engine,
			Metrics: reg,
			Logger:  logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
			zap.Int("methods", len(rpcServer.Methods())))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.GRPC.Enabled() {
		grpcServer, err := grpcserver.NewServer(&cfg.GRPC, engine, logger)
		if err != nil {
			return fmt.Errorf("failed to create gRPC server: %w", err)
		}
		g.Go(func() error { return grpcServer.Run(gctx) })
	}

	if cfg.Sweeper.Schedule != "" {
		sw, err := sweeper.New(engine, cfg.Sweeper, reg, logger)
		if err != nil {
			return fmt.Errorf("failed to create sweeper: %w", err)
		}
		g.Go(func() error { return sw.Run(gctx) })
	}

	if !quiet {
		fmt.Printf("marketd %s\n", rootCmd.Version)
		fmt.Printf("  - HTTP JSON-RPC: http://%s/\n", httpServer.Addr)
		fmt.Printf("  - WebSocket:     ws://%s/ws\n", httpServer.Addr)
		fmt.Printf("  - Health Check:  http://%s/health\n", httpServer.Addr)
		fmt.Printf("  - Metrics:       http://%s/metrics\n", httpServer.Addr)
		if cfg.GRPC.Enabled() {
			fmt.Printf("  - gRPC health:   %s\n", cfg.GRPC.Address)
		}
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
