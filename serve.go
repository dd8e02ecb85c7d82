package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/catalog"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/clickhouse"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/config"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/dal"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
	grpcserver "github.com/Billy-Davies-2/gridiron-draft-assistant/internal/grpc"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/handlers"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/mcptools"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/mocks"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/pubsub"
)

// historySource is the alternate ADP source name for averages computed from past drafts
const historySource = "history"

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Info("Starting gridiron draft assistant", "environment", cfg.Environment, "version", version)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	bus, eventLog, closeBus, err := openEventBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	defaults, err := config.LoadLeagueSettings(cfg.LeagueFile)
	if err != nil {
		return err
	}
	if err := draft.ValidateSettings(defaults); err != nil {
		return fmt.Errorf("league file %q: %w", cfg.LeagueFile, err)
	}

	opts := []draft.SessionOption{
		draft.WithStore(store),
		draft.WithPublisher(bus),
		draft.WithPickRecorder(history),
	}
	if !cfg.StrictTurnOrder {
		opts = append(opts, draft.WithLenientTurns())
	}
	session := draft.NewSession(cat, opts...)
	if err := session.Restore(ctx); err != nil {
		return err
	}

	go syncHistoricalADP(ctx, history, session, cfg.ADPSyncInterval)

	// gRPC
	lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen for gRPC on port %s: %w", cfg.GRPCPort, err)
	}
	grpcServer := grpc.NewServer()
	grpcserver.RegisterDraftServiceServer(grpcServer, grpcserver.NewServer(session, bus, defaults))
	go func() {
		logger.Info("gRPC server starting", "address", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()
	defer grpcServer.GracefulStop()

	// HTTP
	routerCfg := handlers.RouterConfig{
		CORSAllowOrigins:  cfg.CORSAllowOrigins,
		RateLimitEnabled:  cfg.RateLimitEnabled,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}
	if cfg.MCPEnabled {
		routerCfg.MCP = mcptools.NewHandler(mcptools.NewServer(session, version))
		logger.Info("MCP tools enabled", "path", "/mcp")
	}
	api := handlers.NewAPIHandlers(session, bus, store, defaults).WithADPHistory(history)
	if eventLog != nil {
		api.WithEventLog(eventLog)
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.HTTPPort,
		Handler:           handlers.NewRouter(api, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	return nil
}

func openStore(cfg *config.Config) (dal.DraftDAL, error) {
	switch cfg.DBDriver {
	case "sqlite":
		store, err := dal.NewSQLiteDAL(cfg.SQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite: %w", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
		return store, nil
	case "postgres":
		store, err := dal.NewPostgresDAL(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("initialize Postgres: %w", err)
		}
		logger.Info("Connected to Postgres database")
		return store, nil
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryDAL(), nil
	}
}

// openEventBus returns the local bus handlers subscribe to. With NATS
// configured, events round-trip through JetStream so every replica sees them.
func openEventBus(cfg *config.Config) (*pubsub.PubSub, handlers.EventLog, func(), error) {
	if cfg.EmbeddedNATS {
		logger.Info("Starting embedded NATS server for local development")
		opts := pubsub.DefaultEmbeddedNATSOptions()
		opts.Subject = cfg.NATSSubject
		embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("initialize embedded NATS: %w", err)
		}
		logger.Info("Embedded NATS server ready", "url", embedded.GetServerURL())
		return pubsub.NewWithUpstream(embedded), embedded, embedded.Close, nil
	}

	if cfg.IsDevelopment() {
		logger.Info("Using in-process event bus")
		return pubsub.New(), nil, func() {}, nil
	}

	nats, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize NATS: %w", err)
	}
	logger.Info("Connected to NATS", "url", cfg.NATSURL)
	return pubsub.NewWithUpstream(nats), nats, nats.Close, nil
}

func openHistory(cfg *config.Config) (clickhouse.ADPHistory, error) {
	if !cfg.ClickHouseEnabled {
		logger.Info("Using in-memory ADP history (ClickHouse not configured)")
		return mocks.NewMockADPHistory(), nil
	}

	client, err := clickhouse.NewClient(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePassword)
	if err != nil {
		return nil, fmt.Errorf("initialize ClickHouse at %s: %w", cfg.ClickHouseAddr, err)
	}
	logger.Info("Connected to ClickHouse", "address", cfg.ClickHouseAddr, "database", cfg.ClickHouseDB)
	return client, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.RankingsFile != "" {
		return catalog.LoadMerged(cfg.PlayersFile, cfg.RankingsFile, cfg.CatalogLimit)
	}
	return catalog.LoadFile(cfg.PlayersFile)
}

// syncHistoricalADP periodically copies ADP averages from past drafts onto the catalog
func syncHistoricalADP(ctx context.Context, history clickhouse.ADPHistory, session *draft.Session, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		adp := map[string]float64{}
		err := history.SyncADP(ctx, func(playerID string, value float64) error {
			adp[playerID] = value
			return nil
		})
		if err != nil {
			logger.Warn("Failed to sync historical ADP", "error", err)
		} else if len(adp) > 0 {
			session.ApplyAlternateADP(historySource, adp)
			logger.Info("Historical ADP synced", "players", len(adp))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
