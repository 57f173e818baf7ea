// Package application assembles the service: config, catalog, solver
// stack, HTTP transport and the optional task queue, all supervised by
// one errgroup.
package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"auction_sim/internal/config"
	"auction_sim/internal/domain/entity"
	"auction_sim/internal/domain/service/allocation"
	"auction_sim/internal/domain/service/autobid"
	"auction_sim/internal/domain/service/recommend"
	"auction_sim/internal/infrastructure/catalog"
	"auction_sim/internal/infrastructure/queue"
	"auction_sim/internal/infrastructure/session"
	"auction_sim/internal/server"
	"auction_sim/internal/worker"
	"auction_sim/pkg/application/connectors"
	"auction_sim/pkg/application/modules"
	"auction_sim/pkg/contextx"
	"auction_sim/pkg/logx"
	"auction_sim/pkg/middlewarex"
	"auction_sim/pkg/milp"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const version = "1.0.0"

func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	products, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog.Load: %w", err)
	}

	logger(ctx).Info("catalog loaded", "path", cfg.Catalog.Path, "products", len(products))

	solver := allocation.NewSolver(milp.NewBranchBound()).
		WithGlobalMOQ(cfg.Auction.SellerGlobalMOQ).
		WithSolveTimeout(cfg.Auction.SolveTimeout)

	runner := autobid.NewRunner(solver).
		WithMaxRounds(cfg.Auction.AutoBidMaxRounds).
		WithIncrements(cfg.Auction.AutoBidIncrements)

	calculator := recommend.NewCalculator(solver)
	store := session.NewStore(cfg.Auction.SessionTTL)

	g, ctx := errgroup.WithContext(ctx)

	var enqueuer *queue.Enqueuer

	if cfg.Queue.Enabled {
		redisConnector := &connectors.Redis{
			Address:        cfg.Queue.RedisAddress,
			Username:       cfg.Queue.RedisUsername,
			Password:       cfg.Queue.RedisPassword,
			DatabaseNumber: cfg.Queue.RedisDB,
		}
		redisConnector.Client(ctx)

		defer redisConnector.Close(ctx)

		enqueuer = queue.NewEnqueuer(asynq.RedisClientOpt{
			Addr:     cfg.Queue.RedisAddress,
			Username: cfg.Queue.RedisUsername,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		}, cfg.Queue.Name)

		defer enqueuer.Close() //nolint:errcheck

		autoBidWorker := worker.NewAutoBid(store, runner, solver)

		modules.AsynqServer{
			RedisAddress:  cfg.Queue.RedisAddress,
			RedisUsername: cfg.Queue.RedisUsername,
			RedisPassword: cfg.Queue.RedisPassword,
			RedisDB:       cfg.Queue.RedisDB,
			Concurrency:   cfg.Queue.Concurrency,
		}.Run(ctx, g,
			modules.AsynqQueues{cfg.Queue.Name: 1},
			modules.AsynqHandler{
				Pattern: queue.TaskAutoBidRun,
				Handle:  autoBidWorker.HandleAutoBidRun,
			},
		)
	}

	srv := server.NewServer(newAuctionServer(products, store, solver, runner, calculator, enqueuer))

	router := newRouter(ctx, cfg, srv)

	modules.HTTPServer{ShutdownTimeout: cfg.Server.ShutdownTimeout}.Run(ctx, g, &http.Server{ //nolint:exhaustruct
		Addr:    cfg.Server.Address,
		Handler: router,
	})

	modules.MetricServer{ListenAddress: cfg.Server.MetricsAddress}.Run(ctx, g)

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       version,
		ListenAddress: cfg.Server.ProbeAddress,
	}.Run(ctx, g)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}

func newRouter(ctx context.Context, cfg config.Config, srv server.Server) chi.Router {
	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.RequestLogging(masker, cfg.Server.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.Server.LogFieldMaxLen),
		middlewarex.Recovery,
	)

	srv.RegisterRoutes(router)

	logger(ctx).Info("routes registered", "address", cfg.Server.Address)

	return router
}

// newAuctionServer passes a nil interface, not a typed nil pointer, when
// the queue is disabled.
func newAuctionServer(
	products []entity.Product,
	store *session.Store,
	solver *allocation.Solver,
	runner *autobid.Runner,
	calculator *recommend.Calculator,
	enqueuer *queue.Enqueuer,
) server.AuctionServer {
	if enqueuer == nil {
		return server.NewAuctionServer(products, store, solver, runner, calculator, nil)
	}

	return server.NewAuctionServer(products, store, solver, runner, calculator, enqueuer)
}
