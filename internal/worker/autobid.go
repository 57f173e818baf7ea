// Package worker holds the asynq task handlers.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"auction_sim/internal/domain/entity"
	"auction_sim/internal/infrastructure/queue"
	"auction_sim/internal/infrastructure/session"
	"auction_sim/pkg/contextx"
	"auction_sim/pkg/logx"
)

var (
	logger = contextx.LoggerFromContextOrDefault          //nolint:gochecknoglobals
	json   = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip
)

type AutoBidRunner interface {
	Run(ctx context.Context, buyers []entity.Buyer, products []entity.Product) ([]entity.Buyer, error)
}

type AllocationSolver interface {
	Solve(ctx context.Context, buyers []entity.Buyer, products []entity.Product) (entity.Outcome, error)
}

// AutoBid runs the auto-bid heuristic for an auction in the background
// and commits the resulting prices and allocation to the session.
type AutoBid struct {
	store  *session.Store
	runner AutoBidRunner
	solver AllocationSolver
}

func NewAutoBid(store *session.Store, runner AutoBidRunner, solver AllocationSolver) *AutoBid {
	return &AutoBid{
		store:  store,
		runner: runner,
		solver: solver,
	}
}

func (w *AutoBid) HandleAutoBidRun(ctx context.Context, task *asynq.Task) error {
	var payload queue.AutoBidPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	err := w.store.WithAuction(payload.AuctionID, func(auction *session.Auction) error {
		buyers, err := w.runner.Run(ctx, auction.BuyersList(), auction.Products)
		if err != nil {
			return fmt.Errorf("runner.Run: %w", err)
		}

		auction.SetBuyers(buyers)

		outcome, err := w.solver.Solve(ctx, auction.BuyersList(), auction.Products)
		if err != nil {
			return fmt.Errorf("solver.Solve: %w", err)
		}

		auction.RecordHistory(outcome)

		logger(ctx).Info("auto-bid task finished",
			slog.String(logx.FieldAuctionID, payload.AuctionID),
			slog.String(logx.FieldSolveStatus, string(outcome.Status)),
			slog.Float64(logx.FieldRevenue, outcome.TotalRevenue),
		)

		return nil
	})
	if err != nil {
		return fmt.Errorf("autobid task %s: %w", payload.AuctionID, err)
	}

	return nil
}
