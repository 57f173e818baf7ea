package server

import (
	"context"
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"

	"auction_sim/internal/domain"
	"auction_sim/internal/domain/entity"
	"auction_sim/internal/domain/service/recommend"
	"auction_sim/internal/infrastructure/session"
	"auction_sim/pkg/errcodes"
	"auction_sim/pkg/httpx/reply"
	"auction_sim/pkg/httpx/req"
	"auction_sim/pkg/rest"
)

type allocationSolver interface {
	Solve(ctx context.Context, buyers []entity.Buyer, products []entity.Product) (entity.Outcome, error)
}

type autoBidRunner interface {
	Run(ctx context.Context, buyers []entity.Buyer, products []entity.Product) ([]entity.Buyer, error)
}

type recommendCalculator interface {
	Recommend(
		ctx context.Context,
		buyers []entity.Buyer,
		products []entity.Product,
		newBuyerName string,
	) (map[string]recommend.ProductAdvice, error)
}

type autoBidEnqueuer interface {
	EnqueueAutoBid(ctx context.Context, auctionID string) (string, error)
}

type AuctionServer struct {
	products   []entity.Product
	store      *session.Store
	solver     allocationSolver
	runner     autoBidRunner
	calculator recommendCalculator
	enqueuer   autoBidEnqueuer
}

// NewAuctionServer wires the auction endpoints. The enqueuer may be nil
// when the task queue is disabled; async auto-bid requests are then
// rejected.
func NewAuctionServer(
	products []entity.Product,
	store *session.Store,
	solver allocationSolver,
	runner autoBidRunner,
	calculator recommendCalculator,
	enqueuer autoBidEnqueuer,
) AuctionServer {
	return AuctionServer{
		products:   products,
		store:      store,
		solver:     solver,
		runner:     runner,
		calculator: calculator,
		enqueuer:   enqueuer,
	}
}

func (s AuctionServer) getV1Products(w http.ResponseWriter, r *http.Request) error {
	reply.JSON(r.Context(), w, http.StatusOK, newRESTProducts(s.products))

	return nil
}

func (s AuctionServer) postV1Auctions(w http.ResponseWriter, r *http.Request) error {
	auction := s.store.Create(s.products)

	reply.JSON(r.Context(), w, http.StatusCreated, rest.Auction{
		ID:       auction.ID,
		Products: newRESTProducts(auction.Products),
	})

	return nil
}

func (s AuctionServer) getV1Auction(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var state rest.AuctionState

	err := s.store.ViewAuction(r.PathValue("auctionID"), func(auction *session.Auction) error {
		state = newRESTState(auction)
		return nil
	})
	if err != nil {
		return mapDomainError(err)
	}

	reply.JSON(ctx, w, http.StatusOK, state)

	return nil
}

func (s AuctionServer) putV1Buyer(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var terms rest.BuyerTerms
	if err := req.Read(r, &terms); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	var state rest.AuctionState

	err := s.store.WithAuction(r.PathValue("auctionID"), func(auction *session.Auction) error {
		buyer := newDomainBuyer(r.PathValue("name"), terms)

		if err := buyer.Validate(auction.Products); err != nil {
			return mapDomainError(err)
		}

		auction.UpsertBuyer(buyer)

		outcome, err := s.solver.Solve(ctx, auction.BuyersList(), auction.Products)
		if err != nil {
			return fmt.Errorf("solver.Solve: %w", err)
		}

		auction.RecordHistory(outcome)
		state = newRESTState(auction)

		return nil
	})
	if err != nil {
		return mapDomainError(err)
	}

	reply.JSON(ctx, w, http.StatusOK, state)

	return nil
}

func (s AuctionServer) postV1AutoBid(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	auctionID := r.PathValue("auctionID")

	if r.URL.Query().Get("async") == "true" {
		return s.enqueueAutoBid(ctx, w, auctionID)
	}

	var result rest.AutoBidResult

	err := s.store.WithAuction(auctionID, func(auction *session.Auction) error {
		buyers, err := s.runner.Run(ctx, auction.BuyersList(), auction.Products)
		if err != nil {
			return fmt.Errorf("runner.Run: %w", err)
		}

		auction.SetBuyers(buyers)

		outcome, err := s.solver.Solve(ctx, auction.BuyersList(), auction.Products)
		if err != nil {
			return fmt.Errorf("solver.Solve: %w", err)
		}

		auction.RecordHistory(outcome)

		result = rest.AutoBidResult{
			Buyers:       newRESTBuyers(auction.BuyersList()),
			Status:       string(outcome.Status),
			Allocation:   outcome.Allocation,
			TotalRevenue: outcome.TotalRevenue,
		}

		return nil
	})
	if err != nil {
		return mapDomainError(err)
	}

	reply.JSON(ctx, w, http.StatusOK, result)

	return nil
}

func (s AuctionServer) enqueueAutoBid(ctx context.Context, w http.ResponseWriter, auctionID string) error {
	if s.enqueuer == nil {
		return failure.NewUnprocessableEntityError(
			"task queue is disabled",
			failure.WithCode(errcodes.QueueDisabled),
		)
	}

	// Fail fast on unknown auctions instead of burying the error in the worker.
	if _, err := s.store.Get(auctionID); err != nil {
		return mapDomainError(err)
	}

	taskID, err := s.enqueuer.EnqueueAutoBid(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("enqueuer.EnqueueAutoBid: %w", err)
	}

	reply.JSON(ctx, w, http.StatusAccepted, rest.AutoBidEnqueued{TaskID: taskID})

	return nil
}

func (s AuctionServer) getV1Recommendations(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	buyerName := r.URL.Query().Get("buyer")
	if buyerName == "" {
		return failure.NewInvalidArgumentError(
			"buyer query parameter is required",
			failure.WithCode(errcodes.ValidationError),
		)
	}

	var (
		buyers   []entity.Buyer
		products []entity.Product
	)

	// BuyersList clones, so the solve below runs outside the lock.
	err := s.store.ViewAuction(r.PathValue("auctionID"), func(auction *session.Auction) error {
		buyers = auction.BuyersList()
		products = auction.Products

		return nil
	})
	if err != nil {
		return mapDomainError(err)
	}

	advice, err := s.calculator.Recommend(ctx, buyers, products, buyerName)
	if err != nil {
		return fmt.Errorf("calculator.Recommend: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTRecommendations(buyerName, advice))

	return nil
}

func (s AuctionServer) getV1History(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var history []rest.HistoryEntry

	err := s.store.ViewAuction(r.PathValue("auctionID"), func(auction *session.Auction) error {
		history = newRESTHistory(auction.History)
		return nil
	})
	if err != nil {
		return mapDomainError(err)
	}

	reply.JSON(ctx, w, http.StatusOK, history)

	return nil
}

// mapDomainError translates domain error codes into transport failures so
// reply.Error picks the right HTTP status.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	code, ok := domain.GetCode(err)
	if !ok {
		return err
	}

	switch code {
	case errcodes.AuctionNotFound, errcodes.BuyerNotFound, errcodes.ProductNotFound:
		return failure.NewNotFoundErrorFromError(err, failure.WithCode(code))
	case errcodes.InvalidProduct, errcodes.InvalidVolumeMultiple, errcodes.InvalidOffer,
		errcodes.PriceAboveCeiling, errcodes.InvalidBuyerName, errcodes.InvalidCatalog:
		return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(code))
	default:
		return err
	}
}
