package session_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auction_sim/internal/domain"
	"auction_sim/internal/domain/entity"
	"auction_sim/internal/infrastructure/session"
	"auction_sim/pkg/errcodes"
)

func testProducts() []entity.Product {
	return []entity.Product{
		{ID: "P1", Stock: 100, VolumeMultiple: 10, SellerMOQ: 30, StartingPrice: 10},
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	rq := require.New(t)

	store := session.NewStore(time.Minute)
	created := store.Create(testProducts())
	rq.NotEmpty(created.ID)

	got, err := store.Get(created.ID)
	rq.NoError(err)
	rq.Same(created, got)
	rq.Len(got.Products, 1)
}

func TestStoreGetUnknown(t *testing.T) {
	rq := require.New(t)

	store := session.NewStore(time.Minute)

	_, err := store.Get("missing")
	rq.Error(err)

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.AuctionNotFound, code)
}

func TestWithAuction(t *testing.T) {
	rq := require.New(t)

	store := session.NewStore(time.Minute)
	auction := store.Create(testProducts())

	err := store.WithAuction(auction.ID, func(a *session.Auction) error {
		a.UpsertBuyer(entity.Buyer{
			Name: "Alice",
			Offers: map[string]entity.BuyerOffer{
				"P1": {QtyDesired: 50, MOQ: 30, CurrentPrice: 11, MaxPrice: 12},
			},
		})

		return nil
	})
	rq.NoError(err)

	got, err := store.Get(auction.ID)
	rq.NoError(err)
	rq.Contains(got.Buyers, "Alice")
}

func TestUpsertBuyerClones(t *testing.T) {
	rq := require.New(t)

	store := session.NewStore(time.Minute)
	auction := store.Create(testProducts())

	buyer := entity.Buyer{
		Name: "Alice",
		Offers: map[string]entity.BuyerOffer{
			"P1": {QtyDesired: 50, MOQ: 30, CurrentPrice: 11, MaxPrice: 12},
		},
	}
	auction.UpsertBuyer(buyer)

	buyer.Offers["P1"] = entity.BuyerOffer{CurrentPrice: 99}
	rq.InDelta(11, auction.Buyers["Alice"].Offers["P1"].CurrentPrice, 1e-9)
}

func TestViewAuction(t *testing.T) {
	rq := require.New(t)

	store := session.NewStore(time.Minute)
	auction := store.Create(testProducts())

	auction.UpsertBuyer(entity.Buyer{
		Name: "Alice",
		Offers: map[string]entity.BuyerOffer{
			"P1": {QtyDesired: 50, MOQ: 30, CurrentPrice: 11, MaxPrice: 12},
		},
	})

	err := store.ViewAuction(auction.ID, func(a *session.Auction) error {
		rq.Len(a.BuyersList(), 1)
		return nil
	})
	rq.NoError(err)

	err = store.ViewAuction("missing", func(*session.Auction) error { return nil })
	rq.Error(err)
}

// Reads hold the auction read lock while writers mutate under WithAuction;
// run with the race detector.
func TestConcurrentViewAndUpdate(t *testing.T) {
	rq := require.New(t)

	store := session.NewStore(time.Minute)
	auction := store.Create(testProducts())

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 200; i++ {
			err := store.WithAuction(auction.ID, func(a *session.Auction) error {
				a.UpsertBuyer(entity.Buyer{
					Name: fmt.Sprintf("Buyer-%d", i%8),
					Offers: map[string]entity.BuyerOffer{
						"P1": {QtyDesired: 50, MOQ: 30, CurrentPrice: 11, MaxPrice: 12},
					},
				})
				a.RecordHistory(entity.Outcome{
					Status:     entity.SolveStatusSolved,
					Allocation: entity.Allocation{},
				})

				return nil
			})
			if err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		err := store.ViewAuction(auction.ID, func(a *session.Auction) error {
			_ = a.BuyersList()
			_ = len(a.History)

			return nil
		})
		rq.NoError(err)
	}

	<-done
}

func TestRecordHistory(t *testing.T) {
	rq := require.New(t)

	store := session.NewStore(time.Minute)
	auction := store.Create(testProducts())

	auction.UpsertBuyer(entity.Buyer{
		Name: "Alice",
		Offers: map[string]entity.BuyerOffer{
			"P1": {QtyDesired: 50, MOQ: 30, CurrentPrice: 11, MaxPrice: 12},
		},
	})
	auction.RecordHistory(entity.Outcome{
		Status:       entity.SolveStatusSolved,
		Allocation:   entity.Allocation{"Alice": {"P1": 50}},
		TotalRevenue: 550,
	})

	rq.Len(auction.History, 1)
	rq.InDelta(550, auction.History[0].TotalRevenue, 1e-9)
	rq.Len(auction.History[0].Buyers, 1)
	rq.Equal("Alice", auction.History[0].Buyers[0].Name)
	rq.False(auction.History[0].Recorded.IsZero())
}
