// Package session keeps auction state in memory. Auctions expire after
// a TTL of inactivity; nothing is persisted across restarts.
package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/xid"
	"github.com/samber/lo"

	"auction_sim/internal/domain"
	"auction_sim/internal/domain/entity"
	"auction_sim/pkg/errcodes"
)

const DefaultTTL = 4 * time.Hour

// Snapshot is one line of the auction history: the buyer terms at the
// time of a solve together with its outcome.
type Snapshot struct {
	Recorded     time.Time
	Buyers       []entity.Buyer
	Status       entity.SolveStatus
	Allocation   entity.Allocation
	TotalRevenue float64
}

// Auction is a single live session. The mutex guards Buyers and History;
// callers go through Store.WithAuction or Store.ViewAuction to hold it.
type Auction struct {
	ID       string
	Products []entity.Product
	Buyers   map[string]entity.Buyer
	History  []Snapshot

	mu sync.RWMutex
}

func (a *Auction) UpsertBuyer(b entity.Buyer) {
	a.Buyers[b.Name] = b.Clone()
}

// BuyersList returns the buyers sorted by name. Solver inputs are built
// from this list so repeated solves see the same ordering.
func (a *Auction) BuyersList() []entity.Buyer {
	names := lo.Keys(a.Buyers)
	slices.Sort(names)

	buyers := make([]entity.Buyer, 0, len(names))
	for _, name := range names {
		buyers = append(buyers, a.Buyers[name].Clone())
	}

	return buyers
}

func (a *Auction) SetBuyers(buyers []entity.Buyer) {
	a.Buyers = make(map[string]entity.Buyer, len(buyers))
	for _, b := range buyers {
		a.Buyers[b.Name] = b.Clone()
	}
}

func (a *Auction) RecordHistory(outcome entity.Outcome) {
	a.History = append(a.History, Snapshot{
		Recorded:     time.Now().UTC(),
		Buyers:       a.BuyersList(),
		Status:       outcome.Status,
		Allocation:   outcome.Allocation,
		TotalRevenue: outcome.TotalRevenue,
	})
}

type Store struct {
	cache *gocache.Cache
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{cache: gocache.New(ttl, ttl)}
}

func (s *Store) Create(products []entity.Product) *Auction {
	auction := &Auction{
		ID:       xid.New().String(),
		Products: products,
		Buyers:   make(map[string]entity.Buyer),
	}
	s.cache.SetDefault(auction.ID, auction)

	return auction
}

func (s *Store) Get(id string) (*Auction, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, domain.NewError(errcodes.AuctionNotFound,
			fmt.Sprintf("auction %s not found", id))
	}

	return v.(*Auction), nil //nolint:forcetypeassert // only auctions are stored
}

// ViewAuction runs fn with the auction read-locked. Buyers and History
// are shared with concurrent writers; never read them off a bare Get.
func (s *Store) ViewAuction(id string, fn func(*Auction) error) error {
	auction, err := s.Get(id)
	if err != nil {
		return err
	}

	auction.mu.RLock()
	defer auction.mu.RUnlock()

	return fn(auction)
}

// WithAuction runs fn with the auction locked. Touching the cache entry
// here also resets the TTL of active sessions.
func (s *Store) WithAuction(id string, fn func(*Auction) error) error {
	auction, err := s.Get(id)
	if err != nil {
		return err
	}

	auction.mu.Lock()
	defer auction.mu.Unlock()

	if err := fn(auction); err != nil {
		return err
	}

	s.cache.SetDefault(auction.ID, auction)

	return nil
}
