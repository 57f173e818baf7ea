package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auction_sim/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Get("/products", handler(s.getV1Products))

			r.Route("/auctions", func(r chi.Router) {
				r.Post("/", handler(s.postV1Auctions))

				r.Route("/{auctionID}", func(r chi.Router) {
					r.Get("/", handler(s.getV1Auction))
					r.Put("/buyers/{name}", handler(s.putV1Buyer))
					r.Post("/autobid", handler(s.postV1AutoBid))
					r.Get("/recommendations", handler(s.getV1Recommendations))
					r.Get("/history", handler(s.getV1History))
				})
			})
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
