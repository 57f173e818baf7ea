package entity

import (
	"fmt"

	"auction_sim/internal/domain"
	"auction_sim/pkg/errcodes"
)

// Product is one sellable line of the auction catalog. All allocated
// quantities must be integer multiples of VolumeMultiple.
type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Stock          int64   `json:"stock"`
	VolumeMultiple int64   `json:"volume_multiple"`
	SellerMOQ      int64   `json:"seller_moq"`
	StartingPrice  float64 `json:"starting_price"`
}

func (p Product) Validate() error {
	if p.ID == "" {
		return domain.NewError(errcodes.InvalidProduct, "product id is empty")
	}

	if p.Stock < 0 {
		return domain.NewError(errcodes.InvalidProduct,
			fmt.Sprintf("product %s: negative stock %d", p.ID, p.Stock))
	}

	if p.VolumeMultiple <= 0 {
		return domain.NewError(errcodes.InvalidVolumeMultiple,
			fmt.Sprintf("product %s: volume multiple %d must be positive", p.ID, p.VolumeMultiple))
	}

	return nil
}
