// Package catalog loads the product catalog from disk. The catalog is
// read once at startup and shared read-only between auctions.
package catalog

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"auction_sim/internal/domain"
	"auction_sim/internal/domain/entity"
	"auction_sim/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

func Load(path string) ([]entity.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var products []entity.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, domain.WrapError(err, errcodes.InvalidCatalog, "catalog is not valid JSON")
	}

	if len(products) == 0 {
		return nil, domain.NewError(errcodes.InvalidCatalog, "catalog is empty")
	}

	seen := make(map[string]struct{}, len(products))

	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %s: %w", p.ID, err)
		}

		if _, ok := seen[p.ID]; ok {
			return nil, domain.NewError(errcodes.InvalidCatalog,
				fmt.Sprintf("duplicate product id %s", p.ID))
		}

		seen[p.ID] = struct{}{}
	}

	return products, nil
}
