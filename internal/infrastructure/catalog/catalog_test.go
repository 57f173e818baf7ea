package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"auction_sim/internal/domain"
	"auction_sim/internal/infrastructure/catalog"
	"auction_sim/pkg/errcodes"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	rq := require.New(t)

	path := writeCatalog(t, `[
		{"id": "P1", "name": "Produit A", "stock": 210, "seller_moq": 30, "starting_price": 10.0, "volume_multiple": 10},
		{"id": "P2", "name": "Produit B", "stock": 150, "seller_moq": 20, "starting_price": 8.0, "volume_multiple": 5}
	]`)

	products, err := catalog.Load(path)
	rq.NoError(err)
	rq.Len(products, 2)
	rq.Equal("P1", products[0].ID)
	rq.EqualValues(210, products[0].Stock)
	rq.InDelta(8.0, products[1].StartingPrice, 1e-9)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		code    string
	}{
		{
			name:    "Empty catalog",
			content: `[]`,
			code:    string(errcodes.InvalidCatalog),
		},
		{
			name:    "Broken JSON",
			content: `{`,
			code:    string(errcodes.InvalidCatalog),
		},
		{
			name: "Duplicate id",
			content: `[
				{"id": "P1", "stock": 10, "volume_multiple": 5},
				{"id": "P1", "stock": 10, "volume_multiple": 5}
			]`,
			code: string(errcodes.InvalidCatalog),
		},
		{
			name:    "Zero volume multiple",
			content: `[{"id": "P1", "stock": 10, "volume_multiple": 0}]`,
			code:    string(errcodes.InvalidVolumeMultiple),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			_, err := catalog.Load(writeCatalog(t, tc.content))
			rq.Error(err)

			code, ok := domain.GetCode(err)
			rq.True(ok)
			rq.Equal(tc.code, string(code))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	rq := require.New(t)

	_, err := catalog.Load(filepath.Join(t.TempDir(), "nope.json"))
	rq.Error(err)
}
