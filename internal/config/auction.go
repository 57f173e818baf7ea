package config

import "time"

type Auction struct {
	SellerGlobalMOQ   int64         `env:"SELLER_GLOBAL_MOQ" envDefault:"80"`
	AutoBidMaxRounds  int           `env:"AUTOBID_MAX_ROUNDS" envDefault:"30"`
	AutoBidIncrements []float64     `env:"AUTOBID_INCREMENTS" envDefault:"0.05,0.1,0.2,0.5,1,2"`
	SolveTimeout      time.Duration `env:"SOLVE_TIMEOUT" envDefault:"30s"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"4h"`
}

type Catalog struct {
	Path string `env:"CATALOG_PATH" envDefault:"products.json"`
}
