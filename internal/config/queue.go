package config

type Queue struct {
	Enabled       bool   `env:"QUEUE_ENABLED" envDefault:"false"`
	Name          string `env:"QUEUE_NAME" envDefault:"auctions"`
	Concurrency   int    `env:"QUEUE_CONCURRENCY" envDefault:"4"`
	RedisAddress  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisUsername string `env:"REDIS_USERNAME"`
	RedisPassword string `env:"REDIS_PASSWORD" json:"-"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}
