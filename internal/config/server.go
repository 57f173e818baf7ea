package config

import "time"

type Server struct {
	Address         string        `env:"SERVER_ADDRESS" envDefault:":8080"`
	MetricsAddress  string        `env:"METRICS_ADDRESS" envDefault:":9090"`
	ProbeAddress    string        `env:"PROBE_ADDRESS" envDefault:":8091"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogFieldMaxLen  int           `env:"LOG_FIELD_MAX_LEN" envDefault:"2048"`
}
