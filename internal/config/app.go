package config

type App struct {
	Name     string `env:"APP_NAME" envDefault:"auction-sim"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}
