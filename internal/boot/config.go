package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env          string `env:"ENV,default=dev"`
	DatabasePath string `env:"DATABASE_PATH,default=qwestive.db"`
	RPCEndpoint  string `env:"SOLANA_RPC_ENDPOINT,default=https://api.devnet.solana.com"`
	Session      struct {
		Secret   string        `env:"SESSION_SECRET,required"`
		Validity time.Duration `env:"SESSION_VALIDITY,default=24h"`
	}
	Server struct {
		Port        string `env:"PORT,default=8080"`
		MetricsPort string `env:"METRICS_PORT,default=8081"`
		Origins     string `env:"ALLOWED_ORIGINS,default=*"`
	}
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}
