package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Source drivers.
const (
	DriverFS       = "fs"
	DriverS3       = "s3"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Means used for the "Others" bucket of volume rankings.
const (
	OthersWeighted   = "weighted"
	OthersUnweighted = "unweighted"
)

type Config struct {
	AppEnv      string   `env:"APP_ENV" envDefault:"local"`
	Host        string   `env:"HOST" envDefault:"0.0.0.0"`
	Port        int      `env:"PORT" envDefault:"8050"`
	Debug       bool     `env:"DEBUG" envDefault:"false"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	DomainsFile string   `env:"DOMAINS_FILE"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	OthersMean  string   `env:"OTHERS_MEAN" envDefault:"weighted"`

	Source Source `envPrefix:"SOURCE_"`
}

// Source selects where the raw survey tables are read from.
type Source struct {
	Driver string `env:"DRIVER" envDefault:"fs"`
	Dir    string `env:"DIR" envDefault:"./clean_data"`
	DSN    string `env:"DSN"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3Prefix          string `env:"S3_PREFIX"`
	S3PathStyle       bool   `env:"S3_PATH_STYLE" envDefault:"false"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	switch c.OthersMean {
	case OthersWeighted, OthersUnweighted:
	default:
		return fmt.Errorf("invalid OTHERS_MEAN %q", c.OthersMean)
	}
	switch c.Source.Driver {
	case DriverFS:
	case DriverS3:
		if c.Source.S3Bucket == "" {
			return fmt.Errorf("SOURCE_S3_BUCKET is required for the s3 driver")
		}
	case DriverPostgres, DriverSQLite:
		if c.Source.DSN == "" {
			return fmt.Errorf("SOURCE_DSN is required for the %s driver", c.Source.Driver)
		}
	default:
		return fmt.Errorf("unknown SOURCE_DRIVER %q", c.Source.Driver)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
