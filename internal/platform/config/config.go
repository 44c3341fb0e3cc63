package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// JWTSigningKey signs operator access tokens; AdminSecretHash is the
	// bcrypt hash of the bootstrap secret that mints the first token.
	JWTSigningKey   string
	AdminSecretHash string

	PostgresDSN string
	Redis       RedisConfig

	KafkaBrokers []string
	KafkaTopic   string

	// Ledger bootstrap. Hex addresses; amounts are decimal strings in the
	// token's smallest unit.
	OwnerAddress            string
	IssuerAddress           string
	TreasuryAddress         string
	PoolAddress             string
	MinimumTransfer         string
	MinimumSponsoredBalance string
}

// RedisConfig captures the revocation list backend tuning.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SSITIZENS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("SSITIZENS_KAFKA_TOPIC")
	if topic == "" {
		topic = "ssitizens.ledger.events"
	}
	var brokers []string
	if raw := os.Getenv("SSITIZENS_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   os.Getenv("SSITIZENS_JWT_SIGNING_KEY"),
		AdminSecretHash: os.Getenv("SSITIZENS_ADMIN_SECRET_HASH"),
		PostgresDSN:     os.Getenv("SSITIZENS_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("SSITIZENS_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaBrokers:            brokers,
		KafkaTopic:              topic,
		OwnerAddress:            os.Getenv("SSITIZENS_OWNER_ADDRESS"),
		IssuerAddress:           os.Getenv("SSITIZENS_ISSUER_ADDRESS"),
		TreasuryAddress:         os.Getenv("SSITIZENS_TREASURY_ADDRESS"),
		PoolAddress:             os.Getenv("SSITIZENS_POOL_ADDRESS"),
		MinimumTransfer:         envOr("SSITIZENS_MINIMUM_TRANSFER", "0"),
		MinimumSponsoredBalance: envOr("SSITIZENS_MINIMUM_SPONSORED_BALANCE", "0"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
