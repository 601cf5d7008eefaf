package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type DB struct {
	Url     string `envconfig:"URL" default:"sqlite://codepay.db"`
	Migrate bool   `envconfig:"MIGRATE" default:"true"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"codepay:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Kafka struct {
	Brokers      string `envconfig:"BROKERS" default:"localhost:9092"`
	TopicPrefix  string `envconfig:"TOPIC_PREFIX" default:"codepay.events"`
	GroupID      string `envconfig:"GROUP_ID" default:"codepay"`
	SASLUsername string `envconfig:"SASL_USERNAME"`
	SASLPassword string `envconfig:"SASL_PASSWORD"`
	TLSEnabled   bool   `envconfig:"TLS_ENABLED" default:"false"`
}

type EventBus struct {
	Driver      string `envconfig:"DRIVER" default:"memory"`
	RedisStream string `envconfig:"REDIS_STREAM" default:"codepay-events"`
	RedisGroup  string `envconfig:"REDIS_GROUP" default:"codepay"`
}

type AliasCache struct {
	Driver string        `envconfig:"DRIVER" default:"memory"`
	TTL    time.Duration `envconfig:"TTL" default:"10m"`
}

// Ledger holds the monetary policy of the engine. Amounts are decimal strings in
// major units so that env files read the same as API payloads.
type Ledger struct {
	BankName       string          `envconfig:"BANK_NAME" default:"Banco Central Deuna"`
	BankSeed       decimal.Decimal `envconfig:"BANK_SEED" default:"100000.00"`
	WelcomeAmount  decimal.Decimal `envconfig:"WELCOME_AMOUNT" default:"100.00"`
	FeeRate        decimal.Decimal `envconfig:"FEE_RATE" default:"0.02"`
	CodeTTL        time.Duration   `envconfig:"CODE_TTL" default:"15m"`
	CodeRetries    int             `envconfig:"CODE_RETRIES" default:"5"`
	TransferLimit  decimal.Decimal `envconfig:"TRANSFER_LIMIT" default:"5000.00"`
	TransferWindow time.Duration   `envconfig:"TRANSFER_WINDOW" default:"24h"`
	SweepInterval  time.Duration   `envconfig:"SWEEP_INTERVAL" default:"1m"`
	LockTimeout    time.Duration   `envconfig:"LOCK_TIMEOUT" default:"5s"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[codepay]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env        string      `envconfig:"APP_ENV" default:"development"`
	Server     *Server     `envconfig:"SERVER"`
	Log        *Log        `envconfig:"LOG"`
	DB         *DB         `envconfig:"DATABASE"`
	Auth       *Auth       `envconfig:"AUTH"`
	Redis      *Redis      `envconfig:"REDIS"`
	RateLimit  *RateLimit  `envconfig:"RATE_LIMIT"`
	EventBus   *EventBus   `envconfig:"EVENTBUS"`
	Kafka      *Kafka      `envconfig:"KAFKA"`
	AliasCache *AliasCache `envconfig:"ALIAS_CACHE"`
	Ledger     *Ledger     `envconfig:"LEDGER"`
}

// IsDevelopment reports whether development-only routes may be mounted.
func (a *App) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "test"
}
