package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xy-planning-network/basecamp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const cxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

const (
	maxIdleCxnsEnvVar  = "DATABASE_MAX_IDLE_CXNS"
	defaultMaxIdleCxns = 1
)

// CxnConfig holds connection information used to connect to a PostgreSQL database.
type CxnConfig struct {
	URL         string
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxIdleCxns int
}

// NewConfig constructs a *CxnConfig from the DATABASE_URL environment variable.
//
// The capability gate and the connection read the same variable,
// so a database the resolver reports off can never be half-wired here.
func NewConfig() *CxnConfig {
	return &CxnConfig{
		URL:         os.Getenv(basecamp.DatabaseURLEnvVar),
		MaxIdleCxns: basecamp.EnvVarOrInt(maxIdleCxnsEnvVar, defaultMaxIdleCxns),
	}
}

// Connect creates a database connection through GORM according to the connection config.
func Connect(config *CxnConfig, env basecamp.Environment) (*gorm.DB, error) {
	// https://gorm.io/docs/logger.html
	c := logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  env.IsDevelopment(),
	}

	// The pool connects lazily: an unreachable database degrades health
	// reporting instead of failing startup.
	db, err := gorm.Open(postgres.Open(buildCxnStr(config)), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), c),
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(config.MaxIdleCxns)

	return db, nil
}

// Probe constructs a connectivity check against db for health reporting.
func Probe(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}

		return sqlDB.PingContext(ctx)
	}
}

// Close tears down the connection pool backing db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func buildCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	if config.SSLMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		config.SSLMode = "prefer"
	}

	return fmt.Sprintf(
		cxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		config.SSLMode,
	)
}
