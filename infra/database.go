package infra

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/codepay/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// NewDBConnection opens the database named by cnf.Url. A "sqlite://<path>" url
// opens a local sqlite file; anything else is treated as a postgres DSN.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	if IsSQLite(cnf.Url) {
		return openSQLite(strings.TrimPrefix(cnf.Url, sqlitePrefix), gormCfg)
	}

	connection, err := gorm.Open(postgres.Open(cnf.Url), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}

// IsSQLite reports whether url selects the sqlite driver.
func IsSQLite(url string) bool {
	return strings.HasPrefix(url, sqlitePrefix)
}

// OpenSQLiteMemory opens a private in-memory sqlite database named name.
func OpenSQLiteMemory(name string) (*gorm.DB, error) {
	return openSQLite("file:"+name+"?mode=memory&cache=shared", &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
}

// sqlite allows a single writer, so the pool is pinned to one connection and
// every statement inside a unit of work must use its transaction.
func openSQLite(dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if !strings.Contains(dsn, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_busy_timeout=5000&_foreign_keys=1"
	}
	connection, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return connection, nil
}
