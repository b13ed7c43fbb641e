package db

import (
	"fmt"
	"strings"
	"time"

	"siar-server/confs"
	"siar-server/entities"
	"siar-server/logs"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the server owns.
var Models = []interface{}{
	&entities.User{},
	&entities.Profile{},
	&entities.Device{},
	&entities.Configuration{},
	&entities.Schedule{},
	&entities.MoistureReading{},
	&entities.Event{},
}

func Connect(cfg *confs.Config) (Database, error) {
	var stop func() error

	if cfg.DBEmbedded {
		dsn, stopFn, err := startEmbedded(cfg)
		if err != nil {
			return nil, err
		}
		cfg.DBDriver = "postgres"
		cfg.DBURL = dsn
		stop = stopFn
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(dialector, &gorm.Config{
			Logger:      logger.Default.LogMode(logger.Warn),
			PrepareStmt: true,
		})
		if openErr != nil {
			logs.Logger.Warnf("database not ready: %v", openErr)
			return openErr
		}
		sqlDB, openErr := db.DB()
		if openErr != nil {
			return backoff.Permanent(openErr)
		}
		return sqlDB.Ping()
	}, backoff.WithMaxRetries(bo, 5))
	if err != nil {
		if stop != nil {
			_ = stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logs.Logger.Infof("database connection established (driver=%s)", cfg.DBDriver)
	return prepare(db, stop)
}

var migrate = func(db *gorm.DB) error { return db.AutoMigrate(Models...) }

// prepare tunes the pool and migrates. On failure the pool is closed and the
// embedded server, if any, is stopped.
func prepare(db *gorm.DB, stop func() error) (Database, error) {
	fail := func(err error) (Database, error) {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		if stop != nil {
			_ = stop()
		}
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fail(fmt.Errorf("failed to get database instance: %w", err))
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrate(db); err != nil {
		return fail(fmt.Errorf("failed to migrate database: %w", err))
	}
	logs.Logger.Info("database migrations completed")

	return &GormDatabase{DB: db, stop: stop}, nil
}

func dialectorFor(cfg *confs.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", "postgres":
		dsn, err := postgresDSN(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	case "mysql":
		// user:pass@tcp(127.0.0.1:3306)/siar?parseTime=true&charset=utf8mb4&loc=UTC
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required for the mysql driver")
		}
		return mysql.Open(cfg.DBURL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}
}

func postgresDSN(cfg *confs.Config) (string, error) {
	if cfg.DBURL != "" {
		dsn := cfg.DBURL
		if !strings.Contains(dsn, "sslmode=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "sslmode=require"
		}
		return dsn, nil
	}

	if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
		return "", fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := "require"
	if cfg.DBHost == "localhost" || cfg.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode), nil
}
