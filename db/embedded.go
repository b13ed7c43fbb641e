package db

import (
	"fmt"

	"siar-server/confs"
	"siar-server/logs"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// startEmbedded boots a local PostgreSQL for development and returns its DSN.
func startEmbedded(cfg *confs.Config) (string, func() error, error) {
	name := cfg.DBName
	if name == "" {
		name = "siar"
	}
	user, pass := "siar", "siar"

	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(embeddedPort).
		Database(name).
		Username(user).
		Password(pass).
		DataPath(embeddedDataPath))

	logs.Logger.Infof("starting embedded PostgreSQL on port %d", embeddedPort)
	if err := pg.Start(); err != nil {
		return "", nil, fmt.Errorf("start embedded postgres: %w", err)
	}

	dsn := fmt.Sprintf("host=localhost user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		user, pass, name, embeddedPort)
	return dsn, pg.Stop, nil
}
