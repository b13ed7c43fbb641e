package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"siar-server/confs"
	"siar-server/db"
	"siar-server/logs"
	"siar-server/repositories"
	"siar-server/server"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		logs.Logger.Fatalf("Error loading config: %v", err)
	}
	logs.Init(logs.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg); err != nil {
		logs.Logger.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}

func run(cfg *confs.Config) error {
	var store repositories.Store
	if cfg.DBDriver == "memory" {
		logs.Logger.Warn("using in-memory store, data is lost on restart")
		store = repositories.NewMemoryStore()
	} else {
		database, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		store = repositories.NewPgStore(database)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewServer(cfg, store).Start(ctx)
}
