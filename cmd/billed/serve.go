package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/peterbourgon/ff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/billed/internal/billstore"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(parent *ff.FlagSet, cfg rootConfig) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "billed.db", "Database file path")
		storagePath = fs.StringLong("storage", "./receipts", "Receipt storage directory path")
	)

	return &ff.Command{
		Name:      "serve",
		Usage:     "billed serve [FLAGS]",
		ShortHelp: "run the bill service",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			return serve(ctx, cfg, *port, *dbPath, *storagePath)
		},
	}
}

func serve(ctx context.Context, cfg rootConfig, port int, dbPath, storagePath string) error {
	slog.Info("Initializing database...", "path", dbPath)
	db, err := billstore.NewBoltDB(dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	slog.Info("Initializing storage...", "path", storagePath)
	storage, err := billstore.NewLocalStorage(storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	basicAuth := billstore.BasicAuth{
		Username: *cfg.authUser,
		Password: *cfg.authPass,
	}
	server := billstore.NewServer(billstore.NewService(db, storage), basicAuth)
	if basicAuth.Username != "" || basicAuth.Password != "" {
		slog.Info("Basic auth enabled", "user", basicAuth.Username)
	}

	addr := fmt.Sprintf(":%d", port)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(addr)
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
