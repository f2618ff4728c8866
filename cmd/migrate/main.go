// cmd/migrate applies or rolls back schema migrations without starting
// the server.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/campusconnect/events-api/internal/config"
	"github.com/campusconnect/events-api/internal/database"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	if *down {
		if err := database.MigrateDown(cfg.Database); err != nil {
			slog.Error("migrate down", "error", err)
			os.Exit(1)
		}
		slog.Info("rolled back one migration")
		return
	}

	if err := database.Migrate(cfg.Database); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")
}
