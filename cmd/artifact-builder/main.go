package main

import (
	"context"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/builder"
	"github.com/Eugenia148/ISAC2025/internal/config"
	"github.com/Eugenia148/ISAC2025/internal/ingest"
	"github.com/Eugenia148/ISAC2025/internal/types"
	"github.com/Eugenia148/ISAC2025/pkg/database"
	"github.com/Eugenia148/ISAC2025/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: artifact-builder [all|tactical|roles|performance|ingest]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	lg := logger.GetLogger()

	command := os.Args[1]

	if command == "ingest" {
		if err := runIngest(cfg, lg); err != nil {
			lg.Fatalf("Ingest failed: %v", err)
		}
		lg.Info("Ingest completed successfully")
		return
	}

	b := builder.New(cfg.InputsDir, cfg.ArtifactsDir, lg)
	b.OnProgress(func(stage string, progress float64, message string) {
		lg.WithFields(logrus.Fields{
			"stage":    stage,
			"progress": progress,
		}).Info(message)
	})

	switch command {
	case "all":
		if err := b.BuildAll(context.Background()); err != nil {
			lg.Fatalf("Build failed: %v", err)
		}
		lg.Info("All artifacts built successfully")

	case "tactical":
		var failed bool
		for _, group := range types.AllGroups {
			if err := b.BuildTactical(group); err != nil {
				lg.WithError(err).WithField("position_group", group).Error("Tactical build failed")
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
		lg.Info("Tactical artifacts built successfully")

	case "roles":
		if err := b.BuildStrikerRoles(); err != nil {
			lg.Fatalf("Striker roles build failed: %v", err)
		}
		lg.Info("Striker role artifacts built successfully")

	case "performance":
		if err := b.BuildPerformance(); err != nil {
			lg.Fatalf("Performance build failed: %v", err)
		}
		lg.Info("Performance artifacts built successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

// runIngest mirrors the vendor stats CSV into the database. The file is
// read from INPUTS_DIR/player_stats.csv unless a path is given as the
// second argument.
func runIngest(cfg *config.Config, lg *logrus.Logger) error {
	if cfg.DatabaseURL == "" {
		lg.Fatal("DATABASE_URL is required for ingest")
	}

	path := cfg.InputsDir + "/player_stats.csv"
	if len(os.Args) > 2 {
		path = os.Args[2]
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer db.Close()

	store := ingest.NewStore(db, lg)
	if err := store.AutoMigrate(); err != nil {
		return err
	}

	rows, skipped, err := ingest.ReadStatsCSV(path)
	if err != nil {
		return err
	}
	if skipped > 0 {
		lg.WithField("skipped", skipped).Warn("Some stat rows were malformed and skipped")
	}

	upserted, err := store.UpsertRows(context.Background(), rows)
	if err != nil {
		return err
	}

	lg.WithFields(logrus.Fields{
		"file":     path,
		"upserted": upserted,
	}).Info("Stat rows mirrored into the database")
	return nil
}
