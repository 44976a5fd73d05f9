package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Eugenia148/ISAC2025/internal/types"
	"github.com/Eugenia148/ISAC2025/pkg/database"
)

// Store mirrors vendor stat rows into the database and answers identity
// lookups for the profile service. A nil *Store is a valid "database
// disabled" store: lookups miss, writes error.
type Store struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewStore creates a stats store over an open connection.
func NewStore(db *database.DB, logger *logrus.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// AutoMigrate creates or updates the mirror tables.
func (s *Store) AutoMigrate() error {
	if s == nil || s.db == nil {
		return errors.New("stats store has no database connection")
	}
	return s.db.AutoMigrate(&Player{}, &PlayerSeasonStats{})
}

// UpsertRows writes parsed stat rows: player identity rows keyed by
// player id, stat rows keyed by player-season id. Existing rows are
// updated in place. Returns the number of stat rows written.
func (s *Store) UpsertRows(ctx context.Context, rows []StatRow) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("stats store has no database connection")
	}

	written := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			player := Player{
				ID:                 row.PlayerID,
				Name:               row.PlayerName,
				TeamID:             row.TeamID,
				TeamName:           row.TeamName,
				PrimaryPosition:    row.PrimaryPosition,
				SecondaryPositions: row.SecondaryPositions,
				BirthDate:          row.BirthDate,
				PreferredFoot:      row.PreferredFoot,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&player).Error; err != nil {
				return fmt.Errorf("failed to upsert player %d: %w", row.PlayerID, err)
			}

			metrics, err := json.Marshal(row.Metrics)
			if err != nil {
				return fmt.Errorf("failed to encode metrics for player %d: %w", row.PlayerID, err)
			}
			stats := PlayerSeasonStats{
				PlayerSeasonID: string(types.NewPlayerSeasonID(row.PlayerID, row.SeasonID)),
				PlayerID:       row.PlayerID,
				SeasonID:       row.SeasonID,
				Minutes:        row.Minutes,
				Metrics:        datatypes.JSON(metrics),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "player_season_id"}},
				UpdateAll: true,
			}).Create(&stats).Error; err != nil {
				return fmt.Errorf("failed to upsert stats %s: %w", stats.PlayerSeasonID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"component": "ingest",
		"rows":      written,
	}).Info("Stat rows mirrored")
	return written, nil
}

// PlayerIdentity returns a player's identity row, or (nil, nil) when the
// player is unknown or the database is disabled.
func (s *Store) PlayerIdentity(ctx context.Context, playerID int64) (*Player, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var player Player
	err := s.db.WithContext(ctx).First(&player, "id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player %d: %w", playerID, err)
	}
	return &player, nil
}

// SeasonStats returns one mirrored stat row, or (nil, nil) when absent.
func (s *Store) SeasonStats(ctx context.Context, playerID int64, seasonID int) (*PlayerSeasonStats, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var stats PlayerSeasonStats
	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	err := s.db.WithContext(ctx).First(&stats, "player_season_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stats %s: %w", id, err)
	}
	return &stats, nil
}

// HealthCheck pings the underlying connection; nil store reports an error
// so readiness can distinguish "disabled" from "healthy".
func (s *Store) HealthCheck() error {
	if s == nil || s.db == nil {
		return errors.New("stats store has no database connection")
	}
	return s.db.HealthCheck()
}

// Enabled reports whether a database connection is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}
