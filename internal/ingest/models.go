package ingest

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Player represents a player's identity in the stats mirror
type Player struct {
	ID                 int64          `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"not null;index" json:"name"`
	TeamID             int64          `gorm:"index" json:"team_id"`
	TeamName           string         `json:"team_name"`
	PrimaryPosition    string         `gorm:"index" json:"primary_position"`
	SecondaryPositions pq.StringArray `gorm:"type:text[]" json:"secondary_positions"`
	BirthDate          *time.Time     `json:"birth_date"`
	PreferredFoot      string         `json:"preferred_foot"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// PlayerSeasonStats represents one vendor stat row for a player-season:
// minutes plus the per-90 metric map as JSON.
type PlayerSeasonStats struct {
	PlayerSeasonID string         `gorm:"primaryKey" json:"player_season_id"`
	PlayerID       int64          `gorm:"not null;index" json:"player_id"`
	Player         *Player        `gorm:"foreignKey:PlayerID" json:"player,omitempty"`
	SeasonID       int            `gorm:"not null;index" json:"season_id"`
	Minutes        float64        `json:"minutes"`
	Metrics        datatypes.JSON `gorm:"type:jsonb" json:"metrics"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PlayerSeasonStats) TableName() string {
	return "player_season_stats"
}
