package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StatRow is one parsed vendor stat line: identity, positions, minutes
// and the flat metric map.
type StatRow struct {
	PlayerID           int64
	PlayerName         string
	TeamID             int64
	TeamName           string
	SeasonID           int
	Minutes            float64
	PrimaryPosition    string
	SecondaryPositions []string
	BirthDate          *time.Time
	PreferredFoot      string
	Metrics            map[string]float64
}

// Identity columns of the vendor export; every other column is a metric.
var statIdentityColumns = map[string]struct{}{
	"player_id":          {},
	"player_name":        {},
	"team_id":            {},
	"team_name":          {},
	"season_id":          {},
	"minutes":            {},
	"primary_position":   {},
	"secondary_position": {},
	"birth_date":         {},
	"preferred_foot":     {},
}

// ReadStatsCSV parses a vendor stat export. Rows with an unparseable
// player or season id are skipped; unparseable metric cells are dropped
// from the metric map. Returns the parsed rows and the number skipped.
func ReadStatsCSV(path string) ([]StatRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, 0, nil
	}

	header := records[0]
	index := make(map[string]int, len(header))
	var metricCols []string
	for j, name := range header {
		name = strings.TrimSpace(name)
		index[name] = j
		if _, isIdentity := statIdentityColumns[name]; !isIdentity {
			metricCols = append(metricCols, name)
		}
	}

	rows := make([]StatRow, 0, len(records)-1)
	skipped := 0
	for _, record := range records[1:] {
		row, ok := parseStatRow(record, index, metricCols)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseStatRow(record []string, index map[string]int, metricCols []string) (StatRow, bool) {
	field := func(name string) string {
		j, ok := index[name]
		if !ok || j >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[j])
	}

	playerID, err := strconv.ParseInt(field("player_id"), 10, 64)
	if err != nil {
		return StatRow{}, false
	}
	seasonID, err := strconv.Atoi(field("season_id"))
	if err != nil {
		return StatRow{}, false
	}

	row := StatRow{
		PlayerID:        playerID,
		PlayerName:      field("player_name"),
		TeamName:        field("team_name"),
		SeasonID:        seasonID,
		PrimaryPosition: field("primary_position"),
		PreferredFoot:   field("preferred_foot"),
		Metrics:         make(map[string]float64, len(metricCols)),
	}
	if v := field("team_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			row.TeamID = id
		}
	}
	if v := field("minutes"); v != "" {
		if minutes, err := strconv.ParseFloat(v, 64); err == nil {
			row.Minutes = minutes
		}
	}
	if v := field("secondary_position"); v != "" {
		for _, p := range strings.Split(v, "|") {
			if p = strings.TrimSpace(p); p != "" {
				row.SecondaryPositions = append(row.SecondaryPositions, p)
			}
		}
	}
	if v := field("birth_date"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			row.BirthDate = &d
		}
	}

	for _, name := range metricCols {
		j := index[name]
		if j >= len(record) {
			continue
		}
		s := strings.TrimSpace(record[j])
		if s == "" {
			continue
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			row.Metrics[name] = v
		}
	}
	return row, true
}
