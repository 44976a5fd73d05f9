package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStatsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player_stats.csv")
	csv := "player_id,player_name,team_id,team_name,season_id,minutes,primary_position,secondary_position,birth_date,preferred_foot,np_xg_90,xa_90\n" +
		"101,Target Man,55,Granite FC,317,1450.5,Centre Forward,Left Wing|Secondary Striker,1998-04-12,Right,0.55,0.21\n" +
		"102,Engine Room,56,Marble United,317,1700,Centre Midfielder,,,Left,0.08,\n" +
		"oops,Bad Row,57,Nowhere,317,100,Centre Back,,,,0.1,0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	rows, skipped, err := ReadStatsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped, "unparseable player_id is skipped")
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, int64(101), first.PlayerID)
	assert.Equal(t, "Target Man", first.PlayerName)
	assert.Equal(t, 317, first.SeasonID)
	assert.InDelta(t, 1450.5, first.Minutes, 1e-9)
	assert.Equal(t, "Centre Forward", first.PrimaryPosition)
	assert.Equal(t, []string{"Left Wing", "Secondary Striker"}, first.SecondaryPositions)
	require.NotNil(t, first.BirthDate)
	assert.Equal(t, "1998-04-12", first.BirthDate.Format("2006-01-02"))
	assert.InDelta(t, 0.55, first.Metrics["np_xg_90"], 1e-9)
	assert.InDelta(t, 0.21, first.Metrics["xa_90"], 1e-9)

	second := rows[1]
	assert.Empty(t, second.SecondaryPositions)
	assert.Nil(t, second.BirthDate)
	_, hasXA := second.Metrics["xa_90"]
	assert.False(t, hasXA, "empty metric cells are not materialized")
}

func TestReadStatsCSVMissingFile(t *testing.T) {
	_, _, err := ReadStatsCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestReadStatsCSVHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player_stats.csv")
	require.NoError(t, os.WriteFile(path, []byte("player_id,season_id,minutes\n"), 0o644))

	rows, skipped, err := ReadStatsCSV(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, skipped)
}

func TestNilStoreDegrades(t *testing.T) {
	var store *Store
	ctx := context.Background()

	player, err := store.PlayerIdentity(ctx, 101)
	require.NoError(t, err)
	assert.Nil(t, player)

	stats, err := store.SeasonStats(ctx, 101, 317)
	require.NoError(t, err)
	assert.Nil(t, stats)

	assert.False(t, store.Enabled())
	assert.Error(t, store.HealthCheck())
}
