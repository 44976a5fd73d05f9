package artifacts

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

// Identity columns recognized in every tabular artifact. Any other header
// column is a value (axis or metric) column.
const (
	colPlayerSeasonID = "player_season_id"
	colPlayerID       = "player_id"
	colSeasonID       = "season_id"
	colPlayerName     = "player_name"
	colTeamID         = "team_id"
	colTeamName       = "team_name"
	colMinutes        = "minutes"
)

var identityColumns = map[string]struct{}{
	colPlayerSeasonID: {},
	colPlayerID:       {},
	colSeasonID:       {},
	colPlayerName:     {},
	colTeamID:         {},
	colTeamName:       {},
	colMinutes:        {},
}

// Row is one player-season entry of a tabular artifact: identity fields
// plus the numeric values aligned with the table's value columns.
type Row struct {
	ID         string
	PlayerID   int64
	SeasonID   int
	PlayerName string
	TeamID     int64
	TeamName   string
	Minutes    float64
	Values     []float64
}

// Table is a flat artifact table keyed by player-season id, preserving
// load order. Tables are immutable after load; the store hands out the
// same instance to all readers.
type Table struct {
	Columns []string
	rows    map[string]*Row
	order   []string
}

// NewTable creates an empty table over the given value columns.
func NewTable(columns []string) *Table {
	return &Table{
		Columns: columns,
		rows:    make(map[string]*Row),
	}
}

// Append adds a row, replacing any previous row with the same id.
func (t *Table) Append(row *Row) {
	if _, exists := t.rows[row.ID]; !exists {
		t.order = append(t.order, row.ID)
	}
	t.rows[row.ID] = row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Lookup returns the row for a player-season id.
func (t *Table) Lookup(id string) (*Row, bool) {
	if t == nil {
		return nil, false
	}
	row, ok := t.rows[id]
	return row, ok
}

// ValueMap returns the row's values keyed by column, omitting NaN entries
// so the result is always JSON-safe. Nil when the id is absent.
func (t *Table) ValueMap(id string) map[string]float64 {
	row, ok := t.Lookup(id)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(t.Columns))
	for j, col := range t.Columns {
		if j < len(row.Values) && !math.IsNaN(row.Values[j]) {
			out[col] = row.Values[j]
		}
	}
	return out
}

// IDs returns the row ids in load order.
func (t *Table) IDs() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Rows returns the rows in load order.
func (t *Table) Rows() []*Row {
	if t == nil {
		return nil
	}
	out := make([]*Row, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

// Column returns one value column in row order.
func (t *Table) Column(name string) []float64 {
	idx := -1
	for j, col := range t.Columns {
		if col == name {
			idx = j
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if idx < len(row.Values) {
			out = append(out, row.Values[idx])
		} else {
			out = append(out, math.NaN())
		}
	}
	return out
}

// Matrix materializes the value columns as a dense matrix in row order.
// Returns nil for an empty table, since a zero-row matrix cannot be
// constructed.
func (t *Table) Matrix() *mat.Dense {
	if t.Len() == 0 || len(t.Columns) == 0 {
		return nil
	}
	m := mat.NewDense(t.Len(), len(t.Columns), nil)
	for i, id := range t.order {
		row := t.rows[id]
		for j := range t.Columns {
			if j < len(row.Values) {
				m.Set(i, j, row.Values[j])
			} else {
				m.Set(i, j, math.NaN())
			}
		}
	}
	return m
}

// FilterMinutes returns a copy keeping only rows at or above the minutes
// threshold. Used by the builder to admit the cohort.
func (t *Table) FilterMinutes(threshold float64) *Table {
	out := NewTable(t.Columns)
	for _, row := range t.Rows() {
		if row.Minutes >= threshold {
			out.Append(row)
		}
	}
	return out
}

// WithValues returns a copy of the table carrying the same rows and
// identity fields but with values replaced from the matrix, under new
// column names. The matrix must have one row per table row.
func (t *Table) WithValues(columns []string, m *mat.Dense) (*Table, error) {
	if m == nil {
		return NewTable(columns), nil
	}
	r, c := m.Dims()
	if r != t.Len() || c != len(columns) {
		return nil, fmt.Errorf("matrix %dx%d does not match %d rows x %d columns", r, c, t.Len(), len(columns))
	}
	out := NewTable(columns)
	for i, row := range t.Rows() {
		values := make([]float64, c)
		mat.Row(values, i, m)
		out.Append(&Row{
			ID:         row.ID,
			PlayerID:   row.PlayerID,
			SeasonID:   row.SeasonID,
			PlayerName: row.PlayerName,
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			Minutes:    row.Minutes,
			Values:     values,
		})
	}
	return out, nil
}

// ReadTable loads a tabular artifact from CSV. A missing file yields an
// empty table: absent artifacts are a degrade, not a crash. Identity
// columns are recognized by name; a player_season_id column is synthesized
// from player_id and season_id when absent. Rows with unparseable
// identity are skipped, unparseable value cells become NaN.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewTable(nil), nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return NewTable(nil), nil
	}

	header := records[0]
	valueIdx := make([]int, 0, len(header))
	valueCols := make([]string, 0, len(header))
	fieldIdx := make(map[string]int, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		header[j] = name
		if _, isIdentity := identityColumns[name]; isIdentity {
			fieldIdx[name] = j
			continue
		}
		valueIdx = append(valueIdx, j)
		valueCols = append(valueCols, name)
	}

	table := NewTable(valueCols)
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		row, ok := parseRow(record, fieldIdx, valueIdx)
		if !ok {
			continue
		}
		table.Append(row)
	}
	return table, nil
}

func parseRow(record []string, fieldIdx map[string]int, valueIdx []int) (*Row, bool) {
	field := func(name string) string {
		j, ok := fieldIdx[name]
		if !ok || j >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[j])
	}

	row := &Row{
		ID:         field(colPlayerSeasonID),
		PlayerName: field(colPlayerName),
		TeamName:   field(colTeamName),
	}
	if v := field(colPlayerID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, false
		}
		row.PlayerID = id
	}
	if v := field(colSeasonID); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, false
		}
		row.SeasonID = id
	}
	if v := field(colTeamID); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			row.TeamID = id
		}
	}
	if v := field(colMinutes); v != "" {
		if minutes, err := strconv.ParseFloat(v, 64); err == nil {
			row.Minutes = minutes
		}
	}

	if row.ID == "" {
		if row.PlayerID == 0 {
			return nil, false
		}
		row.ID = string(types.NewPlayerSeasonID(row.PlayerID, row.SeasonID))
	} else if row.PlayerID == 0 {
		if playerID, seasonID, err := types.PlayerSeasonID(row.ID).Parse(); err == nil {
			row.PlayerID = playerID
			if row.SeasonID == 0 {
				row.SeasonID = seasonID
			}
		}
	}

	row.Values = make([]float64, len(valueIdx))
	for k, j := range valueIdx {
		row.Values[k] = parseCell(record, j)
	}
	return row, true
}

func parseCell(record []string, j int) float64 {
	if j >= len(record) {
		return math.NaN()
	}
	s := strings.TrimSpace(record[j])
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// WriteTable persists a tabular artifact as CSV, atomically (temp file
// then rename). NaN values serialize as empty cells and round-trip back
// to NaN.
func WriteTable(path string, t *Table) error {
	header := []string{
		colPlayerSeasonID, colPlayerID, colSeasonID,
		colPlayerName, colTeamID, colTeamName, colMinutes,
	}
	header = append(header, t.Columns...)

	records := make([][]string, 0, t.Len()+1)
	records = append(records, header)
	for _, row := range t.Rows() {
		record := []string{
			row.ID,
			strconv.FormatInt(row.PlayerID, 10),
			strconv.Itoa(row.SeasonID),
			row.PlayerName,
			strconv.FormatInt(row.TeamID, 10),
			row.TeamName,
			formatFloat(row.Minutes),
		}
		for j := range t.Columns {
			if j < len(row.Values) {
				record = append(record, formatFloat(row.Values[j]))
			} else {
				record = append(record, "")
			}
		}
		records = append(records, record)
	}
	return writeCSVAtomic(path, records)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSVAtomic(path string, records [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	writer := csv.NewWriter(f)
	if err := writer.WriteAll(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
