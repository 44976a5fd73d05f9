package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Eugenia148/ISAC2025/internal/similarity"
)

// ReadJSON decodes a JSON artifact into v. Returns os.ErrNotExist-wrapped
// errors for missing files so callers can degrade instead of failing.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// WriteJSON persists a JSON artifact atomically with indentation, so the
// on-disk fleet stays diffable.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = append(data, '\n')
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadNeighbors loads a precomputed neighbor edge list. Columns:
// anchor_id, neighbor_id, score. A missing file yields no edges.
func ReadNeighbors(path string) ([]similarity.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
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
		return nil, nil
	}

	anchorIdx, neighborIdx, scoreIdx := -1, -1, -1
	for j, name := range records[0] {
		switch strings.TrimSpace(name) {
		case "anchor_id":
			anchorIdx = j
		case "neighbor_id":
			neighborIdx = j
		case "score":
			scoreIdx = j
		}
	}
	if anchorIdx < 0 || neighborIdx < 0 || scoreIdx < 0 {
		return nil, fmt.Errorf("%s: missing anchor_id/neighbor_id/score columns", path)
	}

	edges := make([]similarity.Edge, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) <= anchorIdx || len(record) <= neighborIdx || len(record) <= scoreIdx {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(record[scoreIdx]), 64)
		if err != nil {
			continue
		}
		edges = append(edges, similarity.Edge{
			AnchorID:   strings.TrimSpace(record[anchorIdx]),
			NeighborID: strings.TrimSpace(record[neighborIdx]),
			Score:      score,
		})
	}
	return edges, nil
}

// WriteNeighbors persists a neighbor edge list as CSV, atomically. The
// similarity column is the display-ready 0-100 integer derived from the
// raw score; readers key on score and ignore it.
func WriteNeighbors(path string, edges []similarity.Edge) error {
	records := make([][]string, 0, len(edges)+1)
	records = append(records, []string{"anchor_id", "neighbor_id", "score", "similarity"})
	for _, edge := range edges {
		records = append(records, []string{
			edge.AnchorID,
			edge.NeighborID,
			strconv.FormatFloat(edge.Score, 'g', -1, 64),
			strconv.Itoa(similarity.Percent(edge.Score)),
		})
	}
	return writeCSVAtomic(path, records)
}
