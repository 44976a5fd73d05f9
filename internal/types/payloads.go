package types

import "time"

// RoleProbability is one entry of the top-roles breakdown.
type RoleProbability struct {
	Role string  `json:"role"`
	Prob float64 `json:"prob"`
}

// RoleAssignment is the derived role view of a player-season's GMM
// posteriors after renormalization. Confidence is the maximum posterior
// rounded to 3 decimals; the hybrid flag compares the unrounded maximum
// against the threshold, with the boundary counting as confident.
type RoleAssignment struct {
	Role       string            `json:"role"`
	Confidence float64           `json:"confidence"`
	IsHybrid   bool              `json:"is_hybrid"`
	TopRoles   []RoleProbability `json:"top_roles"`
	Tooltip    string            `json:"tooltip,omitempty"`
}

// ProfileMeta carries the group-level context a consumer needs to
// interpret the payload.
type ProfileMeta struct {
	PositionGroup    PositionGroup    `json:"position_group"`
	Representations  []Representation `json:"representations"`
	SimilarityMetric SimilarityMetric `json:"similarity_metric"`
}

// ProfilePayload is the read-optimized tactical profile for one
// player-season. Representation maps are present only when the group's
// artifact set carries them and the player-season has a row; consumers
// degrade per-field.
type ProfilePayload struct {
	PlayerID   int64   `json:"player_id"`
	PlayerName string  `json:"player_name,omitempty"`
	TeamName   string  `json:"team_name,omitempty"`
	Position   string  `json:"position,omitempty"`
	SeasonID   int     `json:"season_id"`
	Season     string  `json:"season,omitempty"`
	Minutes    float64 `json:"minutes,omitempty"`

	AbilityScores      map[string]float64 `json:"ability_scores,omitempty"`
	AbilityPercentiles map[string]float64 `json:"ability_percentiles,omitempty"`
	AbilityZScores     map[string]float64 `json:"ability_scores_zscore,omitempty"`
	StyleVector        map[string]float64 `json:"ability_scores_l2,omitempty"`

	Axes            []AbilityAxis        `json:"axes,omitempty"`
	AxisRanges      map[string]AxisRange `json:"axis_ranges,omitempty"`
	LeagueReference *LeagueReference     `json:"league_reference,omitempty"`
	Role            *RoleAssignment      `json:"role,omitempty"`

	Meta ProfileMeta `json:"meta"`
}

// SimilarPlayer is one neighbor in a similarity result. Similarity is the
// presentation score in [0, 100]; Score keeps the raw metric value
// (cosine, or 1/(1+distance) for the Euclidean sets).
type SimilarPlayer struct {
	PlayerID   int64   `json:"player_id"`
	SeasonID   int     `json:"season_id"`
	Season     string  `json:"season,omitempty"`
	PlayerName string  `json:"player_name,omitempty"`
	TeamName   string  `json:"team_name,omitempty"`
	Similarity int     `json:"similarity"`
	Score      float64 `json:"score"`
	Role       string  `json:"role,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SimilarPlayersPayload is the ordered neighbor list for one anchor.
// Neighbors may come from any season in the artifact set, including other
// seasons of the anchor player.
type SimilarPlayersPayload struct {
	PlayerID int64            `json:"player_id"`
	SeasonID int              `json:"season_id"`
	Group    PositionGroup    `json:"position_group"`
	Metric   SimilarityMetric `json:"metric"`
	Players  []SimilarPlayer  `json:"players"`
}

// PerformanceMeta mirrors ProfileMeta for the performance artifact family.
type PerformanceMeta struct {
	Season           string  `json:"season"`
	SeasonID         int     `json:"season_id"`
	MinutesThreshold float64 `json:"minutes_threshold"`
}

// PerformanceProfilePayload is the per-player-season performance view:
// axis scores (unweighted means of the available constituent metric
// percentiles), the underlying percentiles and raw values, and cohort
// benchmarks.
type PerformanceProfilePayload struct {
	PlayerID   int64   `json:"player_id"`
	PlayerName string  `json:"player_name,omitempty"`
	TeamName   string  `json:"team_name,omitempty"`
	SeasonID   int     `json:"season_id"`
	Season     string  `json:"season,omitempty"`
	Minutes    float64 `json:"minutes,omitempty"`

	AxisScores        map[string]float64              `json:"axis_scores"`
	MetricPercentiles map[string]float64              `json:"metric_percentiles,omitempty"`
	RawMetrics        map[string]float64              `json:"raw_metrics,omitempty"`
	Benchmarks        map[string]PerformanceBenchmark `json:"benchmarks,omitempty"`
	MetricRanges      map[string]MetricRange          `json:"metric_ranges,omitempty"`
	Axes              []AbilityAxis                   `json:"axes,omitempty"`

	Meta PerformanceMeta `json:"meta"`
}

// BuildProgress is broadcast over the builds WebSocket while an artifact
// rebuild runs.
type BuildProgress struct {
	JobID     string    `json:"job_id"`
	Stage     string    `json:"stage"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the standard API error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse is the standard API success envelope for non-payload
// endpoints.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
