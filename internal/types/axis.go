package types

// AbilityAxis is one named tactical or performance dimension. Tactical
// axes are PCA components with fixed labels; performance axes aggregate a
// list of constituent raw metrics.
type AbilityAxis struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	Metrics     []MetricDef `json:"metrics,omitempty"`
}

// MetricDef is one raw per-90 metric feeding a performance axis.
type MetricDef struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// AxisRange carries per-axis scaling bounds for raw-score display. It is
// never used in similarity or classification.
type AxisRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// LeagueReference is the per-group "league average" overlay: axis medians
// in percentile space, or raw-score means for the PCA-component groups.
type LeagueReference struct {
	Basis  string             `json:"basis"`
	Values map[string]float64 `json:"values"`
}

// LeagueReference basis values.
const (
	LeagueBasisPercentileMedian = "percentile_median"
	LeagueBasisRawMean          = "raw_mean"
)

// ZScoreParams are the per-season, per-axis moments fit by the offline
// batch, persisted so a new row can be scored without refitting.
type ZScoreParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// PerformanceBenchmark is the cohort reference for one performance axis.
type PerformanceBenchmark struct {
	Median float64 `json:"median"`
	P80    float64 `json:"p80"`
}

// MetricRange is the observed min/max for one raw performance metric.
type MetricRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
