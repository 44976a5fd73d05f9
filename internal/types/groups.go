package types

// Representation identifies one of the four score representations carried
// by an artifact set. Percentile and zscore are column-wise transforms,
// l2 is row-wise; they are not interchangeable.
type Representation string

const (
	ReprRaw        Representation = "raw"
	ReprPercentile Representation = "percentile"
	ReprZScore     Representation = "zscore"
	ReprL2         Representation = "l2"
)

// SimilarityMetric is the metric an artifact set was built with. It is
// part of the set's typed configuration so a query with the wrong
// strategy fails fast instead of silently producing wrong numbers.
type SimilarityMetric string

const (
	MetricCosine    SimilarityMetric = "cosine"
	MetricEuclidean SimilarityMetric = "euclidean"
)

// PositionGroup is the closed set of profile cohorts. Each group owns one
// artifact set; striker style/role artifacts additionally partition per
// season.
type PositionGroup string

const (
	PositionGroupStriker            PositionGroup = "striker"
	PositionGroupDeepProgression    PositionGroup = "deep_progression"
	PositionGroupAttackingMidWinger PositionGroup = "attacking_mid_winger"
	PositionGroupCenterBack         PositionGroup = "center_back"
)

// Defaults applied when an artifact config omits the value.
const (
	DefaultHybridCut  = 0.60
	DefaultNeighborsK = 10
)

// GroupSpec describes everything group-dependent in one place: artifact
// location, axis space, available representations, the similarity metric
// the set is built with, and cohort admission.
type GroupSpec struct {
	Group            PositionGroup
	ArtifactDir      string
	AxisKeys         []string
	Representations  []Representation
	Metric           SimilarityMetric
	MinutesThreshold float64

	positions map[string]struct{}
}

// HasPosition reports whether a vendor position string belongs to this
// group's cohort.
func (s GroupSpec) HasPosition(position string) bool {
	_, ok := s.positions[position]
	return ok
}

// HasRepresentation reports whether the artifact set carries the given
// representation.
func (s GroupSpec) HasRepresentation(r Representation) bool {
	for _, have := range s.Representations {
		if have == r {
			return true
		}
	}
	return false
}

func positionSet(positions ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		m[p] = struct{}{}
	}
	return m
}

var groupSpecs = map[PositionGroup]GroupSpec{
	PositionGroupStriker: {
		Group:       PositionGroupStriker,
		ArtifactDir: "striker_profile",
		AxisKeys: []string{
			"Progressive_Play",
			"Finishing_BoxPresence",
			"Pressing_WorkRate",
			"Finishing_Efficiency",
			"Dribbling_RiskTaking",
			"DecisionMaking_Balance",
		},
		// Striker similarity runs in the clustered role space, which is
		// cosine over style vectors; the tactical set itself only serves
		// raw and percentile scores.
		Representations:  []Representation{ReprRaw, ReprPercentile},
		Metric:           MetricCosine,
		MinutesThreshold: 500,
		positions: positionSet(
			"Centre Forward",
			"Left Centre Forward",
			"Right Centre Forward",
		),
	},
	PositionGroupDeepProgression: {
		Group:            PositionGroupDeepProgression,
		ArtifactDir:      "deep_progression_profile",
		AxisKeys:         []string{"PC1", "PC2", "PC3", "PC4", "PC5", "PC6", "PC7"},
		Representations:  []Representation{ReprRaw, ReprPercentile, ReprZScore, ReprL2},
		Metric:           MetricEuclidean,
		MinutesThreshold: 500,
		positions: positionSet(
			"Left Back",
			"Right Back",
			"Left Wing Back",
			"Right Wing Back",
			"Defensive Midfielder",
			"Left Defensive Midfielder",
			"Right Defensive Midfielder",
			"Centre Midfielder",
			"Left Centre Midfielder",
			"Right Centre Midfielder",
		),
	},
	PositionGroupAttackingMidWinger: {
		Group:            PositionGroupAttackingMidWinger,
		ArtifactDir:      "attacking_mid_winger_profile",
		AxisKeys:         []string{"PC1", "PC2", "PC3", "PC4", "PC5", "PC6", "PC7"},
		Representations:  []Representation{ReprRaw, ReprPercentile, ReprZScore, ReprL2},
		Metric:           MetricEuclidean,
		MinutesThreshold: 500,
		positions: positionSet(
			"Attacking Midfielder",
			"Left Attacking Midfielder",
			"Right Attacking Midfielder",
			"Left Wing",
			"Right Wing",
			"Left Midfielder",
			"Right Midfielder",
			"Secondary Striker",
		),
	},
	PositionGroupCenterBack: {
		Group:       PositionGroupCenterBack,
		ArtifactDir: "center_back_profile",
		AxisKeys: []string{
			"Build_Up_Distribution",
			"Defensive_Actions",
			"Aerial_Dominance",
			"Aerial_Clearances",
			"Progressive_Passing",
			"Shot_Blocking_Retention",
		},
		Representations:  []Representation{ReprRaw, ReprPercentile, ReprZScore, ReprL2},
		Metric:           MetricEuclidean,
		MinutesThreshold: 500,
		positions: positionSet(
			"Centre Back",
			"Left Centre Back",
			"Right Centre Back",
		),
	},
}

// AllGroups lists the groups in a stable order.
var AllGroups = []PositionGroup{
	PositionGroupStriker,
	PositionGroupDeepProgression,
	PositionGroupAttackingMidWinger,
	PositionGroupCenterBack,
}

// Spec returns the lookup-table entry for a group.
func Spec(group PositionGroup) (GroupSpec, bool) {
	s, ok := groupSpecs[group]
	return s, ok
}

// ParseGroup converts an external group string to a PositionGroup.
func ParseGroup(s string) (PositionGroup, bool) {
	g := PositionGroup(s)
	_, ok := groupSpecs[g]
	return g, ok
}

// GroupForPosition resolves a player's position group from the vendor
// position strings. The primary position decides; the secondary position
// is only consulted when the primary matches no group. A player matching
// neither has no profile, which is a normal outcome, not an error.
func GroupForPosition(primary, secondary string) (PositionGroup, bool) {
	for _, g := range AllGroups {
		if groupSpecs[g].HasPosition(primary) {
			return g, true
		}
	}
	if secondary != "" {
		for _, g := range AllGroups {
			if groupSpecs[g].HasPosition(secondary) {
				return g, true
			}
		}
	}
	return "", false
}
