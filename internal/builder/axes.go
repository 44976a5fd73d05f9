package builder

import "github.com/Eugenia148/ISAC2025/internal/types"

// Axis definitions written into each group's ability_axes.json. Keys must
// match the value columns of the input ability tables.
var tacticalAxes = map[types.PositionGroup][]types.AbilityAxis{
	types.PositionGroupStriker: {
		{Key: "Progressive_Play", Label: "Progressive Play", Description: "Involvement in moving the ball forward: deep progressions, carries and link passes into the final third."},
		{Key: "Finishing_BoxPresence", Label: "Box Presence", Description: "Volume of touches and shot-generating positions inside the penalty area."},
		{Key: "Pressing_WorkRate", Label: "Pressing Work Rate", Description: "Out-of-possession activity: pressures, counterpressures and regains in the opposition half."},
		{Key: "Finishing_Efficiency", Label: "Finishing Efficiency", Description: "Conversion relative to chance quality, post-shot value added over expected goals."},
		{Key: "Dribbling_RiskTaking", Label: "Dribbling & Risk Taking", Description: "Willingness to take opponents on and carry the ball into contested space."},
		{Key: "DecisionMaking_Balance", Label: "Decision-Making Balance", Description: "Shot versus pass selection balance in the final third."},
	},
	types.PositionGroupDeepProgression: {
		{Key: "PC1", Label: "Ball Progression Volume", Description: "How much of the team's forward ball movement runs through the player."},
		{Key: "PC2", Label: "Defensive Intensity", Description: "Duel, tackle and pressure volume in the defensive phase."},
		{Key: "PC3", Label: "Wide Overlapping Threat", Description: "Advanced wide involvement: overlaps, crosses and touches in wide final-third zones."},
		{Key: "PC4", Label: "Line-Breaking Passing", Description: "Passes that beat an opposition line, played between or over units."},
		{Key: "PC5", Label: "Carrying & Dribbling", Description: "Progressive carries and take-ons from deep positions."},
		{Key: "PC6", Label: "Aerial & Physical Duels", Description: "Aerial contest volume and physical duel engagement."},
		{Key: "PC7", Label: "Press Resistance", Description: "Retention and escape under opposition pressure."},
	},
	types.PositionGroupAttackingMidWinger: {
		{Key: "PC1", Label: "Chance Creation", Description: "Key passes, assists and the quality of chances laid on for teammates."},
		{Key: "PC2", Label: "Wide 1v1 Threat", Description: "Isolation take-ons and beating a full back on the outside or inside."},
		{Key: "PC3", Label: "Goal Threat", Description: "Shot volume and box arrivals from midfield and wide positions."},
		{Key: "PC4", Label: "Between-the-Lines Link Play", Description: "Receiving between units and linking attacks in central pockets."},
		{Key: "PC5", Label: "Pressing Contribution", Description: "Counterpressing and pressing support from advanced positions."},
		{Key: "PC6", Label: "Set-Piece Delivery", Description: "Corner and free-kick delivery quality and volume."},
		{Key: "PC7", Label: "Transition Running", Description: "Ball-carrying threat and runs in fast transitions."},
	},
	types.PositionGroupCenterBack: {
		{Key: "Build_Up_Distribution", Label: "Build-Up Distribution", Description: "Share and security of passing in the first phase of build-up."},
		{Key: "Defensive_Actions", Label: "Defensive Actions", Description: "Tackles, interceptions and ball recoveries per 90."},
		{Key: "Aerial_Dominance", Label: "Aerial Dominance", Description: "Aerial duel volume and win rate in both boxes."},
		{Key: "Aerial_Clearances", Label: "Aerial Clearances", Description: "Defensive clearances won in the air inside the defensive third."},
		{Key: "Progressive_Passing", Label: "Progressive Passing", Description: "Forward passing range: progressive passes and long switches completed."},
		{Key: "Shot_Blocking_Retention", Label: "Shot Blocking & Retention", Description: "Shot blocks plus composure keeping the ball under pressure."},
	},
}

// Cluster-to-role names and scouting descriptions shipped in the striker
// role config when the input set does not carry its own.
var (
	defaultClusterToRole = map[string]string{
		"0": "Link-Up / Complete Striker",
		"1": "Pressing Striker",
		"2": "Poacher",
	}
	defaultRoleDescriptions = map[string]string{
		"Link-Up / Complete Striker": "Drops into build-up, links play with the midfield and combines box presence with chance creation.",
		"Pressing Striker":           "Leads the defensive line from the front: high pressure volume and forced turnovers ahead of raw goal threat.",
		"Poacher":                    "Lives on the shoulder of the last defender: little build-up involvement, elite box positioning and finishing volume.",
	}
)

// Performance axes: five aggregates over eighteen per-90 metrics. Axis
// scores are the unweighted mean of the available metric percentiles.
var performanceAxes = []types.AbilityAxis{
	{
		Key:         "finishing_output",
		Label:       "Finishing Output",
		Description: "Shot volume, shot quality and conversion above expectation.",
		Metrics: []types.MetricDef{
			{Key: "touches_box_90", Label: "Touches in Box /90"},
			{Key: "np_xg_90", Label: "NP xG /90"},
			{Key: "np_xg_per_shot", Label: "NP xG per Shot"},
			{Key: "finishing_quality", Label: "PS xG – xG"},
		},
	},
	{
		Key:         "chance_creation",
		Label:       "Chance Creation",
		Description: "Quality and volume of chances created for teammates.",
		Metrics: []types.MetricDef{
			{Key: "xa_90", Label: "xA /90"},
			{Key: "key_passes_90", Label: "Key Passes /90"},
			{Key: "obv_pass_90", Label: "OBV Pass /90"},
			{Key: "xa_per_shot_assist", Label: "xA per Shot Assist"},
		},
	},
	{
		Key:         "ball_progression_link_play",
		Label:       "Ball Progression & Link Play",
		Description: "Moving the ball forward and keeping attacks alive.",
		Metrics: []types.MetricDef{
			{Key: "deep_progressions_90", Label: "Deep Progressions /90"},
			{Key: "passing_ratio", Label: "Passing %"},
			{Key: "dribble_ratio", Label: "Dribble Success %"},
			{Key: "obv_dribble_carry_90", Label: "OBV Dribble & Carry /90"},
		},
	},
	{
		Key:         "defensive_work_rate",
		Label:       "Defensive Work Rate",
		Description: "Out-of-possession contribution and duel activity.",
		Metrics: []types.MetricDef{
			{Key: "defensive_actions_90", Label: "Defensive Actions /90"},
			{Key: "tackles_interceptions_90", Label: "Tackles + Interceptions /90"},
			{Key: "aerial_ratio", Label: "Aerial Win %"},
		},
	},
	{
		Key:         "overall_impact",
		Label:       "Overall Impact",
		Description: "Total attacking value and on-ball contribution per 90.",
		Metrics: []types.MetricDef{
			{Key: "npxgxa_90", Label: "NP xG + xA /90"},
			{Key: "obv_90", Label: "OBV /90"},
			{Key: "positive_outcome_score", Label: "Positive Outcome Score"},
		},
	},
}

// performanceMetricKeys returns the metric columns in canonical axis order.
func performanceMetricKeys() []string {
	keys := make([]string, 0, 18)
	for _, axis := range performanceAxes {
		for _, metric := range axis.Metrics {
			keys = append(keys, metric.Key)
		}
	}
	return keys
}
