package profile

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/artifacts"
	"github.com/Eugenia148/ISAC2025/internal/ingest"
	"github.com/Eugenia148/ISAC2025/internal/roles"
	"github.com/Eugenia148/ISAC2025/internal/similarity"
	"github.com/Eugenia148/ISAC2025/internal/types"
)

// Service assembles profile, role, similarity and performance payloads
// from the artifact store. It does no numeric work: everything heavy was
// computed offline, this layer is lookup and join. A missing player,
// season or group is a nil payload, never an error; errors are reserved
// for infrastructure failures.
type Service struct {
	store           *artifacts.Store
	stats           *ingest.Store
	hybridThreshold float64
	logger          *logrus.Logger
}

// NewService creates the profile service. stats may be nil when no
// database is configured; identity then comes from artifacts alone.
// hybridThreshold <= 0 selects the default cut.
func NewService(store *artifacts.Store, stats *ingest.Store, hybridThreshold float64, logger *logrus.Logger) *Service {
	return &Service{
		store:           store,
		stats:           stats,
		hybridThreshold: hybridThreshold,
		logger:          logger,
	}
}

// ResolveGroup finds the position group for a player. An explicit
// position string wins; otherwise the stats mirror's positions are
// consulted; as a last resort the artifact sets are scanned for
// coverage of the player-season.
func (s *Service) ResolveGroup(ctx context.Context, playerID int64, seasonID int, position string) (types.PositionGroup, bool) {
	if position != "" {
		if group, ok := types.GroupForPosition(position, ""); ok {
			return group, true
		}
		return "", false
	}

	if player, err := s.stats.PlayerIdentity(ctx, playerID); err == nil && player != nil {
		if group, ok := types.GroupForPosition(player.PrimaryPosition, ""); ok {
			return group, true
		}
		for _, secondary := range player.SecondaryPositions {
			if group, ok := types.GroupForPosition(secondary, ""); ok {
				return group, true
			}
		}
	} else if err != nil {
		s.logger.WithError(err).WithField("player_id", playerID).Warn("Identity lookup failed, falling back to artifact scan")
	}

	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	for _, group := range types.AllGroups {
		if s.store.Tactical(group).Covers(id) {
			return group, true
		}
	}
	return "", false
}

// BuildProfile returns the tactical profile for a player-season, or nil
// when the player resolves to no group or the group's artifacts have no
// row for the season.
func (s *Service) BuildProfile(ctx context.Context, playerID int64, seasonID int, position string) (*types.ProfilePayload, error) {
	group, ok := s.ResolveGroup(ctx, playerID, seasonID, position)
	if !ok {
		return nil, nil
	}

	set := s.store.Tactical(group)
	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	if !set.Covers(id) {
		return nil, nil
	}

	payload := &types.ProfilePayload{
		PlayerID:           playerID,
		SeasonID:           seasonID,
		Season:             types.SeasonLabel(seasonID),
		Position:           position,
		AbilityScores:      set.Scores.ValueMap(id),
		AbilityPercentiles: set.Percentiles.ValueMap(id),
		Axes:               set.Axes,
		AxisRanges:         set.AxisRanges,
		LeagueReference:    set.LeagueRef,
		Meta: types.ProfileMeta{
			PositionGroup:    group,
			Representations:  set.Config.Representations,
			SimilarityMetric: set.Config.Metric,
		},
	}
	if spec, ok := types.Spec(group); ok {
		if spec.HasRepresentation(types.ReprZScore) {
			payload.AbilityZScores = set.ZScores.ValueMap(id)
		}
		if spec.HasRepresentation(types.ReprL2) {
			payload.StyleVector = set.L2.ValueMap(id)
		}
	}

	if row, ok := set.Identity(id); ok {
		payload.PlayerName = row.PlayerName
		payload.TeamName = row.TeamName
		payload.Minutes = row.Minutes
	}
	s.fillIdentity(ctx, payload)

	if group == types.PositionGroupStriker {
		role, err := s.Role(ctx, playerID, seasonID)
		if err != nil {
			return nil, err
		}
		payload.Role = role
	}

	return payload, nil
}

// fillIdentity patches identity fields from the stats mirror when the
// artifact rows did not carry them.
func (s *Service) fillIdentity(ctx context.Context, payload *types.ProfilePayload) {
	if payload.PlayerName != "" && payload.Position != "" {
		return
	}
	player, err := s.stats.PlayerIdentity(ctx, payload.PlayerID)
	if err != nil || player == nil {
		return
	}
	if payload.PlayerName == "" {
		payload.PlayerName = player.Name
	}
	if payload.TeamName == "" {
		payload.TeamName = player.TeamName
	}
	if payload.Position == "" {
		payload.Position = player.PrimaryPosition
	}
}

// Role returns the striker role assignment for a player-season, or nil
// when the role model does not cover it.
func (s *Service) Role(ctx context.Context, playerID int64, seasonID int) (*types.RoleAssignment, error) {
	model := s.store.StrikerRoles()
	posteriors := model.Posteriors(playerID, seasonID)
	if posteriors == nil {
		return nil, nil
	}
	classifier := roles.NewClassifier(model.Config.ClusterRoleMap(), model.Config.RoleDescriptions, s.hybridThreshold)
	return classifier.Assign(posteriors), nil
}

// SimilarPlayers returns the top-k neighbors for a player-season. For
// strikers the neighbors come from the cross-season role-space table;
// other groups use their own Euclidean tables. k is capped by the top-K
// the artifact set was built with; k <= 0 selects the full list.
func (s *Service) SimilarPlayers(ctx context.Context, playerID int64, seasonID, k int, position string) (*types.SimilarPlayersPayload, error) {
	group, ok := s.ResolveGroup(ctx, playerID, seasonID, position)
	if !ok {
		return nil, nil
	}
	if group == types.PositionGroupStriker {
		return s.strikerSimilar(playerID, seasonID, k)
	}
	return s.groupSimilar(group, playerID, seasonID, k)
}

func (s *Service) strikerSimilar(playerID int64, seasonID, k int) (*types.SimilarPlayersPayload, error) {
	model := s.store.StrikerRoles()
	set := s.store.Tactical(types.PositionGroupStriker)
	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	if !model.Covers(playerID, seasonID) && !set.Covers(id) {
		return nil, nil
	}

	k = capK(k, model.Config.TopKNeighbors)
	edges, err := model.Neighbors.Neighbors(id, k, types.MetricCosine)
	if err != nil {
		return nil, err
	}

	classifier := roles.NewClassifier(model.Config.ClusterRoleMap(), model.Config.RoleDescriptions, s.hybridThreshold)
	players := make([]types.SimilarPlayer, 0, len(edges))
	for _, edge := range edges {
		neighbor := types.PlayerSeasonID(edge.NeighborID)
		neighborPlayer, neighborSeason, err := neighbor.Parse()
		if err != nil {
			s.logger.WithField("neighbor_id", edge.NeighborID).Warn("Skipping malformed neighbor id")
			continue
		}
		similar := types.SimilarPlayer{
			PlayerID:   neighborPlayer,
			SeasonID:   neighborSeason,
			Season:     types.SeasonLabel(neighborSeason),
			Similarity: similarity.Percent(edge.Score),
			Score:      edge.Score,
		}
		if row, ok := model.StyleRow(edge.NeighborID); ok {
			similar.PlayerName = row.PlayerName
			similar.TeamName = row.TeamName
		}
		if posteriors := model.Posteriors(neighborPlayer, neighborSeason); posteriors != nil {
			if assignment := classifier.Assign(posteriors); assignment != nil {
				similar.Role = assignment.Role
				similar.Confidence = assignment.Confidence
			}
		}
		players = append(players, similar)
	}

	return &types.SimilarPlayersPayload{
		PlayerID: playerID,
		SeasonID: seasonID,
		Group:    types.PositionGroupStriker,
		Metric:   types.MetricCosine,
		Players:  players,
	}, nil
}

func (s *Service) groupSimilar(group types.PositionGroup, playerID int64, seasonID, k int) (*types.SimilarPlayersPayload, error) {
	set := s.store.Tactical(group)
	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	if !set.Covers(id) {
		return nil, nil
	}

	k = capK(k, set.Config.TopK)
	edges, err := set.Neighbors.Neighbors(id, k, set.Config.Metric)
	if err != nil {
		return nil, err
	}

	players := make([]types.SimilarPlayer, 0, len(edges))
	for _, edge := range edges {
		neighbor := types.PlayerSeasonID(edge.NeighborID)
		neighborPlayer, neighborSeason, err := neighbor.Parse()
		if err != nil {
			s.logger.WithField("neighbor_id", edge.NeighborID).Warn("Skipping malformed neighbor id")
			continue
		}
		similar := types.SimilarPlayer{
			PlayerID:   neighborPlayer,
			SeasonID:   neighborSeason,
			Season:     types.SeasonLabel(neighborSeason),
			Similarity: similarity.Percent(edge.Score),
			Score:      edge.Score,
		}
		if row, ok := set.Identity(edge.NeighborID); ok {
			similar.PlayerName = row.PlayerName
			similar.TeamName = row.TeamName
		}
		players = append(players, similar)
	}

	return &types.SimilarPlayersPayload{
		PlayerID: playerID,
		SeasonID: seasonID,
		Group:    group,
		Metric:   set.Config.Metric,
		Players:  players,
	}, nil
}

// PerformanceProfile returns the performance view for a player-season,
// or nil when the performance set has no row for it.
func (s *Service) PerformanceProfile(ctx context.Context, playerID int64, seasonID int) (*types.PerformanceProfilePayload, error) {
	set := s.store.Performance()
	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	if !set.Covers(id) {
		return nil, nil
	}

	payload := &types.PerformanceProfilePayload{
		PlayerID:          playerID,
		SeasonID:          seasonID,
		Season:            types.SeasonLabel(seasonID),
		AxisScores:        set.AxisScores.ValueMap(id),
		MetricPercentiles: set.Percentiles.ValueMap(id),
		RawMetrics:        set.RawMetrics.ValueMap(id),
		Benchmarks:        set.Benchmarks,
		MetricRanges:      set.MinMax,
		Axes:              set.Axes,
		Meta: types.PerformanceMeta{
			Season:           set.Config.Season,
			SeasonID:         set.Config.SeasonID,
			MinutesThreshold: set.Config.MinutesThreshold,
		},
	}
	if payload.AxisScores == nil {
		payload.AxisScores = map[string]float64{}
	}
	if row, ok := set.Identity(id); ok {
		payload.PlayerName = row.PlayerName
		payload.TeamName = row.TeamName
		payload.Minutes = row.Minutes
	}
	if payload.PlayerName == "" {
		if player, err := s.stats.PlayerIdentity(ctx, playerID); err == nil && player != nil {
			payload.PlayerName = player.Name
			if payload.TeamName == "" {
				payload.TeamName = player.TeamName
			}
		}
	}
	return payload, nil
}

// Axes returns the axis definitions for a group.
func (s *Service) Axes(group types.PositionGroup) ([]types.AbilityAxis, bool) {
	if _, ok := types.Spec(group); !ok {
		return nil, false
	}
	return s.store.Tactical(group).Axes, true
}

// LeagueReference returns a group's league comparison line. The second
// return is false for an unknown group; a known group without a computed
// reference returns (nil, true).
func (s *Service) LeagueReference(group types.PositionGroup) (*types.LeagueReference, bool) {
	if _, ok := types.Spec(group); !ok {
		return nil, false
	}
	return s.store.Tactical(group).LeagueRef, true
}

func capK(k, topK int) int {
	if topK <= 0 {
		topK = types.DefaultNeighborsK
	}
	if k <= 0 || k > topK {
		return topK
	}
	return k
}
