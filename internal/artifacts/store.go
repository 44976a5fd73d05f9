package artifacts

import (
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

// StrikerRolesDirName is the striker role model's directory under the
// artifact root; PerformanceDirName the performance set's.
const (
	StrikerRolesDirName = "striker_roles"
	PerformanceDirName  = "performance"
)

// Store is the process-wide artifact registry. Sets load lazily on first
// access and stay cached until Invalidate or Reload; all access is safe
// for concurrent readers.
type Store struct {
	baseDir string
	logger  *logrus.Logger

	mu       sync.RWMutex
	tactical map[types.PositionGroup]*TacticalSet
	roles    *StrikerRoles
	perf     *PerformanceSet
}

// NewStore creates a store over the artifact base directory.
func NewStore(baseDir string, logger *logrus.Logger) *Store {
	return &Store{
		baseDir:  baseDir,
		logger:   logger,
		tactical: make(map[types.PositionGroup]*TacticalSet),
	}
}

// BaseDir returns the artifact root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Tactical returns the artifact set for a position group, loading it on
// first access.
func (s *Store) Tactical(group types.PositionGroup) *TacticalSet {
	s.mu.RLock()
	set := s.tactical[group]
	s.mu.RUnlock()
	if set != nil {
		return set
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if set := s.tactical[group]; set != nil {
		return set
	}
	dir := s.baseDir
	if spec, ok := types.Spec(group); ok {
		dir = filepath.Join(s.baseDir, spec.ArtifactDir)
	} else {
		dir = filepath.Join(s.baseDir, string(group))
	}
	set = LoadTacticalSet(dir, group, s.logger)
	s.tactical[group] = set
	return set
}

// StrikerRoles returns the striker role artifacts, loading on first access.
func (s *Store) StrikerRoles() *StrikerRoles {
	s.mu.RLock()
	roles := s.roles
	s.mu.RUnlock()
	if roles != nil {
		return roles
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles != nil {
		return s.roles
	}
	s.roles = LoadStrikerRoles(filepath.Join(s.baseDir, StrikerRolesDirName), s.logger)
	return s.roles
}

// Performance returns the performance artifacts, loading on first access.
func (s *Store) Performance() *PerformanceSet {
	s.mu.RLock()
	perf := s.perf
	s.mu.RUnlock()
	if perf != nil {
		return perf
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.perf != nil {
		return s.perf
	}
	s.perf = LoadPerformanceSet(filepath.Join(s.baseDir, PerformanceDirName), s.logger)
	return s.perf
}

// Invalidate drops all cached sets so the next access reloads from disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tactical = make(map[types.PositionGroup]*TacticalSet)
	s.roles = nil
	s.perf = nil
	s.logger.WithField("component", "artifacts").Info("Artifact store invalidated")
}

// Warm eagerly loads every set, typically at startup so the first request
// does not pay the load cost.
func (s *Store) Warm() {
	for _, group := range types.AllGroups {
		s.Tactical(group)
	}
	s.StrikerRoles()
	s.Performance()
}

// Reload invalidates and re-warms the store, used after a rebuild.
func (s *Store) Reload() {
	s.Invalidate()
	s.Warm()
}

// GroupStatus summarizes one loaded tactical set for health reporting.
type GroupStatus struct {
	Rows      int  `json:"rows"`
	Neighbors int  `json:"neighbors"`
	Axes      int  `json:"axes"`
	HasLeague bool `json:"has_league_reference"`
}

// Status reports per-set row counts for health and admin endpoints.
type Status struct {
	Groups          map[types.PositionGroup]GroupStatus `json:"groups"`
	RoleSeasons     int                                 `json:"role_seasons"`
	RoleNeighbors   int                                 `json:"role_neighbors"`
	PerformanceRows int                                 `json:"performance_rows"`
}

// Status returns a snapshot of every set, loading any not yet cached.
func (s *Store) Status() Status {
	status := Status{
		Groups: make(map[types.PositionGroup]GroupStatus, len(types.AllGroups)),
	}
	for _, group := range types.AllGroups {
		set := s.Tactical(group)
		status.Groups[group] = GroupStatus{
			Rows:      set.Scores.Len(),
			Neighbors: set.Neighbors.Len(),
			Axes:      len(set.Axes),
			HasLeague: set.LeagueRef != nil,
		}
	}
	roles := s.StrikerRoles()
	status.RoleSeasons = len(roles.Seasons)
	status.RoleNeighbors = roles.Neighbors.Len()
	status.PerformanceRows = s.Performance().AxisScores.Len()
	return status
}
