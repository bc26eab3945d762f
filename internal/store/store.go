package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kestrel-labs/ragscore/internal/model"
)

// Limit bounds for GetFlagged and the list endpoints.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Store owns the durable evaluation log and config record. All mutating
// operations are serialized through writeMu, so at most one durable write is
// in flight at any time. Readers are served from a possibly stale cache.
type Store struct {
	backend Backend

	writeMu sync.Mutex

	cacheMu   sync.RWMutex
	cachedLog []model.EvaluationResult // nil until first load
	logWarm   bool
	cachedCfg model.EvaluationConfig
	cfgWarm   bool
}

// New creates a Store on top of a durable backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// GetConfig returns the evaluation config, loading and caching it on first
// access. A missing or unreadable record yields the defaults.
func (s *Store) GetConfig(ctx context.Context) model.EvaluationConfig {
	s.cacheMu.RLock()
	if s.cfgWarm {
		cfg := s.cachedCfg
		s.cacheMu.RUnlock()
		return cfg
	}
	s.cacheMu.RUnlock()

	cfg := s.loadConfig(ctx)

	s.cacheMu.Lock()
	s.cachedCfg = cfg
	s.cfgWarm = true
	s.cacheMu.Unlock()
	return cfg
}

// SaveConfig merges the patch into the current config and writes it durably.
// The cache is refreshed only after the write succeeds.
func (s *Store) SaveConfig(ctx context.Context, patch model.ConfigPatch) (model.EvaluationConfig, error) {
	if err := patch.Validate(); err != nil {
		return model.EvaluationConfig{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	merged := patch.Apply(s.loadConfig(ctx))

	data, err := json.Marshal(merged)
	if err != nil {
		return model.EvaluationConfig{}, eris.Wrap(err, "store: marshal config")
	}
	if err := s.backend.Save(ctx, keyConfig, data); err != nil {
		return model.EvaluationConfig{}, err
	}

	s.cacheMu.Lock()
	s.cachedCfg = merged
	s.cfgWarm = true
	s.cacheMu.Unlock()
	return merged, nil
}

// GetEvaluations returns the full evaluation log, newest first. The returned
// slice is a copy; callers cannot mutate the cache through it.
func (s *Store) GetEvaluations(ctx context.Context) []model.EvaluationResult {
	s.cacheMu.RLock()
	if s.logWarm {
		out := copyResults(s.cachedLog)
		s.cacheMu.RUnlock()
		return out
	}
	s.cacheMu.RUnlock()

	log := s.loadLog(ctx)

	s.cacheMu.Lock()
	s.cachedLog = log
	s.logWarm = true
	s.cacheMu.Unlock()
	return copyResults(log)
}

// SaveEvaluation prepends a result to the durable log, trims it to the
// configured cap, and writes the whole log. The durable log is re-read fresh
// under the write lock so concurrent writers never lose each other's entries.
func (s *Store) SaveEvaluation(ctx context.Context, result model.EvaluationResult) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	log := s.loadLog(ctx)
	log = append([]model.EvaluationResult{result}, log...)

	maxStored := s.loadConfig(ctx).MaxStored
	if len(log) > maxStored {
		log = log[:maxStored]
	}

	data, err := json.Marshal(log)
	if err != nil {
		return eris.Wrap(err, "store: marshal evaluations")
	}
	if err := s.backend.Save(ctx, keyEvaluations, data); err != nil {
		return err
	}

	s.cacheMu.Lock()
	s.cachedLog = log
	s.logWarm = true
	s.cacheMu.Unlock()
	return nil
}

// GetFlagged returns up to limit flagged results, newest first. The limit is
// clamped into [1, MaxListLimit]; non-positive values use the default.
func (s *Store) GetFlagged(ctx context.Context, limit int) []model.EvaluationResult {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var flagged []model.EvaluationResult
	for _, r := range s.GetEvaluations(ctx) {
		if !r.IsFlagged {
			continue
		}
		flagged = append(flagged, r)
		if len(flagged) == limit {
			break
		}
	}
	return flagged
}

// GetStats computes aggregate statistics over the full log.
func (s *Store) GetStats(ctx context.Context) model.EvaluationStats {
	return model.ComputeStats(s.GetEvaluations(ctx))
}

// loadConfig reads the durable config record, defaulting on any failure.
func (s *Store) loadConfig(ctx context.Context) model.EvaluationConfig {
	data, err := s.backend.Load(ctx, keyConfig)
	if err != nil {
		if !eris.Is(err, ErrNotFound) {
			zap.L().Warn("store: config read failed, using defaults", zap.Error(err))
		}
		return model.DefaultEvaluationConfig()
	}

	var cfg model.EvaluationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		zap.L().Warn("store: config record corrupt, using defaults", zap.Error(err))
		return model.DefaultEvaluationConfig()
	}
	return cfg
}

// loadLog reads the durable evaluation log, treating any failure as empty.
func (s *Store) loadLog(ctx context.Context) []model.EvaluationResult {
	data, err := s.backend.Load(ctx, keyEvaluations)
	if err != nil {
		if !eris.Is(err, ErrNotFound) {
			zap.L().Warn("store: evaluation log read failed, treating as empty", zap.Error(err))
		}
		return nil
	}

	var log []model.EvaluationResult
	if err := json.Unmarshal(data, &log); err != nil {
		zap.L().Warn("store: evaluation log corrupt, treating as empty", zap.Error(err))
		return nil
	}
	return log
}

func copyResults(in []model.EvaluationResult) []model.EvaluationResult {
	out := make([]model.EvaluationResult, len(in))
	copy(out, in)
	return out
}
