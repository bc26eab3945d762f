package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kestrel-labs/ragscore/internal/cost"
	"github.com/kestrel-labs/ragscore/internal/judge"
	"github.com/kestrel-labs/ragscore/internal/sampler"
	"github.com/kestrel-labs/ragscore/internal/scheduler"
	"github.com/kestrel-labs/ragscore/internal/store"
	anthropicpkg "github.com/kestrel-labs/ragscore/pkg/anthropic"
)

// pipelineEnv holds the initialized store, judge, scheduler, and sampling
// gate shared by the serve/stats/export commands.
type pipelineEnv struct {
	Store     *store.Store
	Judge     *judge.Judge
	Scheduler *scheduler.Scheduler
	Gate      *sampler.Gate
	Costs     *cost.Tracker
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured durable backend and wraps it in the Store.
func initStore(ctx context.Context) (*store.Store, error) {
	var backend store.Backend
	var err error

	switch cfg.Store.Driver {
	case "file", "":
		backend, err = store.NewFile(cfg.Store.DataDir)
	case "sqlite":
		backend, err = store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		backend, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store.New(backend), nil
}

// initPipeline wires the full evaluation pipeline. Callers should defer
// env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	rubric, err := judge.LoadRubric(cfg.Judge.RubricPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	costs := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))

	j := judge.New(
		anthropicpkg.NewClient(cfg.Anthropic.Key),
		judge.Config{
			Model:             cfg.Anthropic.Model,
			MaxTokens:         cfg.Judge.MaxTokens,
			Temperature:       cfg.Judge.Temperature,
			CallTimeout:       time.Duration(cfg.Judge.TimeoutSecs) * time.Second,
			RequestsPerSecond: cfg.Judge.RequestsPerSecond,
		},
		rubric,
		judge.WithCostTracker(costs),
	)

	sched := scheduler.New(ctx, j, st, scheduler.Config{
		Capacity:        cfg.Queue.Capacity,
		MaxRetries:      cfg.Queue.MaxRetries,
		BaseDelay:       time.Duration(cfg.Queue.BaseDelayMs) * time.Millisecond,
		GrowthFactor:    cfg.Queue.GrowthFactor,
		PressureDivisor: cfg.Queue.PressureDivisor,
		MaxExponent:     cfg.Queue.MaxExponent,
	})

	return &pipelineEnv{
		Store:     st,
		Judge:     j,
		Scheduler: sched,
		Gate:      sampler.New(st),
		Costs:     costs,
	}, nil
}
