// Package sampler decides whether a given interaction should be evaluated.
package sampler

import (
	"context"
	"math/rand"

	"github.com/kestrel-labs/ragscore/internal/model"
)

// ConfigSource supplies the current evaluation config.
type ConfigSource interface {
	GetConfig(ctx context.Context) model.EvaluationConfig
}

// Gate performs a probabilistic sampling decision per interaction. It has no
// side effects and is safe to call on every request.
type Gate struct {
	configs ConfigSource
	randFn  func() float64
}

// New creates a Gate drawing from the default random source.
func New(configs ConfigSource) *Gate {
	return &Gate{configs: configs, randFn: rand.Float64}
}

// NewWithRand creates a Gate with an injected random source. Used by tests.
func NewWithRand(configs ConfigSource, randFn func() float64) *Gate {
	return &Gate{configs: configs, randFn: randFn}
}

// ShouldEvaluate reports whether this interaction should be scored. force
// bypasses configuration entirely. Otherwise a disabled config always
// declines, and an enabled one accepts with probability SampleRate via an
// independent uniform draw per call.
func (g *Gate) ShouldEvaluate(ctx context.Context, force bool) bool {
	if force {
		return true
	}

	cfg := g.configs.GetConfig(ctx)
	if !cfg.Enabled {
		return false
	}
	return g.randFn() < cfg.SampleRate
}
