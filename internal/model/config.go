package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Bounds for the administratively mutable config fields.
const (
	MinMaxStored = 1
	MaxMaxStored = 10000
)

// EvaluationConfig is the durable singleton controlling sampling and flagging.
type EvaluationConfig struct {
	Enabled       bool    `json:"enabled"`
	SampleRate    float64 `json:"sample_rate"`
	FlagThreshold int     `json:"flag_threshold"`
	MaxStored     int     `json:"max_stored"`
}

// DefaultEvaluationConfig returns the configuration used when no durable
// record exists yet.
func DefaultEvaluationConfig() EvaluationConfig {
	return EvaluationConfig{
		Enabled:       true,
		SampleRate:    0.1,
		FlagThreshold: 3,
		MaxStored:     1000,
	}
}

// ErrInvalidConfig marks a rejected config update. The wrapped message names
// every invalid field.
var ErrInvalidConfig = eris.New("invalid config update")

// ConfigPatch is a partial update to EvaluationConfig. Nil fields keep their
// prior values.
type ConfigPatch struct {
	Enabled       *bool    `json:"enabled,omitempty"`
	SampleRate    *float64 `json:"sample_rate,omitempty"`
	FlagThreshold *int     `json:"flag_threshold,omitempty"`
	MaxStored     *int     `json:"max_stored,omitempty"`
}

// Validate checks every present field against its allowed range. All invalid
// fields are reported together so the caller sees the full rejection reason.
func (p ConfigPatch) Validate() error {
	var bad []string
	if p.SampleRate != nil && (*p.SampleRate < 0 || *p.SampleRate > 1) {
		bad = append(bad, "sample_rate must be in [0,1]")
	}
	if p.FlagThreshold != nil && (*p.FlagThreshold < MinScore || *p.FlagThreshold > MaxScore) {
		bad = append(bad, "flag_threshold must be an integer in [1,5]")
	}
	if p.MaxStored != nil && (*p.MaxStored < MinMaxStored || *p.MaxStored > MaxMaxStored) {
		bad = append(bad, "max_stored must be an integer in [1,10000]")
	}
	if len(bad) > 0 {
		return eris.Wrap(ErrInvalidConfig, strings.Join(bad, "; "))
	}
	return nil
}

// Apply merges the patch onto cfg and returns the result.
func (p ConfigPatch) Apply(cfg EvaluationConfig) EvaluationConfig {
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	if p.SampleRate != nil {
		cfg.SampleRate = *p.SampleRate
	}
	if p.FlagThreshold != nil {
		cfg.FlagThreshold = *p.FlagThreshold
	}
	if p.MaxStored != nil {
		cfg.MaxStored = *p.MaxStored
	}
	return cfg
}
