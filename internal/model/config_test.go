package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultEvaluationConfig(t *testing.T) {
	cfg := DefaultEvaluationConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 0.1, cfg.SampleRate)
	assert.Equal(t, 3, cfg.FlagThreshold)
	assert.Equal(t, 1000, cfg.MaxStored)
}

func TestConfigPatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		patch   ConfigPatch
		wantErr string
	}{
		{"empty patch ok", ConfigPatch{}, ""},
		{"valid full patch", ConfigPatch{Enabled: ptr(false), SampleRate: ptr(0.5), FlagThreshold: ptr(4), MaxStored: ptr(200)}, ""},
		{"sample rate too high", ConfigPatch{SampleRate: ptr(1.5)}, "sample_rate"},
		{"sample rate negative", ConfigPatch{SampleRate: ptr(-0.1)}, "sample_rate"},
		{"threshold too low", ConfigPatch{FlagThreshold: ptr(0)}, "flag_threshold"},
		{"threshold too high", ConfigPatch{FlagThreshold: ptr(6)}, "flag_threshold"},
		{"max stored zero", ConfigPatch{MaxStored: ptr(0)}, "max_stored"},
		{"max stored too high", ConfigPatch{MaxStored: ptr(10001)}, "max_stored"},
		{"boundary values ok", ConfigPatch{SampleRate: ptr(1.0), FlagThreshold: ptr(5), MaxStored: ptr(10000)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigPatch_Validate_ReportsAllInvalidFields(t *testing.T) {
	err := ConfigPatch{SampleRate: ptr(2.0), FlagThreshold: ptr(9)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_rate")
	assert.Contains(t, err.Error(), "flag_threshold")
}

func TestConfigPatch_Apply(t *testing.T) {
	base := DefaultEvaluationConfig()

	merged := ConfigPatch{FlagThreshold: ptr(4)}.Apply(base)
	assert.Equal(t, 4, merged.FlagThreshold)
	assert.Equal(t, base.Enabled, merged.Enabled)
	assert.Equal(t, base.SampleRate, merged.SampleRate)
	assert.Equal(t, base.MaxStored, merged.MaxStored)

	merged = ConfigPatch{Enabled: ptr(false), SampleRate: ptr(0.9)}.Apply(merged)
	assert.False(t, merged.Enabled)
	assert.Equal(t, 0.9, merged.SampleRate)
	assert.Equal(t, 4, merged.FlagThreshold)
}
