package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	c := NewCalculator(DefaultRates())

	tests := []struct {
		name   string
		model  string
		input  int64
		output int64
		want   float64
	}{
		{
			name:  "haiku input only",
			model: "claude-haiku-4-5-20251001",
			input: 1_000_000,
			want:  0.80,
		},
		{
			name:   "haiku input and output",
			model:  "claude-haiku-4-5-20251001",
			input:  500_000,
			output: 100_000,
			want:   0.40 + 0.40,
		},
		{
			name:   "sonnet",
			model:  "claude-sonnet-4-5-20250929",
			input:  1_000_000,
			output: 1_000_000,
			want:   18.00,
		},
		{
			name:   "unknown model returns 0",
			model:  "gpt-nonexistent",
			input:  1_000_000,
			output: 1_000_000,
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Price(tt.model, tt.input, tt.output), 0.0001)
		})
	}
}

func TestTracker_Accumulates(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultRates()))

	tr.Record("claude-haiku-4-5-20251001", 1000, 200)
	tr.Record("claude-haiku-4-5-20251001", 2000, 400)

	sum := tr.Summary()
	assert.Equal(t, int64(2), sum.Calls)
	assert.Equal(t, int64(3000), sum.InputTokens)
	assert.Equal(t, int64(600), sum.OutputTokens)
	assert.InDelta(t, (3000.0/1e6)*0.80+(600.0/1e6)*4.00, sum.CostUSD, 0.000001)
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultRates()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record("claude-haiku-4-5-20251001", 100, 10)
		}()
	}
	wg.Wait()

	sum := tr.Summary()
	assert.Equal(t, int64(20), sum.Calls)
	assert.Equal(t, int64(2000), sum.InputTokens)
}
