// Package cost tracks judge model spend.
package cost

import "sync"

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// DefaultRates returns the default pricing rates for the judge models.
func DefaultRates() map[string]ModelRate {
	return map[string]ModelRate{
		"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
	}
}

// Calculator computes dollar costs for judge API usage.
type Calculator struct {
	rates map[string]ModelRate
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates map[string]ModelRate) *Calculator {
	return &Calculator{rates: rates}
}

// Price computes the cost for one call. Returns 0 for unknown models.
func (c *Calculator) Price(model string, input, output int64) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}
	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	return inCost + outCost
}

// Summary is a point-in-time snapshot of accumulated spend.
type Summary struct {
	Calls        int64   `json:"calls"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Tracker accumulates spend across judge calls. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	calc *Calculator
	sum  Summary
}

// NewTracker creates a Tracker priced by calc.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// Record adds one call's token usage and returns its cost.
func (t *Tracker) Record(model string, input, output int64) float64 {
	price := t.calc.Price(model, input, output)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sum.Calls++
	t.sum.InputTokens += input
	t.sum.OutputTokens += output
	t.sum.CostUSD += price
	return price
}

// Summary returns a copy of the accumulated totals.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sum
}
