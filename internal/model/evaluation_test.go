package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampScore(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want int
	}{
		{"above max", 7.6, 5},
		{"below min", 0, 1},
		{"negative", -3.2, 1},
		{"rounds down", 3.4, 3},
		{"rounds up", 3.5, 4},
		{"in range", 4, 4},
		{"exact max", 5, 5},
		{"exact min", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampScore(tt.raw))
		})
	}
}

func TestScoreVector_Average(t *testing.T) {
	s := ScoreVector{Faithfulness: 5, Relevance: 4, Completeness: 3, CitationAccuracy: 2}
	assert.Equal(t, 3.5, s.Average())
}

func TestScoreVector_BelowThreshold(t *testing.T) {
	s := ScoreVector{Faithfulness: 3, Relevance: 3, Completeness: 3, CitationAccuracy: 3}

	// Strictly below: a component equal to the threshold does not flag.
	assert.False(t, s.BelowThreshold(3))
	assert.True(t, s.BelowThreshold(4))

	s.CitationAccuracy = 2
	assert.True(t, s.BelowThreshold(3))
}

func TestNewEvaluationResult(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	scores := ScoreVector{Faithfulness: 4, Relevance: 5, Completeness: 4, CitationAccuracy: 2, Rationale: "citations point at the wrong sections"}

	longResponse := strings.Repeat("r", MaxStoredResponseLen+50)
	longContext := strings.Repeat("c", MaxStoredContextLen+50)

	r := NewEvaluationResult("eval-1", ts, "what is the refund policy?", longResponse, longContext, scores, 3)

	assert.Equal(t, "eval-1", r.ID)
	assert.Equal(t, ts, r.Timestamp)
	assert.Len(t, r.Response, MaxStoredResponseLen)
	assert.Len(t, r.Context, MaxStoredContextLen)
	assert.Equal(t, 3.75, r.AverageScore)
	assert.Equal(t, "citations point at the wrong sections", r.Reasoning)
	assert.True(t, r.IsFlagged) // citation_accuracy 2 < threshold 3
}

func TestNewEvaluationResult_NotFlagged(t *testing.T) {
	scores := ScoreVector{Faithfulness: 3, Relevance: 3, Completeness: 3, CitationAccuracy: 3}
	r := NewEvaluationResult("eval-2", time.Now(), "q", "a", "ctx", scores, 3)
	assert.False(t, r.IsFlagged)
	assert.Equal(t, "a", r.Response)
	assert.Equal(t, "ctx", r.Context)
}

func TestTruncate_Multibyte(t *testing.T) {
	// Truncation counts runes, not bytes.
	s := strings.Repeat("é", 10)
	assert.Equal(t, strings.Repeat("é", 4), Truncate(s, 4))
	assert.Equal(t, s, Truncate(s, 10))
}
