package model

import (
	"math"
	"time"
)

// Truncation caps applied to stored evaluation text. Queries are kept whole;
// responses and retrieval context are trimmed so the log stays bounded.
const (
	MaxStoredResponseLen = 1000
	MaxStoredContextLen  = 2000
)

// Score bounds for every judge dimension.
const (
	MinScore = 1
	MaxScore = 5
)

// ScoreVector holds the four judge dimensions plus a short rationale.
// Every component is kept within [MinScore, MaxScore].
type ScoreVector struct {
	Faithfulness     int    `json:"faithfulness"`
	Relevance        int    `json:"relevance"`
	Completeness     int    `json:"completeness"`
	CitationAccuracy int    `json:"citation_accuracy"`
	Rationale        string `json:"rationale"`
}

// ClampScore rounds a raw judge value to the nearest integer and clamps it
// into [MinScore, MaxScore].
func ClampScore(raw float64) int {
	v := int(math.Round(raw))
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Average returns the mean of the four score components.
func (s ScoreVector) Average() float64 {
	return float64(s.Faithfulness+s.Relevance+s.Completeness+s.CitationAccuracy) / 4.0
}

// BelowThreshold reports whether any component is strictly below threshold.
func (s ScoreVector) BelowThreshold(threshold int) bool {
	return s.Faithfulness < threshold ||
		s.Relevance < threshold ||
		s.Completeness < threshold ||
		s.CitationAccuracy < threshold
}

// EvaluationResult is a single durable evaluation record. Immutable after
// creation; IsFlagged reflects the flag threshold at scoring time.
type EvaluationResult struct {
	ID           string      `json:"id"`
	Timestamp    time.Time   `json:"timestamp"`
	Query        string      `json:"query"`
	Response     string      `json:"response"`
	Context      string      `json:"context"`
	Scores       ScoreVector `json:"scores"`
	Reasoning    string      `json:"reasoning"`
	AverageScore float64     `json:"average_score"`
	IsFlagged    bool        `json:"is_flagged"`
}

// NewEvaluationResult assembles a durable record from a scored interaction,
// applying the storage truncation caps and the flag threshold.
func NewEvaluationResult(id string, ts time.Time, query, response, context string, scores ScoreVector, flagThreshold int) EvaluationResult {
	return EvaluationResult{
		ID:           id,
		Timestamp:    ts.UTC(),
		Query:        query,
		Response:     Truncate(response, MaxStoredResponseLen),
		Context:      Truncate(context, MaxStoredContextLen),
		Scores:       scores,
		Reasoning:    scores.Rationale,
		AverageScore: scores.Average(),
		IsFlagged:    scores.BelowThreshold(flagThreshold),
	}
}

// Truncate trims s to at most max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
