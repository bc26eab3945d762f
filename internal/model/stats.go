package model

// EvaluationStats aggregates the full evaluation log for observability
// consumers. All fields are zero when the log is empty.
type EvaluationStats struct {
	TotalEvaluations    int     `json:"total_evaluations"`
	FlaggedCount        int     `json:"flagged_count"`
	AverageScore        float64 `json:"average_score"`
	AvgFaithfulness     float64 `json:"avg_faithfulness"`
	AvgRelevance        float64 `json:"avg_relevance"`
	AvgCompleteness     float64 `json:"avg_completeness"`
	AvgCitationAccuracy float64 `json:"avg_citation_accuracy"`
}

// ComputeStats derives aggregate statistics from an evaluation log.
func ComputeStats(results []EvaluationResult) EvaluationStats {
	var st EvaluationStats
	if len(results) == 0 {
		return st
	}

	var sumAvg, sumF, sumR, sumC, sumCA float64
	for _, r := range results {
		sumAvg += r.AverageScore
		sumF += float64(r.Scores.Faithfulness)
		sumR += float64(r.Scores.Relevance)
		sumC += float64(r.Scores.Completeness)
		sumCA += float64(r.Scores.CitationAccuracy)
		if r.IsFlagged {
			st.FlaggedCount++
		}
	}

	n := float64(len(results))
	st.TotalEvaluations = len(results)
	st.AverageScore = sumAvg / n
	st.AvgFaithfulness = sumF / n
	st.AvgRelevance = sumR / n
	st.AvgCompleteness = sumC / n
	st.AvgCitationAccuracy = sumCA / n
	return st
}

// Health status values derived from aggregate scores.
const (
	HealthNoData    = "no_data"
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// HealthFromStats maps the aggregate average score to a coarse health flag.
// Computed only when at least one evaluation exists.
func HealthFromStats(st EvaluationStats) string {
	if st.TotalEvaluations == 0 {
		return HealthNoData
	}
	switch {
	case st.AverageScore < 2.5:
		return HealthUnhealthy
	case st.AverageScore < 3.5:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}
