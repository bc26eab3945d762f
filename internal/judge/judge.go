package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kestrel-labs/ragscore/internal/cost"
	"github.com/kestrel-labs/ragscore/internal/model"
	"github.com/kestrel-labs/ragscore/internal/resilience"
	"github.com/kestrel-labs/ragscore/pkg/anthropic"
)

// neutralRationale is stored when the judge reply contained no parseable JSON.
const neutralRationale = "Invalid JSON response"

// JudgeError marks a failed scoring call (network, provider, timeout). The
// scheduler retries these; malformed judge output is not a JudgeError.
type JudgeError struct {
	Err error
}

func (e *JudgeError) Error() string {
	return "judge call failed: " + e.Err.Error()
}

func (e *JudgeError) Unwrap() error {
	return e.Err
}

// Config controls the judge model invocation.
type Config struct {
	Model             string
	MaxTokens         int64
	Temperature       float64
	CallTimeout       time.Duration
	RequestsPerSecond float64
}

// Judge scores a query/response/context triple with an external model.
type Judge struct {
	client  anthropic.Client
	cfg     Config
	rubric  Rubric
	limiter *rate.Limiter
	tracker *cost.Tracker
}

// Option configures optional Judge behavior.
type Option func(*Judge)

// WithCostTracker records token spend for every scoring call.
func WithCostTracker(t *cost.Tracker) Option {
	return func(j *Judge) { j.tracker = t }
}

// New creates a Judge. RequestsPerSecond <= 0 disables rate limiting.
func New(client anthropic.Client, cfg Config, rubric Rubric, opts ...Option) *Judge {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	j := &Judge{client: client, cfg: cfg, rubric: rubric, limiter: limiter}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// judgeReply mirrors the JSON object the rubric asks the model to emit.
// Floats are accepted and rounded during clamping.
type judgeReply struct {
	Faithfulness     float64 `json:"faithfulness"`
	Relevance        float64 `json:"relevance"`
	Completeness     float64 `json:"completeness"`
	CitationAccuracy float64 `json:"citation_accuracy"`
	Rationale        string  `json:"rationale"`
}

// Score invokes the judge model and returns a bounded score vector. A failed
// call returns a *JudgeError; malformed output degrades to a neutral vector
// instead of failing, since bad output is a judge-quality problem rather than
// a pipeline fault.
func (j *Judge) Score(ctx context.Context, query, response, docContext string) (model.ScoreVector, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return model.ScoreVector{}, &JudgeError{Err: err}
	}

	callCtx := ctx
	if j.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, j.cfg.CallTimeout)
		defer cancel()
	}

	temp := j.cfg.Temperature
	resp, err := j.client.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:       j.cfg.Model,
		MaxTokens:   j.cfg.MaxTokens,
		System:      j.rubric.systemPrompt(),
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPayload(query, response, docContext)},
		},
	})
	if err != nil {
		zap.L().Warn("judge: scoring call failed",
			zap.Bool("transient", resilience.IsTransient(err)),
			zap.Error(err),
		)
		return model.ScoreVector{}, &JudgeError{Err: err}
	}

	if j.tracker != nil {
		j.tracker.Record(j.cfg.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	return parseReply(resp.Text), nil
}

// buildPayload assembles the single structured user message. Inputs are
// sanitized first so injected markup in the response or context cannot pose
// as payload structure.
func buildPayload(query, response, docContext string) string {
	return fmt.Sprintf(
		"<query>\n%s\n</query>\n\n<context>\n%s\n</context>\n\n<response>\n%s\n</response>",
		sanitize(query), sanitize(docContext), sanitize(response),
	)
}

var delimiterEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

func sanitize(s string) string {
	return delimiterEscaper.Replace(s)
}

// parseReply extracts the first JSON object from the model output and clamps
// every score into range. No parseable JSON yields the neutral vector.
func parseReply(text string) model.ScoreVector {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		zap.L().Warn("judge: no JSON object in reply", zap.Int("reply_len", len(text)))
		return neutralVector()
	}

	var reply judgeReply
	if err := json.Unmarshal([]byte(jsonStr), &reply); err != nil {
		zap.L().Warn("judge: reply JSON malformed", zap.Error(eris.Wrap(err, "judge: unmarshal reply")))
		return neutralVector()
	}

	return model.ScoreVector{
		Faithfulness:     model.ClampScore(reply.Faithfulness),
		Relevance:        model.ClampScore(reply.Relevance),
		Completeness:     model.ClampScore(reply.Completeness),
		CitationAccuracy: model.ClampScore(reply.CitationAccuracy),
		Rationale:        reply.Rationale,
	}
}

func neutralVector() model.ScoreVector {
	return model.ScoreVector{
		Faithfulness:     3,
		Relevance:        3,
		Completeness:     3,
		CitationAccuracy: 3,
		Rationale:        neutralRationale,
	}
}

// extractJSON returns the first well-formed JSON object in text, handling
// markdown code fences and surrounding prose. Brace matching is aware of
// string literals and escape sequences.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx != -1 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
