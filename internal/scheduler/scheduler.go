// Package scheduler holds the bounded in-process evaluation queue and its
// single consumer loop.
package scheduler

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrel-labs/ragscore/internal/model"
)

// Request is a pending evaluation. It lives only in the queue: it is created
// on enqueue and destroyed when scored or dropped.
type Request struct {
	Query      string
	Response   string
	Context    string
	RetryCount int
	LastError  string
}

// Status is a point-in-time snapshot of the queue.
type Status struct {
	Pending  int   `json:"pending"`
	Active   bool  `json:"active"`
	Dropped  int64 `json:"dropped"`
	Capacity int   `json:"capacity"`
}

// Scorer produces a bounded score vector for one interaction.
type Scorer interface {
	Score(ctx context.Context, query, response, docContext string) (model.ScoreVector, error)
}

// Persister records evaluation results and supplies the current config.
type Persister interface {
	SaveEvaluation(ctx context.Context, result model.EvaluationResult) error
	GetConfig(ctx context.Context) model.EvaluationConfig
}

// Config controls queue depth, the retry ceiling, and pacing.
type Config struct {
	Capacity   int
	MaxRetries int

	// Pacing: after each item the consumer sleeps
	// BaseDelay * GrowthFactor^min(depth/PressureDivisor, MaxExponent),
	// so drain speed backs off as the queue fills.
	BaseDelay       time.Duration
	GrowthFactor    float64
	PressureDivisor int
	MaxExponent     int
}

// DefaultConfig returns the production pacing and depth settings.
func DefaultConfig() Config {
	return Config{
		Capacity:        100,
		MaxRetries:      3,
		BaseDelay:       200 * time.Millisecond,
		GrowthFactor:    2.0,
		PressureDivisor: 10,
		MaxExponent:     4,
	}
}

// Scheduler owns the pending queue. Producers enqueue from arbitrary
// goroutines without blocking; exactly one consumer goroutine drains the
// queue, started lazily and exiting when the queue is empty.
type Scheduler struct {
	ctx    context.Context
	scorer Scorer
	store  Persister
	cfg    Config

	mu         sync.Mutex
	queue      []*Request
	processing bool
	dropped    int64

	// Injected for deterministic tests.
	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Scheduler. The context bounds the lifetime of the consumer
// loop; cancelling it stops processing after the in-flight item.
func New(ctx context.Context, scorer Scorer, store Persister, cfg Config) *Scheduler {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.GrowthFactor <= 0 {
		cfg.GrowthFactor = DefaultConfig().GrowthFactor
	}
	if cfg.PressureDivisor <= 0 {
		cfg.PressureDivisor = DefaultConfig().PressureDivisor
	}
	return &Scheduler{
		ctx:    ctx,
		scorer: scorer,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		sleep:  sleepCtx,
	}
}

// Enqueue submits an interaction for evaluation. It never blocks: when the
// queue is at capacity the item is rejected, the drop counter incremented,
// and false returned. Otherwise the consumer loop is started if idle.
func (s *Scheduler) Enqueue(req Request) bool {
	req.RetryCount = 0
	req.LastError = ""

	s.mu.Lock()
	if len(s.queue) >= s.cfg.Capacity {
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		zap.L().Warn("scheduler: queue full, dropping evaluation request",
			zap.Int("capacity", s.cfg.Capacity),
			zap.Int64("dropped_total", dropped),
		)
		return false
	}

	s.queue = append(s.queue, &req)
	s.startLocked()
	s.mu.Unlock()
	return true
}

// startLocked launches the consumer loop unless one is already running.
// Callers must hold s.mu.
func (s *Scheduler) startLocked() {
	if s.processing {
		return
	}
	s.processing = true
	go s.run()
}

// Status returns a snapshot safe to call concurrently with processing.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Pending:  len(s.queue),
		Active:   s.processing,
		Dropped:  s.dropped,
		Capacity: s.cfg.Capacity,
	}
}

// run is the single consumer loop. It drains the queue to empty, pacing
// between items, then exits; the next Enqueue restarts it.
func (s *Scheduler) run() {
	for {
		if s.ctx.Err() != nil {
			s.mu.Lock()
			s.processing = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		if len(s.queue) == 0 {
			s.processing = false
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.process(item)

		// Pacing reacts to the depth at the moment the item finished, not
		// to the item's own retry count.
		s.mu.Lock()
		depth := len(s.queue)
		s.mu.Unlock()
		s.sleep(s.ctx, s.pacingDelay(depth))
	}
}

// process scores and persists one item, requeueing on failure until the
// retry ceiling is exceeded.
func (s *Scheduler) process(item *Request) {
	scores, err := s.scorer.Score(s.ctx, item.Query, item.Response, item.Context)
	if err == nil {
		cfg := s.store.GetConfig(s.ctx)
		result := model.NewEvaluationResult(
			s.newID(), s.now(),
			item.Query, item.Response, item.Context,
			scores, cfg.FlagThreshold,
		)
		err = s.store.SaveEvaluation(s.ctx, result)
		if err == nil {
			zap.L().Debug("scheduler: evaluation recorded",
				zap.String("id", result.ID),
				zap.Float64("average_score", result.AverageScore),
				zap.Bool("flagged", result.IsFlagged),
				zap.Int("retries", item.RetryCount),
			)
			return
		}
	}

	if item.RetryCount < s.cfg.MaxRetries {
		item.RetryCount++
		item.LastError = err.Error()
		s.mu.Lock()
		s.queue = append(s.queue, item)
		s.mu.Unlock()
		zap.L().Warn("scheduler: evaluation failed, requeued",
			zap.Int("retry_count", item.RetryCount),
			zap.Error(err),
		)
		return
	}

	// Retry ceiling exceeded: best-effort semantics, the item is lost.
	zap.L().Warn("scheduler: evaluation dropped after retry ceiling",
		zap.Int("retries", item.RetryCount),
		zap.String("last_error", item.LastError),
		zap.Error(err),
	)
}

// pacingDelay grows with queue depth up to a capped exponent, slowing the
// drain as pressure builds.
func (s *Scheduler) pacingDelay(depth int) time.Duration {
	exp := depth / s.cfg.PressureDivisor
	if exp > s.cfg.MaxExponent {
		exp = s.cfg.MaxExponent
	}
	return time.Duration(float64(s.cfg.BaseDelay) * math.Pow(s.cfg.GrowthFactor, float64(exp)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
