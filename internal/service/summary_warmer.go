package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/college-api/pkg/jobs"
)

const warmTaskKind = "warm_summary"

// SummaryWarmer repopulates a student's cached overall summary in the
// background after their marks change. Warming is best effort: the next
// read computes the summary itself when a task was dropped or failed.
type SummaryWarmer struct {
	queue *jobs.Queue
}

// NewSummaryWarmer wires a worker pool that recomputes and caches summaries.
func NewSummaryWarmer(aggregator *AttendanceAggregator, cache *CacheService, logger *zap.Logger) *SummaryWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, task jobs.Task) error {
		summary, err := aggregator.SummarizeAll(ctx, task.Key)
		if err != nil {
			return err
		}
		return cache.Set(ctx, summaryCacheKey(task.Key), summary, 0)
	}
	return &SummaryWarmer{
		queue: jobs.NewQueue("summary-warmer", handler, jobs.Options{
			Workers: 2,
			Buffer:  64,
			Retries: 1,
			Logger:  logger,
		}),
	}
}

// Start launches the background workers.
func (w *SummaryWarmer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	w.queue.Start(ctx)
}

// Stop drains the workers.
func (w *SummaryWarmer) Stop() {
	if w == nil {
		return
	}
	w.queue.Stop()
}

// Warm schedules a recompute of the student's overall summary.
func (w *SummaryWarmer) Warm(studentID string) {
	if w == nil || studentID == "" {
		return
	}
	w.queue.TryEnqueue(jobs.Task{Kind: warmTaskKind, Key: studentID})
}
