package session

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"cadence/internal/baseline"
	"cadence/internal/logging"
	"cadence/internal/progress"
	"cadence/internal/store"
)

const (
	recorderQueueSize   = 64
	recorderAttempts    = 3
	recorderWriteWindow = 5 * time.Second
)

type cursorRecord struct {
	learnerID string
	thread    int
	seq       int64
}

// record bundles the writes produced by one response. Fields left nil
// are skipped.
type record struct {
	metric   *store.ResponseMetric
	spike    *store.SpikeEvent
	baseline *baseline.Baseline
	unit     *progress.Unit
	cursor   *cursorRecord
}

// recorder persists session writes off the practice loop. Writes are
// retried a few times; a write that still fails is logged and dropped
// so the session keeps going.
type recorder struct {
	store  *store.Store
	logger *slog.Logger

	ch        chan record
	done      chan struct{}
	closeOnce sync.Once
}

func newRecorder(st *store.Store, logger *slog.Logger) *recorder {
	r := &recorder{
		store:  st,
		logger: logging.NewComponentLogger(logger, "recorder"),
		ch:     make(chan record, recorderQueueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *recorder) enqueue(rec record) {
	r.ch <- rec
}

// Close drains queued records and stops the worker.
func (r *recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.ch)
	})
	<-r.done
}

func (r *recorder) run() {
	defer close(r.done)
	for rec := range r.ch {
		r.persist(rec)
	}
}

func (r *recorder) persist(rec record) {
	if rec.metric != nil {
		r.write("response_metric", func(ctx context.Context) error {
			return r.store.InsertResponseMetric(ctx, rec.metric)
		})
	}
	if rec.spike != nil {
		r.write("spike_event", func(ctx context.Context) error {
			return r.store.InsertSpikeEvent(ctx, rec.spike)
		})
	}
	if rec.baseline != nil {
		r.write("baseline", func(ctx context.Context) error {
			return r.store.SaveBaseline(ctx, rec.baseline)
		})
	}
	if rec.unit != nil {
		r.write("unit_progress", func(ctx context.Context) error {
			return r.store.SaveUnitProgress(ctx, rec.unit)
		})
	}
	if rec.cursor != nil {
		r.write("thread_cursor", func(ctx context.Context) error {
			return r.store.SaveThreadCursor(ctx, rec.cursor.learnerID, rec.cursor.thread, rec.cursor.seq)
		})
	}
}

func (r *recorder) write(kind string, fn func(context.Context) error) {
	var err error
	for attempt := 1; attempt <= recorderAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), recorderWriteWindow)
		err = fn(ctx)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	r.logger.Error("write failed after retries",
		logging.String("record", kind),
		logging.Error(err),
		logging.Alert("persist_failure"),
	)
}
