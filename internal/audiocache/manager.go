package audiocache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"log/slog"

	"cadence/internal/logging"
)

// ErrUnknownAudio is returned when a fetch is requested for an id the
// registry has no source for.
var ErrUnknownAudio = errors.New("audio id not registered")

// Result reports the outcome of one background fetch.
type Result struct {
	ID    string
	Audio CachedAudio
	Err   error
}

// Manager fills cache gaps in the background. Requests are de-duplicated
// while in flight; completions arrive on Results in no guaranteed order.
type Manager struct {
	fetcher  Fetcher
	registry *Registry
	logger   *slog.Logger
	timeout  time.Duration
	sem      chan struct{}
	results  chan Result
	done     chan struct{}

	mu       sync.Mutex
	closed   bool
	inflight map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager wires a fetch manager. Concurrency bounds the number of
// simultaneous fetches; timeout caps each one.
func NewManager(fetcher Fetcher, registry *Registry, concurrency int, timeout time.Duration, logger *slog.Logger) *Manager {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{
		fetcher:  fetcher,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "audiofetch"),
		timeout:  timeout,
		sem:      make(chan struct{}, concurrency),
		results:  make(chan Result, 16),
		done:     make(chan struct{}),
		inflight: make(map[string]context.CancelFunc),
	}
}

// Results delivers fetch completions. The channel closes after Close.
func (m *Manager) Results() <-chan Result {
	return m.results
}

// Request schedules background fetches for every id not already in
// flight. It returns the number of fetches actually started. Ids without
// a registered source complete immediately with ErrUnknownAudio.
func (m *Manager) Request(ctx context.Context, ids ...string) int {
	started := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if m.start(ctx, id) {
			started++
		}
	}
	return started
}

func (m *Manager) start(ctx context.Context, id string) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	if _, running := m.inflight[id]; running {
		m.mu.Unlock()
		return false
	}

	source, known := m.registry.Resolve(id)
	if !known {
		// Tracked by wg so Close cannot close results mid-send.
		m.wg.Add(1)
		m.mu.Unlock()
		go func() {
			defer m.wg.Done()
			m.deliver(Result{ID: id, Err: ErrUnknownAudio})
		}()
		return false
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	m.inflight[id] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(fetchCtx, id, source)
	return true
}

func (m *Manager) run(ctx context.Context, id string, source Source) {
	defer m.wg.Done()
	defer m.finish(id)

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		m.deliver(Result{ID: id, Err: ctx.Err()})
		return
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	audio, err := m.fetcher.Fetch(ctx, Request{ID: id, SourceURL: source.URL, DurationMS: source.DurationMS})
	if err != nil {
		m.logger.Warn("audio fetch failed",
			logging.String(logging.FieldAudioID, id),
			logging.Error(err),
		)
		m.deliver(Result{ID: id, Err: err})
		return
	}
	m.logger.Debug("audio fetched",
		logging.String(logging.FieldAudioID, id),
		logging.Int64("duration_ms", audio.DurationMS),
	)
	m.deliver(Result{ID: id, Audio: audio})
}

func (m *Manager) finish(id string) {
	m.mu.Lock()
	if cancel, ok := m.inflight[id]; ok {
		delete(m.inflight, id)
		cancel()
	}
	m.mu.Unlock()
}

// deliver never blocks shutdown: a completion that nobody will read is
// dropped once Close has been called.
func (m *Manager) deliver(result Result) {
	select {
	case m.results <- result:
	case <-m.done:
	}
}

// Cancel aborts an in-flight fetch for id, if any.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	cancel, ok := m.inflight[id]
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close cancels all in-flight fetches, waits for them to settle, and
// closes the results channel.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.done)
	for _, cancel := range m.inflight {
		cancel()
	}
	m.mu.Unlock()

	m.wg.Wait()
	close(m.results)
}
