package autosave

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/observability"
)

// DefaultInterval is how often the scheduler wakes to check whether a
// save is due (spec.md §4.7 "wakes on a fixed interval (default 5 min)").
const DefaultInterval = 5 * time.Minute

// DefaultDebounce is the minimum quiet period after the last edit before
// an autosave fires (spec.md §4.7 "(now - last_dirty_time) >=
// debounce_ms").
const DefaultDebounce = 2 * time.Second

// SnapshotFunc serializes a document's current tree on demand. It is the
// owner task's responsibility, not the scheduler's: the scheduler only
// decides *when* to call it and where the result goes.
type SnapshotFunc func(ctx context.Context) (data []byte, version int64, err error)

// Config configures one document's Scheduler.
type Config struct {
	DocID        identity.NodeID
	OriginalPath string
	Interval     time.Duration
	Debounce     time.Duration
}

// Scheduler runs the periodic autosave loop for a single document (spec.md
// §4.7 "Scheduler. A cooperative background task wakes on a fixed
// interval"), grounded on the same ticker/stop-channel/waitgroup shape the
// teacher uses for its own periodic background managers.
type Scheduler struct {
	cfg    Config
	dirty  *DirtyFlag
	store  *Store
	snap   SnapshotFunc
	logger observability.Logger

	status Status
	saving atomic.Bool // mutual exclusion, spec.md §4.7 "is_saving flag"

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a Scheduler for one document. dirty is the flag
// commands mark; store is where snapshots land; snap produces the bytes
// to write.
func NewScheduler(cfg Config, dirty *DirtyFlag, store *Store, snap SnapshotFunc, logger observability.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = observability.NewLogger("autosave")
	}
	return &Scheduler{
		cfg:    cfg,
		dirty:  dirty,
		store:  store,
		snap:   snap,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background loop. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop cancels the background loop and waits for any in-flight cycle's
// I/O boundary to finish (spec.md §5 "An in-flight autosave is
// cancellable at I/O boundaries").
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

// Status returns the current autosave status for an AutosaveStatusChanged
// observer.
func (s *Scheduler) Status() *Status {
	return &s.status
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.maybeSave(ctx)
		}
	}
}

func (s *Scheduler) maybeSave(ctx context.Context) {
	if !s.dirty.ReadyToSave(time.Now(), s.cfg.Debounce) {
		return
	}
	if !s.saving.CompareAndSwap(false, true) {
		return // another cycle is already writing
	}
	defer s.saving.Store(false)

	s.status.beginSave()
	err := s.save(ctx)
	s.status.endSave(time.Now(), err)

	if err != nil {
		s.logger.Warn("autosave cycle failed", map[string]interface{}{
			"doc_id": s.cfg.DocID.String(),
			"error":  err.Error(),
		})
		return
	}
	s.dirty.Clear()
}

// save serializes and writes one snapshot, retrying the write with
// exponential backoff (spec.md §7 "Autosave failures are recorded in
// AutosaveStatus.last_error and retried on the next interval" — the retry
// here covers a transient write failure within the same cycle; a failure
// that exhausts retries still falls through to that next-interval retry).
func (s *Scheduler) save(ctx context.Context) error {
	data, version, err := s.snap(ctx)
	if err != nil {
		return err
	}

	sidecar := Sidecar{
		DocID:        s.cfg.DocID,
		OriginalPath: s.cfg.OriginalPath,
		Timestamp:    time.Now(),
		Version:      version,
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	retrying := backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx)

	return backoff.Retry(func() error {
		return s.store.Write(ctx, s.cfg.DocID, data, sidecar)
	}, retrying)
}
