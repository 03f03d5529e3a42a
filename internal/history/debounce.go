package history

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"clipstudio/internal/logging"
)

// Persister writes the current trim state to the backend.
type Persister interface {
	PersistTrim(ctx context.Context, clipID string, snapshot Snapshot) error
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(ctx context.Context, clipID string, snapshot Snapshot) error

func (f PersisterFunc) PersistTrim(ctx context.Context, clipID string, snapshot Snapshot) error {
	return f(ctx, clipID, snapshot)
}

// Timer is the cancellable handle a Clock hands out.
type Timer interface {
	Stop() bool
}

// Clock abstracts timer creation so debounce logic is testable without
// wall-clock delays.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by the runtime timers.
func RealClock() Clock { return realClock{} }

type pendingWrite struct {
	clipID   string
	snapshot Snapshot
	timer    Timer
}

// Scheduler coalesces rapid edits into single trailing-debounce writes.
// Pending writes are keyed by clip, so switching to another clip inside the
// debounce window never drops the previous clip's write. Only one write is in
// flight at a time; a debounce elapsing during an in-flight write queues
// behind it and fires afterwards.
type Scheduler struct {
	persister Persister
	delay     time.Duration
	clock     Clock
	logger    *slog.Logger

	mu       sync.Mutex
	pending  map[string]*pendingWrite
	queue    []*pendingWrite
	inflight bool
	wg       sync.WaitGroup
}

// NewScheduler builds a Scheduler. A nil clock uses runtime timers; a nil
// logger discards output.
func NewScheduler(persister Persister, delay time.Duration, clock Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Scheduler{
		persister: persister,
		delay:     delay,
		clock:     clock,
		logger:    logging.NewComponentLogger(logger, "trim-persist"),
		pending:   make(map[string]*pendingWrite),
	}
}

// Schedule records the latest state for a clip and (re)starts that clip's
// trailing debounce timer. Edits arriving before the timer fires replace the
// pending value and reset the timer; edits for other clips are independent.
func (s *Scheduler) Schedule(clipID string, snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev := s.pending[clipID]; prev != nil {
		prev.timer.Stop()
	}
	write := &pendingWrite{clipID: clipID, snapshot: snapshot}
	write.timer = s.clock.AfterFunc(s.delay, func() { s.fire(clipID) })
	s.pending[clipID] = write
}

// Flush sends every pending write immediately, cancelling their timers. It
// blocks until in-flight and pending writes complete and returns the first
// write error.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	writes := make([]*pendingWrite, 0, len(s.pending))
	for _, write := range s.pending {
		write.timer.Stop()
		writes = append(writes, write)
	}
	s.pending = make(map[string]*pendingWrite)
	s.mu.Unlock()

	s.wg.Wait()
	sort.Slice(writes, func(i, j int) bool { return writes[i].clipID < writes[j].clipID })
	for _, write := range writes {
		if err := s.persister.PersistTrim(ctx, write.clipID, write.snapshot); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) fire(clipID string) {
	s.mu.Lock()
	write := s.pending[clipID]
	delete(s.pending, clipID)
	if write == nil {
		s.mu.Unlock()
		return
	}
	if s.inflight {
		s.enqueueLocked(write)
		s.mu.Unlock()
		return
	}
	s.inflight = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.write(write)
}

// enqueueLocked appends a write behind the in-flight one, replacing any
// queued write for the same clip.
func (s *Scheduler) enqueueLocked(write *pendingWrite) {
	for i, queued := range s.queue {
		if queued.clipID == write.clipID {
			s.queue[i] = write
			return
		}
	}
	s.queue = append(s.queue, write)
}

func (s *Scheduler) write(write *pendingWrite) {
	defer s.wg.Done()
	for write != nil {
		if err := s.persister.PersistTrim(context.Background(), write.clipID, write.snapshot); err != nil {
			s.logger.Warn("trim persistence failed",
				logging.Args(logging.String(logging.FieldClipID, write.clipID), logging.Error(err))...)
		}

		s.mu.Lock()
		if len(s.queue) > 0 {
			write = s.queue[0]
			s.queue = s.queue[1:]
		} else {
			write = nil
			s.inflight = false
		}
		s.mu.Unlock()
	}
}
