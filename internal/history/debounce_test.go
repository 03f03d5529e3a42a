package history_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"clipstudio/internal/history"
)

// fakeClock drives debounce timers manually.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	stopped := t.stopped
	t.stopped = true
	return !stopped
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) history.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{at: c.now + d, fn: fn}
	c.timers = append(c.timers, timer)
	return timer
}

// Advance moves the clock forward and runs every due, unstopped timer.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	remaining := c.timers[:0]
	for _, timer := range c.timers {
		if !timer.stopped && timer.at <= c.now {
			due = append(due, timer)
			continue
		}
		remaining = append(remaining, timer)
	}
	c.timers = remaining
	c.mu.Unlock()

	for _, timer := range due {
		timer.fn()
	}
}

type persistedWrite struct {
	clipID   string
	snapshot history.Snapshot
}

type recordingPersister struct {
	mu     sync.Mutex
	writes []persistedWrite
	gate   chan struct{}
}

func (p *recordingPersister) PersistTrim(ctx context.Context, clipID string, snapshot history.Snapshot) error {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, persistedWrite{clipID: clipID, snapshot: snapshot})
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func (p *recordingPersister) clipCount(clipID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, write := range p.writes {
		if write.clipID == clipID {
			n++
		}
	}
	return n
}

func (p *recordingPersister) last() history.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes[len(p.writes)-1].snapshot
}

func TestBurstOfEditsProducesOneWrite(t *testing.T) {
	clock := &fakeClock{}
	persister := &recordingPersister{}
	scheduler := history.NewScheduler(persister, 2*time.Second, clock, nil)

	// Five edits inside the debounce window, each resetting the timer.
	for i := int64(1); i <= 5; i++ {
		scheduler.Schedule("clip-1", history.Snapshot{StartMS: 0, EndMS: 40_000 + i*1_000})
		clock.Advance(500 * time.Millisecond)
	}
	if persister.count() != 0 {
		t.Fatalf("write fired inside the debounce window: %d", persister.count())
	}

	clock.Advance(2 * time.Second)
	if err := scheduler.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if persister.count() != 1 {
		t.Fatalf("writes = %d, want exactly 1", persister.count())
	}
	if got := persister.last().EndMS; got != 45_000 {
		t.Fatalf("persisted end = %d, want the final edit 45000", got)
	}
}

func TestSpacedEditsEachPersist(t *testing.T) {
	clock := &fakeClock{}
	persister := &recordingPersister{}
	scheduler := history.NewScheduler(persister, 2*time.Second, clock, nil)

	for i := int64(1); i <= 3; i++ {
		scheduler.Schedule("clip-1", history.Snapshot{StartMS: 0, EndMS: 40_000 + i*1_000})
		clock.Advance(3 * time.Second)
		if err := scheduler.Flush(context.Background()); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		if persister.count() != int(i) {
			t.Fatalf("writes after edit %d = %d", i, persister.count())
		}
	}
}

func TestClipSwitchKeepsEarlierPendingWrite(t *testing.T) {
	clock := &fakeClock{}
	persister := &recordingPersister{}
	scheduler := history.NewScheduler(persister, 2*time.Second, clock, nil)

	// An edit on a second clip lands while the first clip's debounce is
	// still running. Both writes must reach the backend.
	scheduler.Schedule("clip-1", history.Snapshot{StartMS: 0, EndMS: 41_000})
	clock.Advance(1 * time.Second)
	scheduler.Schedule("clip-2", history.Snapshot{StartMS: 0, EndMS: 30_000})

	clock.Advance(2 * time.Second)
	if err := scheduler.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := persister.clipCount("clip-1"); got != 1 {
		t.Fatalf("clip-1 writes = %d, want 1", got)
	}
	if got := persister.clipCount("clip-2"); got != 1 {
		t.Fatalf("clip-2 writes = %d, want 1", got)
	}
}

func TestFlushWritesEveryPendingClip(t *testing.T) {
	clock := &fakeClock{}
	persister := &recordingPersister{}
	scheduler := history.NewScheduler(persister, 2*time.Second, clock, nil)

	scheduler.Schedule("clip-1", history.Snapshot{StartMS: 0, EndMS: 41_000})
	scheduler.Schedule("clip-2", history.Snapshot{StartMS: 0, EndMS: 30_000})

	if err := scheduler.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := persister.clipCount("clip-1"); got != 1 {
		t.Fatalf("clip-1 writes = %d, want 1", got)
	}
	if got := persister.clipCount("clip-2"); got != 1 {
		t.Fatalf("clip-2 writes = %d, want 1", got)
	}
}

func TestEditDuringInFlightWriteQueues(t *testing.T) {
	clock := &fakeClock{}
	persister := &recordingPersister{gate: make(chan struct{})}
	scheduler := history.NewScheduler(persister, 2*time.Second, clock, nil)

	scheduler.Schedule("clip-1", history.Snapshot{StartMS: 0, EndMS: 41_000})
	clock.Advance(2 * time.Second)

	// First write is blocked on the gate; a second edit debounces behind it.
	scheduler.Schedule("clip-1", history.Snapshot{StartMS: 0, EndMS: 42_000})
	clock.Advance(2 * time.Second)

	close(persister.gate)
	if err := scheduler.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if persister.count() != 2 {
		t.Fatalf("writes = %d, want 2", persister.count())
	}
	if got := persister.last().EndMS; got != 42_000 {
		t.Fatalf("queued write persisted %d, want 42000", got)
	}
}

func TestFlushWritesPendingImmediately(t *testing.T) {
	clock := &fakeClock{}
	persister := &recordingPersister{}
	scheduler := history.NewScheduler(persister, 2*time.Second, clock, nil)

	scheduler.Schedule("clip-1", history.Snapshot{StartMS: 5_000, EndMS: 45_000})
	if err := scheduler.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if persister.count() != 1 {
		t.Fatalf("writes = %d, want 1", persister.count())
	}

	// Nothing pending, nothing written.
	if err := scheduler.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}
	if persister.count() != 1 {
		t.Fatalf("empty Flush wrote: %d", persister.count())
	}
}

func TestLogSchedulesPersistenceOnEveryMutation(t *testing.T) {
	clock := &fakeClock{}
	persister := &recordingPersister{}
	scheduler := history.NewScheduler(persister, 2*time.Second, clock, nil)

	l := history.NewLog(testClip(), 0, 0, history.WithScheduler(scheduler))
	if err := l.Apply(history.Snapshot{StartMS: 5_000, EndMS: 50_000}, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	l.Undo()
	l.Redo()

	clock.Advance(2 * time.Second)
	if err := scheduler.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if persister.count() != 1 {
		t.Fatalf("writes = %d, want 1 coalesced write", persister.count())
	}
	if got := persister.last().EndMS; got != 50_000 {
		t.Fatalf("persisted end = %d, want 50000", got)
	}
}
