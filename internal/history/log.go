package history

import (
	"fmt"
	"time"

	"clipstudio/internal/media"
	"clipstudio/internal/services"
)

// Snapshot captures the clip fields the edit history controls.
type Snapshot struct {
	StartMS         int64 `json:"start_ms"`
	EndMS           int64 `json:"end_ms"`
	QualityOriginal bool  `json:"quality_original"`
}

// Window returns the snapshot's trim window.
func (s Snapshot) Window() media.TrimWindow {
	return media.TrimWindow{StartMS: s.StartMS, EndMS: s.EndMS}
}

// Entry is one applied edit: the resulting clip state plus user-facing
// description.
type Entry struct {
	Snapshot
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Option configures optional Log behavior.
type Option func(*Log)

// WithScheduler attaches a debounced persistence scheduler; every successful
// mutation schedules a write of the live state.
func WithScheduler(scheduler *Scheduler) Option {
	return func(l *Log) {
		l.scheduler = scheduler
	}
}

// WithNow overrides the timestamp source for entries.
func WithNow(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// Log is the linear edit history for a single clip.
type Log struct {
	clipID    string
	baseline  Snapshot
	live      Snapshot
	entries   []Entry
	index     int
	minMS     int64
	maxMS     int64
	scheduler *Scheduler
	now       func() time.Time
}

// NewLog starts an empty history at the clip's currently loaded state.
// Zero trim bounds fall back to the media package defaults.
func NewLog(clip media.Clip, minMS, maxMS int64, opts ...Option) *Log {
	baseline := Snapshot{
		StartMS:         clip.StartMS,
		EndMS:           clip.EndMS,
		QualityOriginal: clip.QualityOriginal,
	}
	l := &Log{
		clipID:   clip.ID,
		baseline: baseline,
		live:     baseline,
		index:    -1,
		minMS:    minMS,
		maxMS:    maxMS,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State is the serializable form of a Log. It rides along with the session
// so undo and redo survive across invocations.
type State struct {
	ClipID   string   `json:"clip_id"`
	Baseline Snapshot `json:"baseline"`
	Entries  []Entry  `json:"entries,omitempty"`
	Index    int      `json:"index"`
}

// State captures the log for persistence.
func (l *Log) State() State {
	return State{
		ClipID:   l.clipID,
		Baseline: l.baseline,
		Entries:  l.Entries(),
		Index:    l.index,
	}
}

// RestoreLog rebuilds a previously captured log. The cursor implies the live
// state; an out-of-range cursor clamps into the entry range.
func RestoreLog(state State, minMS, maxMS int64, opts ...Option) *Log {
	l := &Log{
		clipID:   state.ClipID,
		baseline: state.Baseline,
		live:     state.Baseline,
		entries:  append([]Entry(nil), state.Entries...),
		index:    state.Index,
		minMS:    minMS,
		maxMS:    maxMS,
		now:      time.Now,
	}
	if l.index >= len(l.entries) {
		l.index = len(l.entries) - 1
	}
	if l.index < -1 {
		l.index = -1
	}
	if l.index >= 0 {
		l.live = l.entries[l.index].Snapshot
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ClipID returns the clip this history belongs to.
func (l *Log) ClipID() string { return l.clipID }

// Live returns the current clip state.
func (l *Log) Live() Snapshot { return l.live }

// Baseline returns the originally loaded clip state.
func (l *Log) Baseline() Snapshot { return l.baseline }

// Len returns the number of entries in the log.
func (l *Log) Len() int { return len(l.entries) }

// Index returns the cursor position; -1 means the clip is at baseline.
func (l *Log) Index() int { return l.index }

// Entries returns a copy of the log for presentation.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// CanUndo reports whether Undo would act.
func (l *Log) CanUndo() bool { return l.index >= 0 }

// CanRedo reports whether Redo would act.
func (l *Log) CanRedo() bool { return l.index < len(l.entries)-1 }

// Apply validates the target state and, when it differs from the live state,
// truncates any redo branch, appends an entry, and advances the cursor.
// Invalid edits never enter history and leave the live state untouched.
func (l *Log) Apply(target Snapshot, description string) error {
	if err := media.ValidateTrim(target.Window(), l.minMS, l.maxMS); err != nil {
		return services.Wrap(services.ErrValidation, "fine-tune", "apply edit", err.Error(), nil)
	}
	if target == l.live {
		return nil
	}
	if description == "" {
		description = fmt.Sprintf("Trim %s - %s", media.FormatMS(target.StartMS), media.FormatMS(target.EndMS))
	}

	if l.index < len(l.entries)-1 {
		l.entries = l.entries[:l.index+1]
	}
	l.entries = append(l.entries, Entry{Snapshot: target, Description: description, At: l.now()})
	l.index = len(l.entries) - 1
	l.live = target
	l.persist()
	return nil
}

// Undo steps the cursor back one position and restores the implied state.
// It returns false when the clip is already at baseline; otherwise it
// returns the undone entry's description.
func (l *Log) Undo() (string, bool) {
	if l.index < 0 {
		return "", false
	}
	undone := l.entries[l.index]
	l.index--
	if l.index >= 0 {
		l.live = l.entries[l.index].Snapshot
	} else {
		l.live = l.baseline
	}
	l.persist()
	return undone.Description, true
}

// Redo re-applies the entry after the cursor. It returns false when the
// cursor is at the tail.
func (l *Log) Redo() (string, bool) {
	if l.index >= len(l.entries)-1 {
		return "", false
	}
	l.index++
	entry := l.entries[l.index]
	l.live = entry.Snapshot
	l.persist()
	return entry.Description, true
}

// Reset restores the baseline state through a synthetic entry, so the reset
// itself can be undone.
func (l *Log) Reset() {
	if l.index < len(l.entries)-1 {
		l.entries = l.entries[:l.index+1]
	}
	l.entries = append(l.entries, Entry{Snapshot: l.baseline, Description: "Reset", At: l.now()})
	l.index = len(l.entries) - 1
	l.live = l.baseline
	l.persist()
}

func (l *Log) persist() {
	if l.scheduler != nil {
		l.scheduler.Schedule(l.clipID, l.live)
	}
}
