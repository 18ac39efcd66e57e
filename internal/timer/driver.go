package timer

import (
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultTickInterval = time.Second
	DefaultRearmDelay   = 500 * time.Millisecond
)

// Options contains runtime options for Driver.
type Options struct {
	TickInterval time.Duration
	RearmDelay   time.Duration
	Recorder     Recorder
	Notifier     Notifier
	Logger       *slog.Logger
	Now          func() time.Time
}

// Snapshot is the externally visible driver state.
type Snapshot struct {
	State
	Settings  Settings   `json:"settings"`
	Version   int        `json:"version"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Driver owns a Machine and the single ticker that advances it.
type Driver struct {
	mu      sync.Mutex
	machine *Machine
	options Options

	version   int
	startedAt *time.Time
	updatedAt time.Time
	abandoned *Interval

	tickGen  uint64
	tickStop chan struct{}

	rearmGen uint64
	rearm    *time.Timer

	subscribers map[int]chan Event
	nextSubID   int
	closed      bool
}

func NewDriver(settings Settings, options Options) (*Driver, error) {
	machine, err := NewMachine(settings)
	if err != nil {
		return nil, err
	}
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	if options.RearmDelay <= 0 {
		options.RearmDelay = DefaultRearmDelay
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Driver{
		machine:     machine,
		options:     options,
		version:     1,
		updatedAt:   options.Now().UTC(),
		subscribers: make(map[int]chan Event),
	}, nil
}

func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Start resumes the countdown. A baseVersion of zero skips the version check.
func (d *Driver) Start(baseVersion int) (Snapshot, error) {
	return d.command(baseVersion, func(m *Machine) (bool, error) {
		if !m.Start() {
			return false, nil
		}
		d.markStartedLocked()
		return true, nil
	})
}

func (d *Driver) Pause(baseVersion int) (Snapshot, error) {
	return d.command(baseVersion, func(m *Machine) (bool, error) {
		return m.Pause(), nil
	})
}

func (d *Driver) Toggle(baseVersion int) (Snapshot, error) {
	return d.command(baseVersion, func(m *Machine) (bool, error) {
		if m.State().IsRunning {
			return m.Pause(), nil
		}
		if !m.Start() {
			return false, nil
		}
		d.markStartedLocked()
		return true, nil
	})
}

func (d *Driver) Reset(baseVersion int) (Snapshot, error) {
	return d.command(baseVersion, func(m *Machine) (bool, error) {
		d.abandonLocked()
		m.Reset()
		return true, nil
	})
}

func (d *Driver) SetMode(baseVersion int, mode Mode) (Snapshot, error) {
	if !mode.Valid() {
		return Snapshot{}, ErrInvalidMode
	}
	return d.command(baseVersion, func(m *Machine) (bool, error) {
		d.abandonLocked()
		return true, m.SetMode(mode)
	})
}

func (d *Driver) UpdateSettings(baseVersion int, settings Settings) (Snapshot, error) {
	if err := settings.Validate(); err != nil {
		return Snapshot{}, err
	}
	return d.command(baseVersion, func(m *Machine) (bool, error) {
		if !m.State().IsRunning {
			d.abandonLocked()
		}
		return true, m.UpdateSettings(settings)
	})
}

// Subscribe registers an observer channel. The returned function unregisters
// and closes it; Close closes every remaining channel.
func (d *Driver) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := d.nextSubID
	d.nextSubID++
	d.subscribers[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if sub, ok := d.subscribers[id]; ok {
				delete(d.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops the ticker and any pending re-arm and closes observers.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.stopTickerLocked()
	d.cancelRearmLocked()
	for id, ch := range d.subscribers {
		delete(d.subscribers, id)
		close(ch)
	}
}

func (d *Driver) command(baseVersion int, apply func(m *Machine) (bool, error)) (Snapshot, error) {
	d.mu.Lock()
	if baseVersion > 0 && baseVersion != d.version {
		current := d.snapshotLocked()
		d.mu.Unlock()
		return Snapshot{}, &ConflictError{Current: current}
	}

	d.cancelRearmLocked()
	d.abandoned = nil
	changed, err := apply(d.machine)
	if err != nil {
		d.abandoned = nil
		d.mu.Unlock()
		return Snapshot{}, err
	}
	if changed {
		d.version++
		d.updatedAt = d.options.Now().UTC()
	}
	d.syncTickerLocked()
	snapshot := d.snapshotLocked()
	if changed {
		d.emitLocked(Event{Type: EventState, Snapshot: snapshot, At: d.updatedAt})
	}
	abandoned := d.abandoned
	d.abandoned = nil
	d.mu.Unlock()

	if abandoned != nil {
		d.record(*abandoned)
	}
	return snapshot, nil
}

func (d *Driver) markStartedLocked() {
	if d.startedAt == nil {
		now := d.options.Now().UTC()
		d.startedAt = &now
	}
}

// abandonLocked queues a cancelled interval when the current one was started.
func (d *Driver) abandonLocked() {
	if d.startedAt == nil {
		return
	}
	state := d.machine.State()
	planned := d.machine.Settings().DurationFor(state.Mode)
	actual := planned - state.RemainingSeconds
	if actual < 0 {
		actual = 0
	}
	d.abandoned = &Interval{
		Mode:           state.Mode,
		PlannedSeconds: planned,
		ActualSeconds:  actual,
		StartedAt:      *d.startedAt,
		EndedAt:        d.options.Now().UTC(),
		Completed:      false,
	}
	d.startedAt = nil
}

func (d *Driver) syncTickerLocked() {
	running := d.machine.State().IsRunning
	if running && d.tickStop == nil && !d.closed {
		d.tickGen++
		stop := make(chan struct{})
		d.tickStop = stop
		go d.run(stop, d.tickGen)
		return
	}
	if !running && d.tickStop != nil {
		d.stopTickerLocked()
	}
}

func (d *Driver) stopTickerLocked() {
	if d.tickStop == nil {
		return
	}
	close(d.tickStop)
	d.tickStop = nil
	d.tickGen++
}

func (d *Driver) run(stop <-chan struct{}, gen uint64) {
	ticker := time.NewTicker(d.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.tick(gen)
		}
	}
}

func (d *Driver) tick(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.tickGen {
		d.mu.Unlock()
		return
	}

	transition, reached := d.machine.Tick()
	now := d.options.Now().UTC()
	if !reached {
		d.emitLocked(Event{Type: EventTick, Snapshot: d.snapshotLocked(), At: now})
		d.mu.Unlock()
		return
	}

	startedAt := now.Add(-time.Duration(transition.PlannedSeconds) * time.Second)
	if d.startedAt != nil {
		startedAt = *d.startedAt
	}
	finished := Interval{
		Mode:           transition.From,
		PlannedSeconds: transition.PlannedSeconds,
		ActualSeconds:  transition.PlannedSeconds,
		StartedAt:      startedAt,
		EndedAt:        now,
		Completed:      true,
	}
	d.startedAt = nil
	d.version++
	d.updatedAt = now
	d.stopTickerLocked()
	if transition.AutoContinue {
		d.scheduleRearmLocked()
	}

	snapshot := d.snapshotLocked()
	d.emitLocked(Event{Type: EventTransition, Snapshot: snapshot, Transition: &transition, At: now})
	if transition.Notify {
		d.emitLocked(Event{
			Type:       EventNotification,
			Snapshot:   snapshot,
			Transition: &transition,
			Message:    NotificationMessage(transition),
			At:         now,
		})
	}
	d.mu.Unlock()

	d.options.Logger.Debug("timer interval completed",
		"from", transition.From, "to", transition.To, "completed_focus", transition.CompletedFocusCount)
	d.record(finished)
	if transition.Notify && d.options.Notifier != nil {
		d.options.Notifier.Notify(transition)
	}
}

func (d *Driver) scheduleRearmLocked() {
	d.rearmGen++
	gen := d.rearmGen
	d.rearm = time.AfterFunc(d.options.RearmDelay, func() {
		d.fireRearm(gen)
	})
}

func (d *Driver) cancelRearmLocked() {
	if d.rearm != nil {
		d.rearm.Stop()
		d.rearm = nil
	}
	d.rearmGen++
}

func (d *Driver) fireRearm(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.rearmGen {
		return
	}
	d.rearm = nil
	if !d.machine.Start() {
		return
	}
	d.markStartedLocked()
	d.version++
	d.updatedAt = d.options.Now().UTC()
	d.syncTickerLocked()
	d.emitLocked(Event{Type: EventState, Snapshot: d.snapshotLocked(), At: d.updatedAt})
}

func (d *Driver) record(interval Interval) {
	if d.options.Recorder == nil {
		return
	}
	d.options.Recorder.Record(interval)
}

func (d *Driver) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		State:     d.machine.State(),
		Settings:  d.machine.Settings(),
		Version:   d.version,
		UpdatedAt: d.updatedAt,
	}
	if d.startedAt != nil {
		startedAt := *d.startedAt
		snapshot.StartedAt = &startedAt
	}
	return snapshot
}

func (d *Driver) emitLocked(event Event) {
	for _, ch := range d.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
