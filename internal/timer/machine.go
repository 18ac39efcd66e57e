// Package timer implements the pomodoro countdown: a deterministic state
// machine and a ticking driver that advances it once per interval.
package timer

import "fmt"

// Mode is one of the three countdown phases.
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// ParseMode validates a mode name.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(raw)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
	return mode, nil
}

func (m Mode) Valid() bool {
	return m == ModeFocus || m == ModeShortBreak || m == ModeLongBreak
}

func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// State is a snapshot of the machine.
type State struct {
	Mode                Mode `json:"mode"`
	RemainingSeconds    int  `json:"remainingSeconds"`
	IsRunning           bool `json:"isRunning"`
	CompletedFocusCount int  `json:"completedFocusCount"`
}

// Transition describes a zero-reach mode change.
type Transition struct {
	From                Mode `json:"from"`
	To                  Mode `json:"to"`
	CompletedFocusCount int  `json:"completedFocusCount"`
	PlannedSeconds      int  `json:"plannedSeconds"`
	// AutoContinue reports that the new mode should start on its own after the re-arm delay.
	AutoContinue bool `json:"autoContinue"`
	// Notify reports that the user wants an audible notification.
	Notify bool `json:"notify"`
}

// Machine is not safe for concurrent use; Driver serializes access to it.
type Machine struct {
	settings Settings
	state    State
}

func NewMachine(settings Settings) (*Machine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Machine{
		settings: settings,
		state: State{
			Mode:             ModeFocus,
			RemainingSeconds: settings.FocusSeconds,
		},
	}, nil
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Settings() Settings {
	return m.settings
}

// Start reports whether the machine changed from paused to running.
func (m *Machine) Start() bool {
	if m.state.IsRunning || m.state.RemainingSeconds == 0 {
		return false
	}
	m.state.IsRunning = true
	return true
}

// Pause reports whether the machine changed from running to paused.
func (m *Machine) Pause() bool {
	if !m.state.IsRunning {
		return false
	}
	m.state.IsRunning = false
	return true
}

func (m *Machine) Toggle() {
	if m.state.IsRunning {
		m.Pause()
		return
	}
	m.Start()
}

func (m *Machine) Reset() {
	m.state.RemainingSeconds = m.settings.DurationFor(m.state.Mode)
	m.state.IsRunning = false
}

// SetMode abandons the current countdown, including a running one.
func (m *Machine) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, string(mode))
	}
	m.state.Mode = mode
	m.Reset()
	return nil
}

// UpdateSettings swaps the configuration. An idle countdown restarts at the
// new duration; a running one is clamped so it never exceeds it.
func (m *Machine) UpdateSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	m.settings = settings
	duration := settings.DurationFor(m.state.Mode)
	if !m.state.IsRunning {
		m.state.RemainingSeconds = duration
		return nil
	}
	if m.state.RemainingSeconds > duration {
		m.state.RemainingSeconds = duration
	}
	return nil
}

// Tick advances a running countdown by one second. It returns a transition
// when the countdown reaches zero.
func (m *Machine) Tick() (Transition, bool) {
	if !m.state.IsRunning || m.state.RemainingSeconds <= 0 {
		return Transition{}, false
	}
	m.state.RemainingSeconds--
	if m.state.RemainingSeconds > 0 {
		return Transition{}, false
	}
	return m.complete(), true
}

func (m *Machine) complete() Transition {
	from := m.state.Mode
	planned := m.settings.DurationFor(from)
	m.state.IsRunning = false

	next := ModeFocus
	if from == ModeFocus {
		m.state.CompletedFocusCount++
		next = ModeShortBreak
		if m.state.CompletedFocusCount%m.settings.LongBreakInterval == 0 {
			next = ModeLongBreak
		}
	}

	m.state.Mode = next
	m.state.RemainingSeconds = m.settings.DurationFor(next)

	return Transition{
		From:                from,
		To:                  next,
		CompletedFocusCount: m.state.CompletedFocusCount,
		PlannedSeconds:      planned,
		AutoContinue:        m.settings.autoContinue(next),
		Notify:              m.settings.SoundEnabled,
	}
}
