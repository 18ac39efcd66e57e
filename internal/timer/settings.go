package timer

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned when durations or the long break interval are not positive.
var ErrInvalidSettings = errors.New("invalid timer settings")

// ErrInvalidMode is returned for mode names outside focus, short_break and long_break.
var ErrInvalidMode = errors.New("invalid timer mode")

const (
	DefaultFocusSeconds      = 25 * 60
	DefaultShortBreakSeconds = 5 * 60
	DefaultLongBreakSeconds  = 15 * 60
	DefaultLongBreakInterval = 4
)

// Durations holds the configured length of each mode in seconds.
type Durations struct {
	FocusSeconds      int `json:"focusDurationSeconds" yaml:"focus_seconds"`
	ShortBreakSeconds int `json:"shortBreakDurationSeconds" yaml:"short_break_seconds"`
	LongBreakSeconds  int `json:"longBreakDurationSeconds" yaml:"long_break_seconds"`
}

// Settings configures a Machine.
type Settings struct {
	Durations `yaml:",inline"`

	// LongBreakInterval is the number of completed focus intervals per long break.
	LongBreakInterval int  `json:"longBreakInterval" yaml:"long_break_interval"`
	AutoStartBreaks   bool `json:"autoStartBreaks" yaml:"auto_start_breaks"`
	AutoStartFocus    bool `json:"autoStartFocus" yaml:"auto_start_focus"`
	SoundEnabled      bool `json:"soundEnabled" yaml:"sound_enabled"`
}

func DefaultDurations() Durations {
	return Durations{
		FocusSeconds:      DefaultFocusSeconds,
		ShortBreakSeconds: DefaultShortBreakSeconds,
		LongBreakSeconds:  DefaultLongBreakSeconds,
	}
}

func DefaultSettings() Settings {
	return Settings{
		Durations:         DefaultDurations(),
		LongBreakInterval: DefaultLongBreakInterval,
		SoundEnabled:      true,
	}
}

// Validate rejects non-positive durations and intervals.
func (s Settings) Validate() error {
	if s.FocusSeconds <= 0 || s.ShortBreakSeconds <= 0 || s.LongBreakSeconds <= 0 {
		return fmt.Errorf("%w: all durations must be positive seconds", ErrInvalidSettings)
	}
	if s.LongBreakInterval <= 0 {
		return fmt.Errorf("%w: long break interval must be positive", ErrInvalidSettings)
	}
	return nil
}

// DurationFor returns the configured length of mode in seconds.
func (s Settings) DurationFor(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return s.ShortBreakSeconds
	case ModeLongBreak:
		return s.LongBreakSeconds
	default:
		return s.FocusSeconds
	}
}

func (s Settings) autoContinue(mode Mode) bool {
	if mode.IsBreak() {
		return s.AutoStartBreaks
	}
	return s.AutoStartFocus
}
