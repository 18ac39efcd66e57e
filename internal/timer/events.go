package timer

import (
	"fmt"
	"time"
)

// EventType defines the type of Driver event.
type EventType string

const (
	EventState        EventType = "state"
	EventTick         EventType = "tick"
	EventTransition   EventType = "transition"
	EventNotification EventType = "notification"
)

// Event represents a Driver update for observers.
type Event struct {
	Type       EventType   `json:"type"`
	Snapshot   Snapshot    `json:"snapshot"`
	Transition *Transition `json:"transition,omitempty"`
	Message    string      `json:"message,omitempty"`
	At         time.Time   `json:"at"`
}

// Interval is a focus or break countdown that either ran to zero or was abandoned.
type Interval struct {
	Mode           Mode
	PlannedSeconds int
	ActualSeconds  int
	StartedAt      time.Time
	EndedAt        time.Time
	Completed      bool
}

// Recorder receives every finished interval.
type Recorder interface {
	Record(interval Interval)
}

type RecorderFunc func(interval Interval)

func (f RecorderFunc) Record(interval Interval) { f(interval) }

// Notifier delivers the zero-reach notification when sound is enabled.
type Notifier interface {
	Notify(transition Transition)
}

type NotifierFunc func(transition Transition)

func (f NotifierFunc) Notify(transition Transition) { f(transition) }

// NotificationMessage is the text shown for a transition.
func NotificationMessage(t Transition) string {
	if t.From == ModeFocus {
		return "Focus session completed! Time for a break."
	}
	return "Break time over! Ready to focus again?"
}

// ConflictError is returned when a command carries a stale base version.
type ConflictError struct {
	Current Snapshot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("timer state changed: current version %d", e.Current.Version)
}
