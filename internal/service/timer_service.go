package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"studiora/backend/internal/collection"
	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/model"
	"studiora/backend/internal/timer"
)

const timerSettingsKey = "timer_settings"

// TimerHistory stores finished intervals.
type TimerHistory interface {
	InsertSession(ctx context.Context, session *model.PomodoroSession) error
	ListSessions(ctx context.Context, userID string, limit int) ([]model.PomodoroSession, error)
}

type TimerOptions struct {
	Defaults     timer.Settings
	TickInterval time.Duration
	RearmDelay   time.Duration
	Now          func() time.Time
}

// TimerService keeps one running timer per signed-in user.
type TimerService struct {
	mu      sync.Mutex
	drivers map[string]*timer.Driver

	kv      collection.KV
	history TimerHistory
	options TimerOptions
	log     *slog.Logger
}

type TimerState struct {
	timer.Snapshot
	ServerTime time.Time `json:"serverTime"`
}

func NewTimerService(kv collection.KV, history TimerHistory, options TimerOptions, logger *slog.Logger) *TimerService {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Defaults == (timer.Settings{}) {
		options.Defaults = timer.DefaultSettings()
	}
	return &TimerService{
		drivers: make(map[string]*timer.Driver),
		kv:      kv,
		history: history,
		options: options,
		log:     logger,
	}
}

func (s *TimerService) State(ctx context.Context, userID string) (*TimerState, *apperrors.APIError) {
	driver, apiErr := s.driver(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return s.view(driver.Snapshot()), nil
}

func (s *TimerService) Start(ctx context.Context, userID string, baseVersion int) (*TimerState, *apperrors.APIError) {
	return s.command(ctx, userID, func(d *timer.Driver) (timer.Snapshot, error) {
		return d.Start(baseVersion)
	})
}

func (s *TimerService) Pause(ctx context.Context, userID string, baseVersion int) (*TimerState, *apperrors.APIError) {
	return s.command(ctx, userID, func(d *timer.Driver) (timer.Snapshot, error) {
		return d.Pause(baseVersion)
	})
}

func (s *TimerService) Toggle(ctx context.Context, userID string, baseVersion int) (*TimerState, *apperrors.APIError) {
	return s.command(ctx, userID, func(d *timer.Driver) (timer.Snapshot, error) {
		return d.Toggle(baseVersion)
	})
}

func (s *TimerService) Reset(ctx context.Context, userID string, baseVersion int) (*TimerState, *apperrors.APIError) {
	return s.command(ctx, userID, func(d *timer.Driver) (timer.Snapshot, error) {
		return d.Reset(baseVersion)
	})
}

func (s *TimerService) SetMode(ctx context.Context, userID string, baseVersion int, rawMode string) (*TimerState, *apperrors.APIError) {
	mode, err := timer.ParseMode(rawMode)
	if err != nil {
		return nil, timerError(err, s.options.Now())
	}
	return s.command(ctx, userID, func(d *timer.Driver) (timer.Snapshot, error) {
		return d.SetMode(baseVersion, mode)
	})
}

// UpdateSettings applies new settings to the running timer and saves them
// for the next session.
func (s *TimerService) UpdateSettings(ctx context.Context, userID string, baseVersion int, settings timer.Settings) (*TimerState, *apperrors.APIError) {
	state, apiErr := s.command(ctx, userID, func(d *timer.Driver) (timer.Snapshot, error) {
		return d.UpdateSettings(baseVersion, settings)
	})
	if apiErr != nil {
		return nil, apiErr
	}

	raw, err := json.Marshal(settings)
	if err == nil {
		err = s.kv.Put(ctx, userID, timerSettingsKey, raw)
	}
	if err != nil {
		s.log.Error("save timer settings", "user_id", userID, "error", err)
	}
	return state, nil
}

// Subscribe streams driver events until unsubscribe is called or the timer
// is released.
func (s *TimerService) Subscribe(ctx context.Context, userID string, buffer int) (<-chan timer.Event, func(), *apperrors.APIError) {
	driver, apiErr := s.driver(ctx, userID)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	events, unsubscribe := driver.Subscribe(buffer)
	return events, unsubscribe, nil
}

func (s *TimerService) History(ctx context.Context, userID string, limit int) ([]model.PomodoroSession, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.history.ListSessions(ctx, userID, limit)
	if err != nil {
		s.log.Error("list timer history", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

// Release stops the user's timer. A later request starts a fresh one.
func (s *TimerService) Release(userID string) {
	s.mu.Lock()
	driver, ok := s.drivers[userID]
	delete(s.drivers, userID)
	s.mu.Unlock()

	if ok {
		driver.Close()
	}
}

// Close stops every timer.
func (s *TimerService) Close() {
	s.mu.Lock()
	drivers := s.drivers
	s.drivers = make(map[string]*timer.Driver)
	s.mu.Unlock()

	for _, driver := range drivers {
		driver.Close()
	}
}

func (s *TimerService) command(
	ctx context.Context,
	userID string,
	apply func(d *timer.Driver) (timer.Snapshot, error),
) (*TimerState, *apperrors.APIError) {
	driver, apiErr := s.driver(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	snapshot, err := apply(driver)
	if err != nil {
		return nil, timerError(err, s.options.Now())
	}
	return s.view(snapshot), nil
}

func (s *TimerService) driver(ctx context.Context, userID string) (*timer.Driver, *apperrors.APIError) {
	s.mu.Lock()
	driver, ok := s.drivers[userID]
	s.mu.Unlock()
	if ok {
		return driver, nil
	}

	settings := s.loadSettings(ctx, userID)
	logger := s.log.With("user_id", userID)
	created, err := timer.NewDriver(settings, timer.Options{
		TickInterval: s.options.TickInterval,
		RearmDelay:   s.options.RearmDelay,
		Recorder:     timer.RecorderFunc(func(interval timer.Interval) { s.record(userID, interval) }),
		Notifier: timer.NotifierFunc(func(t timer.Transition) {
			logger.Info("timer notification", "from", t.From, "to", t.To, "message", timer.NotificationMessage(t))
		}),
		Logger: logger,
		Now:    s.options.Now,
	})
	if err != nil {
		s.log.Error("create timer", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to create timer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have built the driver while settings were loading.
	if existing, ok := s.drivers[userID]; ok {
		created.Close()
		return existing, nil
	}
	s.drivers[userID] = created
	return created, nil
}

// loadSettings falls back to the configured defaults when nothing valid was saved.
func (s *TimerService) loadSettings(ctx context.Context, userID string) timer.Settings {
	raw, found, err := s.kv.Get(ctx, userID, timerSettingsKey)
	if err != nil {
		s.log.Error("load timer settings", "user_id", userID, "error", err)
		return s.options.Defaults
	}
	if !found {
		return s.options.Defaults
	}

	settings := s.options.Defaults
	if err := json.Unmarshal(raw, &settings); err != nil || settings.Validate() != nil {
		s.log.Warn("ignoring stored timer settings", "user_id", userID)
		return s.options.Defaults
	}
	return settings
}

func (s *TimerService) record(userID string, interval timer.Interval) {
	status := model.SessionStatusCancelled
	if interval.Completed {
		status = model.SessionStatusCompleted
	}
	session := model.PomodoroSession{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		Mode:                   string(interval.Mode),
		PlannedDurationSeconds: interval.PlannedSeconds,
		ActualDurationSeconds:  interval.ActualSeconds,
		StartedAt:              interval.StartedAt,
		EndedAt:                interval.EndedAt,
		Status:                 status,
		CreatedAt:              s.options.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.InsertSession(ctx, &session); err != nil {
		s.log.Error("record timer session", "user_id", userID, "status", status, "error", err)
	}
}

func (s *TimerService) view(snapshot timer.Snapshot) *TimerState {
	return &TimerState{Snapshot: snapshot, ServerTime: s.options.Now().UTC()}
}

func timerError(err error, now time.Time) *apperrors.APIError {
	var conflict *timer.ConflictError
	switch {
	case errors.As(err, &conflict):
		return apperrors.Conflict("state_conflict", "state changed on another device", map[string]interface{}{
			"state": TimerState{Snapshot: conflict.Current, ServerTime: now.UTC()},
		})
	case errors.Is(err, timer.ErrInvalidMode):
		return apperrors.BadRequest("invalid_mode", "mode must be one of focus, short_break, long_break")
	case errors.Is(err, timer.ErrInvalidSettings):
		return apperrors.BadRequest("invalid_duration", err.Error())
	default:
		return apperrors.Internal("timer command failed")
	}
}
