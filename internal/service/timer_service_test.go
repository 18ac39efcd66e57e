package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiora/backend/internal/collection"
	"studiora/backend/internal/model"
	"studiora/backend/internal/timer"
)

type memoryHistory struct {
	mu       sync.Mutex
	sessions []model.PomodoroSession
}

func (h *memoryHistory) InsertSession(_ context.Context, session *model.PomodoroSession) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = append(h.sessions, *session)
	return nil
}

func (h *memoryHistory) ListSessions(_ context.Context, userID string, limit int) ([]model.PomodoroSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.PomodoroSession, 0, limit)
	for i := len(h.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		if h.sessions[i].UserID == userID {
			out = append(out, h.sessions[i])
		}
	}
	return out, nil
}

func (h *memoryHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// gatedKV blocks Get for one owner until release is closed.
type gatedKV struct {
	collection.KV
	owner   string
	entered chan struct{}
	release chan struct{}
}

func (kv *gatedKV) Get(ctx context.Context, owner, key string) ([]byte, bool, error) {
	if owner == kv.owner {
		close(kv.entered)
		<-kv.release
	}
	return kv.KV.Get(ctx, owner, key)
}

func newTimerService(t *testing.T, kv collection.KV, history TimerHistory, defaults timer.Settings) *TimerService {
	t.Helper()
	timers := NewTimerService(kv, history, TimerOptions{
		Defaults:     defaults,
		TickInterval: 2 * time.Millisecond,
		RearmDelay:   5 * time.Millisecond,
	}, discardLogger())
	t.Cleanup(timers.Close)
	return timers
}

func TestTimerServiceInitialState(t *testing.T) {
	timers := newTimerService(t, collection.NewMemoryKV(), &memoryHistory{}, timer.Settings{})

	state, apiErr := timers.State(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, timer.ModeFocus, state.Mode)
	assert.Equal(t, timer.DefaultFocusSeconds, state.RemainingSeconds)
	assert.False(t, state.IsRunning)
	assert.Equal(t, 1, state.Version)
}

func TestTimerServiceRecordsCompletedFocus(t *testing.T) {
	history := &memoryHistory{}
	settings := timer.DefaultSettings()
	settings.Durations = timer.Durations{FocusSeconds: 2, ShortBreakSeconds: 60, LongBreakSeconds: 60}
	timers := newTimerService(t, collection.NewMemoryKV(), history, settings)

	state, apiErr := timers.Start(ctx, "u1", 1)
	require.Nil(t, apiErr)
	assert.True(t, state.IsRunning)

	require.Eventually(t, func() bool { return history.count() == 1 }, time.Second, time.Millisecond)

	state, apiErr = timers.State(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, timer.ModeShortBreak, state.Mode)
	assert.Equal(t, 1, state.CompletedFocusCount)
	assert.False(t, state.IsRunning)

	sessions, apiErr := timers.History(ctx, "u1", 10)
	require.Nil(t, apiErr)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.SessionStatusCompleted, sessions[0].Status)
	assert.Equal(t, "focus", sessions[0].Mode)
	assert.Equal(t, 2, sessions[0].ActualDurationSeconds)
}

func TestTimerServiceStaleVersionConflicts(t *testing.T) {
	timers := newTimerService(t, collection.NewMemoryKV(), &memoryHistory{}, timer.Settings{})

	_, apiErr := timers.Start(ctx, "u1", 1)
	require.Nil(t, apiErr)

	_, apiErr = timers.Pause(ctx, "u1", 1)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "state_conflict", apiErr.Code)

	details, ok := apiErr.Details.(map[string]interface{})
	require.True(t, ok)
	current, ok := details["state"].(TimerState)
	require.True(t, ok)
	assert.Equal(t, 2, current.Version)

	state, apiErr := timers.Pause(ctx, "u1", current.Version)
	require.Nil(t, apiErr)
	assert.False(t, state.IsRunning)
}

func TestTimerServiceResetRecordsCancelledInterval(t *testing.T) {
	history := &memoryHistory{}
	timers := newTimerService(t, collection.NewMemoryKV(), history, timer.Settings{})

	_, apiErr := timers.Toggle(ctx, "u1", 0)
	require.Nil(t, apiErr)
	state, apiErr := timers.Reset(ctx, "u1", 0)
	require.Nil(t, apiErr)
	assert.False(t, state.IsRunning)
	assert.Equal(t, timer.DefaultFocusSeconds, state.RemainingSeconds)

	require.Eventually(t, func() bool { return history.count() == 1 }, time.Second, time.Millisecond)
	sessions, _ := timers.History(ctx, "u1", 0)
	assert.Equal(t, model.SessionStatusCancelled, sessions[0].Status)
}

func TestTimerServiceSetMode(t *testing.T) {
	timers := newTimerService(t, collection.NewMemoryKV(), &memoryHistory{}, timer.Settings{})

	state, apiErr := timers.SetMode(ctx, "u1", 0, "long_break")
	require.Nil(t, apiErr)
	assert.Equal(t, timer.ModeLongBreak, state.Mode)
	assert.Equal(t, timer.DefaultLongBreakSeconds, state.RemainingSeconds)

	_, apiErr = timers.SetMode(ctx, "u1", 0, "nap")
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_mode", apiErr.Code)
}

func TestTimerServiceSettingsPersistAcrossRelease(t *testing.T) {
	kv := collection.NewMemoryKV()
	timers := newTimerService(t, kv, &memoryHistory{}, timer.Settings{})

	settings := timer.DefaultSettings()
	settings.FocusSeconds = 50 * 60
	settings.LongBreakInterval = 3
	settings.AutoStartBreaks = true

	state, apiErr := timers.UpdateSettings(ctx, "u1", 0, settings)
	require.Nil(t, apiErr)
	assert.Equal(t, 3000, state.RemainingSeconds)

	raw, found, err := kv.Get(ctx, "u1", timerSettingsKey)
	require.NoError(t, err)
	require.True(t, found)
	var saved timer.Settings
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, settings, saved)

	timers.Release("u1")
	state, apiErr = timers.State(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, 1, state.Version)
	assert.Equal(t, settings, state.Settings)

	bad := settings
	bad.ShortBreakSeconds = 0
	_, apiErr = timers.UpdateSettings(ctx, "u1", 0, bad)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_duration", apiErr.Code)
}

func TestTimerServiceSubscribeClosesOnRelease(t *testing.T) {
	timers := newTimerService(t, collection.NewMemoryKV(), &memoryHistory{}, timer.Settings{})

	events, unsubscribe, apiErr := timers.Subscribe(ctx, "u1", 8)
	require.Nil(t, apiErr)
	defer unsubscribe()

	_, apiErr = timers.Start(ctx, "u1", 0)
	require.Nil(t, apiErr)

	select {
	case event := <-events:
		assert.Equal(t, timer.EventState, event.Type)
		assert.True(t, event.Snapshot.IsRunning)
	case <-time.After(time.Second):
		t.Fatal("expected state event")
	}

	timers.Release("u1")
	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, time.Millisecond)
}

func TestTimerServiceSlowSettingsLoadDoesNotBlockOtherUsers(t *testing.T) {
	kv := &gatedKV{
		KV:      collection.NewMemoryKV(),
		owner:   "slow",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	timers := newTimerService(t, kv, &memoryHistory{}, timer.Settings{})

	slowDone := make(chan *TimerState, 1)
	go func() {
		state, _ := timers.State(ctx, "slow")
		slowDone <- state
	}()
	<-kv.entered

	fastDone := make(chan struct{})
	go func() {
		defer close(fastDone)
		state, apiErr := timers.State(ctx, "fast")
		if assert.Nil(t, apiErr) {
			assert.Equal(t, 1, state.Version)
		}
	}()
	select {
	case <-fastDone:
	case <-time.After(time.Second):
		close(kv.release)
		t.Fatal("state for another user waited on a pending settings load")
	}

	close(kv.release)
	select {
	case state := <-slowDone:
		require.NotNil(t, state)
		assert.Equal(t, timer.DefaultFocusSeconds, state.RemainingSeconds)
	case <-time.After(time.Second):
		t.Fatal("slow settings load never finished")
	}
}

func TestTimerServiceConcurrentFirstUseSharesDriver(t *testing.T) {
	timers := newTimerService(t, collection.NewMemoryKV(), &memoryHistory{}, timer.Settings{})

	var wg sync.WaitGroup
	drivers := make([]*timer.Driver, 8)
	for i := range drivers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			driver, apiErr := timers.driver(ctx, "u1")
			assert.Nil(t, apiErr)
			drivers[i] = driver
		}(i)
	}
	wg.Wait()

	for _, driver := range drivers {
		assert.Same(t, drivers[0], driver)
	}
}
