package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/service"
	"studiora/backend/internal/timer"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type versionRequest struct {
	BaseVersion int `json:"baseVersion"`
}

type switchModeRequest struct {
	BaseVersion int    `json:"baseVersion"`
	Mode        string `json:"mode"`
}

type updateSettingsRequest struct {
	BaseVersion               int   `json:"baseVersion"`
	FocusDurationSeconds      *int  `json:"focusDurationSeconds"`
	ShortBreakDurationSeconds *int  `json:"shortBreakDurationSeconds"`
	LongBreakDurationSeconds  *int  `json:"longBreakDurationSeconds"`
	LongBreakInterval         *int  `json:"longBreakInterval"`
	AutoStartBreaks           *bool `json:"autoStartBreaks"`
	AutoStartFocus            *bool `json:"autoStartFocus"`
	SoundEnabled              *bool `json:"soundEnabled"`
}

func (r updateSettingsRequest) apply(settings timer.Settings) timer.Settings {
	if r.FocusDurationSeconds != nil {
		settings.FocusSeconds = *r.FocusDurationSeconds
	}
	if r.ShortBreakDurationSeconds != nil {
		settings.ShortBreakSeconds = *r.ShortBreakDurationSeconds
	}
	if r.LongBreakDurationSeconds != nil {
		settings.LongBreakSeconds = *r.LongBreakDurationSeconds
	}
	if r.LongBreakInterval != nil {
		settings.LongBreakInterval = *r.LongBreakInterval
	}
	if r.AutoStartBreaks != nil {
		settings.AutoStartBreaks = *r.AutoStartBreaks
	}
	if r.AutoStartFocus != nil {
		settings.AutoStartFocus = *r.AutoStartFocus
	}
	if r.SoundEnabled != nil {
		settings.SoundEnabled = *r.SoundEnabled
	}
	return settings
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, apiErr := h.timerService.State(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Start(c *gin.Context) {
	h.versioned(c, h.timerService.Start)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.versioned(c, h.timerService.Pause)
}

func (h *TimerHandler) Toggle(c *gin.Context) {
	h.versioned(c, h.timerService.Toggle)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	h.versioned(c, h.timerService.Reset)
}

func (h *TimerHandler) SwitchMode(c *gin.Context) {
	var req switchModeRequest
	if !bindJSON(c, &req, false) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, apiErr := h.timerService.SetMode(c.Request.Context(), userID, req.BaseVersion, req.Mode)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// UpdateSettings overwrites only the fields present in the request.
func (h *TimerHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !bindJSON(c, &req, false) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	current, apiErr := h.timerService.State(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	state, apiErr := h.timerService.UpdateSettings(c.Request.Context(), userID, req.BaseVersion, req.apply(current.Settings))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) GetHistory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit := 50
	rawLimit := c.Query("limit")
	if rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.timerService.History(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Events streams timer events as server-sent events, starting with the current state.
func (h *TimerHandler) Events(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	events, unsubscribe, apiErr := h.timerService.Subscribe(ctx, userID, 16)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer unsubscribe()

	state, apiErr := h.timerService.State(ctx, userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(string(timer.EventState), state)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		}
	})
}

func (h *TimerHandler) versioned(c *gin.Context, command func(ctx context.Context, userID string, baseVersion int) (*service.TimerState, *apperrors.APIError)) {
	var req versionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, apiErr := command(c.Request.Context(), userID, req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
