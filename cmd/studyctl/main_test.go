package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiora/backend/internal/preferences"
	"studiora/backend/internal/timer"
)

type workspace struct {
	dataDir      string
	settingsPath string
}

func setupWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	return workspace{
		dataDir:      filepath.Join(dir, "data"),
		settingsPath: filepath.Join(dir, "config", "settings.yaml"),
	}
}

func (w workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--data-dir", w.dataDir, "--settings", w.settingsPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (w workspace) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := w.run(t, args...)
	require.NoError(t, err)
	return out
}

var createdID = regexp.MustCompile(`created: (\S+)`)

func TestTasksAddListToggleRemove(t *testing.T) {
	w := setupWorkspace(t)

	out := w.mustRun(t, "tasks", "list")
	assert.Contains(t, out, "Complete math homework")
	assert.Contains(t, out, "[x] 3  Prepare study notes  (History)")

	out = w.mustRun(t, "tasks", "add", "Write", "lab", "report", "--due", "2025-06-01", "--priority", "high", "-c", "Biology")
	match := createdID.FindStringSubmatch(out)
	require.Len(t, match, 2)
	id := match[1]

	out = w.mustRun(t, "tasks", "list", "--category", "Biology")
	assert.Equal(t, "[ ] "+id+"  Write lab report  (due 2025-06-01, high, Biology)\n", out)

	out = w.mustRun(t, "tasks", "toggle", id)
	assert.Contains(t, out, "[x] "+id)

	out = w.mustRun(t, "tasks", "edit", id, "--due", "", "--title", "Submit lab report")
	assert.Equal(t, "[x] "+id+"  Submit lab report  (high, Biology)\n", out)

	out = w.mustRun(t, "tasks", "list", "--completed")
	assert.Contains(t, out, "Submit lab report")
	assert.NotContains(t, out, "Complete math homework")

	out = w.mustRun(t, "tasks", "rm", id)
	assert.Equal(t, "Task deleted: "+id+"\n", out)
	out = w.mustRun(t, "tasks", "rm", id)
	assert.Equal(t, "No task with id "+id+"\n", out)
}

func TestTasksPersistAcrossInvocations(t *testing.T) {
	w := setupWorkspace(t)

	w.mustRun(t, "tasks", "rm", "1")
	out := w.mustRun(t, "tasks", "list")

	assert.NotContains(t, out, "Complete math homework")
	assert.Contains(t, out, "Read chapter 5")
	_, err := os.Stat(filepath.Join(w.dataDir, localOwner, "tasks.json"))
	assert.NoError(t, err)
}

func TestTasksAddRejectsBlankTitle(t *testing.T) {
	w := setupWorkspace(t)

	_, err := w.run(t, "tasks", "add", "   ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}

func TestTasksEditUnknownID(t *testing.T) {
	w := setupWorkspace(t)

	_, err := w.run(t, "tasks", "edit", "missing", "--title", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNotesAddSearchAndCategories(t *testing.T) {
	w := setupWorkspace(t)

	out := w.mustRun(t, "notes", "add", "Krebs", "cycle", "--content", "Happens in the mitochondrial matrix")
	match := createdID.FindStringSubmatch(out)
	require.Len(t, match, 2)

	out = w.mustRun(t, "notes", "list", "-q", "MITOCHONDRIAL")
	assert.Contains(t, out, match[1]+"  Krebs cycle  [Uncategorized]")

	out = w.mustRun(t, "notes", "categories")
	assert.Equal(t, "Science\nMathematics\nUncategorized\n", out)

	out = w.mustRun(t, "notes", "edit", match[1], "--category", "Science")
	assert.Contains(t, out, "[Science]")

	out = w.mustRun(t, "notes", "rm", match[1])
	assert.Equal(t, "Note deleted: "+match[1]+"\n", out)
}

func TestTimerSettingsWritesYAML(t *testing.T) {
	w := setupWorkspace(t)

	out := w.mustRun(t, "timer", "settings")
	assert.Contains(t, out, "focus_seconds: 1500")
	_, err := os.Stat(w.settingsPath)
	assert.True(t, os.IsNotExist(err))

	out = w.mustRun(t, "timer", "settings", "--focus", "50m", "--sound=false")
	assert.Contains(t, out, "focus_seconds: 3000")
	assert.Contains(t, out, "sound_enabled: false")

	saved, err := preferences.Load(w.settingsPath)
	require.NoError(t, err)
	assert.Equal(t, 3000, saved.FocusSeconds)
	assert.False(t, saved.SoundEnabled)
	assert.Equal(t, timer.DefaultShortBreakSeconds, saved.ShortBreakSeconds)

	_, err = w.run(t, "timer", "settings", "--long-break-interval", "0")
	assert.ErrorIs(t, err, timer.ErrInvalidSettings)
}

func TestTimerRunRingsBellWhenIntervalEnds(t *testing.T) {
	w := setupWorkspace(t)
	settings := timer.DefaultSettings()
	settings.FocusSeconds = 2
	require.NoError(t, preferences.Save(w.settingsPath, settings))

	out := w.mustRun(t, "timer", "run", "--tick", "5ms")

	assert.Contains(t, out, "focus       00:01")
	assert.Contains(t, out, bell+"\nFocus session completed! Time for a break.\n")
	assert.Contains(t, out, "Next up: short_break\n")
}

func TestTimerRunRejectsUnknownMode(t *testing.T) {
	w := setupWorkspace(t)

	_, err := w.run(t, "timer", "run", "--mode", "nap")

	assert.ErrorIs(t, err, timer.ErrInvalidMode)
}
