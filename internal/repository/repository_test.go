package repository_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiora/backend/internal/db"
	"studiora/backend/internal/model"
	"studiora/backend/internal/repository"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	_, err = db.RunMigrations(database, migrationsDir)
	require.NoError(t, err)
	return database
}

func createUser(t *testing.T, users *repository.UserRepository, id, email string) model.User {
	t.Helper()
	now := time.Now().UTC()
	user := model.User{
		ID:           id,
		Email:        email,
		Name:         "Student",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(context.Background(), &user))
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepository(openTestDB(t))

	created := createUser(t, users, "u1", "a@example.com")

	byEmail, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "Student", byEmail.Name)
	assert.False(t, byEmail.EmailVerified)

	byID, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", byID.Email)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	duplicate := created
	duplicate.ID = "u2"
	assert.ErrorIs(t, users.Create(ctx, &duplicate), repository.ErrConflict)
}

func TestSessionRepositoryRevoke(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	createUser(t, repository.NewUserRepository(database), "u1", "a@example.com")
	sessions := repository.NewSessionRepository(database)

	now := time.Now().UTC()
	require.NoError(t, sessions.Create(ctx, &model.AuthSession{
		ID:        "jti-1",
		UserID:    "u1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	session, err := sessions.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.Nil(t, session.RevokedAt)

	require.NoError(t, sessions.Revoke(ctx, "jti-1", now))
	assert.ErrorIs(t, sessions.Revoke(ctx, "jti-1", now), repository.ErrNotFound)

	session, err = sessions.Get(ctx, "jti-1")
	require.NoError(t, err)
	require.NotNil(t, session.RevokedAt)
	assert.WithinDuration(t, now, *session.RevokedAt, time.Millisecond)
}

func TestSessionRepositoryCountActive(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	createUser(t, repository.NewUserRepository(database), "u1", "a@example.com")
	createUser(t, repository.NewUserRepository(database), "u2", "b@example.com")
	sessions := repository.NewSessionRepository(database)

	now := time.Now().UTC()
	for _, session := range []model.AuthSession{
		{ID: "open", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: "revoked", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: "expired", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{ID: "other-user", UserID: "u2", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	} {
		session := session
		require.NoError(t, sessions.Create(ctx, &session))
	}
	require.NoError(t, sessions.Revoke(ctx, "revoked", now))

	count, err := sessions.CountActive(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, sessions.Revoke(ctx, "open", now))
	count, err = sessions.CountActive(ctx, "u1", now)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSnapshotRepositoryUpserts(t *testing.T) {
	ctx := context.Background()
	snapshots := repository.NewSnapshotRepository(openTestDB(t))

	_, found, err := snapshots.Get(ctx, "u1", "tasks")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, snapshots.Put(ctx, "u1", "tasks", []byte(`[{"id":"1"}]`)))
	require.NoError(t, snapshots.Put(ctx, "u1", "tasks", []byte(`[]`)))
	require.NoError(t, snapshots.Put(ctx, "u2", "tasks", []byte(`[{"id":"x"}]`)))

	value, found, err := snapshots.Get(ctx, "u1", "tasks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[]`, string(value))

	value, _, err = snapshots.Get(ctx, "u2", "tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"x"}]`, string(value))
}

func TestPomodoroRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	createUser(t, repository.NewUserRepository(database), "u1", "a@example.com")
	history := repository.NewPomodoroRepository(database)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, status := range []string{model.SessionStatusCompleted, model.SessionStatusCancelled, model.SessionStatusCompleted} {
		started := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, history.InsertSession(ctx, &model.PomodoroSession{
			ID:                     "s" + string(rune('a'+i)),
			UserID:                 "u1",
			Mode:                   "focus",
			PlannedDurationSeconds: 1500,
			ActualDurationSeconds:  1500,
			StartedAt:              started,
			EndedAt:                started.Add(25 * time.Minute),
			Status:                 status,
			CreatedAt:              started,
		}))
	}

	latest, err := history.ListSessions(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "sc", latest[0].ID)
	assert.Equal(t, "sb", latest[1].ID)

	since, err := history.ListSessionsSince(ctx, "u1", base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "sb", since[0].ID)
	assert.Equal(t, model.SessionStatusCancelled, since[0].Status)
}

func TestPomodoroRepositoryOrdersWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	createUser(t, repository.NewUserRepository(database), "u1", "a@example.com")
	history := repository.NewPomodoroRepository(database)

	whole := time.Date(2026, 3, 2, 9, 0, 5, 0, time.UTC)
	for _, session := range []struct {
		id      string
		started time.Time
	}{
		{"whole", whole},
		{"tenth", whole.Add(100 * time.Millisecond)},
		{"later", whole.Add(123456789 * time.Nanosecond)},
	} {
		require.NoError(t, history.InsertSession(ctx, &model.PomodoroSession{
			ID:                     session.id,
			UserID:                 "u1",
			Mode:                   "focus",
			PlannedDurationSeconds: 1500,
			StartedAt:              session.started,
			EndedAt:                session.started,
			Status:                 model.SessionStatusCancelled,
			CreatedAt:              session.started,
		}))
	}

	latest, err := history.ListSessions(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, []string{"later", "tenth", "whole"}, []string{latest[0].ID, latest[1].ID, latest[2].ID})

	since, err := history.ListSessionsSince(ctx, "u1", whole.Add(50*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "tenth", since[0].ID)
	assert.True(t, since[0].StartedAt.Equal(whole.Add(100*time.Millisecond)))
}

func TestGroupRepositoryMembership(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	users := repository.NewUserRepository(database)
	createUser(t, users, "u1", "a@example.com")
	createUser(t, users, "u2", "b@example.com")
	groups := repository.NewGroupRepository(database)

	now := time.Now().UTC()
	require.NoError(t, groups.Create(ctx, &model.StudyGroup{
		ID:        "g1",
		Name:      "Calculus crew",
		Subject:   "Math",
		CreatedBy: "u1",
		CreatedAt: now,
	}))

	require.NoError(t, groups.AddMember(ctx, &model.GroupMember{GroupID: "g1", UserID: "u2", JoinedAt: now}))
	assert.ErrorIs(t,
		groups.AddMember(ctx, &model.GroupMember{GroupID: "g1", UserID: "u2", JoinedAt: now}),
		repository.ErrConflict)

	group, err := groups.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, group.MembersCount)

	list, err := groups.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Calculus crew", list[0].Name)

	_, err = groups.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
