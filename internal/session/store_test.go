package session

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/app/models"
)

var fixedNow = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func sampleSession() *Session {
	return &Session{
		ID:           "0b6f7f3e-1d2c-4c55-9a0e-4f1b2c3d4e5f",
		User:         models.User{ID: 11, Username: "21CS042", Role: models.RoleNameStudent},
		AccessToken:  "access",
		RefreshToken: "refresh",
		OpenRequest:  &OpenRequestMarker{RequestID: "r-1", Status: models.StatusPending, SetAt: fixedNow},
		CreatedAt:    fixedNow,
		ExpiresAt:    fixedNow.Add(2 * time.Hour),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.now = func() time.Time { return fixedNow }

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	got.OpenRequest.Status = models.StatusWardenApproved
	again, _ := store.Get(ctx, s.ID)
	assert.Equal(t, models.StatusPending, again.OpenRequest.Status, "stored copy is isolated from callers")

	store.now = func() time.Time { return fixedNow.Add(3 * time.Hour) }
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.now = func() time.Time { return fixedNow }

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))

	updated, err := store.Update(ctx, s.ID, func(stored *Session) { stored.OpenRequest = nil })
	require.NoError(t, err)
	assert.False(t, updated.HasOpenRequest())

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.HasOpenRequest())

	_, err = store.Update(ctx, "missing", func(*Session) { t.Fatal("fn must not run for a missing session") })
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeRedis struct {
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store := NewRedisStore(client)
	store.now = func() time.Time { return fixedNow }

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, 2*time.Hour, client.ttl[redisKeyPrefix+s.ID])

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.User, got.User)
	assert.Equal(t, "r-1", got.OpenRequest.RequestID)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	client.err = errors.New("connection refused")
	_, err = store.Get(ctx, s.ID)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_UpdateWithoutWatch(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store := NewRedisStore(client)
	store.now = func() time.Time { return fixedNow }

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))

	updated, err := store.Update(ctx, s.ID, func(stored *Session) { stored.AccessToken = "refreshed" })
	require.NoError(t, err)
	assert.Equal(t, "refreshed", updated.AccessToken)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", got.AccessToken)
	assert.Equal(t, "r-1", got.OpenRequest.RequestID)
}

func TestRedisStore_SaveExpiredDeletes(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client)
	store.now = func() time.Time { return fixedNow.Add(5 * time.Hour) }

	s := sampleSession()
	client.data[redisKeyPrefix+s.ID] = "{}"
	require.NoError(t, store.Save(context.Background(), s))
	assert.Empty(t, client.data)
}

func TestPostgresStore_SaveAndGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	store.now = func() time.Time { return fixedNow }
	s := sampleSession()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO portal_sessions (id,data,expires_at,updated_at) VALUES ($1,$2,$3,$4) ON CONFLICT (id) DO UPDATE")).
		WithArgs(s.ID, pgxmock.AnyArg(), s.ExpiresAt, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, store.Save(context.Background(), s))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM portal_sessions WHERE id = $1 AND expires_at > $2 LIMIT 1")).
		WithArgs(s.ID, fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	got, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.User, got.User)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLocksRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	store.now = func() time.Time { return fixedNow }
	s := sampleSession()
	data, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM portal_sessions WHERE id = $1 AND expires_at > $2 LIMIT 1 FOR UPDATE")).
		WithArgs(s.ID, fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO portal_sessions (id,data,expires_at,updated_at) VALUES ($1,$2,$3,$4) ON CONFLICT (id) DO UPDATE")).
		WithArgs(s.ID, pgxmock.AnyArg(), s.ExpiresAt, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	updated, err := store.Update(context.Background(), s.ID, func(stored *Session) { stored.AccessToken = "refreshed" })
	require.NoError(t, err)
	assert.Equal(t, "refreshed", updated.AccessToken)
	assert.Equal(t, "r-1", updated.OpenRequest.RequestID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMissingSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	store.now = func() time.Time { return fixedNow }

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT data FROM portal_sessions").
		WithArgs("gone", fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{"data"}))
	mock.ExpectRollback()

	_, err = store.Update(context.Background(), "gone", func(*Session) { t.Fatal("fn must not run for a missing session") })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Errors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	store.now = func() time.Time { return fixedNow }

	mock.ExpectQuery("SELECT data FROM portal_sessions").
		WithArgs("gone", fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{"data"}))
	_, err = store.Get(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec("DELETE FROM portal_sessions").
		WithArgs("x").
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "portal_sessions" does not exist`})
	err = store.Delete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portal_sessions WHERE expires_at <= $1")).
		WithArgs(fixedNow).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	removed, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}
