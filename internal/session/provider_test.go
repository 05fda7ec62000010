package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

type fakeRefresher struct {
	calls int32
	token string
	err   error
	delay time.Duration
}

func (f *fakeRefresher) RefreshAccessToken(context.Context, string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	time.Sleep(f.delay)
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// slowStore widens the gap between reading a session and writing it back.
type slowStore struct {
	Store
	delay time.Duration
}

func (s slowStore) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Store.Get(ctx, id)
	time.Sleep(s.delay)
	return sess, err
}

func newTestProvider(refresher TokenRefresher) *Provider {
	return NewProvider(NewMemoryStore(), refresher, time.Hour)
}

func startSession(t *testing.T, p *Provider) *Session {
	t.Helper()
	s, err := p.Start(context.Background(),
		models.User{ID: 5, Username: "warden1", Role: models.RoleNameWarden},
		models.TokenPair{Access: "old", Refresh: "refresh-token"})
	require.NoError(t, err)
	return s
}

func TestProvider_StartLoadDestroyEvents(t *testing.T) {
	p := newTestProvider(&fakeRefresher{})
	var events []Event
	p.Subscribe(func(ev Event) { events = append(events, ev) })

	s := startSession(t, p)
	assert.NotEmpty(t, s.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Minute)

	loaded, err := p.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNameWarden, loaded.Role())
	assert.False(t, loaded.HasOpenRequest())

	require.NoError(t, p.Destroy(context.Background(), s.ID))
	require.NoError(t, p.Destroy(context.Background(), s.ID), "destroying twice is harmless")

	_, err = p.Load(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.Len(t, events, 2)
	assert.Equal(t, EventStarted, events[0].Kind)
	assert.Equal(t, EventDestroyed, events[1].Kind)
	assert.Equal(t, models.RoleNameWarden, events[1].Role)
}

func TestProvider_ConcurrentRefreshCallsUpstreamOnce(t *testing.T) {
	refresher := &fakeRefresher{token: "new", delay: 20 * time.Millisecond}
	p := newTestProvider(refresher)
	s := startSession(t, p)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := p.Credentials(s).Refresh(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&refresher.calls))
	for _, token := range tokens {
		assert.Equal(t, "new", token)
	}

	stored, err := p.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.AccessToken)
}

func TestProvider_RefreshFailure(t *testing.T) {
	p := newTestProvider(&fakeRefresher{err: errors.New("token is blacklisted")})
	s := startSession(t, p)

	binding := p.Credentials(s)
	_, err := binding.Refresh(context.Background())
	require.Error(t, err)

	binding.Invalidate(context.Background())
	assert.True(t, binding.Invalidated())
	_, err = p.Load(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = binding.Refresh(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestProvider_OpenRequestMarkerAndFlash(t *testing.T) {
	p := newTestProvider(&fakeRefresher{})
	s := startSession(t, p)
	ctx := context.Background()

	updated, err := p.MarkOpenRequest(ctx, s.ID, models.BonafideRequest{RequestID: "r-7"})
	require.NoError(t, err)
	require.True(t, updated.HasOpenRequest())
	assert.Equal(t, models.StatusPending, updated.OpenRequest.Status)

	require.NoError(t, p.SetFlash(ctx, s.ID, FlashSuccess, "Request submitted successfully!"))
	loaded, _ := p.Load(ctx, s.ID)
	flash := p.PopFlash(ctx, loaded)
	require.NotNil(t, flash)
	assert.Equal(t, FlashSuccess, flash.Kind)

	loaded, _ = p.Load(ctx, s.ID)
	assert.Nil(t, p.PopFlash(ctx, loaded), "flash is shown once")

	cleared, err := p.ClearOpenRequest(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, cleared.HasOpenRequest())
}

func TestProvider_ConcurrentUpdatesKeepEveryWrite(t *testing.T) {
	p := NewProvider(slowStore{Store: NewMemoryStore(), delay: 5 * time.Millisecond}, &fakeRefresher{}, time.Hour)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		s := startSession(t, p)

		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := p.MarkOpenRequest(ctx, s.ID, models.BonafideRequest{RequestID: "r-1"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := p.ReplaceAccessToken(ctx, s.ID, "refreshed")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, p.SetFlash(ctx, s.ID, FlashSuccess, "Request submitted successfully!"))
		}()
		wg.Wait()

		stored, err := p.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.True(t, stored.HasOpenRequest(), "open-request marker kept")
		assert.Equal(t, "refreshed", stored.AccessToken, "refreshed token kept")
		assert.NotNil(t, stored.Flash, "flash kept")
	}
}

func TestProvider_DestroyIsNotUndoneByPendingUpdate(t *testing.T) {
	p := NewProvider(slowStore{Store: NewMemoryStore(), delay: 10 * time.Millisecond}, &fakeRefresher{}, time.Hour)
	ctx := context.Background()
	s := startSession(t, p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.MarkPasswordChanged(ctx, s.ID)
		if err != nil {
			assert.ErrorIs(t, err, ErrNotFound)
		}
	}()
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, p.Destroy(ctx, s.ID))
	<-done

	_, err := p.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProvider_RefreshWaitRespectsCallerContext(t *testing.T) {
	refresher := &fakeRefresher{token: "new", delay: 100 * time.Millisecond}
	p := newTestProvider(refresher)
	s := startSession(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Credentials(s).Refresh(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The exchange itself still completes and is stored.
	assert.Eventually(t, func() bool {
		stored, err := p.Load(context.Background(), s.ID)
		return err == nil && stored.AccessToken == "new"
	}, time.Second, 10*time.Millisecond)
}

func TestSession_Principal(t *testing.T) {
	var missing *Session
	assert.Nil(t, missing.Principal())

	s := &Session{User: models.User{Role: models.RoleNameDean, MustChangePassword: true}}
	assert.Equal(t, models.RoleNameDean, s.Principal().Role)
	assert.True(t, s.Principal().MustChangePassword)
}
