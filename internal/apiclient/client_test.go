package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/session"
)

type fakeCreds struct {
	token        string
	nextToken    string
	refreshErr   error
	refreshCalls int
	invalidated  int
}

func (f *fakeCreds) AccessToken() string { return f.token }

func (f *fakeCreds) Refresh(context.Context) (string, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.token = f.nextToken
	return f.token, nil
}

func (f *fakeCreds) Invalidate(context.Context) { f.invalidated++ }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api/"})
}

func TestDo_AttachesBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me/", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3,"username":"warden1","role":"warden"}`))
	})

	user, err := client.Me(context.Background(), &fakeCreds{token: "access-1"})
	require.NoError(t, err)
	assert.Equal(t, "warden1", user.Username)
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	creds := &fakeCreds{token: "stale", nextToken: "fresh"}
	items, err := client.MyRequests(context.Background(), creds)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, creds.refreshCalls)
	assert.Equal(t, 0, creds.invalidated)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_RefreshFailureInvalidatesSession(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	creds := &fakeCreds{token: "stale", refreshErr: errors.New("refresh token expired")}
	_, err := client.MyRequests(context.Background(), creds)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	assert.Equal(t, 1, creds.refreshCalls)
	assert.Equal(t, 1, creds.invalidated)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retry without a new token")
}

func TestDo_InterruptedRefreshKeepsSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"timed out", fmt.Errorf("refresh access token: %w", context.DeadlineExceeded)},
		{"cancelled", context.Canceled},
		{"api unreachable", apperrors.NewCustomError(apperrors.ErrUpstream, apperrors.ErrUpstream.Error())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

			creds := &fakeCreds{token: "stale", refreshErr: tt.err}
			_, err := client.MyRequests(context.Background(), creds)
			assert.ErrorIs(t, err, apperrors.ErrUpstream)
			assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
			assert.Equal(t, 0, creds.invalidated)
		})
	}
}

func TestDo_RefreshOutlivesTheRequestThatStartedIt(t *testing.T) {
	var refreshes int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh/" {
			atomic.AddInt32(&refreshes, 1)
			select {
			case <-time.After(150 * time.Millisecond):
			case <-r.Context().Done():
				return
			}
			_, _ = w.Write([]byte(`{"access":"fresh"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	sessions := session.NewProvider(session.NewMemoryStore(), client, time.Hour)
	s, err := sessions.Start(context.Background(),
		models.User{ID: 9, Username: "21CS009", Role: models.RoleNameStudent},
		models.TokenPair{Access: "stale", Refresh: "refresh-1"})
	require.NoError(t, err)
	binding := sessions.Credentials(s)

	// The first tab starts the refresh and is abandoned while it is in flight.
	abandoned, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	abandonedErr := make(chan error, 1)
	go func() {
		_, err := client.MyRequests(abandoned, binding)
		abandonedErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	items, err := client.MyRequests(context.Background(), binding)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = <-abandonedErr
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, apperrors.ErrSessionExpired)

	assert.False(t, binding.Invalidated())
	stored, err := sessions.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
}

func TestDo_SecondUnauthorizedDoesNotLoop(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	creds := &fakeCreds{token: "stale", nextToken: "also-rejected"}
	_, err := client.AllRequests(context.Background(), creds)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	assert.Equal(t, 1, creds.refreshCalls)
	assert.Equal(t, 1, creds.invalidated)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_PublicCallsNeverRefresh(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	})

	_, err := client.Login(context.Background(), "21CS001", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Equal(t, "Invalid credentials", apperrors.Message(err))
}

func TestDo_MissingCredentials(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected without credentials")
	})

	_, err := client.MyRequests(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestDo_UnreachableUpstreamIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(Options{BaseURL: srv.URL})

	_, err := client.MyRequests(context.Background(), &fakeCreds{token: "t"})
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
}

func TestRefreshAccessToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/refresh/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"access":"new-access"}`))
	})

	token, err := client.RefreshAccessToken(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
}
