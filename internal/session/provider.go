package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/auth"
	"github.com/aurcc/bonafide-portal/internal/pkg/logger"
)

// refreshTimeout bounds one token exchange with the API.
const refreshTimeout = 30 * time.Second

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// EventKind names a session lifecycle change
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventRefreshed EventKind = "refreshed"
	EventDestroyed EventKind = "destroyed"
)

// Event is delivered to subscribers after the change is stored
type Event struct {
	Kind      EventKind
	SessionID string
	Role      models.RoleName
	At        time.Time
}

// Provider owns every read and write of session state.
type Provider struct {
	store     Store
	refresher TokenRefresher
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger

	refreshes singleflight.Group
	locks     keyedMutex

	mu          sync.RWMutex
	subscribers []func(Event)
}

// NewProvider creates a Provider. ttl caps the lifetime of every session.
func NewProvider(store Store, refresher TokenRefresher, ttl time.Duration) *Provider {
	return &Provider{
		store:     store,
		refresher: refresher,
		ttl:       ttl,
		now:       time.Now,
		log:       logger.Component("session"),
	}
}

// Subscribe registers fn for every later event. Callbacks run synchronously and must not block.
func (p *Provider) Subscribe(fn func(Event)) {
	p.mu.Lock()
	p.subscribers = append(p.subscribers, fn)
	p.mu.Unlock()
}

func (p *Provider) publish(kind EventKind, s *Session) {
	ev := Event{Kind: kind, SessionID: s.ID, Role: s.User.Role, At: p.now()}
	p.mu.RLock()
	subs := append([]func(Event){}, p.subscribers...)
	p.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Start creates and stores a session for a freshly logged-in user.
func (p *Provider) Start(ctx context.Context, user models.User, tokens models.TokenPair) (*Session, error) {
	now := p.now()
	s := &Session{
		ID:              uuid.NewString(),
		User:            user,
		AccessToken:     tokens.Access,
		RefreshToken:    tokens.Refresh,
		AccessExpiresAt: auth.ExpiryOr(tokens.Access, time.Time{}),
		CreatedAt:       now,
		ExpiresAt:       auth.SessionDeadline(tokens.Refresh, now, p.ttl),
	}
	if err := p.store.Save(ctx, s); err != nil {
		return nil, err
	}
	p.publish(EventStarted, s)
	return s, nil
}

// Load returns the live session for id, or ErrNotFound.
func (p *Provider) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return p.store.Get(ctx, id)
}

// Update applies fn to the stored session and writes it back. It returns the updated copy.
// Updates to one session are serialized; stores implementing Updater also make the write
// atomic against other portal processes. fn may run more than once and must only set fields.
func (p *Provider) Update(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	unlock := p.locks.lock(id)
	defer unlock()

	if u, ok := p.store.(Updater); ok {
		return u.Update(ctx, id, fn)
	}
	s, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(s)
	if err := p.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Destroy removes the session. Destroying a missing session is not an error.
func (p *Provider) Destroy(ctx context.Context, id string) error {
	unlock := p.locks.lock(id)
	s, err := p.store.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		unlock()
		return err
	}
	err = p.store.Delete(ctx, id)
	unlock()
	if err != nil {
		return err
	}
	if s != nil {
		p.publish(EventDestroyed, s)
	}
	return nil
}

// SetFlash stores a one-shot message for the next page.
func (p *Provider) SetFlash(ctx context.Context, id string, kind FlashKind, message string) error {
	_, err := p.Update(ctx, id, func(s *Session) {
		s.Flash = &Flash{Kind: kind, Message: message}
	})
	return err
}

// PopFlash returns and clears the pending flash message, if any.
func (p *Provider) PopFlash(ctx context.Context, s *Session) *Flash {
	if s == nil || s.Flash == nil {
		return nil
	}
	flash := s.Flash
	if _, err := p.Update(ctx, s.ID, func(stored *Session) { stored.Flash = nil }); err != nil {
		p.log.Warn().Err(err).Str("session", shortID(s.ID)).Msg("Failed to clear flash message")
	}
	s.Flash = nil
	return flash
}

// MarkOpenRequest sets the request-gate marker.
func (p *Provider) MarkOpenRequest(ctx context.Context, id string, req models.BonafideRequest) (*Session, error) {
	return p.Update(ctx, id, func(s *Session) {
		status := req.Status
		if status == "" {
			status = models.StatusPending
		}
		s.OpenRequest = &OpenRequestMarker{RequestID: req.RequestID, Status: status, SetAt: p.now()}
	})
}

// ClearOpenRequest removes the request-gate marker.
func (p *Provider) ClearOpenRequest(ctx context.Context, id string) (*Session, error) {
	return p.Update(ctx, id, func(s *Session) { s.OpenRequest = nil })
}

// MarkPasswordChanged lifts the forced password change.
func (p *Provider) MarkPasswordChanged(ctx context.Context, id string) (*Session, error) {
	return p.Update(ctx, id, func(s *Session) { s.User.MustChangePassword = false })
}

// ReplaceAccessToken stores a refreshed access token.
func (p *Provider) ReplaceAccessToken(ctx context.Context, id, token string) (*Session, error) {
	s, err := p.Update(ctx, id, func(s *Session) {
		s.AccessToken = token
		s.AccessExpiresAt = auth.ExpiryOr(token, time.Time{})
	})
	if err != nil {
		return nil, err
	}
	p.publish(EventRefreshed, s)
	return s, nil
}

// refresh obtains a new access token for the session. staleToken is the token the caller saw
// rejected; if the stored token already differs, another request refreshed first and the
// stored token is returned without calling the API.
//
// Concurrent callers share one exchange. The exchange is detached from the caller that started
// it and bounded by refreshTimeout, so a caller giving up only stops its own wait.
func (p *Provider) refresh(ctx context.Context, id, staleToken string) (string, error) {
	flight := p.refreshes.DoChan(id, func() (interface{}, error) {
		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return p.exchange(exchangeCtx, id, staleToken)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (p *Provider) exchange(ctx context.Context, id, staleToken string) (string, error) {
	s, err := p.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperrors.ErrSessionExpired
		}
		return "", err
	}
	if s.AccessToken != staleToken && s.AccessToken != "" {
		return s.AccessToken, nil
	}
	if s.RefreshToken == "" {
		return "", apperrors.ErrSessionExpired
	}

	token, err := p.refresher.RefreshAccessToken(ctx, s.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	if _, err := p.ReplaceAccessToken(ctx, id, token); err != nil {
		return "", err
	}
	p.log.Info().Str("session", shortID(id)).Str("role", string(s.User.Role)).Msg("Access token refreshed")
	return token, nil
}

// Credentials binds the session to API calls made while serving one page.
func (p *Provider) Credentials(s *Session) *Binding {
	return &Binding{provider: p, id: s.ID, token: s.AccessToken}
}

// Binding is the per-request credential source handed to the API client
type Binding struct {
	provider *Provider

	mu          sync.Mutex
	id          string
	token       string
	invalidated bool
}

// AccessToken returns the token currently used by this binding.
func (b *Binding) AccessToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// Refresh replaces the binding's token through the provider.
func (b *Binding) Refresh(ctx context.Context) (string, error) {
	stale := b.AccessToken()
	token, err := b.provider.refresh(ctx, b.id, stale)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
	return token, nil
}

// Invalidate destroys the session after an unrecoverable authentication failure.
func (b *Binding) Invalidate(ctx context.Context) {
	b.mu.Lock()
	b.invalidated = true
	b.mu.Unlock()
	if err := b.provider.Destroy(ctx, b.id); err != nil {
		b.provider.log.Warn().Err(err).Str("session", shortID(b.id)).Msg("Failed to destroy invalidated session")
	}
}

// Invalidated reports whether Invalidate was called.
func (b *Binding) Invalidated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.invalidated
}

// keyedMutex hands out one mutex per key and forgets it once no goroutine holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// purger is implemented by stores that need expired sessions removed explicitly.
type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RunSweeper purges expired sessions every interval until ctx is cancelled. Stores that expire
// entries on their own (redis) are left alone.
func (p *Provider) RunSweeper(ctx context.Context, interval time.Duration) {
	pg, ok := p.store.(purger)
	if !ok {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := pg.PurgeExpired(ctx)
			if err != nil {
				p.log.Warn().Err(err).Msg("Failed to purge expired sessions")
				continue
			}
			if removed > 0 {
				p.log.Debug().Int64("removed", removed).Msg("Purged expired sessions")
			}
		}
	}
}
