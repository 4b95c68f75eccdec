// Package session owns the signed-in user and bearer token. All mutation of
// that state goes through Session methods; everything else reads copies.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"invoicer/internal/backend"
	"invoicer/internal/core"
	"invoicer/internal/log"
	"invoicer/internal/storage"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("Please log in first")

// Store persists the session across process restarts.
type Store interface {
	LoadSession(ctx context.Context) (token string, userJSON []byte, err error)
	SaveSession(ctx context.Context, token string, userJSON []byte) error
	ClearSession(ctx context.Context) error
	// ClearDrafts abandons every in-progress draft.
	ClearDrafts(ctx context.Context) (int, error)
}

// Listener is notified after the profile changes. A nil profile means the
// session ended.
type Listener func(ctx context.Context, p *core.Profile)

type Session struct {
	mu        sync.RWMutex
	store     Store
	auth      backend.Authenticator
	logger    *log.Logger
	token     string
	user      *core.Profile
	listeners []Listener
}

func New(store Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Discard()
	}
	return &Session{store: store, logger: logger.WithComponent(log.ComponentSession)}
}

// Bind attaches the authentication backend. The backend in turn reads the
// token from the session, so the two are wired after construction.
func (s *Session) Bind(auth backend.Authenticator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// OnProfileChange registers fn to run after login, signup, profile update and logout.
func (s *Session) OnProfileChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Init restores the stored session. A stored profile that cannot be decoded
// invalidates the whole session: token and profile are both cleared.
func (s *Session) Init(ctx context.Context) error {
	token, raw, err := s.store.LoadSession(ctx)
	if errors.Is(err, storage.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	var p core.Profile
	if err := json.Unmarshal(raw, &p); err != nil || token == "" {
		s.logger.WarnContext(ctx, "Stored session is corrupt, clearing it", log.FieldError, errString(err))
		s.mu.Lock()
		s.token, s.user = "", nil
		s.mu.Unlock()
		return s.store.ClearSession(ctx)
	}

	s.mu.Lock()
	s.token, s.user = token, &p
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Session restored", log.FieldEmail, p.Email)
	return nil
}

// Teardown drops the in-memory state without touching the store.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user, s.listeners = "", nil, nil
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the profile, or nil when signed out.
func (s *Session) CurrentUser() *core.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	p := *s.user
	return &p
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

func (s *Session) authenticator() (backend.Authenticator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth == nil {
		return nil, errors.New("session: no authentication backend bound")
	}
	return s.auth, nil
}

func (s *Session) Login(ctx context.Context, c core.Credentials) (*core.Profile, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	auth, err := s.authenticator()
	if err != nil {
		return nil, err
	}
	res, err := auth.Login(ctx, c)
	if err != nil {
		s.logger.InfoContext(ctx, "Login rejected", log.NewFields().WithOperation(log.OpLogin).WithError(err).ToSlice()...)
		return nil, err
	}
	return s.establish(ctx, res)
}

func (s *Session) Signup(ctx context.Context, r core.SignupRequest) (*core.Profile, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	auth, err := s.authenticator()
	if err != nil {
		return nil, err
	}
	res, err := auth.Signup(ctx, r)
	if err != nil {
		s.logger.InfoContext(ctx, "Signup rejected", log.NewFields().WithOperation(log.OpSignup).WithError(err).ToSlice()...)
		return nil, err
	}
	return s.establish(ctx, res)
}

func (s *Session) establish(ctx context.Context, res core.AuthResult) (*core.Profile, error) {
	raw, err := json.Marshal(res.Profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.SaveSession(ctx, res.Token, raw); err != nil {
		return nil, err
	}
	p := res.Profile
	s.mu.Lock()
	s.token, s.user = res.Token, &p
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Signed in", log.FieldEmail, p.Email)
	s.notify(ctx, &p)
	return s.CurrentUser(), nil
}

// UpdateProfile sends the update and, on success, replaces the cached profile.
func (s *Session) UpdateProfile(ctx context.Context, u core.ProfileUpdate) (*core.Profile, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	auth, err := s.authenticator()
	if err != nil {
		return nil, err
	}
	p, err := auth.UpdateProfile(ctx, u)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.SaveSession(ctx, s.Token(), raw); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.user = &p
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Profile updated", log.FieldEmail, p.Email)
	s.notify(ctx, &p)
	return s.CurrentUser(), nil
}

// Logout clears token and profile, and abandons every saved draft.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()

	err := s.store.ClearSession(ctx)
	n, derr := s.store.ClearDrafts(ctx)
	if derr != nil && err == nil {
		err = derr
	}
	s.logger.InfoContext(ctx, "Signed out", "abandoned_drafts", n)
	s.notify(ctx, nil)
	return err
}

func (s *Session) notify(ctx context.Context, p *core.Profile) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		var cp *core.Profile
		if p != nil {
			c := *p
			cp = &c
		}
		fn(ctx, cp)
	}
}

func errString(err error) string {
	if err == nil {
		return "empty token"
	}
	return err.Error()
}
