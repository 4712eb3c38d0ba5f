package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lahorneada/storefront/internal/storage"
)

var ErrEmptyToken = errors.New("session token must not be empty")

// Session is the authenticated identity: an opaque bearer token and the
// display name returned by OTP verification. The token is never parsed
// client-side.
type Session struct {
	Token       string `json:"token"`
	DisplayName string `json:"displayName,omitempty"`
}

// Store holds the session across restarts. Authenticated means the token is
// present; Clear is the only way back to anonymous.
type Store struct {
	mu        sync.Mutex
	snapshots storage.Snapshots
	current   Session
}

// NewStore restores a prior session from the snapshot store. Malformed or
// tokenless snapshots are discarded and the store starts anonymous.
func NewStore(ctx context.Context, snapshots storage.Snapshots) *Store {
	s := &Store{snapshots: snapshots}

	data, err := snapshots.Load(ctx, storage.KeySession)
	if err != nil {
		slog.WarnContext(ctx, "session: snapshot load failed, starting anonymous", "error", err)
		return s
	}
	if len(data) == 0 {
		return s
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Token == "" {
		slog.WarnContext(ctx, "session: discarding malformed snapshot")
		return s
	}
	s.current = sess
	return s
}

// Establish stores the token and display name from a successful OTP
// verification and persists them.
func (s *Store) Establish(ctx context.Context, token, displayName string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{Token: token, DisplayName: displayName}

	data, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("session: marshal snapshot: %w", err)
	}
	if err := s.snapshots.Save(ctx, storage.KeySession, data); err != nil {
		return fmt.Errorf("session: persist snapshot: %w", err)
	}
	return nil
}

// Clear wipes token and display name together. Invoked by explicit logout.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}
	if err := s.snapshots.Delete(ctx, storage.KeySession); err != nil {
		return fmt.Errorf("session: clear snapshot: %w", err)
	}
	return nil
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token != ""
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token
}

func (s *Store) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.DisplayName
}

// Current returns a copy of the session value.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
