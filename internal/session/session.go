package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fieldsync/fieldsync/internal/credstore"
	"github.com/fieldsync/fieldsync/internal/gateway"
	"github.com/fieldsync/fieldsync/internal/token"
)

// State is the lifecycle phase of the process-wide session.
type State string

const (
	StateUnknown       State = "unknown"
	StateRestoring     State = "restoring"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// ErrNotBound is returned by Login when no request sender was attached.
var ErrNotBound = errors.New("session store has no transport bound")

// AuthError is a login rejected by the server, surfaced verbatim.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "login failed"
	}
	return fmt.Sprintf("login failed: %s", e.Message)
}

// Snapshot is a read-only view of the session handed to other
// components. The store keeps exclusive ownership of the live state.
type Snapshot struct {
	State        State
	SubjectID    string
	Name         string
	Email        string
	Role         string
	TechnicianID string
	CustomerID   string
	ExpiresAt    time.Time
	Token        string
}

// Authenticated reports whether the snapshot represents a live session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Sender dispatches API requests. Satisfied by *gateway.Gateway.
type Sender interface {
	Send(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// identity is the cached user record from the login response.
type identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TechnicianID string `json:"technician_id,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
}

// Config holds session store construction parameters.
type Config struct {
	Credentials credstore.Store
	Logger      *slog.Logger
	// Clock is the wall-clock source for expiry checks. Defaults to
	// time.Now.
	Clock func() time.Time
}

// Store owns the single process-wide session. All mutation funnels
// through its methods; other components only ever see Snapshots.
type Store struct {
	creds  credstore.Store
	logger *slog.Logger
	clock  func() time.Time

	mu        sync.Mutex
	state     State
	claims    token.Claims
	ident     identity
	sender    Sender
	listeners map[int]func(Snapshot)
	nextID    int
}

// New creates a Store in the Unknown state. Bind must be called before
// Login so the credential exchange has a transport.
func New(cfg Config) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		creds:     cfg.Credentials,
		logger:    logger,
		clock:     clock,
		state:     StateUnknown,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Bind attaches the request sender used for the login exchange. The
// gateway is constructed after the store (it needs the store as its
// credential source), so binding is a separate step.
func (s *Store) Bind(sender Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

// Snapshot returns the current read-only session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token implements gateway.SessionSource.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return "", false
	}
	return s.claims.Raw, true
}

// Restore loads a persisted credential, if any. Absent, undecodable or
// expired credentials are discarded from the persistent store and the
// session resolves Anonymous; otherwise it resolves Authenticated.
func (s *Store) Restore(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	s.state = StateRestoring
	s.mu.Unlock()

	raw, err := s.creds.Get(ctx, credstore.KeyToken)
	if errors.Is(err, credstore.ErrNotFound) {
		return s.resolveAnonymous(), nil
	}
	if err != nil {
		s.resolveAnonymous()
		return Snapshot{}, fmt.Errorf("failed to read persisted credential: %w", err)
	}

	claims, err := token.Decode(raw)
	if err != nil || claims.Expired(s.clock()) {
		s.logger.Info("Discarding persisted credential",
			slog.Bool("expired", err == nil),
		)
		s.discard(ctx)
		return s.resolveAnonymous(), nil
	}

	ident := s.restoreIdentity(ctx, claims)

	s.mu.Lock()
	s.state = StateAuthenticated
	s.claims = claims
	s.ident = ident
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("Session restored",
		slog.String("subject", claims.Subject),
		slog.String("role", claims.Role),
	)
	return snap, nil
}

// Login exchanges credentials for a session. Server rejections come
// back as *AuthError; the state stays Anonymous on any failure.
func (s *Store) Login(ctx context.Context, email, password string) (Snapshot, error) {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()

	if sender == nil {
		return Snapshot{}, ErrNotBound
	}

	resp, err := sender.Send(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		s.resolveAnonymous()

		var reqErr *gateway.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode >= 400 && reqErr.StatusCode < 500 {
			return Snapshot{}, &AuthError{StatusCode: reqErr.StatusCode, Message: reqErr.Message}
		}
		return Snapshot{}, err
	}

	var payload struct {
		AccessToken string   `json:"access_token"`
		User        identity `json:"user"`
	}
	if err := resp.Decode(&payload); err != nil {
		s.resolveAnonymous()
		return Snapshot{}, err
	}

	claims, err := token.Decode(payload.AccessToken)
	if err != nil {
		s.resolveAnonymous()
		return Snapshot{}, err
	}

	if err := s.persist(ctx, payload.AccessToken, payload.User); err != nil {
		s.resolveAnonymous()
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.claims = claims
	s.ident = payload.User
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("Session established",
		slog.String("subject", claims.Subject),
		slog.String("role", claims.Role),
	)
	return snap, nil
}

// Logout clears the persisted credential and the in-memory session.
// Idempotent; an already-anonymous session is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.discard(ctx)
	s.resolveAnonymous()
	return nil
}

// Invalidate implements gateway.SessionSource: the teardown path for a
// server-reported authorization failure. Listeners are notified exactly
// once per Authenticated->Anonymous edge, so concurrent failing
// requests collapse to a single broadcast.
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return
	}

	s.state = StateAnonymous
	s.claims = token.Claims{}
	s.ident = identity{}
	snap := s.snapshotLocked()

	notify := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		notify = append(notify, fn)
	}
	s.mu.Unlock()

	s.discard(ctx)

	s.logger.Info("Session invalidated by server")
	for _, fn := range notify {
		fn(snap)
	}
}

// OnSessionEnded registers a listener for session invalidation. The
// returned function unsubscribes it.
func (s *Store) OnSessionEnded(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:        s.state,
		SubjectID:    s.claims.Subject,
		Name:         firstNonEmpty(s.ident.Name, s.claims.Name),
		Email:        s.ident.Email,
		Role:         firstNonEmpty(s.claims.Role, s.ident.Role),
		TechnicianID: firstNonEmpty(s.claims.TechnicianID, s.ident.TechnicianID),
		CustomerID:   firstNonEmpty(s.claims.CustomerID, s.ident.CustomerID),
		ExpiresAt:    s.claims.ExpiresAt,
		Token:        s.claims.Raw,
	}
}

func (s *Store) resolveAnonymous() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateAnonymous
	s.claims = token.Claims{}
	s.ident = identity{}
	return s.snapshotLocked()
}

// persist writes the credential pair to the persistent store.
func (s *Store) persist(ctx context.Context, raw string, ident identity) error {
	if err := s.creds.Set(ctx, credstore.KeyToken, raw); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}

	encoded, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := s.creds.Set(ctx, credstore.KeyIdentity, string(encoded)); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	return nil
}

// discard removes both persisted keys, tolerating absence.
func (s *Store) discard(ctx context.Context) {
	for _, key := range []string{credstore.KeyToken, credstore.KeyIdentity} {
		if err := s.creds.Remove(ctx, key); err != nil && !errors.Is(err, credstore.ErrNotFound) {
			s.logger.Warn("Failed to remove persisted credential",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

// restoreIdentity reads the cached identity record; a missing or
// corrupt record is not fatal, the token claims carry enough identity.
func (s *Store) restoreIdentity(ctx context.Context, claims token.Claims) identity {
	encoded, err := s.creds.Get(ctx, credstore.KeyIdentity)
	if err != nil {
		return identity{}
	}

	var ident identity
	if err := json.Unmarshal([]byte(encoded), &ident); err != nil {
		s.logger.Warn("Discarding corrupt cached identity",
			slog.String("error", err.Error()),
		)
		return identity{}
	}

	if ident.ID != "" && claims.Subject != "" && ident.ID != claims.Subject {
		return identity{}
	}
	return ident
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
