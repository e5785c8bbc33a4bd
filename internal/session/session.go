package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aadi-novice/guardian/internal/api"
	"github.com/aadi-novice/guardian/internal/credentials"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/charmbracelet/log"
)

// Phase is the lifecycle state of the session.
type Phase int

const (
	// PhaseInitializing is transient and resolves exactly once per process
	// lifetime; callers must treat it as "not yet known", never as logged out.
	PhaseInitializing Phase = iota
	PhaseUnauthenticated
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// RegisterResult carries the outcome of an account registration. Field
// errors stay structured so forms can annotate individual inputs.
type RegisterResult struct {
	Success     bool
	Message     string
	FieldErrors map[string][]string
}

// Session holds the current user identity and lifecycle phase.
type Session struct {
	mu          sync.Mutex
	phase       Phase
	identity    models.Identity
	hasIdentity bool

	store    credentials.Store
	client   *api.Client
	logger   *log.Logger
	initOnce sync.Once

	// onRedirect is the redirect-to-login signal surfaced when the session
	// terminates outside an explicit logout.
	onRedirect func()
}

// Opts contains configuration options for creating a [Session].
type Opts struct {
	Store             credentials.Store
	Logger            *log.Logger
	OnRedirectToLogin func()
}

// New creates a Session in the Initializing phase. AttachClient must be
// called before any operation that talks to the API.
func New(opts Opts) *Session {
	if opts.Store == nil {
		opts.Store = credentials.NewMemoryStore()
	}
	return &Session{
		phase:      PhaseInitializing,
		store:      opts.Store,
		logger:     opts.Logger,
		onRedirect: opts.OnRedirectToLogin,
	}
}

// AttachClient wires the API gateway. Separate from New because the gateway
// needs the session's expiry hook before the session can hold the gateway.
func (s *Session) AttachClient(client *api.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// Initialize resolves the Initializing phase exactly once: with a stored
// credential it fetches the current identity, otherwise (or on failure) the
// session starts unauthenticated. Subsequent calls are no-ops.
func (s *Session) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		if _, ok := s.store.Load(); !ok {
			s.setPhase(PhaseUnauthenticated, models.Identity{}, false)
			return
		}

		identity, err := s.client.Me(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Warnf("stored session invalid, clearing: %v", err)
			}
			if err := s.store.Clear(); err != nil && s.logger != nil {
				s.logger.Warnf("failed to clear credentials: %v", err)
			}
			s.setPhase(PhaseUnauthenticated, models.Identity{}, false)
			return
		}

		s.setPhase(PhaseAuthenticated, identity, true)
	})
}

// Login exchanges a username and password for a session. On failure the
// stored credentials and current identity are left untouched and the error
// carries the server's own wording when it provided any.
func (s *Session) Login(ctx context.Context, username, password string) error {
	identity, err := s.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	s.setPhase(PhaseAuthenticated, identity, true)
	return nil
}

// LoginWithGoogle exchanges a Google ID credential for a session.
func (s *Session) LoginWithGoogle(ctx context.Context, credential string) error {
	identity, err := s.client.GoogleLogin(ctx, credential)
	if err != nil {
		return err
	}

	s.setPhase(PhaseAuthenticated, identity, true)
	return nil
}

// Logout clears credentials and identity. Purely local: it succeeds even
// when the network is unreachable, and calling it twice is harmless.
func (s *Session) Logout() {
	if err := s.store.Clear(); err != nil && s.logger != nil {
		s.logger.Warnf("failed to clear credentials on logout: %v", err)
	}
	s.setPhase(PhaseUnauthenticated, models.Identity{}, false)
}

// Expire transitions to Unauthenticated after a terminal authentication
// failure and surfaces the redirect-to-login signal. Credentials were
// already cleared by the refresh coordinator.
func (s *Session) Expire() {
	s.setPhase(PhaseUnauthenticated, models.Identity{}, false)
	if s.onRedirect != nil {
		s.onRedirect()
	}
}

// Register creates a new account. Server-side field validation failures are
// reported structured in the result, not as an error.
func (s *Session) Register(ctx context.Context, input models.RegisterInput) (RegisterResult, error) {
	if err := input.Validate(); err != nil {
		return RegisterResult{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	message, err := s.client.Register(ctx, input)
	if err != nil {
		var vErr *api.ValidationError
		if errors.As(err, &vErr) {
			return RegisterResult{Success: false, FieldErrors: vErr.Fields}, nil
		}
		return RegisterResult{}, err
	}

	return RegisterResult{Success: true, Message: message}, nil
}

// ForgotPassword requests a reset email. No session state changes.
func (s *Session) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.client.ForgotPassword(ctx, email)
}

// Identity returns the current identity, if any.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.hasIdentity
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// IsAuthenticated reports whether an identity is present and initialization
// has resolved.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasIdentity && s.phase != PhaseInitializing
}

func (s *Session) setPhase(phase Phase, identity models.Identity, hasIdentity bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.identity = identity
	s.hasIdentity = hasIdentity
}
