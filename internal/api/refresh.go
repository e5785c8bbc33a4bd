package api

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aadi-novice/guardian/internal/credentials"
	"github.com/aadi-novice/guardian/internal/models"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/charmbracelet/log"
)

// refreshFunc exchanges a refresh token for a new access token.
type refreshFunc func(ctx context.Context, refreshToken string) (string, error)

type refreshOutcome struct {
	token string
	err   error
}

// refreshCoordinator owns the single-flight refresh protocol.
//
// The first request that observes a 401 starts a refresh; every request that
// observes a 401 while that refresh is outstanding joins the waiter queue
// instead of issuing a second call. The in-flight flag doubles as the only
// lock the protocol needs. Waiters are signalled in arrival order.
type refreshCoordinator struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan refreshOutcome

	store     credentials.Store
	refresh   refreshFunc
	onExpired func()
	logger    *log.Logger

	calls atomic.Int64 // refresh requests actually issued
}

func newRefreshCoordinator(store credentials.Store, refresh refreshFunc, onExpired func(), logger *log.Logger) *refreshCoordinator {
	return &refreshCoordinator{
		store:     store,
		refresh:   refresh,
		onExpired: onExpired,
		logger:    logger,
	}
}

// Await joins the current refresh cycle, starting one if none is in flight,
// and blocks until the cycle settles. Returns the new access token on
// success. Every waiter is settled exactly once: success or failure.
func (r *refreshCoordinator) Await(ctx context.Context) (string, error) {
	ch := make(chan refreshOutcome, 1)

	r.mu.Lock()
	r.waiters = append(r.waiters, ch)
	if !r.inFlight {
		r.inFlight = true
		go r.run()
	}
	r.mu.Unlock()

	select {
	case outcome := <-ch:
		return outcome.token, outcome.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
	}
}

// run executes one refresh cycle and settles every waiter that joined it.
func (r *refreshCoordinator) run() {
	outcome := r.execute()

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.inFlight = false
	r.mu.Unlock()

	// Arrival order; replays happen only after the refresh settles.
	for _, ch := range waiters {
		ch <- outcome
	}
}

func (r *refreshCoordinator) execute() refreshOutcome {
	creds, ok := r.store.Load()
	if !ok || creds.RefreshToken == "" {
		r.fail()
		return refreshOutcome{err: fmt.Errorf("%w: %v", shared.ErrRefreshFailed, shared.ErrNoRefreshToken)}
	}

	r.calls.Add(1)
	token, err := r.refresh(context.Background(), creds.RefreshToken)
	if err != nil {
		if r.logger != nil {
			r.logger.Warnf("token refresh failed: %v", err)
		}
		r.fail()
		return refreshOutcome{err: fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)}
	}

	// The coordinator is the only component allowed to replace the access
	// credential; the refresh token is carried over unchanged.
	if err := r.store.Save(models.Credentials{AccessToken: token, RefreshToken: creds.RefreshToken}); err != nil {
		if r.logger != nil {
			r.logger.Warnf("failed to persist refreshed token: %v", err)
		}
	}

	return refreshOutcome{token: token}
}

// fail clears credentials and emits the session-expired signal once for the
// whole cycle, regardless of how many waiters joined it.
func (r *refreshCoordinator) fail() {
	if err := r.store.Clear(); err != nil && r.logger != nil {
		r.logger.Warnf("failed to clear credentials: %v", err)
	}
	if r.onExpired != nil {
		r.onExpired()
	}
}
