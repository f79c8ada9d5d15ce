package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/kanban/internal/adapters/sqlite"
	"github.com/example/kanban/internal/app"
	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/ctxutil"
	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

var testNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

// recordingMetrics counts domain metric calls.
type recordingMetrics struct {
	mu          sync.Mutex
	transitions []string
	claims      map[string]int
	auth        map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{claims: map[string]int{}, auth: map[string]int{}}
}

func (m *recordingMetrics) StatusTransition(from, to, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+">"+to+":"+class)
}

func (m *recordingMetrics) Claim(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[result]++
}

func (m *recordingMetrics) APIKeyAuth(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth[result]++
}

// spyStore wraps the real store, counting write transactions and
// optionally failing every activity write inside them.
type spyStore struct {
	*sqlite.Store

	mu        sync.Mutex
	txCount   int
	ledgerErr error
}

func (s *spyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repos) error) error {
	s.mu.Lock()
	s.txCount++
	ledgerErr := s.ledgerErr
	s.mu.Unlock()

	return s.Store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if ledgerErr != nil {
			repos.Ledger = failingLedger{err: ledgerErr}
		}
		return fn(ctx, repos)
	})
}

func (s *spyStore) failLedger(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgerErr = nil
	if fail {
		s.ledgerErr = errors.New("activity write failed")
	}
}

func (s *spyStore) transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

type failingLedger struct{ err error }

func (l failingLedger) LogTicketActivity(context.Context, string, string, string, any, *ctxutil.Actor) error {
	return l.err
}

type fixture struct {
	store      *spyStore
	metrics    *recordingMetrics
	workspaces *app.WorkspaceServiceImpl
	tickets    *app.TicketServiceImpl
	docs       *app.DocServiceImpl
	keys       *app.APIKeyServiceImpl
	identity   *app.IdentityServiceImpl
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	path               string
	logCascadedDeletes bool
}

func withPath(path string) fixtureOption {
	return func(c *fixtureConfig) { c.path = path }
}

func withCascadedDeleteLogging() fixtureOption {
	return func(c *fixtureConfig) { c.logCascadedDeletes = true }
}

// newFixture wires every service to one migrated database. The default is
// a private in-memory database.
func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{path: db.MemoryPath}
	for _, opt := range opts {
		opt(&cfg)
	}

	database, err := db.Open(context.Background(), cfg.path, db.Options{BusyTimeoutMS: 5000})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	now := func() time.Time { return testNow }
	store := &spyStore{Store: sqlite.NewStore(db.NewSQLiteUnitOfWork(database), now)}
	metrics := newRecordingMetrics()
	env := app.Env{Now: now, Metrics: metrics}

	return &fixture{
		store:      store,
		metrics:    metrics,
		workspaces: app.NewWorkspaceService(store, env),
		tickets:    app.NewTicketService(store, env, cfg.logCascadedDeletes),
		docs:       app.NewDocService(store, env),
		keys:       app.NewAPIKeyService(store, env),
		identity:   app.NewIdentityService(store, env),
	}
}

func sessionPrincipal(userID string) primary.Principal {
	return primary.Principal{Kind: access.PrincipalSession, UserID: userID, DisplayName: "User " + userID}
}

// newWorkspace creates a workspace owned by ownerID and returns the owner's scope.
func (f *fixture) newWorkspace(t *testing.T, name, ownerID string) primary.Scope {
	t.Helper()
	p := sessionPrincipal(ownerID)
	ws, err := f.workspaces.CreateWorkspace(context.Background(), p, primary.CreateWorkspaceRequest{Name: name})
	require.NoError(t, err)
	return primary.Scope{Principal: p, WorkspaceID: ws.ID}
}

// agentScope issues a key in the owner's workspace and resolves it the way
// the HTTP adapter does.
func (f *fixture) agentScope(t *testing.T, owner primary.Scope, role, agentSessionID string) primary.Scope {
	t.Helper()
	ctx := context.Background()
	created, err := f.keys.CreateKey(ctx, owner, primary.CreateAPIKeyRequest{Name: role + " bot", Role: role})
	require.NoError(t, err)
	p, err := f.identity.AuthenticateAPIKey(ctx, created.Secret, agentSessionID)
	require.NoError(t, err)
	return primary.Scope{Principal: *p, WorkspaceID: p.WorkspaceID}
}

func (f *fixture) createTicket(t *testing.T, scope primary.Scope, title, parentID string) *primary.Ticket {
	t.Helper()
	tk, err := f.tickets.CreateTicket(context.Background(), scope, primary.CreateTicketRequest{Title: title, ParentID: parentID})
	require.NoError(t, err)
	return tk
}

// requireKind asserts err is a typed failure of the given kind and returns it.
func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected typed error, got %v", err)
	require.Equal(t, kind, e.Kind, "unexpected kind for %v", err)
	return e
}

func ticketFiltersFor(workspaceID string) secondary.TicketFilters {
	return secondary.TicketFilters{WorkspaceID: workspaceID, Archived: secondary.ArchivedAll}
}
