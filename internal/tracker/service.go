// Package tracker is the synchronization engine of the dashboard.
//
// # Overview
//
// A Service owns the remote handle, the local snapshot and the session. Sync
// pulls all five collections and replaces the snapshot; the mutation methods
// write one entity remotely and patch the snapshot on success. Readers use
// View, which never touches the network.
//
// # Concurrency
//
// Only one sync runs at a time; a Sync call made while another is in flight
// returns nil immediately. Mutations may run during a sync: their patches are
// journaled by the store and replayed on top of the freshly ingested snapshot,
// so a completed write is never lost to a sync that started before it.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/identity"
	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
	"github.com/dmitrijs2005/cargotrack/internal/session"
	"github.com/dmitrijs2005/cargotrack/internal/store"
)

// State of the sync state machine.
type State int

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "idle"
}

// Recorder receives operational measurements. The zero Service uses a no-op
// recorder.
type Recorder interface {
	ObserveSync(d time.Duration, err error)
	ObserveWrite(op string, kind models.Kind, err error)
	SetEntities(counts map[models.Kind]int)
}

// SyncHook runs after every successful sync with the committed snapshot.
type SyncHook func(ctx context.Context, snap models.Snapshot)

// Config maps every collection to its remote location. Kinds missing from
// Collections use a list named after the kind.
type Config struct {
	Collections map[models.Kind]remote.CollectionRef
}

// View is a read-only picture of the engine for presentation code.
type View struct {
	models.Snapshot
	Session *models.User
	State   State
	Version uint64
}

type Service struct {
	cfg      Config
	identity identity.Provider
	factory  remote.Factory
	store    *store.Store
	session  *session.Manager
	logger   logging.Logger
	recorder Recorder
	hooks    []SyncHook
	now      func() time.Time

	mu     sync.Mutex
	state  State
	client remote.Client
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithSyncHook(h SyncHook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, h) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, id identity.Provider, factory remote.Factory, st *store.Store, sess *session.Manager, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		identity: id,
		factory:  factory,
		store:    st,
		session:  sess,
		logger:   logger.With("module", "tracker"),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start restores the persisted session and, when the identity provider can
// supply a token without interaction, runs a first sync.
func (s *Service) Start(ctx context.Context) error {
	u, err := s.session.Restore(ctx)
	if err != nil {
		return err
	}
	if u != nil {
		s.logger.Info(ctx, "session restored", "login", u.Login)
	}
	if !s.identity.HasActiveSession(ctx) {
		return nil
	}
	return s.Sync(ctx)
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether a remote handle is available for writes.
func (s *Service) Connected() bool {
	return s.handle() != nil
}

func (s *Service) View() View {
	return View{
		Snapshot: s.store.Snapshot(),
		Session:  s.session.Current(),
		State:    s.State(),
		Version:  s.store.Version(),
	}
}

// LoginLocal authenticates against the fallback credential and the ingested
// users. Bad credentials yield (false, nil).
func (s *Service) LoginLocal(ctx context.Context, login, password string) (bool, error) {
	return s.session.LoginLocal(ctx, login, password, s.store.Snapshot().Users)
}

type forgetter interface {
	Forget(ctx context.Context) error
}

// Logout clears the session, the snapshot and the remote handle. A cached
// identity token is dropped too when the provider keeps one. A sync still
// in flight finishes without installing its result.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
	s.store.Reset()

	if f, ok := s.identity.(forgetter); ok {
		if err := f.Forget(ctx); err != nil {
			s.logger.Warn(ctx, "failed to drop cached token", "error", err)
		}
	}
	return s.session.Logout(ctx)
}

func (s *Service) handle() remote.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Service) ref(kind models.Kind) remote.CollectionRef {
	if ref, ok := s.cfg.Collections[kind]; ok {
		return ref
	}
	return remote.CollectionRef{List: string(kind)}
}

func (s *Service) refs() []remote.CollectionRef {
	out := make([]remote.CollectionRef, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		out = append(out, s.ref(k))
	}
	return out
}

type nopRecorder struct{}

func (nopRecorder) ObserveSync(time.Duration, error) {}
func (nopRecorder) ObserveWrite(string, models.Kind, error) {}
func (nopRecorder) SetEntities(map[models.Kind]int) {}
