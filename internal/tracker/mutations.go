package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/reconcile"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
	"github.com/dmitrijs2005/cargotrack/internal/store"
)

// Every mutation is a no-op returning nil results when no remote handle
// exists yet. A failed remote write returns a *WriteError and leaves the
// snapshot as it was.

func (s *Service) CreateSite(ctx context.Context, in models.NewSite) (*models.Site, error) {
	rec, err := s.create(ctx, models.KindSite, reconcile.SiteFields(in))
	if err != nil || rec == nil {
		return nil, err
	}
	v := reconcile.Site(rec)
	s.store.Apply(store.AddSite(v))
	return &v, nil
}

func (s *Service) CreateTruck(ctx context.Context, in models.NewTruck) (*models.Truck, error) {
	rec, err := s.create(ctx, models.KindTruck, reconcile.TruckFields(in))
	if err != nil || rec == nil {
		return nil, err
	}
	v := reconcile.Truck(rec)
	s.store.Apply(store.AddTruck(v))
	return &v, nil
}

func (s *Service) CreateDriver(ctx context.Context, in models.NewDriver) (*models.Driver, error) {
	rec, err := s.create(ctx, models.KindDriver, reconcile.DriverFields(in))
	if err != nil || rec == nil {
		return nil, err
	}
	v := reconcile.Driver(rec)
	s.store.Apply(store.AddDriver(v))
	return &v, nil
}

// CreateUser rejects an empty login, a login already present in the
// snapshot (compared case insensitively) and an operator without a site.
func (s *Service) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	if s.handle() == nil {
		s.logger.Warn(ctx, "create skipped: not connected", "kind", models.KindUser)
		return nil, nil
	}
	if in.AccessLevel == "" {
		in.AccessLevel = models.AccessOperator
	}
	if err := s.validateUser(in); err != nil {
		return nil, err
	}

	rec, err := s.create(ctx, models.KindUser, reconcile.UserFields(in))
	if err != nil || rec == nil {
		return nil, err
	}
	v := reconcile.User(rec)
	s.store.Apply(store.AddUser(v))
	return &v, nil
}

func (s *Service) validateUser(in models.NewUser) error {
	login := ident.Normalize(in.Login)
	if login == "" {
		return fmt.Errorf("%w: login is required", ErrValidation)
	}
	if in.AccessLevel != models.AccessAdmin && ident.Normalize(in.SiteID) == "" {
		return fmt.Errorf("%w: operator requires a site", ErrValidation)
	}
	for _, u := range s.store.Snapshot().Users {
		if ident.EqualFold(u.Login, login) {
			return fmt.Errorf("%w: %s", ErrLoginTaken, login)
		}
	}
	return nil
}

// CreateLoad writes a pending load labelled with the plate of its truck.
func (s *Service) CreateLoad(ctx context.Context, in models.NewLoad) (*models.Load, error) {
	title := reconcile.LoadTitle(s.store.Snapshot().Trucks, in.TruckID)
	now := s.now()

	rec, err := s.create(ctx, models.KindLoad, reconcile.LoadFields(in, title, now))
	if err != nil || rec == nil {
		return nil, err
	}
	v := reconcile.Load(rec, now)
	s.store.Apply(store.AddLoad(v))
	return &v, nil
}

// UpdateLoad writes every field of l, including its owning site, and
// replaces the local copy.
func (s *Service) UpdateLoad(ctx context.Context, l models.Load) error {
	client := s.handle()
	if client == nil {
		s.logger.Warn(ctx, "update skipped: not connected", "kind", models.KindLoad)
		return nil
	}

	l = l.Clone()
	l.ID = ident.Normalize(l.ID)
	l.SiteID = ident.Normalize(l.SiteID)
	l.TruckID = ident.Normalize(l.TruckID)
	l.DriverID = ident.Normalize(l.DriverID)
	if l.ID == "" {
		return fmt.Errorf("%w: load id is required", ErrValidation)
	}

	err := client.Update(ctx, s.ref(models.KindLoad), l.ID, reconcile.LoadUpdateFields(l))
	s.recorder.ObserveWrite(OpUpdate, models.KindLoad, err)
	if err != nil {
		return &WriteError{Op: OpUpdate, Kind: models.KindLoad, Err: err}
	}
	s.store.Apply(store.UpdateLoad(l))
	return nil
}

// FinalizeLoad closes l with f and writes it.
func (s *Service) FinalizeLoad(ctx context.Context, l models.Load, f models.Finalization) (*models.Load, error) {
	if s.handle() == nil {
		s.logger.Warn(ctx, "finalize skipped: not connected", "kind", models.KindLoad)
		return nil, nil
	}
	done := l.Clone()
	f.GapNote = strings.TrimSpace(f.GapNote)
	f.DelayNote = strings.TrimSpace(f.DelayNote)
	f.Apply(&done)
	if err := s.UpdateLoad(ctx, done); err != nil {
		return nil, err
	}
	return &done, nil
}

func (s *Service) DeleteSite(ctx context.Context, id any) error {
	return s.Delete(ctx, models.KindSite, id)
}

func (s *Service) DeleteTruck(ctx context.Context, id any) error {
	return s.Delete(ctx, models.KindTruck, id)
}

func (s *Service) DeleteDriver(ctx context.Context, id any) error {
	return s.Delete(ctx, models.KindDriver, id)
}

func (s *Service) DeleteUser(ctx context.Context, id any) error {
	return s.Delete(ctx, models.KindUser, id)
}

func (s *Service) DeleteLoad(ctx context.Context, id any) error {
	return s.Delete(ctx, models.KindLoad, id)
}

// Delete removes the entity of kind with the given id remotely and locally.
// id may be of any primitive type; it is normalized before use.
func (s *Service) Delete(ctx context.Context, kind models.Kind, id any) error {
	client := s.handle()
	if client == nil {
		s.logger.Warn(ctx, "delete skipped: not connected", "kind", kind)
		return nil
	}
	key := ident.Normalize(id)
	if key == "" {
		return fmt.Errorf("%w: %s id is required", ErrValidation, kind)
	}

	err := client.Delete(ctx, s.ref(kind), key)
	s.recorder.ObserveWrite(OpDelete, kind, err)
	if err != nil {
		return &WriteError{Op: OpDelete, Kind: kind, Err: err}
	}
	s.store.Apply(store.Delete(kind, key))
	return nil
}

// create writes fields and returns them with the remote-assigned id, or nil
// when not connected.
func (s *Service) create(ctx context.Context, kind models.Kind, fields remote.Record) (remote.Record, error) {
	client := s.handle()
	if client == nil {
		s.logger.Warn(ctx, "create skipped: not connected", "kind", kind)
		return nil, nil
	}

	created, err := client.Create(ctx, s.ref(kind), fields)
	s.recorder.ObserveWrite(OpCreate, kind, err)
	if err != nil {
		return nil, &WriteError{Op: OpCreate, Kind: kind, Err: err}
	}
	return reconcile.WithID(fields, created[reconcile.FieldID]), nil
}
