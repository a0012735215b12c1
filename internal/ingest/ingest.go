// Package ingest turns one full fetch of the remote collections into a
// snapshot.
package ingest

import (
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/reconcile"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
)

// Batch holds the raw records of every collection from a single sync cycle.
type Batch struct {
	Sites   []remote.Record
	Trucks  []remote.Record
	Drivers []remote.Record
	Users   []remote.Record
	Loads   []remote.Record
}

// Set stores records under kind.
func (b *Batch) Set(kind models.Kind, records []remote.Record) {
	switch kind {
	case models.KindSite:
		b.Sites = records
	case models.KindTruck:
		b.Trucks = records
	case models.KindDriver:
		b.Drivers = records
	case models.KindUser:
		b.Users = records
	case models.KindLoad:
		b.Loads = records
	}
}

// Ingest reconciles every record of b and re-links the session.
//
// When previous is set, the ingested user with the same login (compared case
// insensitively) becomes the new session, so remote role or site changes are
// picked up. If no such user exists, previous is returned unchanged. Ingest
// never fails; malformed records yield entities with empty keys.
func Ingest(b Batch, previous *models.User, now time.Time) (models.Snapshot, *models.User) {
	snap := models.Snapshot{
		Sites:   project(b.Sites, reconcile.Site),
		Trucks:  project(b.Trucks, reconcile.Truck),
		Drivers: project(b.Drivers, reconcile.Driver),
		Users:   project(b.Users, reconcile.User),
		Loads: project(b.Loads, func(r remote.Record) models.Load {
			return reconcile.Load(r, now)
		}),
	}
	return snap, Relink(snap.Users, previous)
}

// Relink finds the fresh record of the session user among users.
func Relink(users []models.User, previous *models.User) *models.User {
	if previous == nil {
		return nil
	}
	login := ident.Normalize(previous.Login)
	if login == "" {
		return previous
	}
	for _, u := range users {
		if ident.EqualFold(u.Login, login) {
			found := u
			return &found
		}
	}
	return previous
}

func project[T any](records []remote.Record, fn func(remote.Record) T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		out = append(out, fn(r))
	}
	return out
}
