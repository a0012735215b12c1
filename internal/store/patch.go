package store

import (
	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
)

// upsert appends item, or replaces the element with the same id.
func upsert[T any](items []T, item T, id func(T) string) []T {
	key := ident.Normalize(id(item))
	for i := range items {
		if ident.Normalize(id(items[i])) == key {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// replace swaps the element with the same id, if present.
func replace[T any](items []T, item T, id func(T) string) []T {
	key := ident.Normalize(id(item))
	for i := range items {
		if ident.Normalize(id(items[i])) == key {
			items[i] = item
			return items
		}
	}
	return items
}

func remove[T any](items []T, key any, id func(T) string) []T {
	k := ident.Normalize(key)
	out := items[:0]
	for _, it := range items {
		if ident.Normalize(id(it)) != k {
			out = append(out, it)
		}
	}
	return out
}

func siteID(s models.Site) string     { return s.ID }
func truckID(t models.Truck) string   { return t.ID }
func driverID(d models.Driver) string { return d.ID }
func userID(u models.User) string     { return u.ID }
func loadID(l models.Load) string     { return l.ID }

func AddSite(v models.Site) Patch {
	return func(s *models.Snapshot) { s.Sites = upsert(s.Sites, v, siteID) }
}

func AddTruck(v models.Truck) Patch {
	return func(s *models.Snapshot) { s.Trucks = upsert(s.Trucks, v, truckID) }
}

func AddDriver(v models.Driver) Patch {
	return func(s *models.Snapshot) { s.Drivers = upsert(s.Drivers, v, driverID) }
}

func AddUser(v models.User) Patch {
	return func(s *models.Snapshot) { s.Users = upsert(s.Users, v, userID) }
}

func AddLoad(v models.Load) Patch {
	return func(s *models.Snapshot) { s.Loads = upsert(s.Loads, v.Clone(), loadID) }
}

// UpdateLoad replaces the load with the same id. Unknown loads are ignored.
func UpdateLoad(v models.Load) Patch {
	return func(s *models.Snapshot) { s.Loads = replace(s.Loads, v.Clone(), loadID) }
}

// Delete removes the entity of kind whose normalized id equals id.
func Delete(kind models.Kind, id any) Patch {
	return func(s *models.Snapshot) {
		switch kind {
		case models.KindSite:
			s.Sites = remove(s.Sites, id, siteID)
		case models.KindTruck:
			s.Trucks = remove(s.Trucks, id, truckID)
		case models.KindDriver:
			s.Drivers = remove(s.Drivers, id, driverID)
		case models.KindUser:
			s.Users = remove(s.Users, id, userID)
		case models.KindLoad:
			s.Loads = remove(s.Loads, id, loadID)
		}
	}
}
