// Package models defines the tracked entities and the snapshot that holds them.
package models

import (
	"slices"
	"time"
)

// Kind identifies one of the five tracked collections.
type Kind string

const (
	KindSite   Kind = "sites"
	KindTruck  Kind = "trucks"
	KindDriver Kind = "drivers"
	KindUser   Kind = "users"
	KindLoad   Kind = "loads"
)

// Kinds lists every collection in fetch order.
var Kinds = []Kind{KindSite, KindTruck, KindDriver, KindUser, KindLoad}

// AccessLevel is the role of a user.
type AccessLevel string

const (
	AccessAdmin    AccessLevel = "Admin"
	AccessOperator AccessLevel = "Operator"
)

// LoadStatus is the closed lifecycle of a load.
type LoadStatus string

const (
	LoadPending LoadStatus = "PENDING"
	LoadDone    LoadStatus = "DONE"
)

// Known load types. Remote data may carry other values; they are kept as-is.
const (
	LoadTypeFull     = "CHEIA"
	LoadTypeCombined = "COMBINADA 2"
)

// Site is an operating unit. SiteID is the key every other entity refers to.
type Site struct {
	ID     string `json:"id"`
	SiteID string `json:"site_id"`
	Name   string `json:"name"`
}

type Truck struct {
	ID     string `json:"id"`
	Plate  string `json:"plate"`
	SiteID string `json:"site_id"`
}

type Driver struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	SiteID string `json:"site_id"`
}

// User is an operator or administrator of the dashboard. Password is kept in
// memory only, for local login, and never serialized.
type User struct {
	ID          string      `json:"id"`
	FullName    string      `json:"full_name"`
	Login       string      `json:"login"`
	Password    string      `json:"-"`
	AccessLevel AccessLevel `json:"access_level"`
	SiteID      string      `json:"site_id,omitempty"`
}

// IsAdmin reports whether u has the Admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.AccessLevel == AccessAdmin
}

// Load is a single truck trip. Finalization fields are set only when Status
// is LoadDone.
type Load struct {
	ID               string     `json:"id"`
	SiteID           string     `json:"site_id"`
	TruckID          string     `json:"truck_id"`
	DriverID         string     `json:"driver_id"`
	Type             string     `json:"type"`
	CreatedAt        time.Time  `json:"created_at"`
	StartAt          time.Time  `json:"start_at"`
	ExpectedKm       float64    `json:"expected_km"`
	ExpectedReturnAt time.Time  `json:"expected_return_at"`
	Status           LoadStatus `json:"status"`

	ActualKm      *float64   `json:"actual_km,omitempty"`
	ActualArrival *time.Time `json:"actual_arrival,omitempty"`
	GapMinutes    *float64   `json:"gap_minutes,omitempty"`
	GapNote       string     `json:"gap_note,omitempty"`
	DelayMinutes  *float64   `json:"delay_minutes,omitempty"`
	DelayNote     string     `json:"delay_note,omitempty"`
}

// Finalization carries the values recorded when a load is closed.
type Finalization struct {
	ActualKm      float64
	ActualArrival time.Time
	GapMinutes    float64
	GapNote       string
	DelayMinutes  float64
	DelayNote     string
}

// Apply marks l as done and copies f into it.
func (f Finalization) Apply(l *Load) {
	km, gap, delay, arrival := f.ActualKm, f.GapMinutes, f.DelayMinutes, f.ActualArrival
	l.Status = LoadDone
	l.ActualKm = &km
	l.ActualArrival = &arrival
	l.GapMinutes = &gap
	l.GapNote = f.GapNote
	l.DelayMinutes = &delay
	l.DelayNote = f.DelayNote
}

// Snapshot is the local mirror of all five collections.
type Snapshot struct {
	Sites   []Site   `json:"sites"`
	Trucks  []Truck  `json:"trucks"`
	Drivers []Driver `json:"drivers"`
	Users   []User   `json:"users"`
	Loads   []Load   `json:"loads"`
}

// Clone returns a copy of s that shares no slices with it.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Sites:   slices.Clone(s.Sites),
		Trucks:  slices.Clone(s.Trucks),
		Drivers: slices.Clone(s.Drivers),
		Users:   slices.Clone(s.Users),
		Loads:   make([]Load, len(s.Loads)),
	}
	for i, l := range s.Loads {
		out.Loads[i] = l.Clone()
	}
	if s.Loads == nil {
		out.Loads = nil
	}
	return out
}

// Clone deep-copies the optional fields of l.
func (l Load) Clone() Load {
	if l.ActualKm != nil {
		v := *l.ActualKm
		l.ActualKm = &v
	}
	if l.ActualArrival != nil {
		v := *l.ActualArrival
		l.ActualArrival = &v
	}
	if l.GapMinutes != nil {
		v := *l.GapMinutes
		l.GapMinutes = &v
	}
	if l.DelayMinutes != nil {
		v := *l.DelayMinutes
		l.DelayMinutes = &v
	}
	return l
}

// Counts returns the number of entities per kind.
func (s Snapshot) Counts() map[Kind]int {
	return map[Kind]int{
		KindSite:   len(s.Sites),
		KindTruck:  len(s.Trucks),
		KindDriver: len(s.Drivers),
		KindUser:   len(s.Users),
		KindLoad:   len(s.Loads),
	}
}

// NewSite is the input of a create-Site operation.
type NewSite struct {
	SiteID string
	Name   string
}

type NewTruck struct {
	Plate  string
	SiteID string
}

type NewDriver struct {
	Name   string
	SiteID string
}

type NewUser struct {
	FullName    string
	Login       string
	Password    string
	AccessLevel AccessLevel
	SiteID      string
}

// NewLoad is the input of a create-Load operation. Zero times are replaced by
// the creation instant.
type NewLoad struct {
	SiteID           string
	TruckID          string
	DriverID         string
	Type             string
	ExpectedKm       float64
	StartAt          time.Time
	ExpectedReturnAt time.Time
}
