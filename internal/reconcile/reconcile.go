package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
)

// Remote status values. Older records use "FINALIZADA" for done loads.
const (
	RemoteStatusPending = "PENDENTE"
	RemoteStatusDone    = "CONCLUIDO"
	remoteStatusLegacy  = "FINALIZADA"
)

// Remote access level values.
const (
	RemoteAccessAdmin    = "Admin"
	RemoteAccessOperator = "Operador"
)

// DefaultLoadTitle labels a new load whose truck is not in the snapshot.
const DefaultLoadTitle = "Nova Carga"

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func Site(r remote.Record) models.Site {
	return models.Site{
		ID:     field(r, models.KindSite, AttrID),
		SiteID: field(r, models.KindSite, AttrSiteID),
		Name:   field(r, models.KindSite, AttrName),
	}
}

func Truck(r remote.Record) models.Truck {
	return models.Truck{
		ID:     field(r, models.KindTruck, AttrID),
		Plate:  field(r, models.KindTruck, AttrPlate),
		SiteID: field(r, models.KindTruck, AttrSiteID),
	}
}

func Driver(r remote.Record) models.Driver {
	return models.Driver{
		ID:     field(r, models.KindDriver, AttrID),
		Name:   field(r, models.KindDriver, AttrName),
		SiteID: field(r, models.KindDriver, AttrSiteID),
	}
}

func User(r remote.Record) models.User {
	u := models.User{
		ID:          field(r, models.KindUser, AttrID),
		FullName:    field(r, models.KindUser, AttrFullName),
		Login:       field(r, models.KindUser, AttrLogin),
		AccessLevel: AccessLevel(field(r, models.KindUser, AttrAccessLevel)),
		SiteID:      field(r, models.KindUser, AttrSiteID),
	}
	if v, ok := rawField(r, models.KindUser, AttrPassword); ok {
		if s, isStr := v.(string); isStr {
			u.Password = s
		} else {
			u.Password = ident.Normalize(v)
		}
	}
	return u
}

// Load projects a load record. now replaces missing or unparsable required
// dates. Finalization fields are dropped unless the load is done.
func Load(r remote.Record, now time.Time) models.Load {
	l := models.Load{
		ID:               field(r, models.KindLoad, AttrID),
		SiteID:           field(r, models.KindLoad, AttrSiteID),
		TruckID:          field(r, models.KindLoad, AttrTruckID),
		DriverID:         field(r, models.KindLoad, AttrDriverID),
		Type:             field(r, models.KindLoad, AttrType),
		Status:           CollapseStatus(field(r, models.KindLoad, AttrStatus)),
		CreatedAt:        timeOr(r, AttrCreatedAt, now),
		StartAt:          timeOr(r, AttrStartAt, now),
		ExpectedReturnAt: timeOr(r, AttrExpectedReturnAt, now),
	}
	if v, ok := rawField(r, models.KindLoad, AttrExpectedKm); ok {
		l.ExpectedKm, _ = ParseNumber(v)
	}
	if l.Status != models.LoadDone {
		return l
	}

	if v, ok := rawField(r, models.KindLoad, AttrActualArrival); ok {
		if t, ok := ParseTime(v); ok {
			l.ActualArrival = &t
		}
	}
	l.ActualKm = numberPtr(r, AttrActualKm)
	l.GapMinutes = numberPtr(r, AttrGapMinutes)
	l.DelayMinutes = numberPtr(r, AttrDelayMinutes)
	l.GapNote = field(r, models.KindLoad, AttrGapNote)
	l.DelayNote = field(r, models.KindLoad, AttrDelayNote)
	return l
}

// CollapseStatus maps any remote status onto the closed load lifecycle.
func CollapseStatus(v any) models.LoadStatus {
	s := strings.ToUpper(ident.Normalize(v))
	if s == RemoteStatusDone || s == remoteStatusLegacy {
		return models.LoadDone
	}
	return models.LoadPending
}

// RemoteStatus is the value written to the remote status field.
func RemoteStatus(s models.LoadStatus) string {
	if s == models.LoadDone {
		return RemoteStatusDone
	}
	return RemoteStatusPending
}

// AccessLevel maps a remote access level. Anything but Admin is an operator.
func AccessLevel(v any) models.AccessLevel {
	if strings.EqualFold(ident.Normalize(v), RemoteAccessAdmin) {
		return models.AccessAdmin
	}
	return models.AccessOperator
}

func RemoteAccessLevel(a models.AccessLevel) string {
	if a == models.AccessAdmin {
		return RemoteAccessAdmin
	}
	return RemoteAccessOperator
}

// ParseTime accepts time values and ISO-like strings.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	}

	s := ident.Normalize(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber accepts numbers and numeric strings. Decimal commas are
// tolerated.
func ParseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	s := strings.ReplaceAll(ident.Normalize(v), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func timeOr(r remote.Record, attr Attr, now time.Time) time.Time {
	if v, ok := rawField(r, models.KindLoad, attr); ok {
		if t, ok := ParseTime(v); ok {
			return t
		}
	}
	return now
}

func numberPtr(r remote.Record, attr Attr) *float64 {
	v, ok := rawField(r, models.KindLoad, attr)
	if !ok {
		return nil
	}
	f, ok := ParseNumber(v)
	if !ok {
		return nil
	}
	return &f
}
