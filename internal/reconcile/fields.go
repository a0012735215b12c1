package reconcile

import (
	"maps"
	"strings"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
)

const isoLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t the way the remote date columns expect it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func SiteFields(in models.NewSite) remote.Record {
	name := strings.TrimSpace(in.Name)
	return remote.Record{
		FieldTitle:    name,
		FieldSiteName: name,
		FieldSiteID:   ident.Normalize(in.SiteID),
	}
}

func TruckFields(in models.NewTruck) remote.Record {
	plate := strings.TrimSpace(in.Plate)
	return remote.Record{
		FieldTitle:  plate,
		FieldPlate:  plate,
		FieldSiteID: ident.Normalize(in.SiteID),
	}
}

func DriverFields(in models.NewDriver) remote.Record {
	name := strings.TrimSpace(in.Name)
	return remote.Record{
		FieldTitle:      name,
		FieldDriverName: name,
		FieldSiteID:     ident.Normalize(in.SiteID),
	}
}

func UserFields(in models.NewUser) remote.Record {
	name := strings.TrimSpace(in.FullName)
	return remote.Record{
		FieldTitle:       name,
		FieldFullName:    name,
		FieldLogin:       ident.Normalize(in.Login),
		FieldPassword:    in.Password,
		FieldAccessLevel: RemoteAccessLevel(in.AccessLevel),
		FieldSiteID:      ident.Normalize(in.SiteID),
	}
}

// LoadFields maps a new load. title is the label shown in remote list views.
// Zero start and return times are replaced by now.
func LoadFields(in models.NewLoad, title string, now time.Time) remote.Record {
	start, back := in.StartAt, in.ExpectedReturnAt
	if start.IsZero() {
		start = now
	}
	if back.IsZero() {
		back = now
	}
	return remote.Record{
		FieldTitle:            title,
		FieldSiteID:           ident.Normalize(in.SiteID),
		FieldTruckID:          ident.Normalize(in.TruckID),
		FieldDriverID:         ident.Normalize(in.DriverID),
		FieldLoadType:         strings.TrimSpace(in.Type),
		FieldExpectedKm:       in.ExpectedKm,
		FieldStatus:           RemoteStatusPending,
		FieldCreatedAt:        FormatTime(now),
		FieldStartAt:          FormatTime(start),
		FieldExpectedReturnAt: FormatTime(back),
	}
}

// LoadUpdateFields maps a full load for a PATCH. The owning site is always
// included. Unset optional values are omitted.
func LoadUpdateFields(l models.Load) remote.Record {
	r := remote.Record{
		FieldSiteID:           ident.Normalize(l.SiteID),
		FieldTruckID:          ident.Normalize(l.TruckID),
		FieldDriverID:         ident.Normalize(l.DriverID),
		FieldLoadType:         l.Type,
		FieldExpectedKm:       l.ExpectedKm,
		FieldStartAt:          FormatTime(l.StartAt),
		FieldExpectedReturnAt: FormatTime(l.ExpectedReturnAt),
		FieldStatus:           RemoteStatus(l.Status),
	}
	if l.ActualKm != nil {
		r[FieldActualKm] = *l.ActualKm
	}
	if l.ActualArrival != nil {
		r[FieldActualArrival] = FormatTime(*l.ActualArrival)
	}
	if l.GapMinutes != nil {
		r[FieldGapMinutes] = *l.GapMinutes
	}
	if l.GapNote != "" {
		r[FieldGapNote] = l.GapNote
	}
	if l.DelayMinutes != nil {
		r[FieldDelayMinutes] = *l.DelayMinutes
	}
	if l.DelayNote != "" {
		r[FieldDelayNote] = l.DelayNote
	}
	return r
}

// WithID returns a copy of fields carrying the remote-assigned id.
func WithID(fields remote.Record, id any) remote.Record {
	out := maps.Clone(fields)
	if out == nil {
		out = remote.Record{}
	}
	out[FieldID] = ident.Normalize(id)
	return out
}

// LoadTitle picks the label of a new load: the plate of its truck when the
// truck is known, DefaultLoadTitle otherwise.
func LoadTitle(trucks []models.Truck, truckID string) string {
	id := ident.Normalize(truckID)
	for _, t := range trucks {
		if t.ID == id && t.Plate != "" {
			return t.Plate
		}
	}
	return DefaultLoadTitle
}
