package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
)

func (a *App) AddSite(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	siteID, err := GetSimpleText(a.reader, "Site code", a.out)
	if err != nil {
		return a.report(err)
	}
	name, err := GetSimpleText(a.reader, "Site name", a.out)
	if err != nil {
		return a.report(err)
	}
	s, err := a.svc.CreateSite(ctx, models.NewSite{SiteID: siteID, Name: name})
	if err != nil {
		return a.report(err)
	}
	return a.created(s != nil, models.KindSite, func() string { return s.ID })
}

func (a *App) AddTruck(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	plate, err := GetSimpleText(a.reader, "Plate", a.out)
	if err != nil {
		return a.report(err)
	}
	siteID, err := GetSimpleText(a.reader, "Site code", a.out)
	if err != nil {
		return a.report(err)
	}
	t, err := a.svc.CreateTruck(ctx, models.NewTruck{Plate: strings.ToUpper(plate), SiteID: siteID})
	if err != nil {
		return a.report(err)
	}
	return a.created(t != nil, models.KindTruck, func() string { return t.ID })
}

func (a *App) AddDriver(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Driver name", a.out)
	if err != nil {
		return a.report(err)
	}
	siteID, err := GetSimpleText(a.reader, "Site code", a.out)
	if err != nil {
		return a.report(err)
	}
	d, err := a.svc.CreateDriver(ctx, models.NewDriver{Name: name, SiteID: siteID})
	if err != nil {
		return a.report(err)
	}
	return a.created(d != nil, models.KindDriver, func() string { return d.ID })
}

func (a *App) AddUser(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	var in models.NewUser
	var err error
	if in.FullName, err = GetSimpleText(a.reader, "Full name", a.out); err != nil {
		return a.report(err)
	}
	if in.Login, err = GetSimpleText(a.reader, "Login", a.out); err != nil {
		return a.report(err)
	}
	if in.Password, err = GetPassword(a.reader, a.out); err != nil {
		return a.report(err)
	}
	level, err := GetSimpleText(a.reader, "Access level (admin/operator) [operator]", a.out)
	if err != nil {
		return a.report(err)
	}
	if strings.EqualFold(level, "admin") {
		in.AccessLevel = models.AccessAdmin
	} else {
		in.AccessLevel = models.AccessOperator
		if in.SiteID, err = GetSimpleText(a.reader, "Site code", a.out); err != nil {
			return a.report(err)
		}
	}

	u, err := a.svc.CreateUser(ctx, in)
	if err != nil {
		return a.report(err)
	}
	return a.created(u != nil, models.KindUser, func() string { return u.ID })
}

// AddLoad registers a pending load. Operators always create loads for their
// own site.
func (a *App) AddLoad(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	var in models.NewLoad
	var err error

	in.SiteID = a.siteScope()
	if in.SiteID == "" {
		if in.SiteID, err = GetSimpleText(a.reader, "Site code", a.out); err != nil {
			return a.report(err)
		}
	}
	if in.TruckID, err = a.pickTruck(in.SiteID); err != nil {
		return a.report(err)
	}
	if in.DriverID, err = GetSimpleText(a.reader, "Driver id", a.out); err != nil {
		return a.report(err)
	}
	if in.Type, err = GetSimpleText(a.reader, "Load type", a.out); err != nil {
		return a.report(err)
	}
	if in.ExpectedKm, err = GetNumber(a.reader, "Expected km", 0, a.out); err != nil {
		return a.report(err)
	}
	if in.StartAt, err = GetTime(a.reader, "Start (YYYY-MM-DD HH:MM, empty for now)", in.StartAt, a.out); err != nil {
		return a.report(err)
	}
	if in.ExpectedReturnAt, err = GetTime(a.reader, "Expected return (empty for now)", in.ExpectedReturnAt, a.out); err != nil {
		return a.report(err)
	}

	l, err := a.svc.CreateLoad(ctx, in)
	if err != nil {
		return a.report(err)
	}
	return a.created(l != nil, models.KindLoad, func() string { return l.ID })
}

// pickTruck accepts a truck id or plate and returns the truck id.
func (a *App) pickTruck(siteID string) (string, error) {
	s, err := GetSimpleText(a.reader, "Truck id or plate", a.out)
	if err != nil {
		return "", err
	}
	for _, t := range a.svc.View().Trucks {
		if siteID != "" && !ident.Equal(t.SiteID, siteID) {
			continue
		}
		if ident.Equal(t.ID, s) || strings.EqualFold(t.Plate, s) {
			return t.ID, nil
		}
	}
	return s, nil
}

func (a *App) created(ok bool, kind models.Kind, id func() string) error {
	if !ok {
		fmt.Fprintf(a.out, "Not connected: %s not created. Run 'sync' first.\n", kind)
		return nil
	}
	fmt.Fprintf(a.out, "Created %s %s\n", kind, id())
	return nil
}
