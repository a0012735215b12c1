package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
)

// parseKind accepts plural and singular collection names.
func parseKind(s string) (models.Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range models.Kinds {
		if s == string(k) || s+"s" == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

func (a *App) List(ctx context.Context, kind string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	k, err := parseKind(kind)
	if err != nil {
		return a.report(err)
	}
	if k == models.KindUser && !a.isAdmin() {
		return a.report(errAdminOnly)
	}

	snap := a.svc.View().Snapshot
	site := a.siteScope()
	visible := func(siteID string) bool { return site == "" || ident.Equal(site, siteID) }

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	switch k {
	case models.KindSite:
		fmt.Fprintln(tw, "ID\tSITE\tNAME")
		for _, s := range snap.Sites {
			if visible(s.SiteID) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.SiteID, s.Name)
			}
		}
	case models.KindTruck:
		fmt.Fprintln(tw, "ID\tPLATE\tSITE")
		for _, t := range snap.Trucks {
			if visible(t.SiteID) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Plate, t.SiteID)
			}
		}
	case models.KindDriver:
		fmt.Fprintln(tw, "ID\tNAME\tSITE")
		for _, d := range snap.Drivers {
			if visible(d.SiteID) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Name, d.SiteID)
			}
		}
	case models.KindUser:
		fmt.Fprintln(tw, "ID\tLOGIN\tNAME\tACCESS\tSITE")
		for _, u := range snap.Users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Login, u.FullName, u.AccessLevel, u.SiteID)
		}
	case models.KindLoad:
		fmt.Fprintln(tw, "ID\tSITE\tTRUCK\tDRIVER\tTYPE\tSTART\tEXPECTED KM\tSTATUS")
		for _, l := range snap.Loads {
			if visible(l.SiteID) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%g\t%s\n",
					l.ID, l.SiteID, plate(snap.Trucks, l.TruckID), l.DriverID, l.Type,
					l.StartAt.Local().Format("2006-01-02 15:04"), l.ExpectedKm, l.Status)
			}
		}
	}
	return tw.Flush()
}

func plate(trucks []models.Truck, id string) string {
	for _, t := range trucks {
		if ident.Equal(t.ID, id) {
			return t.Plate
		}
	}
	return id
}
