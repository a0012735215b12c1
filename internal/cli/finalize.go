package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
)

// now is a test seam for the default arrival time.
var now = time.Now

func (a *App) findLoad(id string) (models.Load, error) {
	site := a.siteScope()
	for _, l := range a.svc.View().Loads {
		if ident.Equal(l.ID, id) && (site == "" || ident.Equal(site, l.SiteID)) {
			return l, nil
		}
	}
	return models.Load{}, fmt.Errorf("load %s not found", ident.Normalize(id))
}

// Finalize records the actual figures of a load and marks it done.
func (a *App) Finalize(ctx context.Context, id string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	l, err := a.findLoad(id)
	if err != nil {
		return a.report(err)
	}
	if l.Status == models.LoadDone {
		return a.report(errors.New("load is already finalized"))
	}

	var f models.Finalization
	if f.ActualKm, err = GetNumber(a.reader, "Actual km", l.ExpectedKm, a.out); err != nil {
		return a.report(err)
	}
	if f.ActualArrival, err = GetTime(a.reader, "Actual arrival", now().Truncate(time.Minute), a.out); err != nil {
		return a.report(err)
	}
	if f.GapMinutes, err = GetNumber(a.reader, "Gap (minutes)", 0, a.out); err != nil {
		return a.report(err)
	}
	if f.GapMinutes != 0 {
		if f.GapNote, err = GetSimpleText(a.reader, "Gap justification", a.out); err != nil {
			return a.report(err)
		}
	}
	if f.DelayMinutes, err = GetNumber(a.reader, "Delay (minutes)", 0, a.out); err != nil {
		return a.report(err)
	}
	if f.DelayMinutes != 0 {
		if f.DelayNote, err = GetSimpleText(a.reader, "Delay justification", a.out); err != nil {
			return a.report(err)
		}
	}

	done, err := a.svc.FinalizeLoad(ctx, l, f)
	if err != nil {
		return a.report(err)
	}
	if done == nil {
		fmt.Fprintln(a.out, "Not connected: load not finalized. Run 'sync' first.")
		return nil
	}
	fmt.Fprintf(a.out, "Load %s finalized\n", done.ID)
	return nil
}
