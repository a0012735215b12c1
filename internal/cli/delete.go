package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
)

// Delete removes one entity. Operators may only delete loads of their site.
func (a *App) Delete(ctx context.Context, kind, id string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	k, err := parseKind(kind)
	if err != nil {
		return a.report(err)
	}
	if k == models.KindLoad {
		if _, err := a.findLoad(id); err != nil {
			return a.report(err)
		}
	} else if !a.isAdmin() {
		return a.report(errAdminOnly)
	}

	if err := a.svc.Delete(ctx, k, id); err != nil {
		return a.report(err)
	}
	if !a.svc.Connected() {
		fmt.Fprintln(a.out, "Not connected: nothing deleted. Run 'sync' first.")
		return nil
	}
	fmt.Fprintf(a.out, "Deleted %s %s\n", k, ident.Normalize(id))
	return nil
}
