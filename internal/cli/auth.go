package cli

import (
	"context"
	"errors"
	"fmt"
)

var errBadCredentials = errors.New("invalid login or password")

// Login connects first when needed so the user list is available, then
// checks the credentials locally. A failed connection still allows the
// fallback credential.
func (a *App) Login(ctx context.Context) error {
	if !a.svc.Connected() {
		if err := a.engine.Sync(ctx); err != nil {
			fmt.Fprintf(a.out, "Remote store unavailable (%v), only the fallback login will work\n", err)
		}
	}

	login, err := GetSimpleText(a.reader, "Login", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return a.report(err)
	}

	ok, err := a.svc.LoginLocal(ctx, login, password)
	if err != nil {
		return a.report(err)
	}
	if !ok {
		return a.report(errBadCredentials)
	}
	u := a.svc.View().Session
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", u.Login, u.AccessLevel)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.report(a.engine.Logout(ctx)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
