package cli

import (
	"context"
	"fmt"
	"os"
)

// getToken is an indirection used to facilitate testing.
var getToken = GetToken

// Login reads an access token issued by the auth provider and starts a
// session with it. On success the realtime connection comes up and the
// conversation snapshot is loaded.
func (a *App) Login(ctx context.Context) error {
	token, err := getToken(os.Stdout)
	if err != nil {
		return err
	}

	sess, err := a.sessions.Login(token)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", sess.UserID)
	a.loadInitial(ctx)
	a.startRealtime(ctx, sess.UserID)
	return nil
}

// Logout drops the realtime connection, wipes the local mirror and
// removes the persisted session.
func (a *App) Logout(ctx context.Context) error {
	a.stopRealtime()

	if err := a.housekeeping.Logout(ctx); err != nil {
		return err
	}
	if err := a.sessions.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
