package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/client/token"
)

// WhoAmI prints the current identity as held locally.
func (a *App) WhoAmI(ctx context.Context) error {
	id, ok := a.session.State().Identity()
	if !ok {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	printIdentity(a, id)
	return nil
}

// Refresh re-reads the identity from the service.
func (a *App) Refresh(ctx context.Context) error {
	id, err := a.session.RefreshIdentity(ctx)
	if err != nil {
		return err
	}
	printIdentity(a, id)
	return nil
}

// Status prints session and credential details. The token's claims are
// read without verification and only for display.
func (a *App) Status(ctx context.Context) error {
	snap := a.session.State().Snapshot()
	fmt.Fprintf(a.out, "session:   %s (verifying=%t)\n", a.session.Phase(), snap.Verifying)
	if snap.Identity != nil {
		fmt.Fprintf(a.out, "user:      %s\n", snap.Identity.Username)
	}
	fmt.Fprintf(a.out, "mode:      %s\n", a.mode())

	raw, err := a.store.Get(ctx)
	if err != nil {
		return err
	}
	if raw == "" {
		fmt.Fprintln(a.out, "token:     none")
		return nil
	}

	if setAt, err := a.store.SetAt(ctx); err == nil && !setAt.IsZero() {
		fmt.Fprintf(a.out, "stored:    %s\n", setAt.Local().Format(time.RFC1123))
	}
	d, err := token.Describe(raw)
	if err != nil {
		fmt.Fprintln(a.out, "token:     present (opaque)")
		return nil
	}
	fmt.Fprintf(a.out, "token:     subject=%s issuer=%s\n", d.Subject, d.Issuer)
	if !d.ExpiresAt.IsZero() {
		state := "valid"
		if d.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(a.out, "expires:   %s (%s)\n", d.ExpiresAt.Local().Format(time.RFC1123), state)
	}
	return nil
}

// Health probes the service once and updates the mode.
func (a *App) Health(ctx context.Context) error {
	ok, err := a.session.Health(ctx)
	if err != nil {
		a.setMode(ModeOffline)
		return err
	}
	if ok {
		a.setMode(ModeOnline)
		fmt.Fprintln(a.out, "Server is healthy")
	} else {
		a.setMode(ModeOffline)
		fmt.Fprintln(a.out, "Server reports unhealthy")
	}
	return nil
}

func printIdentity(a *App, id models.Identity) {
	fmt.Fprintf(a.out, "%s (@%s)\n", id.DisplayName(), id.Username)
	fmt.Fprintf(a.out, "  id:        %s\n", id.ID)
	fmt.Fprintf(a.out, "  kind:      %s\n", id.Kind)
	if p := id.Profile; p != nil {
		if p.Bio != "" {
			fmt.Fprintf(a.out, "  bio:       %s\n", p.Bio)
		}
		if p.Location != "" {
			fmt.Fprintf(a.out, "  location:  %s\n", p.Location)
		}
		for name, link := range p.SocialLinks {
			fmt.Fprintf(a.out, "  %-10s %s\n", name+":", link)
		}
	}
	fmt.Fprintf(a.out, "  followers: %d  following: %d\n", len(id.Followers), len(id.Following))
	if !id.CreatedAt.IsZero() {
		fmt.Fprintf(a.out, "  joined:    %s\n", id.CreatedAt.Format("2006-01-02"))
	}
	if len(id.Following) > 0 {
		fmt.Fprintf(a.out, "  follows:   %s\n", strings.Join(id.Following, ", "))
	}
}
