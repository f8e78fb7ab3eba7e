package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/playerhub/internal/client/client"
	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// ErrPasswordMismatch is returned by Register when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Register prompts for the account details and creates the account. On
// success the new session becomes current.
func (a *App) Register(ctx context.Context) error {
	var d models.RegistrationDetails
	var err error

	prompts := []struct {
		text string
		dst  *string
	}{
		{"Enter username", &d.Username},
		{"Enter email", &d.Email},
		{"Enter display name", &d.DisplayName},
	}
	for _, p := range prompts {
		if *p.dst, err = getSimpleText(a.reader, p.text, a.out); err != nil {
			return err
		}
	}
	if d.Bio, err = getMultiline(a.reader, "Short bio (optional)", a.out); err != nil {
		return err
	}

	kind, err := getSimpleText(a.reader, "Account kind: individual, group or administrator [individual]", a.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(kind) == "" {
		kind = string(models.AccountIndividual)
	}
	d.AccountKind = models.AccountKind(kind)

	password, err := getPassword(a.out, "Choose password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)
	if !bytes.Equal(password, confirm) {
		return ErrPasswordMismatch
	}
	d.Password = string(password)

	id, err := a.session.Register(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", id.DisplayName())
	return nil
}

// Login prompts for email and password and signs in. A failed attempt
// leaves any current session as it was.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.session.Login(ctx, models.LoginCredentials{Email: email, Password: string(password)})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", id.DisplayName(), id.Kind)
	return nil
}

// Logout ends the session. Local state is cleared even when offline.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// describeError renders err for the terminal. Service errors show the
// service's message and any field-level details.
func describeError(err error) string {
	var se *client.ServiceError
	switch {
	case errors.As(err, &se):
		if len(se.Fields) == 0 {
			return se.Error()
		}
		keys := make([]string, 0, len(se.Fields))
		for k := range se.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(se.Message)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, se.Fields[k])
		}
		return b.String()
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, client.ErrTimeout):
		return "server did not answer in time"
	default:
		return err.Error()
	}
}
