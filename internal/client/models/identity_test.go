package models

import (
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountKind(t *testing.T) {
	tests := []struct {
		in     string
		want   AccountKind
		wantOK bool
	}{
		{"individual", AccountIndividual, true},
		{" Group ", AccountGroup, true},
		{"ADMINISTRATOR", AccountAdministrator, true},
		{"", AccountIndividual, false},
		{"moderator", AccountIndividual, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAccountKind(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestIdentity_Normalize(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3*3600))
	in := Identity{
		ID:        " 01HZX ",
		Username:  " neo ",
		Kind:      "GROUP",
		Followers: []string{"b", "a", "b", " ", "c"},
		Following: nil,
		CreatedAt: created,
		Profile: &Profile{
			DisplayName: "  The One ",
			SocialLinks: map[string]string{" Twitch ": " https://twitch.tv/neo "},
		},
	}

	got := in.Normalize()

	want := Identity{
		ID:        "01HZX",
		Username:  "neo",
		Kind:      AccountGroup,
		Followers: []string{"a", "b", "c"},
		Following: []string{},
		CreatedAt: created.UTC(),
		Profile: &Profile{
			DisplayName: "The One",
			SocialLinks: map[string]string{"twitch": "https://twitch.tv/neo"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	// the source is left untouched
	assert.Equal(t, "  The One ", in.Profile.DisplayName)
	assert.Equal(t, []string{"b", "a", "b", " ", "c"}, in.Followers)
}

func TestIdentity_DisplayNameAndFollowing(t *testing.T) {
	id := Identity{Username: "trinity", Following: []string{"a", "m", "z"}}
	assert.Equal(t, "trinity", id.DisplayName())
	assert.True(t, id.IsFollowing("m"))
	assert.False(t, id.IsFollowing("b"))

	id.Profile = &Profile{DisplayName: "Trin"}
	assert.Equal(t, "Trin", id.DisplayName())
}

func TestLoginCredentials_Validate(t *testing.T) {
	require.NoError(t, LoginCredentials{Email: "a@b.io", Password: "x"}.Validate())

	err := LoginCredentials{Email: "nope"}.Validate()
	require.Error(t, err)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "password")
}

func TestLoginCredentials_Normalize(t *testing.T) {
	c := LoginCredentials{Email: "  Neo@Matrix.IO ", Password: " secret "}.Normalize()
	assert.Equal(t, "neo@matrix.io", c.Email)
	assert.Equal(t, " secret ", c.Password)
}

func TestRegistrationDetails_Validate(t *testing.T) {
	ok := RegistrationDetails{
		Username:    "neo",
		Email:       "neo@matrix.io",
		Password:    "redpill123",
		AccountKind: AccountIndividual,
		DisplayName: "Neo",
	}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Username = "n!"
	bad.Password = "short"
	bad.AccountKind = "moderator"

	var verrs validation.Errors
	require.True(t, errors.As(bad.Validate(), &verrs))
	assert.Contains(t, verrs, "username")
	assert.Contains(t, verrs, "password")
	assert.Contains(t, verrs, "account_kind")
	assert.NotContains(t, verrs, "email")
}

func TestRegistrationDetails_Normalize(t *testing.T) {
	d := RegistrationDetails{
		Username:    " neo ",
		Email:       " NEO@Matrix.io",
		AccountKind: " Group",
		DisplayName: " Neo ",
	}.Normalize()

	assert.Equal(t, "neo", d.Username)
	assert.Equal(t, "neo@matrix.io", d.Email)
	assert.Equal(t, AccountGroup, d.AccountKind)
	assert.Equal(t, "Neo", d.DisplayName)
}

func TestIdentity_CloneIsDeep(t *testing.T) {
	orig := Identity{
		ID:        "1",
		Followers: []string{"a"},
		Profile:   &Profile{DisplayName: "x", SocialLinks: map[string]string{"gh": "u"}},
	}
	c := orig.Clone()
	c.Followers[0] = "changed"
	c.Profile.DisplayName = "y"
	c.Profile.SocialLinks["gh"] = "v"

	assert.Equal(t, "a", orig.Followers[0])
	assert.Equal(t, "x", orig.Profile.DisplayName)
	assert.Equal(t, "u", orig.Profile.SocialLinks["gh"])
}
