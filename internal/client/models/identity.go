// Package models defines the client-side view of the authenticated principal.
package models

import (
	"slices"
	"strings"
	"time"
)

// AccountKind classifies an account.
type AccountKind string

const (
	AccountIndividual    AccountKind = "individual"
	AccountGroup         AccountKind = "group"
	AccountAdministrator AccountKind = "administrator"
)

// ParseAccountKind canonicalises s. Unknown or empty values map to
// AccountIndividual and ok reports false.
func ParseAccountKind(s string) (kind AccountKind, ok bool) {
	switch k := AccountKind(strings.ToLower(strings.TrimSpace(s))); k {
	case AccountIndividual, AccountGroup, AccountAdministrator:
		return k, true
	default:
		return AccountIndividual, false
	}
}

// Profile is the optional display data attached to an Identity.
type Profile struct {
	DisplayName string            `json:"display_name"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Location    string            `json:"location,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
}

// Identity is the authenticated principal as known to the client.
// It is a read-mostly projection: the client replaces it wholesale and
// never patches individual fields.
type Identity struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Kind      AccountKind `json:"account_kind"`
	Profile   *Profile    `json:"profile,omitempty"`
	Followers []string    `json:"followers"`
	Following []string    `json:"following"`
	CreatedAt time.Time   `json:"created_at"`
}

// Normalize returns a copy of id with canonical field values: trimmed
// identifiers, a known account kind, de-duplicated sorted relationship
// sets and a UTC creation time. The receiver is not modified.
func (id Identity) Normalize() Identity {
	out := Identity{
		ID:        strings.TrimSpace(id.ID),
		Username:  strings.TrimSpace(id.Username),
		Followers: normalizeSet(id.Followers),
		Following: normalizeSet(id.Following),
		CreatedAt: id.CreatedAt.UTC(),
	}
	out.Kind, _ = ParseAccountKind(string(id.Kind))

	if id.Profile != nil {
		p := *id.Profile
		p.DisplayName = strings.TrimSpace(p.DisplayName)
		if len(id.Profile.SocialLinks) > 0 {
			p.SocialLinks = make(map[string]string, len(id.Profile.SocialLinks))
			for k, v := range id.Profile.SocialLinks {
				p.SocialLinks[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
			}
		} else {
			p.SocialLinks = nil
		}
		out.Profile = &p
	}
	return out
}

// DisplayName falls back to the username when no profile name is set.
func (id Identity) DisplayName() string {
	if id.Profile != nil && id.Profile.DisplayName != "" {
		return id.Profile.DisplayName
	}
	return id.Username
}

// IsFollowing reports whether userID is in the following set.
func (id Identity) IsFollowing(userID string) bool {
	_, found := slices.BinarySearch(id.Following, userID)
	return found
}

func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (id Identity) Clone() Identity {
	out := id
	out.Followers = slices.Clone(id.Followers)
	out.Following = slices.Clone(id.Following)
	if id.Profile != nil {
		p := *id.Profile
		if id.Profile.SocialLinks != nil {
			p.SocialLinks = make(map[string]string, len(id.Profile.SocialLinks))
			for k, v := range id.Profile.SocialLinks {
				p.SocialLinks[k] = v
			}
		}
		out.Profile = &p
	}
	return out
}
