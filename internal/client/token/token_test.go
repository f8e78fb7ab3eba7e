package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWellFormed(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"a.b.c", true},
		{"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.sig", true},
		{"abc", false},
		{"", false},
		{"a..c", false},
		{".b.c", false},
		{"a.b.", false},
		{"a.b", false},
		{"a.b.c.d", false},
		{"...", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWellFormed(tt.raw))
			assert.Equal(t, tt.want, Structural.IsWellFormed(tt.raw))
		})
	}
}

func TestValidatorFunc_NilRejectsEverything(t *testing.T) {
	var f ValidatorFunc
	assert.False(t, f.IsWellFormed("a.b.c"))
}

func TestDescribe_DecodesUnverifiedClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	iat := time.Now().Add(-time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "01HZXUSER",
		Issuer:    "identity.test",
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(iat),
	}).SignedString([]byte("any-key-works-here"))
	require.NoError(t, err)

	d, err := Describe(signed)
	require.NoError(t, err)
	assert.Equal(t, "01HZXUSER", d.Subject)
	assert.Equal(t, "identity.test", d.Issuer)
	assert.True(t, exp.Equal(d.ExpiresAt))
	assert.True(t, iat.Equal(d.IssuedAt))
	assert.False(t, d.Expired(time.Now()))
	assert.True(t, d.Expired(exp.Add(time.Second)))
}

func TestDescribe_RejectsOpaqueTokens(t *testing.T) {
	_, err := Describe("a.b.c")
	require.ErrorIs(t, err, ErrUndecodable)

	_, err = Describe("abc")
	require.ErrorIs(t, err, ErrUndecodable)
}

func TestDescription_NoExpiryNeverExpired(t *testing.T) {
	assert.False(t, Description{}.Expired(time.Now()))
}
