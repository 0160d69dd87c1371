package oidc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Validation(t *testing.T) {
	cases := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"missing client id", ProviderConfig{ClientSecret: "s", RedirectURL: "r", DiscoveryURL: "d"}},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURL: "r", DiscoveryURL: "d"}},
		{"missing redirect url", ProviderConfig{ClientID: "c", ClientSecret: "s", DiscoveryURL: "d"}},
		{"missing discovery url", ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "r"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProvider(tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestMapIDTokenClaims(t *testing.T) {
	f := mapIDTokenClaims(idTokenClaims{
		Sub:           "u-42",
		GivenName:     "Ada",
		FamilyName:    "Okello",
		Email:         "ada@clycites.com",
		EmailVerified: true,
		Groups:        []string{"editors"},
	})
	assert.Equal(t, "u-42", f.userID)
	assert.Equal(t, "ada@clycites.com", f.email)
	assert.True(t, f.emailVerified)
	assert.Equal(t, "Ada", f.givenName)
	assert.Equal(t, "Okello", f.familyName)
	assert.Equal(t, []string{"editors"}, f.groups)
}

func TestFillFromUserInfoClaims_OnlyFillsMissing(t *testing.T) {
	f := idFields{userID: "keep-me", groups: []string{"admins"}}
	fillFromUserInfoClaims(&f, UserInfo{
		Subject:       "other",
		Email:         "late@clycites.com",
		EmailVerified: true,
		GivenName:     "Late",
		Groups:        []string{"viewers"},
	})

	assert.Equal(t, "keep-me", f.userID)
	assert.Equal(t, "late@clycites.com", f.email)
	assert.True(t, f.emailVerified)
	assert.Equal(t, "Late", f.givenName)
	// Existing groups are not overwritten.
	assert.Equal(t, []string{"admins"}, f.groups)
	// Raw claims are synthesized from the userinfo payload when absent.
	require.NotNil(t, f.raw)
	assert.Equal(t, "other", f.raw["sub"])
}

func TestGenerateRandomString(t *testing.T) {
	s, err := generateRandomString(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)

	s2, err := generateRandomString(32)
	require.NoError(t, err)
	assert.NotEqual(t, s, s2)

	empty, err := generateRandomString(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetIDTokenFromToken_NilToken(t *testing.T) {
	_, err := getIDTokenFromToken(nil)
	assert.Error(t, err)
}
