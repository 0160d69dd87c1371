package authroles

// Package authroles maps provider identities to application roles.

import (
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/clycites/clygate/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups by simple string membership rules.
// Identities matching neither group fall back to viewer, the lowest
// known role.
type StaticRoleMapper struct {
	AdminGroup  string
	EditorGroup string
}

func (m StaticRoleMapper) Map(identity domainauth.Identity) domainauth.Role {
	for _, g := range identity.Groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range identity.Groups {
		if m.EditorGroup != "" && g == m.EditorGroup {
			return domainauth.RoleEditor
		}
	}
	return domainauth.RoleViewer
}

// ClaimsMapper derives the role from a JMESPath expression evaluated
// against the raw ID-token claims (e.g. `globalRole` or
// `realm_access.roles[0]`). When the expression yields nothing usable,
// Fallback decides the role; unrecognized role names are passed through
// unchanged so the role gate treats them as level 0.
type ClaimsMapper struct {
	Expr     string
	Fallback domainauth.Role
}

// NewClaimsMapper compiles the expression eagerly so a bad config fails
// at startup rather than on the first login.
func NewClaimsMapper(expr string, fallback domainauth.Role) (*ClaimsMapper, error) {
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, err
	}
	if fallback == "" {
		fallback = domainauth.RoleViewer
	}
	return &ClaimsMapper{Expr: expr, Fallback: fallback}, nil
}

func (m *ClaimsMapper) Map(identity domainauth.Identity) domainauth.Role {
	if identity.RawClaims == nil {
		return m.Fallback
	}
	result, err := jmespath.Search(m.Expr, identity.RawClaims)
	if err != nil {
		return m.Fallback
	}
	name, ok := result.(string)
	if !ok {
		return m.Fallback
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return m.Fallback
	}
	return domainauth.Role(name)
}
