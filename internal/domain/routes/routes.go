package routes

// Package routes contains the route classification table and the
// allow/redirect decision logic used by the edge gate. It is pure: a
// classification must be computable from the path string alone, with no
// network access, since it runs before any page or handler code.

import "strings"

// Class is the access classification of a request path.
type Class int

const (
	// ClassPublic paths are reachable with or without a credential.
	ClassPublic Class = iota
	// ClassAuthOnly paths (login, register, forgot-password) are for
	// unauthenticated users; authenticated users are bounced to the
	// dashboard instead.
	ClassAuthOnly
	// ClassProtected is the implicit default for everything else.
	ClassProtected
)

func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassAuthOnly:
		return "auth-only"
	case ClassProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// Action is the edge decision for a request.
type Action int

const (
	ActionAllow Action = iota
	ActionRedirectLogin
	ActionRedirectDashboard
)

func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionRedirectLogin:
		return "redirect-login"
	case ActionRedirectDashboard:
		return "redirect-dashboard"
	default:
		return "unknown"
	}
}

// Table is an ordered set of path prefixes tagged public or auth-only.
// Any path matching neither list is protected.
type Table struct {
	Public   []string
	AuthOnly []string
}

// Classify returns the classification for path. The root path "/" is
// always public regardless of configuration. Prefixes that are empty or
// "/" are ignored so a misconfigured table cannot make everything match.
func (t Table) Classify(path string) Class {
	if path == "" || path == "/" {
		return ClassPublic
	}
	if matchesPrefix(path, t.AuthOnly) {
		return ClassAuthOnly
	}
	if matchesPrefix(path, t.Public) {
		return ClassPublic
	}
	return ClassProtected
}

// Decide applies the edge decision table for a path of this class given
// whether a credential is present. Presence, not validity: the edge
// layer performs no I/O.
//
//	authenticated + auth-only       -> redirect to dashboard
//	authenticated + public/protected -> allow
//	unauthenticated + protected      -> redirect to login
//	unauthenticated + otherwise      -> allow
func (c Class) Decide(authenticated bool) Action {
	switch c {
	case ClassAuthOnly:
		if authenticated {
			return ActionRedirectDashboard
		}
		return ActionAllow
	case ClassProtected:
		if !authenticated {
			return ActionRedirectLogin
		}
		return ActionAllow
	case ClassPublic:
		return ActionAllow
	default:
		return ActionAllow
	}
}

// Decide classifies path and applies the decision table. Callers that
// also need the classification should call Classify once and decide on
// the result.
func (t Table) Decide(path string, authenticated bool) Action {
	return t.Classify(path).Decide(authenticated)
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" || p == "/" {
			continue
		}
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
