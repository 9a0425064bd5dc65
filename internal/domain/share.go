package domain

import (
	"net/mail"
	"strings"
	"time"
)

// ShareGraphEntry holds one owner's sharing state: the set of grantees
// allowed to view the owner's location and the global sharing toggle.
//
// The stored document layout is
// shares/{userId} = {sharedWith: [string], isSharing: bool, lastUpdated}.
type ShareGraphEntry struct {
	Owner          string
	Grantees       []string
	SharingEnabled bool
	LastUpdated    time.Time
}

// NewShareGraphEntry returns the default entry created lazily on first
// access: no grantees, sharing enabled.
func NewShareGraphEntry(owner string) *ShareGraphEntry {
	return &ShareGraphEntry{
		Owner:          owner,
		Grantees:       []string{},
		SharingEnabled: true,
	}
}

// HasGrantee reports whether id is in the grantee set.
func (e *ShareGraphEntry) HasGrantee(id string) bool {
	for _, g := range e.Grantees {
		if g == id {
			return true
		}
	}
	return false
}

// AddGrantee adds id to the grantee set and reports whether the set
// changed. Membership only, no duplicates.
func (e *ShareGraphEntry) AddGrantee(id string) bool {
	if e.HasGrantee(id) {
		return false
	}
	e.Grantees = append(e.Grantees, id)
	return true
}

// RemoveGrantee removes id from the grantee set and reports whether the
// set changed.
func (e *ShareGraphEntry) RemoveGrantee(id string) bool {
	for i, g := range e.Grantees {
		if g == id {
			e.Grantees = append(e.Grantees[:i], e.Grantees[i+1:]...)
			return true
		}
	}
	return false
}

// maxIdentifierLen caps identifiers at the RFC 5321 address limit.
const maxIdentifierLen = 254

// ValidIdentifier reports whether id is a syntactically acceptable user
// identifier. Identifiers are opaque strings (email addresses in
// practice): they must be non-empty, free of whitespace and control
// characters, and when they contain '@' they must parse as a bare
// address.
func ValidIdentifier(id string) bool {
	if id == "" || len(id) > maxIdentifierLen {
		return false
	}
	for _, r := range id {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}
	if strings.Contains(id, "@") {
		addr, err := mail.ParseAddress(id)
		if err != nil || addr.Address != id {
			return false
		}
	}
	return true
}
