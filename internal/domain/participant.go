// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxNameLen = 64
	MaxRoleLen = 64
)

var (
	ErrRoleEmpty   = errors.New("role empty")
	ErrRoleTooLong = errors.New("role too long")
	ErrNameTooLong = errors.New("name too long")
)

// ParticipantID is the transport-assigned connection identifier.
// It is unique per connection and never reused while the connection lives.
type ParticipantID string

// Position is a point on the jam radar.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Participant is one connected client's contribution to the session:
// an instrument (or stem) role, a display name and a radar position.
type Participant struct {
	ID       ParticipantID
	Role     string
	Name     string
	Position Position
}

// ValidateRole checks a role string at the protocol boundary. The role is
// otherwise opaque: unknown instruments are stored as-is and the presentation
// layer decides how to render them.
func ValidateRole(role string) error {
	if len(role) == 0 {
		return ErrRoleEmpty
	}
	if len(role) > MaxRoleLen {
		return ErrRoleTooLong
	}
	return nil
}

// ValidateName checks a display name. Empty is fine, the name is optional.
func ValidateName(name string) error {
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}
