package types

import (
	"fmt"
)

// Role identifies the author of a conversation message
type Role string

const (
	RoleCustomer       Role = "customer"       // The simulated customer side of the exchange
	RoleRepresentative Role = "representative" // The simulated service representative side
	RoleSystem         Role = "system"         // Out-of-band annotations (never authored by an agent)
)

// Status represents the lifecycle state of a conversation
type Status string

const (
	// StatusActive - the conversation is still being driven; the only non-terminal state
	StatusActive Status = "active"

	// StatusResolved - the customer expressed satisfaction or the turn budget ran out
	StatusResolved Status = "resolved"

	// StatusEscalated - the representative handed off to a supervisor
	StatusEscalated Status = "escalated"

	// StatusFailed - an agent invocation failed irrecoverably
	StatusFailed Status = "failed"
)

// Complexity grades how involved a persona's interaction is expected to be
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

var (
	// AllRoles contains all valid message roles
	AllRoles = []Role{
		RoleCustomer,
		RoleRepresentative,
		RoleSystem,
	}

	// AllStatuses contains all valid conversation statuses
	AllStatuses = []Status{
		StatusActive,
		StatusResolved,
		StatusEscalated,
		StatusFailed,
	}

	// AllComplexities contains all valid persona complexities
	AllComplexities = []Complexity{
		ComplexitySimple,
		ComplexityMedium,
		ComplexityComplex,
	}

	// roleMap maps string values to Role
	roleMap = map[string]Role{
		string(RoleCustomer):       RoleCustomer,
		string(RoleRepresentative): RoleRepresentative,
		string(RoleSystem):         RoleSystem,
	}

	// statusMap maps string values to Status
	statusMap = map[string]Status{
		string(StatusActive):    StatusActive,
		string(StatusResolved):  StatusResolved,
		string(StatusEscalated): StatusEscalated,
		string(StatusFailed):    StatusFailed,
	}

	// complexityMap maps string values to Complexity
	complexityMap = map[string]Complexity{
		string(ComplexitySimple):  ComplexitySimple,
		string(ComplexityMedium):  ComplexityMedium,
		string(ComplexityComplex): ComplexityComplex,
	}
)

// Error types for invalid values
var (
	ErrInvalidRole       = fmt.Errorf("invalid role")
	ErrInvalidStatus     = fmt.Errorf("invalid status")
	ErrInvalidComplexity = fmt.Errorf("invalid complexity")
)

// IsValid checks if the Role is valid
func (r Role) IsValid() bool {
	_, ok := roleMap[string(r)]
	return ok
}

// String converts the enum to string
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	if role, ok := roleMap[s]; ok {
		return role, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidRole, s)
}

// IsValid checks if the Status is valid
func (s Status) IsValid() bool {
	_, ok := statusMap[string(s)]
	return ok
}

// IsTerminal reports whether the status permits no further transitions
func (s Status) IsTerminal() bool {
	return s.IsValid() && s != StatusActive
}

// String converts the enum to string
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a string into a Status
func ParseStatus(s string) (Status, error) {
	if status, ok := statusMap[s]; ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
}

// IsValid checks if the Complexity is valid
func (c Complexity) IsValid() bool {
	_, ok := complexityMap[string(c)]
	return ok
}

// String converts the enum to string
func (c Complexity) String() string {
	return string(c)
}

// ParseComplexity parses a string into a Complexity
func ParseComplexity(s string) (Complexity, error) {
	if complexity, ok := complexityMap[s]; ok {
		return complexity, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidComplexity, s)
}

// Description returns a human-readable description of the complexity
func (c Complexity) Description() string {
	switch c {
	case ComplexitySimple:
		return "Single-issue interaction resolvable in one or two exchanges"
	case ComplexityMedium:
		return "Multi-step interaction with follow-up questions"
	case ComplexityComplex:
		return "Layered interaction likely to test the representative's knowledge limits"
	default:
		return "Unknown complexity"
	}
}
