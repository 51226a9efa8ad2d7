package persona

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/neo/convogen/internal/types"
)

// Persona is a structured description of a simulated customer. Immutable
// once loaded.
type Persona struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Goal        string           `json:"goal"`
	Tone        string           `json:"tone"`
	Complexity  types.Complexity `json:"complexity"`
}

// Set is an ordered list of validated personas
type Set struct {
	Personas []Persona `json:"personas"`
}

// Validate checks the persona invariants: all five fields non-empty and a
// recognized complexity value.
func (p Persona) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("persona name must not be empty")
	}
	if p.Description == "" {
		return fmt.Errorf("persona %q: description must not be empty", p.Name)
	}
	if p.Goal == "" {
		return fmt.Errorf("persona %q: goal must not be empty", p.Name)
	}
	if p.Tone == "" {
		return fmt.Errorf("persona %q: tone must not be empty", p.Name)
	}
	if !p.Complexity.IsValid() {
		return fmt.Errorf("persona %q: %w: %q", p.Name, types.ErrInvalidComplexity, p.Complexity)
	}
	return nil
}

// PromptInstruction renders the role-conditioning instruction for the
// customer agent.
func (p Persona) PromptInstruction() string {
	return fmt.Sprintf(`You are simulating a customer with the following characteristics:

Persona: %s
Situation: %s
Goal: %s
Tone: %s

You are interacting with a customer service representative. Stay in character and
communicate naturally as this customer would. Be realistic - ask follow-up questions,
express emotions appropriately, and react to the representative's responses.`,
		p.Name, p.Description, p.Goal, p.Tone)
}

// ValidateSet validates every persona and rejects the whole set on the first
// invalid record. Names must be unique within the set.
func ValidateSet(personas []Persona) error {
	seen := make(map[string]bool, len(personas))
	for i, p := range personas {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("persona %d invalid: %w", i, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("persona name %q duplicated within set", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// LoadSet loads a pre-authored persona set from a JSON file and validates it.
// Any invalid record rejects the entire set.
func LoadSet(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file %s: %v", path, err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse persona file %s: %v", path, err)
	}
	if len(set.Personas) == 0 {
		return nil, fmt.Errorf("persona file %s contains no personas", path)
	}
	if err := ValidateSet(set.Personas); err != nil {
		return nil, err
	}
	return &set, nil
}
