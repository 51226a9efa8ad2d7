package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/neo/convogen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPersona() Persona {
	return Persona{
		Name:        "Frustrated Refund Seeker",
		Description: "Bought a blender that arrived broken and wants money back",
		Goal:        "Get a full refund",
		Tone:        "frustrated but trying to remain civil",
		Complexity:  types.ComplexityMedium,
	}
}

func TestPersonaValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Persona)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Persona) {}},
		{name: "missing name", mutate: func(p *Persona) { p.Name = "" }, wantErr: true},
		{name: "missing description", mutate: func(p *Persona) { p.Description = "" }, wantErr: true},
		{name: "missing goal", mutate: func(p *Persona) { p.Goal = "" }, wantErr: true},
		{name: "missing tone", mutate: func(p *Persona) { p.Tone = "" }, wantErr: true},
		{name: "bad complexity", mutate: func(p *Persona) { p.Complexity = "hard" }, wantErr: true},
		{name: "empty complexity", mutate: func(p *Persona) { p.Complexity = "" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPersona()
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSetRejectsWholeSet(t *testing.T) {
	good := validPersona()
	bad := validPersona()
	bad.Name = "Second Persona"
	bad.Goal = ""

	err := ValidateSet([]Persona{good, bad})
	assert.Error(t, err)
}

func TestValidateSetRejectsDuplicateNames(t *testing.T) {
	a := validPersona()
	b := validPersona()

	err := ValidateSet([]Persona{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicated")
}

func TestLoadSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.json")
	content := `{"personas":[
		{"name":"Polite Inquirer","description":"Wants to know order status","goal":"Find out when the order arrives","tone":"polite","complexity":"simple"},
		{"name":"Upset Complainer","description":"Received the wrong item twice","goal":"Get the right item shipped","tone":"upset","complexity":"complex"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	set, err := LoadSet(path)
	require.NoError(t, err)
	require.Len(t, set.Personas, 2)
	assert.Equal(t, "Polite Inquirer", set.Personas[0].Name)
	assert.Equal(t, types.ComplexitySimple, set.Personas[0].Complexity)
}

func TestLoadSetRejectsInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.json")
	// Second record is missing its tone; the whole set must be rejected.
	content := `{"personas":[
		{"name":"Good","description":"d","goal":"g","tone":"calm","complexity":"simple"},
		{"name":"Bad","description":"d","goal":"g","tone":"","complexity":"simple"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadSet(path)
	assert.Error(t, err)
}

func TestLoadSetRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"personas":[]}`), 0644))

	_, err := LoadSet(path)
	assert.Error(t, err)
}

func TestPromptInstruction(t *testing.T) {
	p := validPersona()
	prompt := p.PromptInstruction()
	assert.Contains(t, prompt, p.Name)
	assert.Contains(t, prompt, p.Description)
	assert.Contains(t, prompt, p.Goal)
	assert.Contains(t, prompt, p.Tone)
	assert.Contains(t, prompt, "Stay in character")
}
