package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neo/convogen/internal/logging"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const generatorSystemPrompt = `You are an expert at creating customer personas for customer service simulation scenarios.

Given a natural language description of a simulation scenario, extract and generate a structured list of customer personas.

Each persona should include:
- name: A descriptive name for the persona (e.g., "Frustrated Refund Seeker")
- description: A detailed description of the customer's situation and behavior
- goal: What the customer wants to achieve
- tone: The expected tone/emotion of the customer (e.g., "frustrated but trying to remain civil")
- complexity: The complexity level of the interaction (simple, medium, or complex)

IMPORTANT: You must respond ONLY with valid JSON in exactly this format:
{
  "personas": [
    {
      "name": "Persona Name",
      "description": "Detailed description",
      "goal": "What they want to achieve",
      "tone": "Their emotional tone",
      "complexity": "simple|medium|complex"
    }
  ]
}

Do NOT include any other text, explanations, or markdown formatting. Only output the JSON object.`

// MalformedOutputError reports a generation response that did not conform to
// the expected structured shape. The raw model output is kept for diagnosis
// and the call is not retried.
type MalformedOutputError struct {
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("persona generation returned malformed output: %s\nraw response: %s", e.Reason, e.Raw)
}

// Generator derives persona sets from free-text scenario prompts in a single
// structured completion call.
type Generator struct {
	llm         llms.LLM
	temperature float64
	ceiling     int
}

// NewGenerator creates a persona generator backed by an OpenAI completion model
func NewGenerator(apiKey, model string, temperature float32, ceiling int) (*Generator, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create persona generator LLM: %v", err)
	}

	return &Generator{
		llm:         llm,
		temperature: float64(temperature),
		ceiling:     ceiling,
	}, nil
}

// NewGeneratorWithLLM creates a generator over an existing model, used in tests
func NewGeneratorWithLLM(llm llms.LLM, temperature float32, ceiling int) *Generator {
	return &Generator{llm: llm, temperature: float64(temperature), ceiling: ceiling}
}

// Generate derives up to count personas from the scenario prompt. Requests
// above the configured ceiling yield an empty set, never a truncated one.
// The resulting set is validated in full before being returned.
func (g *Generator) Generate(ctx context.Context, prompt string, count int) (*Set, error) {
	if count < 1 {
		return nil, fmt.Errorf("persona count must be positive, got %d", count)
	}
	if count > g.ceiling {
		logging.LogGenerationEvent("persona_request_over_ceiling", map[string]interface{}{
			"requested": count,
			"ceiling":   g.ceiling,
		})
		return &Set{}, fmt.Errorf("requested %d personas exceeds the ceiling of %d", count, g.ceiling)
	}

	fullPrompt := fmt.Sprintf("%s\n\nGenerate exactly %d personas for this scenario:\n%s",
		generatorSystemPrompt, count, prompt)

	completion, err := g.llm.Call(ctx, fullPrompt,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(4000),
	)
	if err != nil {
		return nil, fmt.Errorf("persona generation failed: %v", err)
	}

	set, err := ParseSet(completion)
	if err != nil {
		return nil, err
	}

	logging.LogGenerationEvent("personas_generated", map[string]interface{}{
		"requested": count,
		"generated": len(set.Personas),
	})
	return set, nil
}

// ParseSet parses a model completion into a validated persona set. The text
// may be raw JSON or JSON wrapped in markdown code fences.
func ParseSet(raw string) (*Set, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, &MalformedOutputError{Reason: err.Error(), Raw: raw}
	}

	var set Set
	if err := json.Unmarshal([]byte(jsonStr), &set); err != nil {
		return nil, &MalformedOutputError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}
	if set.Personas == nil {
		return nil, &MalformedOutputError{Reason: `response missing "personas" key`, Raw: raw}
	}
	if err := ValidateSet(set.Personas); err != nil {
		return nil, &MalformedOutputError{Reason: err.Error(), Raw: raw}
	}
	return &set, nil
}

// extractJSON strips optional markdown code fences around a JSON payload
func extractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(trimmed, fence)
		if start == -1 {
			continue
		}
		start += len(fence)
		end := strings.Index(trimmed[start:], "```")
		if end == -1 {
			return "", fmt.Errorf("markdown code block not properly closed")
		}
		return strings.TrimSpace(trimmed[start : start+end]), nil
	}

	return "", fmt.Errorf("response is not a JSON object")
}

// SetMetadata describes a saved persona set
type SetMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	Prompt      string    `json:"prompt"`
	NumPersonas int       `json:"num_personas"`
}

// SaveSet writes a persona set into a timestamped directory under baseDir,
// alongside a metadata file recording the originating prompt. Returns the
// path to the personas file.
func SaveSet(set *Set, baseDir, prompt string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	dir := filepath.Join(baseDir, fmt.Sprintf("personas_%s", timestamp))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create personas directory: %v", err)
	}

	personasPath := filepath.Join(dir, "personas.json")
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal personas: %v", err)
	}
	if err := os.WriteFile(personasPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write personas: %v", err)
	}

	meta := SetMetadata{
		GeneratedAt: time.Now().UTC(),
		Prompt:      prompt,
		NumPersonas: len(set.Personas),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal persona metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "_metadata.json"), metaData, 0644); err != nil {
		return "", fmt.Errorf("failed to write persona metadata: %v", err)
	}

	return personasPath, nil
}
