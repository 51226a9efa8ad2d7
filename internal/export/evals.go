package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/types"
)

// Evaluation-format projection of a generated run. Representative messages
// become "Assistant" turns, customer messages become "Customer" turns, and
// system messages are dropped.

const (
	evalScenarioName = "SimulationAgent"
	evalTask         = "Customer Support"
)

type EvalMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type EvalConversation struct {
	ID                 string        `json:"Id"`
	ScenarioName       string        `json:"scenario_name"`
	Conversation       []EvalMessage `json:"conversation"`
	GroundnessFact     string        `json:"groundness_fact"`
	Task               string        `json:"task"`
	PersonaName        string        `json:"persona_name"`
	PersonaDescription string        `json:"persona_description"`
	PersonaGoal        string        `json:"persona_goal"`
	PersonaTone        string        `json:"persona_tone"`
	PersonaComplexity  string        `json:"persona_complexity"`
}

type EvalDocument struct {
	Conversations []EvalConversation `json:"conversations"`
}

// ProjectConversation maps one conversation record into the evaluation shape
func ProjectConversation(conv *conversation.Conversation) EvalConversation {
	var msgs []EvalMessage
	for _, msg := range conv.Messages {
		switch msg.Role {
		case types.RoleRepresentative:
			msgs = append(msgs, EvalMessage{Role: "Assistant", Content: msg.Content})
		case types.RoleCustomer:
			msgs = append(msgs, EvalMessage{Role: "Customer", Content: msg.Content})
		case types.RoleSystem:
			// system prompts never leave the generator
		}
	}

	return EvalConversation{
		ID:                 conv.ID,
		ScenarioName:       evalScenarioName,
		Conversation:       msgs,
		Task:               evalTask,
		PersonaName:        conv.Persona,
		PersonaDescription: metaString(conv.Metadata, "persona_description"),
		PersonaGoal:        metaString(conv.Metadata, "persona_goal"),
		PersonaTone:        metaString(conv.Metadata, "persona_tone"),
		PersonaComplexity:  metaString(conv.Metadata, "persona_complexity"),
	}
}

// WriteEvals projects an entire run directory into a single evaluation
// document at outputFile. Returns the number of conversations projected.
func WriteEvals(runDir, outputFile string) (int, error) {
	conversations, err := ReadRun(runDir)
	if err != nil {
		return 0, err
	}
	if len(conversations) == 0 {
		return 0, fmt.Errorf("no conversation files found in %s", runDir)
	}

	doc := EvalDocument{Conversations: make([]EvalConversation, 0, len(conversations))}
	for _, conv := range conversations {
		doc.Conversations = append(doc.Conversations, ProjectConversation(conv))
	}

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %v", err)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal evaluation document: %v", err)
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write evaluation document: %v", err)
	}

	logging.LogGenerationEvent("evals_exported", map[string]interface{}{
		"input":         runDir,
		"output":        outputFile,
		"conversations": len(doc.Conversations),
	})
	return len(doc.Conversations), nil
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
