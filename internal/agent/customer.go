package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/persona"
	"github.com/neo/convogen/internal/types"
	"github.com/sashabaranov/go-openai"
)

// CustomerAgent simulates the customer side of a conversation. It is bound
// to a single persona and stays in character across the whole exchange.
type CustomerAgent struct {
	llm     Completer
	persona persona.Persona
}

// NewCustomerAgent creates a customer agent bound to the given persona
func NewCustomerAgent(llm Completer, p persona.Persona) *CustomerAgent {
	return &CustomerAgent{llm: llm, persona: p}
}

// Persona returns the persona driving this agent
func (a *CustomerAgent) Persona() persona.Persona {
	return a.persona
}

// NextMessage produces the next customer utterance from the persona and the
// prior messages. The history may be empty only on the opening call; it is
// never mutated.
func (a *CustomerAgent) NextMessage(ctx context.Context, history []conversation.Message) (conversation.Message, error) {
	messages := []ChatMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.persona.PromptInstruction()},
	}

	// From the customer's point of view its own prior utterances are the
	// assistant turns and the representative's are incoming user turns.
	for _, msg := range history {
		switch msg.Role {
		case types.RoleCustomer:
			messages = append(messages, ChatMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content})
		case types.RoleRepresentative:
			messages = append(messages, ChatMessage{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Representative: %s", msg.Content)})
		}
	}

	if len(history) == 0 {
		messages = append(messages, ChatMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: "Open the conversation with the customer service representative as this customer would.",
		})
	}

	response, err := a.llm.Complete(ctx, messages)
	if err != nil {
		return conversation.Message{}, fmt.Errorf("customer agent failed: %w", err)
	}

	logging.LogAgentEvent("response_generated", types.RoleCustomer.String(), "", map[string]interface{}{
		"persona": a.persona.Name,
		"length":  len(response),
	})

	return conversation.NewMessage(types.RoleCustomer, strings.TrimSpace(response)), nil
}
