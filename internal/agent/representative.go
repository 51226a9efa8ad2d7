package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/knowledge"
	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/types"
	"github.com/sashabaranov/go-openai"
)

// recentMessageWindow bounds how much conversation content seeds the
// knowledge lookup for a turn
const recentMessageWindow = 3

// RepresentativeAgent simulates the service representative. Its answers are
// grounded in a bounded slice of the knowledge store; when no relevant
// knowledge exists its instructions require escalation over invention.
type RepresentativeAgent struct {
	llm      Completer
	store    *knowledge.Store
	maxItems int
}

// NewRepresentativeAgent creates a representative agent over the knowledge store
func NewRepresentativeAgent(llm Completer, store *knowledge.Store, maxItems int) *RepresentativeAgent {
	if maxItems < 1 {
		maxItems = 15
	}
	return &RepresentativeAgent{llm: llm, store: store, maxItems: maxItems}
}

// NextMessage produces the next representative utterance from the message
// history and the knowledge store. The history is never mutated.
func (a *RepresentativeAgent) NextMessage(ctx context.Context, history []conversation.Message) (conversation.Message, error) {
	messages := []ChatMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.buildSystemPrompt(history)},
	}

	for _, msg := range history {
		switch msg.Role {
		case types.RoleCustomer:
			messages = append(messages, ChatMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		case types.RoleRepresentative:
			messages = append(messages, ChatMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content})
		}
	}

	response, err := a.llm.Complete(ctx, messages)
	if err != nil {
		return conversation.Message{}, fmt.Errorf("representative agent failed: %w", err)
	}

	logging.LogAgentEvent("response_generated", types.RoleRepresentative.String(), "", map[string]interface{}{
		"length": len(response),
	})

	return conversation.NewMessage(types.RoleRepresentative, strings.TrimSpace(response)), nil
}

// buildSystemPrompt combines the behavioral preamble with the knowledge
// slice most relevant to the recent conversation content.
func (a *RepresentativeAgent) buildSystemPrompt(history []conversation.Message) string {
	items := a.relevantItems(history)
	kbContext := knowledge.PromptContext(items, a.store.Len())

	logging.LogKnowledgeEvent("slice_selected", map[string]interface{}{
		"items":  len(items),
		"corpus": a.store.Len(),
	})

	return fmt.Sprintf(`You are a helpful and professional customer service representative.

Your role is to:
1. Assist customers with their inquiries using the knowledge base provided
2. Be polite, empathetic, and solution-oriented
3. If you cannot help with a request or it's outside your scope, politely end the conversation with "I'll transfer you to a supervisor for further assistance."

%s

Guidelines:
- Keep responses concise and helpful
- Use information from the knowledge base when available
- Be empathetic to customer concerns
- If the customer's issue cannot be resolved with available knowledge, escalate
- Do not make up information not in the knowledge base`, kbContext)
}

// relevantItems selects at most maxItems items by lexical overlap with the
// last few messages. Before any customer message exists, or when nothing
// overlaps, the leading corpus items stand in so the agent still sees what
// it is allowed to talk about.
func (a *RepresentativeAgent) relevantItems(history []conversation.Message) []knowledge.Item {
	var recent string
	if len(history) > 0 {
		start := len(history) - recentMessageWindow
		if start < 0 {
			start = 0
		}
		var parts []string
		for _, msg := range history[start:] {
			parts = append(parts, msg.Content)
		}
		recent = strings.Join(parts, "\n")
	}

	if recent != "" {
		if items := a.store.LookupText(recent, a.maxItems); len(items) > 0 {
			return items
		}
	}

	all := a.store.Items()
	if len(all) > a.maxItems {
		all = all[:a.maxItems]
	}
	return all
}
