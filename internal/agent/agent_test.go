package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/knowledge"
	"github.com/neo/convogen/internal/persona"
	"github.com/neo/convogen/internal/types"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter records the prompt it was handed and returns a scripted reply
type fakeCompleter struct {
	response string
	err      error
	received []ChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	f.received = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testPersona() persona.Persona {
	return persona.Persona{
		Name:        "Polite Inquirer",
		Description: "Wants to know where the order is",
		Goal:        "Find out the delivery date",
		Tone:        "polite",
		Complexity:  types.ComplexitySimple,
	}
}

func TestCustomerOpeningMessage(t *testing.T) {
	llm := &fakeCompleter{response: "Hi, I'd like to check on my order."}
	a := NewCustomerAgent(llm, testPersona())

	msg, err := a.NextMessage(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, types.RoleCustomer, msg.Role)
	assert.Equal(t, "Hi, I'd like to check on my order.", msg.Content)
	assert.False(t, msg.Timestamp.IsZero())

	// System prompt carries the persona conditioning
	require.NotEmpty(t, llm.received)
	assert.Equal(t, openai.ChatMessageRoleSystem, llm.received[0].Role)
	assert.Contains(t, llm.received[0].Content, "Polite Inquirer")
}

func TestCustomerHistoryMapping(t *testing.T) {
	llm := &fakeCompleter{response: "Thanks, that helps."}
	a := NewCustomerAgent(llm, testPersona())

	history := []conversation.Message{
		conversation.NewMessage(types.RoleCustomer, "Where is my order?"),
		conversation.NewMessage(types.RoleRepresentative, "It ships tomorrow."),
	}

	_, err := a.NextMessage(context.Background(), history)
	require.NoError(t, err)

	require.Len(t, llm.received, 3)
	// Own prior messages come back as assistant turns
	assert.Equal(t, openai.ChatMessageRoleAssistant, llm.received[1].Role)
	assert.Equal(t, "Where is my order?", llm.received[1].Content)
	// Representative messages are the incoming user turns
	assert.Equal(t, openai.ChatMessageRoleUser, llm.received[2].Role)
	assert.Contains(t, llm.received[2].Content, "It ships tomorrow.")

	// History itself is untouched
	assert.Equal(t, "Where is my order?", history[0].Content)
}

func TestCustomerAgentError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("provider down")}
	a := NewCustomerAgent(llm, testPersona())

	_, err := a.NextMessage(context.Background(), nil)
	assert.Error(t, err)
}

func testKnowledgeStore() *knowledge.Store {
	s := knowledge.NewStore()
	s.Add(knowledge.Item{
		Category: "shipping",
		Question: "When does my order ship?",
		Answer:   "Orders ship within 2 business days.",
		Tags:     []string{"order", "delivery"},
	})
	s.Add(knowledge.Item{
		Category: "billing",
		Question: "Why was I charged twice?",
		Answer:   "Duplicate charges are reversed within 5 days.",
		Tags:     []string{"charge"},
	})
	return s
}

func TestRepresentativePromptGrounding(t *testing.T) {
	llm := &fakeCompleter{response: "Your order ships within 2 business days."}
	a := NewRepresentativeAgent(llm, testKnowledgeStore(), 15)

	history := []conversation.Message{
		conversation.NewMessage(types.RoleCustomer, "When will my order ship?"),
	}

	msg, err := a.NextMessage(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, types.RoleRepresentative, msg.Role)

	require.NotEmpty(t, llm.received)
	system := llm.received[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, system.Role)
	assert.Contains(t, system.Content, "Orders ship within 2 business days.")
	assert.Contains(t, system.Content, "Do not make up information")
	assert.Contains(t, system.Content, "I'll transfer you to a supervisor")

	// Customer turns map to user, unprefixed
	assert.Equal(t, openai.ChatMessageRoleUser, llm.received[1].Role)
	assert.Equal(t, "When will my order ship?", llm.received[1].Content)
}

func TestRepresentativeEmptyCorpus(t *testing.T) {
	llm := &fakeCompleter{response: "I'll transfer you to a supervisor for further assistance."}
	a := NewRepresentativeAgent(llm, knowledge.NewStore(), 15)

	history := []conversation.Message{
		conversation.NewMessage(types.RoleCustomer, "Can you fix my router?"),
	}

	_, err := a.NextMessage(context.Background(), history)
	require.NoError(t, err)
	assert.Contains(t, llm.received[0].Content, "No knowledge base available.")
}

func TestRepresentativeSliceCap(t *testing.T) {
	s := knowledge.NewStore()
	for i := 0; i < 30; i++ {
		s.Add(knowledge.Item{Category: "faq", Question: "billing question", Answer: "answer"})
	}
	llm := &fakeCompleter{response: "ok"}
	a := NewRepresentativeAgent(llm, s, 5)

	history := []conversation.Message{
		conversation.NewMessage(types.RoleCustomer, "billing"),
	}
	_, err := a.NextMessage(context.Background(), history)
	require.NoError(t, err)

	assert.Contains(t, llm.received[0].Content, "5. [faq]")
	assert.NotContains(t, llm.received[0].Content, "6. [faq]")
	assert.Contains(t, llm.received[0].Content, "... and 25 more items")
}
