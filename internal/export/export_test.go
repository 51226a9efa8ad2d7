package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConversation(t *testing.T, status types.Status, reason string) *conversation.Conversation {
	t.Helper()
	conv := conversation.New("Frugal Fred", map[string]interface{}{
		"persona_description": "Budget-conscious shopper",
		"persona_goal":        "price match an order",
		"persona_tone":        "polite",
		"persona_complexity":  "simple",
	})
	require.NoError(t, conv.Append(conversation.NewMessage(types.RoleCustomer, "Can you match a competitor price?")))
	require.NoError(t, conv.Append(conversation.NewMessage(types.RoleRepresentative, "Yes, we match listed prices from major retailers.")))
	require.NoError(t, conv.Append(conversation.NewMessage(types.RoleCustomer, "Perfect, thank you.")))
	require.NoError(t, conv.End(status, reason))
	return conv
}

func TestWriteRunAndReadRun(t *testing.T) {
	base := t.TempDir()
	first := sampleConversation(t, types.StatusResolved, "Issue resolved")
	second := sampleConversation(t, types.StatusEscalated, "Escalated to supervisor")

	dir, err := WriteRun([]*conversation.Conversation{first, second}, base, RunMetadata{
		Personas: []string{"Frugal Fred"},
		MaxTurns: 20,
	})
	require.NoError(t, err)

	// one file per conversation plus the metadata file
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	_, err = os.Stat(filepath.Join(dir, first.ID+".json"))
	assert.NoError(t, err)

	metaData, err := os.ReadFile(filepath.Join(dir, "_metadata.json"))
	require.NoError(t, err)
	var meta RunMetadata
	require.NoError(t, json.Unmarshal(metaData, &meta))
	assert.Equal(t, 2, meta.NumConversations)
	assert.Equal(t, 1, meta.StatusCounts["resolved"])
	assert.Equal(t, 1, meta.StatusCounts["escalated"])
	assert.Equal(t, []string{"Frugal Fred"}, meta.Personas)

	loaded, err := ReadRun(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for _, conv := range loaded {
		assert.True(t, conv.Status.IsTerminal())
		assert.Len(t, conv.Messages, 3)
	}
}

func TestWriteRunRejectsActiveConversation(t *testing.T) {
	conv := conversation.New("Frugal Fred", nil)
	require.NoError(t, conv.Append(conversation.NewMessage(types.RoleCustomer, "Hello")))

	_, err := WriteRun([]*conversation.Conversation{conv}, t.TempDir(), RunMetadata{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to export")
}

func TestProjectConversation(t *testing.T) {
	conv := sampleConversation(t, types.StatusResolved, "Issue resolved")
	// system messages must not survive projection
	conv.Messages = append([]conversation.Message{{
		Role:    types.RoleSystem,
		Content: "internal note",
	}}, conv.Messages...)

	proj := ProjectConversation(conv)
	assert.Equal(t, conv.ID, proj.ID)
	assert.Equal(t, "SimulationAgent", proj.ScenarioName)
	assert.Equal(t, "Customer Support", proj.Task)
	assert.Equal(t, "Frugal Fred", proj.PersonaName)
	assert.Equal(t, "Budget-conscious shopper", proj.PersonaDescription)
	assert.Equal(t, "price match an order", proj.PersonaGoal)
	assert.Equal(t, "polite", proj.PersonaTone)
	assert.Equal(t, "simple", proj.PersonaComplexity)

	require.Len(t, proj.Conversation, 3)
	assert.Equal(t, "Customer", proj.Conversation[0].Role)
	assert.Equal(t, "Assistant", proj.Conversation[1].Role)
	assert.Equal(t, "Yes, we match listed prices from major retailers.", proj.Conversation[1].Content)
	for _, msg := range proj.Conversation {
		assert.NotEqual(t, "internal note", msg.Content)
	}
}

func TestWriteEvals(t *testing.T) {
	base := t.TempDir()
	conv := sampleConversation(t, types.StatusResolved, "Issue resolved")
	dir, err := WriteRun([]*conversation.Conversation{conv}, base, RunMetadata{})
	require.NoError(t, err)

	outFile := filepath.Join(t.TempDir(), "evals", "run.json")
	n, err := WriteEvals(dir, outFile)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var doc EvalDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Conversations, 1)
	assert.Equal(t, conv.ID, doc.Conversations[0].ID)
	assert.Equal(t, "SimulationAgent", doc.Conversations[0].ScenarioName)
}

func TestWriteEvalsEmptyDirectory(t *testing.T) {
	_, err := WriteEvals(t.TempDir(), filepath.Join(t.TempDir(), "out.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no conversation files")
}
