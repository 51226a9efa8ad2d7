package conversation

import (
	"testing"
	"time"

	"github.com/neo/convogen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation(t *testing.T) {
	conv := New("Polite Inquirer", nil)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, types.StatusActive, conv.Status)
	assert.Equal(t, 0, conv.TurnCount)
	assert.Nil(t, conv.EndedAt)
	assert.Equal(t, "Polite Inquirer", conv.Persona)
	assert.NotNil(t, conv.Metadata)
}

func TestAppendCountsRepresentativeTurns(t *testing.T) {
	conv := New("p", nil)

	require.NoError(t, conv.Append(NewMessage(types.RoleCustomer, "hello")))
	assert.Equal(t, 0, conv.TurnCount)

	require.NoError(t, conv.Append(NewMessage(types.RoleRepresentative, "hi, how can I help?")))
	assert.Equal(t, 1, conv.TurnCount)

	require.NoError(t, conv.Append(NewMessage(types.RoleCustomer, "where is my order?")))
	assert.Equal(t, 1, conv.TurnCount)
}

func TestAppendRejectsEmptyContent(t *testing.T) {
	conv := New("p", nil)
	err := conv.Append(NewMessage(types.RoleCustomer, ""))
	assert.Error(t, err)
}

func TestAppendRejectsInvalidRole(t *testing.T) {
	conv := New("p", nil)
	err := conv.Append(NewMessage(types.Role("csr"), "hello"))
	assert.ErrorIs(t, err, types.ErrInvalidRole)
}

func TestAppendKeepsTimestampsMonotonic(t *testing.T) {
	conv := New("p", nil)

	first := NewMessage(types.RoleCustomer, "a")
	require.NoError(t, conv.Append(first))

	// A message stamped in the past must not go backwards
	stale := NewMessage(types.RoleRepresentative, "b")
	stale.Timestamp = first.Timestamp.Add(-time.Minute)
	require.NoError(t, conv.Append(stale))

	assert.False(t, conv.Messages[1].Timestamp.Before(conv.Messages[0].Timestamp))
}

func TestEndSetsEndedAtExactlyOnce(t *testing.T) {
	conv := New("p", nil)

	require.NoError(t, conv.End(types.StatusResolved, ReasonResolved))
	assert.Equal(t, types.StatusResolved, conv.Status)
	assert.Equal(t, ReasonResolved, conv.ResolutionReason)
	require.NotNil(t, conv.EndedAt)

	// Terminal conversations are immutable
	assert.Error(t, conv.End(types.StatusEscalated, ReasonEscalated))
	assert.Error(t, conv.Append(NewMessage(types.RoleCustomer, "late arrival")))
}

func TestEndRejectsNonTerminalStatus(t *testing.T) {
	conv := New("p", nil)
	assert.Error(t, conv.End(types.StatusActive, "still going"))
	assert.Nil(t, conv.EndedAt)
}

func TestLastMessage(t *testing.T) {
	conv := New("p", nil)
	require.NoError(t, conv.Append(NewMessage(types.RoleCustomer, "first")))
	require.NoError(t, conv.Append(NewMessage(types.RoleRepresentative, "reply")))
	require.NoError(t, conv.Append(NewMessage(types.RoleCustomer, "second")))

	msg, ok := conv.LastMessage(types.RoleCustomer)
	require.True(t, ok)
	assert.Equal(t, "second", msg.Content)

	msg, ok = conv.LastMessage(types.RoleRepresentative)
	require.True(t, ok)
	assert.Equal(t, "reply", msg.Content)

	_, ok = conv.LastMessage(types.RoleSystem)
	assert.False(t, ok)
}

func TestRecentContent(t *testing.T) {
	conv := New("p", nil)
	require.NoError(t, conv.Append(NewMessage(types.RoleCustomer, "one")))
	require.NoError(t, conv.Append(NewMessage(types.RoleRepresentative, "two")))
	require.NoError(t, conv.Append(NewMessage(types.RoleCustomer, "three")))

	assert.Equal(t, "two\nthree", conv.RecentContent(2))
	assert.Equal(t, "one\ntwo\nthree", conv.RecentContent(10))
}
