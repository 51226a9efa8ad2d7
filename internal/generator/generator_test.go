package generator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/persona"
	"github.com/neo/convogen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedCustomer opens the conversation and then expresses satisfaction
type cannedCustomer struct {
	persona persona.Persona
	fail    bool
}

func (c *cannedCustomer) NextMessage(ctx context.Context, history []conversation.Message) (conversation.Message, error) {
	if c.fail {
		return conversation.Message{}, errors.New("scripted customer failure")
	}
	if len(history) == 0 {
		return conversation.NewMessage(types.RoleCustomer, "Hello, I have a question."), nil
	}
	return conversation.NewMessage(types.RoleCustomer, "Thanks, that helps."), nil
}

// cannedRepresentative answers every turn and tracks peak concurrency
type cannedRepresentative struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (r *cannedRepresentative) NextMessage(ctx context.Context, history []conversation.Message) (conversation.Message, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return conversation.NewMessage(types.RoleRepresentative, "Here is the answer."), nil
}

func testPersonas(n int) []persona.Persona {
	names := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}
	var out []persona.Persona
	for i := 0; i < n; i++ {
		out = append(out, persona.Persona{
			Name:        names[i%len(names)],
			Description: "d",
			Goal:        "g",
			Tone:        "calm",
			Complexity:  types.ComplexitySimple,
		})
	}
	return out
}

func TestRunGeneratesForEveryPersona(t *testing.T) {
	rep := &cannedRepresentative{}
	r := NewRunner(func(p persona.Persona) conversation.CustomerSpeaker {
		return &cannedCustomer{persona: p}
	}, rep, Options{MaxTurns: 5, Parallelism: 2, ConversationsTotal: 3})

	results, err := r.Run(context.Background(), testPersonas(3))
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, conv := range results {
		assert.Equal(t, types.StatusResolved, conv.Status)
		assert.True(t, conv.Status.IsTerminal())
		assert.NotNil(t, conv.EndedAt)
	}
}

func TestRunContinuesPastFailedPersona(t *testing.T) {
	rep := &cannedRepresentative{}
	r := NewRunner(func(p persona.Persona) conversation.CustomerSpeaker {
		// The second persona's agent always fails
		return &cannedCustomer{persona: p, fail: p.Name == "Beta"}
	}, rep, Options{MaxTurns: 5, Parallelism: 1, ConversationsTotal: 3})

	results, err := r.Run(context.Background(), testPersonas(3))
	require.NoError(t, err)
	require.Len(t, results, 3)

	summary := Summarize(results)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ByStatus[types.StatusResolved])
	assert.Equal(t, 1, summary.ByStatus[types.StatusFailed])
}

func TestRunRespectsParallelismBound(t *testing.T) {
	rep := &cannedRepresentative{}
	r := NewRunner(func(p persona.Persona) conversation.CustomerSpeaker {
		return &cannedCustomer{persona: p}
	}, rep, Options{MaxTurns: 5, Parallelism: 2, ConversationsTotal: 10})

	_, err := r.Run(context.Background(), testPersonas(5))
	require.NoError(t, err)
	assert.LessOrEqual(t, rep.peak.Load(), int32(2))
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := &cannedRepresentative{}
	r := NewRunner(func(p persona.Persona) conversation.CustomerSpeaker {
		return &cannedCustomer{persona: p}
	}, rep, Options{MaxTurns: 5, Parallelism: 2, ConversationsTotal: 4})

	results, err := r.Run(ctx, testPersonas(4))
	assert.Error(t, err)
	// Unstarted conversations are simply not created; none are left active
	for _, conv := range results {
		assert.True(t, conv.Status.IsTerminal())
	}
}

func TestRunEmptyPersonaSet(t *testing.T) {
	rep := &cannedRepresentative{}
	r := NewRunner(func(p persona.Persona) conversation.CustomerSpeaker {
		return &cannedCustomer{persona: p}
	}, rep, Options{MaxTurns: 5, Parallelism: 2, ConversationsTotal: 4})

	results, err := r.Run(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
