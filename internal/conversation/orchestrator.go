package conversation

import (
	"context"
	"fmt"

	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/persona"
	"github.com/neo/convogen/internal/types"
)

// Resolution reasons recorded at termination
const (
	ReasonEscalated = "Escalated to supervisor"
	ReasonResolved  = "Issue resolved"
	ReasonMaxTurns  = "Max turns reached"
)

// CustomerSpeaker produces the next customer utterance from the prior messages
type CustomerSpeaker interface {
	NextMessage(ctx context.Context, history []Message) (Message, error)
}

// RepresentativeSpeaker produces the next representative utterance from the
// prior messages
type RepresentativeSpeaker interface {
	NextMessage(ctx context.Context, history []Message) (Message, error)
}

// Orchestrator drives one conversation from creation to a terminal status,
// alternating the two role agents and enforcing the termination policy.
type Orchestrator struct {
	customer       CustomerSpeaker
	representative RepresentativeSpeaker
	escalation     EscalationDetector
	satisfaction   SatisfactionDetector
	maxTurns       int
}

// NewOrchestrator creates an orchestrator over the two role agents.
// The detectors are pluggable; nil selects the keyword defaults.
func NewOrchestrator(customer CustomerSpeaker, representative RepresentativeSpeaker,
	maxTurns int, escalation EscalationDetector, satisfaction SatisfactionDetector) *Orchestrator {
	if escalation == nil {
		escalation = NewKeywordEscalationDetector(nil, true)
	}
	if satisfaction == nil {
		satisfaction = NewKeywordSatisfactionDetector(nil)
	}
	return &Orchestrator{
		customer:       customer,
		representative: representative,
		escalation:     escalation,
		satisfaction:   satisfaction,
		maxTurns:       maxTurns,
	}
}

// Run drives a complete conversation for one persona. The returned
// conversation always carries a terminal status: agent failures and
// cancellation close it as failed rather than leaving it active.
func (o *Orchestrator) Run(ctx context.Context, p persona.Persona) *Conversation {
	conv := New(p.Name, map[string]interface{}{
		"persona_description": p.Description,
		"persona_goal":        p.Goal,
		"persona_tone":        p.Tone,
		"persona_complexity":  p.Complexity.String(),
	})

	logging.LogConversationEvent("conversation_started", conv.ID, map[string]interface{}{
		"persona":   p.Name,
		"max_turns": o.maxTurns,
	})

	// The customer opens. The opening message never triggers termination.
	opening, err := o.customer.NextMessage(ctx, conv.Messages)
	if err != nil {
		o.fail(conv, err)
		return conv
	}
	if err := conv.Append(opening); err != nil {
		o.fail(conv, err)
		return conv
	}

	for conv.Status == types.StatusActive {
		if err := ctx.Err(); err != nil {
			o.fail(conv, err)
			break
		}

		// Representative replies; this completes a turn.
		repMsg, err := o.representative.NextMessage(ctx, conv.Messages)
		if err != nil {
			o.fail(conv, err)
			break
		}
		if err := conv.Append(repMsg); err != nil {
			o.fail(conv, err)
			break
		}

		// Escalation outranks anything the customer says afterwards.
		if o.escalation.ShouldEscalate(repMsg.Content) {
			o.end(conv, types.StatusEscalated, ReasonEscalated)
			break
		}

		custMsg, err := o.customer.NextMessage(ctx, conv.Messages)
		if err != nil {
			o.fail(conv, err)
			break
		}
		if err := conv.Append(custMsg); err != nil {
			o.fail(conv, err)
			break
		}

		if o.satisfaction.IsSatisfied(custMsg.Content) {
			o.end(conv, types.StatusResolved, ReasonResolved)
			break
		}

		if conv.TurnCount >= o.maxTurns {
			o.end(conv, types.StatusResolved, ReasonMaxTurns)
			break
		}
	}

	return conv
}

// end transitions the conversation to a terminal policy outcome
func (o *Orchestrator) end(conv *Conversation, status types.Status, reason string) {
	if err := conv.End(status, reason); err != nil {
		logging.Error("Failed to end conversation", map[string]interface{}{
			"conversation_id": conv.ID,
			"error":           err,
		})
		return
	}
	logging.LogConversationEvent("conversation_ended", conv.ID, map[string]interface{}{
		"status":     status.String(),
		"reason":     reason,
		"turn_count": conv.TurnCount,
		"messages":   len(conv.Messages),
	})
}

// fail closes the conversation after an irrecoverable agent error. The
// failure is fatal to this conversation only; the batch carries on.
func (o *Orchestrator) fail(conv *Conversation, cause error) {
	if conv.Status != types.StatusActive {
		return
	}
	o.end(conv, types.StatusFailed, fmt.Sprintf("Error: %v", cause))
}
