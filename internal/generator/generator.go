package generator

import (
	"context"
	"sync"

	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/persona"
	"github.com/neo/convogen/internal/types"
	"golang.org/x/sync/semaphore"
)

// Options configures one batch generation run
type Options struct {
	MaxTurns           int
	Parallelism        int
	ConversationsTotal int
	Escalation         conversation.EscalationDetector
	Satisfaction       conversation.SatisfactionDetector
}

// Runner drives a batch of conversations across a persona set. Each persona's
// conversation is an independent unit of work; the semaphore bounds how many
// run at once since the LLM provider's rate limits are the real constraint.
type Runner struct {
	newCustomer    func(persona.Persona) conversation.CustomerSpeaker
	representative conversation.RepresentativeSpeaker
	opts           Options
	sem            *semaphore.Weighted
}

// NewRunner creates a batch runner. newCustomer builds a persona-bound
// customer speaker per conversation; the representative speaker is stateless
// and shared.
func NewRunner(newCustomer func(persona.Persona) conversation.CustomerSpeaker,
	representative conversation.RepresentativeSpeaker, opts Options) *Runner {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Runner{
		newCustomer:    newCustomer,
		representative: representative,
		opts:           opts,
		sem:            semaphore.NewWeighted(int64(opts.Parallelism)),
	}
}

// Run generates conversations for the persona set, spreading the configured
// total evenly across personas. A failed conversation never aborts the batch.
// Cancellation stops launching new conversations; in-flight ones close as
// failed, so nothing is ever left active.
func (r *Runner) Run(ctx context.Context, personas []persona.Persona) ([]*conversation.Conversation, error) {
	if len(personas) == 0 {
		return nil, nil
	}

	total := r.opts.ConversationsTotal
	if total < 1 {
		total = len(personas)
	}
	perPersona := total / len(personas)
	if perPersona < 1 {
		perPersona = 1
	}

	logging.LogGenerationEvent("batch_started", map[string]interface{}{
		"personas":    len(personas),
		"total":       total,
		"per_persona": perPersona,
		"parallelism": r.opts.Parallelism,
	})

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*conversation.Conversation
	)

	launched := 0
launch:
	for _, p := range personas {
		for i := 0; i < perPersona; i++ {
			if launched >= total {
				break launch
			}
			// Acquire blocks until a slot frees up; a cancelled context
			// stops the batch here, between personas or between slots.
			if err := r.sem.Acquire(ctx, 1); err != nil {
				logging.LogGenerationEvent("batch_cancelled", map[string]interface{}{
					"launched": launched,
				})
				break launch
			}
			launched++
			wg.Add(1)

			go func(p persona.Persona) {
				defer wg.Done()
				defer r.sem.Release(1)

				o := conversation.NewOrchestrator(
					r.newCustomer(p),
					r.representative,
					r.opts.MaxTurns,
					r.opts.Escalation,
					r.opts.Satisfaction,
				)
				conv := o.Run(ctx, p)

				mu.Lock()
				results = append(results, conv)
				mu.Unlock()
			}(p)
		}
	}

	wg.Wait()

	logging.LogGenerationEvent("batch_finished", map[string]interface{}{
		"generated": len(results),
	})
	return results, ctx.Err()
}

// Summary aggregates batch outcomes by status
type Summary struct {
	Total    int
	ByStatus map[types.Status]int
}

// Summarize counts conversations per terminal status
func Summarize(conversations []*conversation.Conversation) Summary {
	s := Summary{
		Total:    len(conversations),
		ByStatus: make(map[types.Status]int),
	}
	for _, conv := range conversations {
		s.ByStatus[conv.Status]++
	}
	return s
}
