package conversation

import (
	"strings"
)

// EscalationDetector decides whether a representative utterance hands the
// conversation off to a supervisor. Implementations must be deterministic.
type EscalationDetector interface {
	ShouldEscalate(message string) bool
}

// SatisfactionDetector decides whether a customer utterance closes the
// conversation as resolved.
type SatisfactionDetector interface {
	IsSatisfied(message string) bool
}

// DefaultEscalationPhrases are the supervisor-transfer markers matched
// against representative utterances.
var DefaultEscalationPhrases = []string{
	"transfer you to a supervisor",
	"transfer to supervisor",
	"escalate to",
	"speak with a supervisor",
	"speak to a manager",
	"transfer you to a manager",
}

// DefaultSatisfactionPhrases are the gratitude markers matched against
// customer utterances.
var DefaultSatisfactionPhrases = []string{
	"thank you",
	"thanks",
	"perfect",
	"great",
	"appreciate",
	"that helps",
	"that works",
	"sounds good",
	"okay",
	"ok",
}

// KeywordEscalationDetector matches any configured phrase as a lowercase
// substring of the single triggering message. Known recall limitation:
// paraphrased escalations are missed, and a quoted phrase matches. Matching
// semantics are fixed; swap the detector, not the matching.
type KeywordEscalationDetector struct {
	phrases []string
	enabled bool
}

// NewKeywordEscalationDetector creates an escalation detector. A nil phrase
// list selects the defaults; disabled detectors never fire.
func NewKeywordEscalationDetector(phrases []string, enabled bool) *KeywordEscalationDetector {
	if len(phrases) == 0 {
		phrases = DefaultEscalationPhrases
	}
	return &KeywordEscalationDetector{phrases: phrases, enabled: enabled}
}

// ShouldEscalate reports whether the message contains a transfer phrase
func (d *KeywordEscalationDetector) ShouldEscalate(message string) bool {
	if !d.enabled {
		return false
	}
	lower := strings.ToLower(message)
	for _, phrase := range d.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// KeywordSatisfactionDetector matches any configured phrase as a lowercase
// substring, vetoed by a question marker: a customer who is still asking
// is not done.
type KeywordSatisfactionDetector struct {
	phrases []string
}

// NewKeywordSatisfactionDetector creates a satisfaction detector. A nil
// phrase list selects the defaults.
func NewKeywordSatisfactionDetector(phrases []string) *KeywordSatisfactionDetector {
	if len(phrases) == 0 {
		phrases = DefaultSatisfactionPhrases
	}
	return &KeywordSatisfactionDetector{phrases: phrases}
}

// IsSatisfied reports whether the message expresses satisfaction without a
// trailing question
func (d *KeywordSatisfactionDetector) IsSatisfied(message string) bool {
	if strings.Contains(message, "?") {
		return false
	}
	lower := strings.ToLower(message)
	for _, phrase := range d.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
