package response

import (
	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
)

const (
	anxietyMessage = "Thank you for telling me this. Anxiety can make everything feel overwhelming. " +
		"Let’s slow down together. Try taking one gentle breath with me right now."
	sadnessMessage = "I’m really glad you shared this with me. Feeling low can be heavy, " +
		"and it’s okay to not have all the answers right now."
	angerMessage = "It sounds like something has been building up inside you. " +
		"You’re allowed to feel this way. Want to talk about what triggered it?"
	defaultMessage = "I’m here and listening. You don’t have to filter your thoughts here. " +
		"Say as much or as little as you want."

	followUpMessage = "How are you feeling after sharing this?"
	failureMessage  = "I wasn’t able to take that in just now, but I’m still here with you. " +
		"Would you like to try saying it again?"
)

// Table maps emotion labels to supportive replies. Lookup is total: labels
// without an entry resolve to Default.
type Table struct {
	Entries  map[emotion.Label]string
	Default  string
	FollowUp string
	Failure  string
}

// DefaultTable returns the built-in reply table.
func DefaultTable() Table {
	return Table{
		Entries: map[emotion.Label]string{
			emotion.Anxiety: anxietyMessage,
			emotion.Fear:    anxietyMessage,
			emotion.Sadness: sadnessMessage,
			emotion.Anger:   angerMessage,
		},
		Default:  defaultMessage,
		FollowUp: followUpMessage,
		Failure:  failureMessage,
	}
}

// Lookup returns the reply for label, or Default when the label is unmapped.
func (t Table) Lookup(label emotion.Label) string {
	if msg, ok := t.Entries[emotion.Normalize(string(label))]; ok && msg != "" {
		return msg
	}
	return t.Default
}

// Merge overlays non-empty fields of other on t and returns the result.
func (t Table) Merge(other Table) Table {
	merged := Table{
		Entries:  make(map[emotion.Label]string, len(t.Entries)+len(other.Entries)),
		Default:  t.Default,
		FollowUp: t.FollowUp,
		Failure:  t.Failure,
	}
	for label, msg := range t.Entries {
		merged.Entries[label] = msg
	}
	for label, msg := range other.Entries {
		label = emotion.Normalize(string(label))
		if label == "" || msg == "" {
			continue
		}
		merged.Entries[label] = msg
	}
	if other.Default != "" {
		merged.Default = other.Default
	}
	if other.FollowUp != "" {
		merged.FollowUp = other.FollowUp
	}
	if other.Failure != "" {
		merged.Failure = other.Failure
	}
	return merged
}
