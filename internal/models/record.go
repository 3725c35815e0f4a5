// Package models defines the domain types for Dagaz.
package models

import (
	"strings"
	"time"
)

// ReminderKey is the reserved key whose records are routed to the
// reminders archive instead of a per-activity file.
const ReminderKey = "r"

// ProjectPrefix marks a key as belonging to the project archive.
const ProjectPrefix = "P."

// AttributeKind identifies the classification of a single value token.
type AttributeKind int

const (
	KindTag AttributeKind = iota
	KindDuration
	KindTimeSpan
	KindCurrency
	KindDistance
	KindStepCount
)

// String returns the lowercase name of the kind, used in logs.
func (k AttributeKind) String() string {
	switch k {
	case KindDuration:
		return "duration"
	case KindTimeSpan:
		return "timespan"
	case KindCurrency:
		return "currency"
	case KindDistance:
		return "distance"
	case KindStepCount:
		return "steps"
	default:
		return "tag"
	}
}

// Attribute is one classified value token. Kind selects which of the
// typed fields is meaningful; Literal always holds the original token.
type Attribute struct {
	Kind    AttributeKind `json:"kind"`
	Literal string        `json:"literal"`

	Minutes int     `json:"minutes,omitempty"` // Duration, TimeSpan
	Amount  float64 `json:"amount,omitempty"`  // Currency
	Symbol  string  `json:"symbol,omitempty"`  // Currency
	Km      float64 `json:"km,omitempty"`      // Distance
	Steps   int     `json:"steps,omitempty"`   // StepCount
}

// IsMention reports whether the attribute is an @-prefixed tag that
// references another activity.
func (a Attribute) IsMention() bool {
	return a.Kind == KindTag && strings.HasPrefix(a.Literal, "@") && len(a.Literal) > 1
}

// MentionTarget returns the referenced key of a mention tag, or "".
func (a Attribute) MentionTarget() string {
	if !a.IsMention() {
		return ""
	}
	return strings.TrimRight(a.Literal[1:], ",.")
}

// Record is the immutable unit of output: one sibling value filed under
// one fully-qualified key on one date.
type Record struct {
	Date        string      `json:"date"` // YYYY-MM-DD
	Key         string      `json:"key"`  // fully qualified, e.g. piano.c
	RawValue    string      `json:"raw_value"`
	Attributes  []Attribute `json:"attributes"`
	SourceEntry string      `json:"source_entry"`
}

// Duration returns the record's duration in minutes. At most one
// duration-typed attribute exists per record.
func (r Record) Duration() (int, bool) {
	for _, a := range r.Attributes {
		if a.Kind == KindDuration || a.Kind == KindTimeSpan {
			return a.Minutes, true
		}
	}
	return 0, false
}

// Tags returns the free-text tag literals in original order.
func (r Record) Tags() []string {
	var out []string
	for _, a := range r.Attributes {
		if a.Kind == KindTag {
			out = append(out, a.Literal)
		}
	}
	return out
}

// Mentions returns the keys referenced by @-tags, in order.
func (r Record) Mentions() []string {
	var out []string
	for _, a := range r.Attributes {
		if t := a.MentionTarget(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// IsProject reports whether the record belongs to the project archive.
func (r Record) IsProject() bool {
	return strings.HasPrefix(r.Key, ProjectPrefix)
}

// IsReminder reports whether the record uses the reserved reminder key.
func (r Record) IsReminder() bool {
	return r.Key == ReminderKey
}

// ArchiveMetadata is a lightweight representation returned by list operations.
type ArchiveMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
