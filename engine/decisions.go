package engine

import (
	"sort"
	"sync"
)

// DecisionKind classifies one entry in the run's audit log.
type DecisionKind string

const (
	DecisionMalformedInput    DecisionKind = "malformed_input"
	DecisionFamilyGrouped     DecisionKind = "family_grouped"
	DecisionFallbackCandidate DecisionKind = "fallback_candidate"
	DecisionNearMiss          DecisionKind = "near_miss"
	DecisionCanonicalSelected DecisionKind = "canonical_selected"
	DecisionHandleMerged      DecisionKind = "handle_merged"
	DecisionVariantDropped    DecisionKind = "variant_dropped"
	DecisionSizeAmbiguous     DecisionKind = "size_ambiguous"
	DecisionDefaultSize       DecisionKind = "default_size"
	DecisionAttributeResolved DecisionKind = "attribute_resolved"
	DecisionAttributeMissing  DecisionKind = "attribute_unresolved"
)

// Decision is one audit entry. Every non-obvious choice the engine makes on
// a record is recorded with enough context to reproduce it.
type Decision struct {
	Seq       int          `json:"seq"`
	Kind      DecisionKind `json:"kind"`
	Stage     string       `json:"stage"`
	SourceIDs []string     `json:"sourceIds"`
	Score     float64      `json:"score,omitempty"`
	Reason    string       `json:"reason"`
}

// DecisionLog is the append-only audit log of a single run. Appends are safe
// under concurrent use; entries for the same sourceId keep their causal
// order because the sequence number is assigned under the same lock as the
// append.
type DecisionLog struct {
	mu      sync.Mutex
	entries []Decision
}

// NewDecisionLog returns an empty log.
func NewDecisionLog() *DecisionLog {
	return &DecisionLog{}
}

// Append records a decision and returns its sequence number.
func (l *DecisionLog) Append(kind DecisionKind, stage string, sourceIDs []string, score float64, reason string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	seq := len(l.entries)
	l.entries = append(l.entries, Decision{
		Seq:       seq,
		Kind:      kind,
		Stage:     stage,
		SourceIDs: sourceIDs,
		Score:     score,
		Reason:    reason,
	})
	return seq
}

// Entries returns a copy of the log in append order.
func (l *DecisionLog) Entries() []Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Decision, len(l.entries))
	copy(out, l.entries)
	return out
}

// ByKind returns the entries of one kind, in append order.
func (l *DecisionLog) ByKind(kind DecisionKind) []Decision {
	var out []Decision
	for _, d := range l.Entries() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// ForSource returns every entry mentioning the given sourceId, in causal
// (append) order.
func (l *DecisionLog) ForSource(sourceID string) []Decision {
	var out []Decision
	for _, d := range l.Entries() {
		for _, id := range d.SourceIDs {
			if id == sourceID {
				out = append(out, d)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Len reports the number of entries appended so far.
func (l *DecisionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
