package memory

import "strings"

// FactKind classifies a known-facts-registry entry.
type FactKind string

const (
	FactKindGoal           FactKind = "goal"
	FactKindPlan           FactKind = "plan"
	FactKindActiveContract FactKind = "activeContract"
	FactKindConstraint     FactKind = "constraint"
	FactKindOpenQuestion   FactKind = "openQuestion"
)

var factKinds = []FactKind{
	FactKindGoal,
	FactKindPlan,
	FactKindActiveContract,
	FactKindConstraint,
	FactKindOpenQuestion,
}

// ParseFactKind resolves a kind name case-insensitively.
func ParseFactKind(s string) (FactKind, bool) {
	s = strings.TrimSpace(s)
	for _, k := range factKinds {
		if IgnoreCase.Equal(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// SingleCardinality reports whether only one active entry of this kind may exist per branch.
func (k FactKind) SingleCardinality() bool {
	return k == FactKindGoal || k == FactKindPlan
}

// Fact is one entry of the known facts registry (KFR).
type Fact struct {
	KfrID              string   `json:"kfrId"`
	Kind               FactKind `json:"kind,omitempty"`
	Value              string   `json:"value,omitempty"`
	RequiresResolution bool     `json:"requiresResolution"`
	IsActive           bool     `json:"isActive"`
	Tags               []string `json:"tags"`
	Category           string   `json:"category,omitempty"`
	CreatedByUserID    string   `json:"createdByUserId,omitempty"`
	CreationDate       string   `json:"creationDate,omitempty"`
	LastUpdatedDate    string   `json:"lastUpdatedDate"`
}

// NewFact returns an active entry stamped with the current time.
func NewFact(kfrID string, kind FactKind, value string) *Fact {
	now := timestamp()
	return &Fact{
		KfrID:           kfrID,
		Kind:            kind,
		Value:           value,
		IsActive:        true,
		Tags:            []string{},
		CreationDate:    now,
		LastUpdatedDate: now,
	}
}
