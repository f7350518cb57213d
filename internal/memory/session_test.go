package memory

import (
	"encoding/json"
	"errors"
	"testing"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession("session-1", "user-1", "org-1")
}

func TestResolveBranch_NilSession(t *testing.T) {
	_, err := ResolveBranch(nil)
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("Expected ErrNoSession, got %v", err)
	}
}

func TestResolveBranch_BlankBranchDefaultsToMain(t *testing.T) {
	s := newTestSession(t)
	s.CurrentBranch = "   "

	branch, err := ResolveBranch(s)
	if err != nil {
		t.Fatalf("Failed to resolve branch: %v", err)
	}
	if s.CurrentBranch != DefaultBranch {
		t.Errorf("Expected current branch '%s', got '%s'", DefaultBranch, s.CurrentBranch)
	}
	if branch.Entries == nil {
		t.Error("Expected materialized branch to hold a non-nil sequence")
	}
	if s.Facts.Len() != 1 {
		t.Errorf("Expected 1 branch, got %d", s.Facts.Len())
	}
}

func TestResolveBranch_Idempotent(t *testing.T) {
	s := newTestSession(t)

	first, _ := ResolveBranch(s)
	first.Entries = append(first.Entries, NewFact("KFR-GOAL-001", FactKindGoal, "ship it"))

	second, _ := ResolveBranch(s)
	if first != second {
		t.Fatal("Expected repeated resolution to return the same branch")
	}
	if len(second.Entries) != 1 {
		t.Errorf("Expected mutation to be visible through the second reference, got %d entries", len(second.Entries))
	}
}

func TestResolveBranch_CaseInsensitiveBranchNames(t *testing.T) {
	s := newTestSession(t)
	s.CurrentBranch = "Feature"
	upper, _ := ResolveBranch(s)

	s.CurrentBranch = "feature"
	lower, _ := ResolveBranch(s)

	if upper != lower {
		t.Error("Expected 'Feature' and 'feature' to resolve to the same branch")
	}
	if _, ok := s.Facts.Lookup("FEATURE"); !ok {
		t.Error("Expected lookup to ignore case")
	}
}

func TestBranchIsolation(t *testing.T) {
	s := newTestSession(t)

	if _, err := UpsertFact(s, FactInput{Kind: "constraint", Value: "use UTC"}); err != nil {
		t.Fatalf("Failed to upsert on main: %v", err)
	}

	if err := SwitchBranch(s, "experiment"); err != nil {
		t.Fatalf("Failed to switch branch: %v", err)
	}
	facts, _ := ActiveFacts(s)
	if len(facts) != 0 {
		t.Errorf("Expected branch 'experiment' to start empty, got %d facts", len(facts))
	}

	if _, err := UpsertFact(s, FactInput{Kind: "constraint", Value: "use local time"}); err != nil {
		t.Fatalf("Failed to upsert on experiment: %v", err)
	}

	_ = SwitchBranch(s, DefaultBranch)
	facts, _ = ActiveFacts(s)
	if len(facts) != 1 {
		t.Fatalf("Expected main to keep its single fact, got %d", len(facts))
	}
	if facts[0].Value != "use UTC" {
		t.Errorf("Expected main fact 'use UTC', got '%s'", facts[0].Value)
	}
}

func TestSwitchBranch_DoesNotMaterialize(t *testing.T) {
	s := newTestSession(t)
	_ = SwitchBranch(s, "later")

	if _, ok := s.Facts.Lookup("later"); ok {
		t.Error("Expected branch to be created only by ResolveBranch")
	}
}

func TestSession_JSONRoundTripKeepsBranchNames(t *testing.T) {
	s := newTestSession(t)
	s.CurrentBranch = "Review"
	if _, err := UpsertFact(s, FactInput{Kind: "goal", Value: "review design"}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Failed to marshal session: %v", err)
	}

	var restored Session
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal session: %v", err)
	}

	branch, ok := restored.Facts.Lookup("review")
	if !ok {
		t.Fatal("Expected restored session to contain branch 'Review'")
	}
	if branch.Name != "Review" {
		t.Errorf("Expected branch name 'Review', got '%s'", branch.Name)
	}
	if len(branch.Entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(branch.Entries))
	}
}
