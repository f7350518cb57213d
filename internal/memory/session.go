package memory

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// DefaultBranch is the branch a session works on until told otherwise.
const DefaultBranch = "main"

// TimestampLayout is a fixed-width UTC layout, so stored stamps also sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.0000000Z07:00"

// Session is the working memory of one conversation.
type Session struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId,omitempty"`
	OrgID         string      `json:"orgId,omitempty"`
	CurrentBranch string      `json:"currentBranch"`
	Facts         BranchFacts `json:"facts"`
	Lists         []*List     `json:"lists"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// NewSession creates an empty session on the default branch.
func NewSession(id, userID, orgID string) *Session {
	return &Session{
		ID:            id,
		UserID:        userID,
		OrgID:         orgID,
		CurrentBranch: DefaultBranch,
		Lists:         []*List{},
		CreatedAt:     time.Now().UTC(),
	}
}

// FactBranch is the fact sequence stored under one branch name.
type FactBranch struct {
	Name    string
	Entries []*Fact
}

// BranchFacts maps branch names to their fact sequences. Lookups use IgnoreCase.
type BranchFacts struct {
	branches map[string]*FactBranch
}

// Lookup returns the branch stored under name without creating it.
func (b *BranchFacts) Lookup(name string) (*FactBranch, bool) {
	if b.branches == nil {
		return nil, false
	}
	branch, ok := b.branches[IgnoreCase.Key(name)]
	return branch, ok
}

// Names returns the stored branch names in case-insensitive order.
func (b *BranchFacts) Names() []string {
	names := make([]string, 0, len(b.branches))
	for _, branch := range b.branches {
		names = append(names, branch.Name)
	}
	sort.Slice(names, func(i, j int) bool {
		return IgnoreCase.Compare(names[i], names[j]) < 0
	})
	return names
}

// Len returns the number of materialized branches.
func (b *BranchFacts) Len() int {
	return len(b.branches)
}

func (b *BranchFacts) materialize(name string) *FactBranch {
	if b.branches == nil {
		b.branches = make(map[string]*FactBranch)
	}
	key := IgnoreCase.Key(name)
	if branch, ok := b.branches[key]; ok && branch != nil {
		return branch
	}
	branch := &FactBranch{Name: name, Entries: []*Fact{}}
	b.branches[key] = branch
	return branch
}

func (b BranchFacts) MarshalJSON() ([]byte, error) {
	out := make(map[string][]*Fact, len(b.branches))
	for _, branch := range b.branches {
		out[branch.Name] = branch.Entries
	}
	return json.Marshal(out)
}

func (b *BranchFacts) UnmarshalJSON(data []byte) error {
	var in map[string][]*Fact
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	b.branches = make(map[string]*FactBranch, len(in))
	for name, entries := range in {
		if entries == nil {
			entries = []*Fact{}
		}
		b.branches[IgnoreCase.Key(name)] = &FactBranch{Name: name, Entries: entries}
	}
	return nil
}

// ResolveBranch returns the live fact branch selected by s.CurrentBranch.
// A blank CurrentBranch is reset to DefaultBranch and a missing branch is
// created empty. This is the only place branch storage is created.
func ResolveBranch(s *Session) (*FactBranch, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	if strings.TrimSpace(s.CurrentBranch) == "" {
		s.CurrentBranch = DefaultBranch
	}
	return s.Facts.materialize(s.CurrentBranch), nil
}

// SwitchBranch points the session at another branch. The branch itself is
// materialized lazily on the next ResolveBranch.
func SwitchBranch(s *Session, name string) error {
	if s == nil {
		return ErrNoSession
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultBranch
	}
	s.CurrentBranch = name
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(TimestampLayout)
}
