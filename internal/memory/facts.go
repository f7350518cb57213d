package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// TagMatchMode selects how QueryFactsByTags combines the requested tags.
type TagMatchMode string

const (
	TagMatchAny TagMatchMode = "any"
	TagMatchAll TagMatchMode = "all"
)

// FactInput carries the caller-supplied fields of an upsert.
type FactInput struct {
	KfrID              string
	Kind               string
	Value              string
	RequiresResolution bool
	UserID             string
}

// ActiveFacts returns the active entries of the current branch in stored order.
func ActiveFacts(s *Session) ([]*Fact, error) {
	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}
	out := make([]*Fact, 0, len(branch.Entries))
	for _, f := range branch.Entries {
		if f.IsActive {
			out = append(out, f)
		}
	}
	return out, nil
}

// ClearFacts empties the current branch in place.
func ClearFacts(s *Session) error {
	branch, err := ResolveBranch(s)
	if err != nil {
		return err
	}
	clear(branch.Entries)
	branch.Entries = branch.Entries[:0]
	return nil
}

// FactCategories lists the distinct non-blank categories of the current branch.
func FactCategories(s *Session) ([]string, error) {
	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(branch.Entries))
	for _, f := range branch.Entries {
		categories = append(categories, f.Category)
	}
	return IgnoreCase.Distinct(categories), nil
}

// FactTags lists the distinct non-blank tags across the current branch.
func FactTags(s *Session) ([]string, error) {
	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, f := range branch.Entries {
		if f.Tags == nil {
			continue
		}
		tags = append(tags, f.Tags...)
	}
	return IgnoreCase.Distinct(tags), nil
}

// QueryFactsByCategory returns entries whose category equals category.
func QueryFactsByCategory(s *Session, category string, includeInactive bool) ([]*Fact, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, invalid("category is required.")
	}
	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}
	out := []*Fact{}
	for _, f := range branch.Entries {
		if !includeInactive && !f.IsActive {
			continue
		}
		if IgnoreCase.Equal(strings.TrimSpace(f.Category), category) {
			out = append(out, f)
		}
	}
	return out, nil
}

// QueryFactsByTags returns entries carrying any (or all) of tags.
func QueryFactsByTags(s *Session, tags []string, mode TagMatchMode, includeInactive bool) ([]*Fact, error) {
	wanted := IgnoreCase.Distinct(tags)
	if len(wanted) == 0 {
		return nil, invalid("kfr_query_by_tags requires 'tags' (one or more tags).")
	}
	switch TagMatchMode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case "", TagMatchAny:
		mode = TagMatchAny
	case TagMatchAll:
		mode = TagMatchAll
	default:
		return nil, invalid("Invalid matchMode '%s'. Use 'any' or 'all'.", mode)
	}

	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}
	out := []*Fact{}
	for _, f := range branch.Entries {
		if !includeInactive && !f.IsActive {
			continue
		}
		hits := 0
		for _, tag := range wanted {
			if IgnoreCase.Contains(f.Tags, tag) {
				hits++
			}
		}
		if (mode == TagMatchAny && hits > 0) || (mode == TagMatchAll && hits == len(wanted)) {
			out = append(out, f)
		}
	}
	return out, nil
}

// FindFact locates an entry of the current branch by kfrId.
func FindFact(s *Session, kfrID string) (*Fact, error) {
	kfrID = strings.TrimSpace(kfrID)
	if kfrID == "" {
		return nil, invalid("kfrId is required.")
	}
	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}
	for _, f := range branch.Entries {
		if IgnoreCase.Equal(f.KfrID, kfrID) {
			return f, nil
		}
	}
	return nil, notFound("KFR '%s' not found.", kfrID)
}

// SetFactCategory replaces an entry's category. A blank category clears it.
func SetFactCategory(s *Session, kfrID, category string) (*Fact, error) {
	f, err := FindFact(s, kfrID)
	if err != nil {
		return nil, err
	}
	f.Category = strings.TrimSpace(category)
	f.LastUpdatedDate = timestamp()
	return f, nil
}

// SetFactTags replaces an entry's whole tag set. An empty input clears it.
func SetFactTags(s *Session, kfrID string, tags []string) (*Fact, error) {
	f, err := FindFact(s, kfrID)
	if err != nil {
		return nil, err
	}
	f.Tags = IgnoreCase.Distinct(tags)
	f.LastUpdatedDate = timestamp()
	return f, nil
}

// UpsertFact updates the entry matching in.KfrID or inserts a new one.
// Goal and plan entries deactivate their active siblings of the same kind.
func UpsertFact(s *Session, in FactInput) (*Fact, error) {
	kind, ok := ParseFactKind(in.Kind)
	if !ok {
		return nil, invalid("Invalid KFR kind '%s'.", in.Kind)
	}
	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}

	now := timestamp()
	id := strings.TrimSpace(in.KfrID)

	var entry *Fact
	if id != "" {
		for _, f := range branch.Entries {
			if IgnoreCase.Equal(f.KfrID, id) {
				entry = f
				break
			}
		}
	}

	if entry != nil {
		entry.Kind = kind
		entry.Value = in.Value
		entry.RequiresResolution = in.RequiresResolution
		entry.IsActive = true
		entry.LastUpdatedDate = now
	} else {
		if id == "" {
			id = newFactID(branch, kind)
		}
		entry = NewFact(id, kind, in.Value)
		entry.RequiresResolution = in.RequiresResolution
		entry.CreatedByUserID = in.UserID
		entry.CreationDate = now
		entry.LastUpdatedDate = now
		branch.Entries = append(branch.Entries, entry)
	}

	if kind.SingleCardinality() {
		for _, f := range branch.Entries {
			if f != entry && f.Kind == kind && f.IsActive {
				f.IsActive = false
				f.LastUpdatedDate = now
			}
		}
	}
	return entry, nil
}

// EvictFacts soft-deletes the active entries named by ids. Entries that still
// require resolution are refused unless force is set. No match is not an error.
func EvictFacts(s *Session, ids []string, force bool) ([]*Fact, error) {
	wanted := IgnoreCase.Distinct(ids)
	if len(wanted) == 0 {
		return nil, invalid("session_kfr evict requires 'kfrIds' (one or more KFR ids).")
	}
	branch, err := ResolveBranch(s)
	if err != nil {
		return nil, err
	}

	matches := []*Fact{}
	var blocked []string
	for _, f := range branch.Entries {
		if !f.IsActive || !IgnoreCase.Contains(wanted, f.KfrID) {
			continue
		}
		matches = append(matches, f)
		if f.RequiresResolution {
			blocked = append(blocked, f.KfrID)
		}
	}
	if len(blocked) > 0 && !force {
		return nil, invalid("session_kfr evict refused: the following KFR entries require resolution: %s. Set force=true to dismiss/evict anyway.",
			strings.Join(blocked, ", "))
	}

	now := timestamp()
	for _, f := range matches {
		f.IsActive = false
		f.LastUpdatedDate = now
	}
	return matches, nil
}

// newFactID returns the next unused KFR-<KIND>-nnn id. The sequence comes from
// every id carrying the prefix, whatever kind the entry holds now, since an
// explicit upsert can re-kind an entry and keep its id.
func newFactID(branch *FactBranch, kind FactKind) string {
	prefix := fmt.Sprintf("KFR-%s-", strings.ToUpper(string(kind)))

	highest := 0
	for _, f := range branch.Entries {
		if len(f.KfrID) <= len(prefix) || !IgnoreCase.Equal(f.KfrID[:len(prefix)], prefix) {
			continue
		}
		if n, err := strconv.Atoi(f.KfrID[len(prefix):]); err == nil && n > highest {
			highest = n
		}
	}

	for n := highest + 1; ; n++ {
		id := fmt.Sprintf("%s%03d", prefix, n)
		if !hasFactID(branch, id) {
			return id
		}
	}
}

func hasFactID(branch *FactBranch, id string) bool {
	for _, f := range branch.Entries {
		if IgnoreCase.Equal(f.KfrID, id) {
			return true
		}
	}
	return false
}
