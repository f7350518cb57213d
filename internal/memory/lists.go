package memory

import (
	"sort"
	"strings"
)

// ListInput carries the arguments of list creation.
type ListInput struct {
	Slug        string
	Name        string
	Description *string
	Fields      []FieldInput
}

// ListUpdate carries list metadata changes. A nil Description leaves the
// stored value alone; a blank one clears it.
type ListUpdate struct {
	Name        string
	Description *string
}

// ItemInput carries the arguments of item creation.
type ItemInput struct {
	Slug        string
	Name        string
	Description *string
	Data        map[string]string
}

// ItemUpdate carries item changes. Data is merged over the existing values.
type ItemUpdate struct {
	Name        string
	NewSlug     string
	Description *string
	Data        map[string]string
}

// MoveInput positions an item relative to an anchor item or at a 1-based position.
type MoveInput struct {
	AboveItemSlug string
	BelowItemSlug string
	Position      *int
}

// FindList locates a list by slug.
func FindList(s *Session, slug string) (*List, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, invalid("listSlug is required.")
	}
	for _, l := range s.Lists {
		if IgnoreCase.Equal(l.Slug, slug) {
			return l, nil
		}
	}
	return nil, notFound("List '%s' not found.", slug)
}

// FindItem locates a list, then an item within it.
func FindItem(s *Session, listSlug, itemSlug string) (*List, *ListItem, error) {
	list, err := FindList(s, listSlug)
	if err != nil {
		return nil, nil, err
	}
	itemSlug = strings.TrimSpace(itemSlug)
	if itemSlug == "" {
		return nil, nil, invalid("itemSlug is required.")
	}
	item := list.findItem(itemSlug)
	if item == nil {
		return nil, nil, notFound("Item '%s' not found in list '%s'.", itemSlug, list.Slug)
	}
	return list, item, nil
}

// AllLists returns the session's lists ordered by slug.
func AllLists(s *Session) ([]*List, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	out := make([]*List, len(s.Lists))
	copy(out, s.Lists)
	sort.SliceStable(out, func(i, j int) bool {
		return IgnoreCase.Compare(out[i].Slug, out[j].Slug) < 0
	})
	return out, nil
}

// ListSummaries returns the lightweight projection of AllLists.
func ListSummaries(s *Session) ([]ListSummary, error) {
	lists, err := AllLists(s)
	if err != nil {
		return nil, err
	}
	out := make([]ListSummary, 0, len(lists))
	for _, l := range lists {
		out = append(out, l.summary())
	}
	return out, nil
}

// CreateList adds a new list with a unique slug derived from in.Slug or in.Name.
func CreateList(s *Session, in ListInput) (*List, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required.")
	}
	fields, err := buildFields(in.Fields)
	if err != nil {
		return nil, err
	}

	desired := Slugify(in.Slug)
	if desired == "" {
		desired = Slugify(name)
	}
	slug := uniqueSlug(desired, "list", func(candidate string) bool {
		for _, l := range s.Lists {
			if IgnoreCase.Equal(l.Slug, candidate) {
				return true
			}
		}
		return false
	})

	list := newList(slug, name)
	list.Fields = fields
	setDescription(&list.Description, in.Description)
	s.Lists = append(s.Lists, list)
	return list, nil
}

// UpdateList applies name and description changes to a list.
func UpdateList(s *Session, slug string, in ListUpdate) (*List, error) {
	list, err := FindList(s, slug)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		list.Name = name
	}
	setDescription(&list.Description, in.Description)
	list.touch()
	return list, nil
}

// DeleteList removes a list from the session.
func DeleteList(s *Session, slug string) (*List, error) {
	list, err := FindList(s, slug)
	if err != nil {
		return nil, err
	}
	for i, l := range s.Lists {
		if l == list {
			s.Lists = append(s.Lists[:i], s.Lists[i+1:]...)
			break
		}
	}
	return list, nil
}

// AddItem appends an item after the current last item of a list.
func AddItem(s *Session, listSlug string, in ItemInput) (*List, *ListItem, error) {
	list, err := FindList(s, listSlug)
	if err != nil {
		return nil, nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, invalid("name is required.")
	}
	data, err := validateItemData(list, in.Data)
	if err != nil {
		return nil, nil, err
	}

	desired := Slugify(in.Slug)
	if desired == "" {
		desired = Slugify(name)
	}
	slug := uniqueSlug(desired, "item", func(candidate string) bool {
		return list.findItem(candidate) != nil
	})

	item := newListItem(list, slug, name)
	item.Order = nextOrder(list)
	item.Data = data
	setDescription(&item.Description, in.Description)
	list.Items = append(list.Items, item)
	list.touch()
	return list, item, nil
}

// UpdateItem applies name, slug, description and data changes to an item.
func UpdateItem(s *Session, listSlug, itemSlug string, in ItemUpdate) (*List, *ListItem, error) {
	list, item, err := FindItem(s, listSlug, itemSlug)
	if err != nil {
		return nil, nil, err
	}

	var data map[string]string
	if len(in.Data) > 0 {
		merged := make(map[string]string, len(item.Data)+len(in.Data))
		for k, v := range item.Data {
			merged[k] = v
		}
		for k, v := range in.Data {
			if f := fieldByKey(list.Fields, k); f != nil {
				k = f.Key
			}
			merged[k] = v
		}
		if data, err = validateItemData(list, merged); err != nil {
			return nil, nil, err
		}
	}

	var newSlug string
	if strings.TrimSpace(in.NewSlug) != "" {
		desired := Slugify(in.NewSlug)
		if desired == "" {
			return nil, nil, invalid("newSlug '%s' does not produce a usable slug.", in.NewSlug)
		}
		if !IgnoreCase.Equal(desired, item.Slug) {
			newSlug = uniqueSlug(desired, "item", func(candidate string) bool {
				other := list.findItem(candidate)
				return other != nil && other != item
			})
		}
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		item.Name = name
	}
	if newSlug != "" {
		item.Slug = newSlug
	}
	if data != nil {
		item.Data = data
	}
	setDescription(&item.Description, in.Description)
	item.LastUpdatedDate = timestamp()
	list.LastUpdatedDate = item.LastUpdatedDate
	return list, item, nil
}

// MoveItem repositions an item and renumbers the list 10, 20, 30, ...
func MoveItem(s *Session, listSlug, itemSlug string, in MoveInput) (*List, error) {
	above := strings.TrimSpace(in.AboveItemSlug)
	below := strings.TrimSpace(in.BelowItemSlug)
	anchors := 0
	if above != "" {
		anchors++
	}
	if below != "" {
		anchors++
	}
	if anchors > 1 || (anchors == 1 && in.Position != nil) {
		return nil, invalid("Provide only one of aboveItemSlug, belowItemSlug or position.")
	}
	if anchors == 0 && in.Position == nil {
		return nil, invalid("Provide one of aboveItemSlug, belowItemSlug or position.")
	}

	list, item, err := FindItem(s, listSlug, itemSlug)
	if err != nil {
		return nil, err
	}

	rest := make([]*ListItem, 0, len(list.Items))
	for _, it := range orderedItems(list) {
		if it != item {
			rest = append(rest, it)
		}
	}

	var index int
	switch {
	case in.Position != nil:
		index = *in.Position - 1
		if index < 0 {
			index = 0
		}
		if index > len(rest) {
			index = len(rest)
		}
	default:
		anchorSlug := above
		if anchorSlug == "" {
			anchorSlug = below
		}
		if IgnoreCase.Equal(anchorSlug, item.Slug) {
			return nil, invalid("An item cannot be moved relative to itself.")
		}
		index = -1
		for i, it := range rest {
			if IgnoreCase.Equal(it.Slug, anchorSlug) {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, notFound("Item '%s' not found in list '%s'.", anchorSlug, list.Slug)
		}
		if below != "" {
			index++
		}
	}

	reordered := make([]*ListItem, 0, len(list.Items))
	reordered = append(reordered, rest[:index]...)
	reordered = append(reordered, item)
	reordered = append(reordered, rest[index:]...)
	list.Items = reordered
	renumber(list)

	item.LastUpdatedDate = timestamp()
	list.LastUpdatedDate = item.LastUpdatedDate
	return list, nil
}

// RemoveItem deletes an item from its list and refreshes the list timestamp.
func RemoveItem(s *Session, listSlug, itemSlug string) (*List, *ListItem, error) {
	list, item, err := FindItem(s, listSlug, itemSlug)
	if err != nil {
		return nil, nil, err
	}
	for i, it := range list.Items {
		if it == item {
			list.Items = append(list.Items[:i], list.Items[i+1:]...)
			break
		}
	}
	list.touch()
	return list, item, nil
}

// ItemSummaries returns a list's items ordered by Order.
func ItemSummaries(s *Session, listSlug string) (*List, []ItemSummary, error) {
	list, err := FindList(s, listSlug)
	if err != nil {
		return nil, nil, err
	}
	items := orderedItems(list)
	out := make([]ItemSummary, 0, len(items))
	for _, it := range items {
		out = append(out, ItemSummary{
			Slug:        it.Slug,
			Name:        it.Name,
			Order:       it.Order,
			Description: it.Description,
		})
	}
	return list, out, nil
}

func orderedItems(list *List) []*ListItem {
	items := make([]*ListItem, len(list.Items))
	copy(items, list.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items
}

func nextOrder(list *List) int {
	if len(list.Items) == 0 {
		return 10
	}
	highest := list.Items[0].Order
	for _, it := range list.Items[1:] {
		if it.Order > highest {
			highest = it.Order
		}
	}
	return highest + 10
}

func renumber(list *List) {
	order := 10
	for _, it := range list.Items {
		it.Order = order
		order += 10
	}
}

func setDescription(target **string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		*target = nil
		return
	}
	*target = &trimmed
}
