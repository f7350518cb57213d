package memory

import "github.com/google/uuid"

// FieldType is the data type of a custom list field.
type FieldType string

const (
	FieldTypeText     FieldType = "Text"
	FieldTypeNumber   FieldType = "Number"
	FieldTypeBool     FieldType = "Bool"
	FieldTypeDate     FieldType = "Date"
	FieldTypeDateTime FieldType = "DateTime"
	FieldTypeEnum     FieldType = "Enum"
)

var fieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeBool,
	FieldTypeDate,
	FieldTypeDateTime,
	FieldTypeEnum,
}

// ParseFieldType resolves a field type name case-insensitively. Blank means Text.
func ParseFieldType(s string) (FieldType, bool) {
	if s == "" {
		return FieldTypeText, true
	}
	for _, t := range fieldTypes {
		if IgnoreCase.Equal(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// List is a named, session-scoped collection of ordered items.
type List struct {
	ID              string       `json:"id"`
	Slug            string       `json:"slug"`
	Name            string       `json:"name"`
	Description     *string      `json:"description"`
	SchemaVersion   int          `json:"schemaVersion"`
	Fields          []*ListField `json:"fields"`
	Items           []*ListItem  `json:"items"`
	CreationDate    string       `json:"creationDate"`
	LastUpdatedDate string       `json:"lastUpdatedDate"`
}

// ListField describes one custom item field.
type ListField struct {
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required"`
	EnumValues []string  `json:"enumValues,omitempty"`
	SortOrder  int       `json:"sortOrder"`
}

// ListItem is one entry of a list. Data values are keyed by the owning field's key.
type ListItem struct {
	ID              string            `json:"id"`
	ListID          string            `json:"listId"`
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	Description     *string           `json:"description"`
	Order           int               `json:"order"`
	Data            map[string]string `json:"data"`
	CreationDate    string            `json:"creationDate"`
	LastUpdatedDate string            `json:"lastUpdatedDate"`
}

// ListSummary is the lightweight projection returned when items are not requested.
type ListSummary struct {
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	ItemCount       int     `json:"itemCount"`
	FieldCount      int     `json:"fieldCount"`
	LastUpdatedDate string  `json:"lastUpdatedDate"`
}

// ItemSummary is the projection used by the summarized item listing.
type ItemSummary struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Order       int     `json:"order"`
	Description *string `json:"description"`
}

func newList(slug, name string) *List {
	now := timestamp()
	return &List{
		ID:              uuid.NewString(),
		Slug:            slug,
		Name:            name,
		SchemaVersion:   1,
		Fields:          []*ListField{},
		Items:           []*ListItem{},
		CreationDate:    now,
		LastUpdatedDate: now,
	}
}

func newListItem(list *List, slug, name string) *ListItem {
	now := timestamp()
	return &ListItem{
		ID:              uuid.NewString(),
		ListID:          list.ID,
		Slug:            slug,
		Name:            name,
		Data:            map[string]string{},
		CreationDate:    now,
		LastUpdatedDate: now,
	}
}

func (l *List) summary() ListSummary {
	return ListSummary{
		Slug:            l.Slug,
		Name:            l.Name,
		Description:     l.Description,
		ItemCount:       len(l.Items),
		FieldCount:      len(l.Fields),
		LastUpdatedDate: l.LastUpdatedDate,
	}
}

func (l *List) findItem(slug string) *ListItem {
	for _, item := range l.Items {
		if IgnoreCase.Equal(item.Slug, slug) {
			return item
		}
	}
	return nil
}

func (l *List) touch() {
	l.LastUpdatedDate = timestamp()
}
