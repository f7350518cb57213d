package memory

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldInput is the caller-supplied definition of a list field.
type FieldInput struct {
	Key        string
	Label      string
	Type       string
	Required   bool
	EnumValues []string
	SortOrder  *int
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006",
}

func buildFields(inputs []FieldInput) ([]*ListField, error) {
	fields := make([]*ListField, 0, len(inputs))
	for i, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, invalid("Field #%d requires a label.", i+1)
		}
		key := strings.TrimSpace(in.Key)
		if key == "" {
			key = fieldKeyFromLabel(label)
		}
		if key == "" {
			return nil, invalid("Field '%s' does not produce a usable key.", label)
		}
		for _, existing := range fields {
			if IgnoreCase.Equal(existing.Key, key) {
				return nil, invalid("Duplicate field key '%s'.", key)
			}
		}
		fieldType, ok := ParseFieldType(strings.TrimSpace(in.Type))
		if !ok {
			return nil, invalid("Field '%s' has unknown type '%s'.", key, in.Type)
		}
		enumValues := IgnoreCase.Distinct(in.EnumValues)
		if fieldType == FieldTypeEnum && len(enumValues) == 0 {
			return nil, invalid("Field '%s' is an Enum and requires enumValues.", key)
		}
		sortOrder := (i + 1) * 10
		if in.SortOrder != nil {
			sortOrder = *in.SortOrder
		}
		fields = append(fields, &ListField{
			Key:        key,
			Label:      label,
			Type:       fieldType,
			Required:   in.Required,
			EnumValues: enumValues,
			SortOrder:  sortOrder,
		})
	}
	return fields, nil
}

// validateItemData checks data against the list's fields and returns the values
// re-keyed by their canonical field keys. Lists without fields accept any data.
func validateItemData(list *List, data map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(data))
	if len(list.Fields) == 0 {
		for k, v := range data {
			out[k] = v
		}
		return out, nil
	}

	fields := make([]*ListField, len(list.Fields))
	copy(fields, list.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].SortOrder < fields[j].SortOrder })

	for k, v := range data {
		field := fieldByKey(fields, k)
		if field == nil {
			return nil, invalid("Unknown field '%s'.", k)
		}
		out[field.Key] = v
	}

	for _, field := range fields {
		raw := strings.TrimSpace(out[field.Key])
		if raw == "" {
			if field.Required {
				return nil, invalid("Missing required field '%s'.", field.Key)
			}
			continue
		}
		if err := checkFieldValue(field, raw); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkFieldValue(field *ListField, raw string) error {
	switch field.Type {
	case FieldTypeNumber:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return invalid("Field '%s' must be a number.", field.Key)
		}
	case FieldTypeBool:
		if _, ok := parseBool(raw); !ok {
			return invalid("Field '%s' must be a boolean (true/false/1/0).", field.Key)
		}
	case FieldTypeDate, FieldTypeDateTime:
		if !parsesAsDate(raw) {
			return invalid("Field '%s' must be a date.", field.Key)
		}
	case FieldTypeEnum:
		if len(field.EnumValues) > 0 && !IgnoreCase.Contains(field.EnumValues, raw) {
			return invalid("Field '%s' must be one of: %s.", field.Key, strings.Join(field.EnumValues, ", "))
		}
	}
	return nil
}

func fieldByKey(fields []*ListField, key string) *ListField {
	for _, f := range fields {
		if IgnoreCase.Equal(f.Key, key) {
			return f
		}
	}
	return nil
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func parsesAsDate(raw string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}
