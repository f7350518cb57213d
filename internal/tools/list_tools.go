package tools

import (
	"encoding/json"
	"strconv"

	"toolhost/internal/memory"
)

// ListFieldArgs describes one custom field accepted by session_list_create.
type ListFieldArgs struct {
	Key        string   `json:"key,omitempty" jsonschema_description:"Field key. Derived from the label when omitted."`
	Label      string   `json:"label" jsonschema_description:"Display label."`
	Type       string   `json:"type,omitempty" jsonschema:"enum=Text,enum=Number,enum=Bool,enum=Date,enum=DateTime,enum=Enum" jsonschema_description:"Value type. Defaults to Text."`
	Required   bool     `json:"required,omitempty"`
	EnumValues []string `json:"enumValues,omitempty" jsonschema_description:"Allowed values of an Enum field."`
	SortOrder  *int     `json:"sortOrder,omitempty"`
}

type listCreateArgs struct {
	Slug   string          `json:"slug"`
	Name   string          `json:"name"`
	Fields []ListFieldArgs `json:"fields"`
}

type listSlugArgs struct {
	ListSlug string `json:"listSlug"`
}

type listsListArgs struct {
	IncludeItems bool `json:"includeItems"`
}

type listUpdateArgs struct {
	ListSlug string `json:"listSlug"`
	Name     string `json:"name"`
}

type itemAddArgs struct {
	ListSlug string                 `json:"listSlug"`
	Slug     string                 `json:"slug"`
	Name     string                 `json:"name"`
	Data     map[string]interface{} `json:"data"`
}

type itemUpdateArgs struct {
	ListSlug string                 `json:"listSlug"`
	ItemSlug string                 `json:"itemSlug"`
	Name     string                 `json:"name"`
	NewSlug  string                 `json:"newSlug"`
	Data     map[string]interface{} `json:"data"`
}

type itemMoveArgs struct {
	ListSlug      string `json:"listSlug"`
	ItemSlug      string `json:"itemSlug"`
	AboveItemSlug string `json:"aboveItemSlug"`
	BelowItemSlug string `json:"belowItemSlug"`
	Position      *int   `json:"position"`
}

type itemSlugArgs struct {
	ListSlug string `json:"listSlug"`
	ItemSlug string `json:"itemSlug"`
}

func listOK(pc *PipelineContext, operation string, payload map[string]interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"operation": operation,
		"sessionId": pc.SessionID(),
	}
	for k, v := range payload {
		result[k] = v
	}
	return result
}

// stringifyData flattens caller-supplied item values to their stored string form.
func stringifyData(data map[string]interface{}) map[string]string {
	if data == nil {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch value := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = value
		case bool:
			out[k] = strconv.FormatBool(value)
		case float64:
			out[k] = strconv.FormatFloat(value, 'f', -1, 64)
		default:
			encoded, err := codec.MarshalToString(value)
			if err != nil {
				encoded = ""
			}
			out[k] = encoded
		}
	}
	return out
}

func fieldInputs(fields []ListFieldArgs) []memory.FieldInput {
	out := make([]memory.FieldInput, 0, len(fields))
	for _, f := range fields {
		out = append(out, memory.FieldInput{
			Key:        f.Key,
			Label:      f.Label,
			Type:       f.Type,
			Required:   f.Required,
			EnumValues: f.EnumValues,
			SortOrder:  f.SortOrder,
		})
	}
	return out
}

// NewListCreateTool creates the session_list_create tool
func NewListCreateTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_create",
		Description: "Create a named list in the current session, optionally with typed custom fields for its items.",
		Params: []Param{
			StringParam("name", "List name.", true),
			StringParam("slug", "Preferred slug. Derived from the name when omitted and made unique.", false),
			StringParam("description", "List description.", false),
			ObjectArrayParam("fields", "Custom fields every item carries.", false, ListFieldArgs{}),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args listCreateArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, err := memory.CreateList(pc.Session, memory.ListInput{
				Slug:        args.Slug,
				Name:        args.Name,
				Description: OptionalString(raw, "description"),
				Fields:      fieldInputs(args.Fields),
			})
			if err != nil {
				return nil, err
			}
			return listOK(pc, "create", map[string]interface{}{"list": list}), nil
		},
	}
}

// NewListGetTool creates the session_list_get tool
func NewListGetTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_get",
		Description: "Get a session list with its fields and items.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
		},
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args listSlugArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, err := memory.FindList(pc.Session, args.ListSlug)
			if err != nil {
				return nil, err
			}
			return listOK(pc, "get", map[string]interface{}{"list": list}), nil
		},
	}
}

// NewListsListTool creates the session_lists_list tool
func NewListsListTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_lists_list",
		Description: "List every list in the current session, ordered by slug.",
		Params: []Param{
			BoolParam("includeItems", "Return full lists with items instead of summaries.", false),
		},
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args listsListArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.IncludeItems {
				lists, err := memory.AllLists(pc.Session)
				if err != nil {
					return nil, err
				}
				return listOK(pc, "list", map[string]interface{}{"lists": lists}), nil
			}
			summaries, err := memory.ListSummaries(pc.Session)
			if err != nil {
				return nil, err
			}
			return listOK(pc, "list", map[string]interface{}{"lists": summaries}), nil
		},
	}
}

// NewListUpdateTool creates the session_list_update tool
func NewListUpdateTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_update",
		Description: "Rename a list or change its description. An empty description clears it; omitting it leaves it unchanged.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
			StringParam("name", "New name.", false),
			StringParam("description", "New description.", false),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args listUpdateArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, err := memory.UpdateList(pc.Session, args.ListSlug, memory.ListUpdate{
				Name:        args.Name,
				Description: OptionalString(raw, "description"),
			})
			if err != nil {
				return nil, err
			}
			return listOK(pc, "update", map[string]interface{}{"list": list}), nil
		},
	}
}

// NewListDeleteTool creates the session_list_delete tool
func NewListDeleteTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_delete",
		Description: "Delete a list and all of its items.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args listSlugArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, err := memory.DeleteList(pc.Session, args.ListSlug)
			if err != nil {
				return nil, err
			}
			return listOK(pc, "delete", map[string]interface{}{"listSlug": list.Slug}), nil
		},
	}
}

// NewListItemAddTool creates the session_list_item_add tool
func NewListItemAddTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_item_add",
		Description: "Append an item to a list. Field values in data are checked against the list's fields.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
			StringParam("name", "Item name.", true),
			StringParam("slug", "Preferred item slug. Derived from the name when omitted.", false),
			StringParam("description", "Item description.", false),
			ObjectParam("data", "Custom field values keyed by field key.", false, nil),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args itemAddArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, item, err := memory.AddItem(pc.Session, args.ListSlug, memory.ItemInput{
				Slug:        args.Slug,
				Name:        args.Name,
				Description: OptionalString(raw, "description"),
				Data:        stringifyData(args.Data),
			})
			if err != nil {
				return nil, err
			}
			return listOK(pc, "item_add", map[string]interface{}{"listSlug": list.Slug, "item": item}), nil
		},
	}
}

// NewListItemUpdateTool creates the session_list_item_update tool
func NewListItemUpdateTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_item_update",
		Description: "Change an item's name, slug, description or field values. Data is merged over the current values.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
			StringParam("itemSlug", "Slug of the item.", true),
			StringParam("name", "New name.", false),
			StringParam("newSlug", "New slug, made unique within the list.", false),
			StringParam("description", "New description. Empty clears it.", false),
			ObjectParam("data", "Field values to merge.", false, nil),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args itemUpdateArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, item, err := memory.UpdateItem(pc.Session, args.ListSlug, args.ItemSlug, memory.ItemUpdate{
				Name:        args.Name,
				NewSlug:     args.NewSlug,
				Description: OptionalString(raw, "description"),
				Data:        stringifyData(args.Data),
			})
			if err != nil {
				return nil, err
			}
			return listOK(pc, "item_update", map[string]interface{}{"listSlug": list.Slug, "item": item}), nil
		},
	}
}

// NewListItemMoveTool creates the session_list_item_move tool
func NewListItemMoveTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_item_move",
		Description: "Move an item above or below another item, or to a 1-based position.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
			StringParam("itemSlug", "Slug of the item to move.", true),
			StringParam("aboveItemSlug", "Place the item directly above this item.", false),
			StringParam("belowItemSlug", "Place the item directly below this item.", false),
			IntParam("position", "1-based target position.", false),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args itemMoveArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, err := memory.MoveItem(pc.Session, args.ListSlug, args.ItemSlug, memory.MoveInput{
				AboveItemSlug: args.AboveItemSlug,
				BelowItemSlug: args.BelowItemSlug,
				Position:      args.Position,
			})
			if err != nil {
				return nil, err
			}
			_, items, err := memory.ItemSummaries(pc.Session, list.Slug)
			if err != nil {
				return nil, err
			}
			return listOK(pc, "item_move", map[string]interface{}{"listSlug": list.Slug, "items": items}), nil
		},
	}
}

// NewListItemRemoveTool creates the session_list_item_remove tool
func NewListItemRemoveTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_item_remove",
		Description: "Remove an item from a list.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
			StringParam("itemSlug", "Slug of the item.", true),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args itemSlugArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, item, err := memory.RemoveItem(pc.Session, args.ListSlug, args.ItemSlug)
			if err != nil {
				return nil, err
			}
			return listOK(pc, "item_remove", map[string]interface{}{
				"listSlug":        list.Slug,
				"itemSlug":        item.Slug,
				"lastUpdatedDate": list.LastUpdatedDate,
			}), nil
		},
	}
}

// NewListItemsListTool creates the session_list_items_list tool
func NewListItemsListTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_list_items_list",
		Description: "List a list's items in display order with slug, name, order and description.",
		Params: []Param{
			StringParam("listSlug", "Slug of the list.", true),
		},
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args listSlugArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			list, items, err := memory.ItemSummaries(pc.Session, args.ListSlug)
			if err != nil {
				return nil, err
			}
			return listOK(pc, "items_list", map[string]interface{}{"listSlug": list.Slug, "items": items}), nil
		},
	}
}
