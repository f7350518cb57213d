package tools

import (
	"encoding/json"
	"strings"

	"toolhost/internal/memory"
)

// kfrResult is the result shape shared by every fact registry tool.
type kfrResult struct {
	Operation string      `json:"operation"`
	Items     interface{} `json:"items"`
	SessionID string      `json:"sessionId"`
}

// KFREntryArgs describes the entry object accepted by session_kfr upsert.
type KFREntryArgs struct {
	KfrID              string `json:"kfrId,omitempty" jsonschema_description:"Existing KFR id to update. Omit to create a new entry."`
	Kind               string `json:"kind" jsonschema:"enum=goal,enum=plan,enum=activeContract,enum=constraint,enum=openQuestion" jsonschema_description:"Entry kind."`
	Value              string `json:"value" jsonschema_description:"Entry text."`
	RequiresResolution bool   `json:"requiresResolution,omitempty" jsonschema_description:"Whether the entry must be resolved before it can be evicted."`
}

type sessionKfrArgs struct {
	Operation string        `json:"operation"`
	Entry     *KFREntryArgs `json:"entry"`
	KfrIDs    []string      `json:"kfrIds"`
	Force     bool          `json:"force"`
}

type kfrCategoryArgs struct {
	Category        string `json:"category"`
	IncludeInactive bool   `json:"includeInactive"`
}

type kfrTagQueryArgs struct {
	Tags            []string `json:"tags"`
	MatchMode       string   `json:"matchMode"`
	IncludeInactive bool     `json:"includeInactive"`
}

type kfrSetCategoryArgs struct {
	KfrID    string `json:"kfrId"`
	Category string `json:"category"`
}

type kfrSetTagsArgs struct {
	KfrID string   `json:"kfrId"`
	Tags  []string `json:"tags"`
}

func kfrOK(pc *PipelineContext, operation string, items interface{}) kfrResult {
	return kfrResult{Operation: operation, Items: items, SessionID: pc.SessionID()}
}

// NewSessionKFRTool creates the session_kfr tool
func NewSessionKFRTool() *SessionTool {
	return &SessionTool{
		ToolName:    "session_kfr",
		Description: "Read or change the key fact registry (goals, plans, contracts, constraints, open questions) of the current session branch.",
		Params: []Param{
			EnumParam("operation", "Operation to perform.", true, "list", "clear", "upsert", "evict"),
			ObjectParam("entry", "Entry to create or update (upsert only).", false, KFREntryArgs{}),
			StringArrayParam("kfrIds", "Ids of the entries to evict (evict only).", false),
			BoolParam("force", "Evict entries that still require resolution (evict only).", false),
		},
		Mutating: true,
		Run:      runSessionKFR,
	}
}

func runSessionKFR(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
	var args sessionKfrArgs
	if err := DecodeArgs(raw, &args); err != nil {
		return nil, err
	}

	operation := strings.ToLower(strings.TrimSpace(args.Operation))
	switch operation {
	case "":
		return nil, Validation("session_kfr requires 'operation' (list|clear|upsert|evict).")

	case "list":
		facts, err := memory.ActiveFacts(pc.Session)
		if err != nil {
			return nil, err
		}
		return kfrOK(pc, operation, facts), nil

	case "clear":
		if err := memory.ClearFacts(pc.Session); err != nil {
			return nil, err
		}
		return kfrOK(pc, operation, []*memory.Fact{}), nil

	case "upsert":
		if args.Entry == nil {
			return nil, Validation("session_kfr upsert requires 'entry'.")
		}
		fact, err := memory.UpsertFact(pc.Session, memory.FactInput{
			KfrID:              args.Entry.KfrID,
			Kind:               args.Entry.Kind,
			Value:              args.Entry.Value,
			RequiresResolution: args.Entry.RequiresResolution,
			UserID:             pc.UserID,
		})
		if err != nil {
			return nil, err
		}
		return kfrOK(pc, operation, []*memory.Fact{fact}), nil

	case "evict":
		evicted, err := memory.EvictFacts(pc.Session, args.KfrIDs, args.Force)
		if err != nil {
			return nil, err
		}
		return kfrOK(pc, operation, evicted), nil
	}

	return nil, Validation("Unsupported session_kfr operation '%s'.", args.Operation)
}

// NewKFRListCategoriesTool creates the kfr_list_categories tool
func NewKFRListCategoriesTool() *SessionTool {
	return &SessionTool{
		ToolName:    "kfr_list_categories",
		Description: "List the distinct categories used by fact registry entries on the current branch.",
		Run: func(pc *PipelineContext, _ json.RawMessage) (interface{}, error) {
			categories, err := memory.FactCategories(pc.Session)
			if err != nil {
				return nil, err
			}
			return kfrOK(pc, "list_categories", categories), nil
		},
	}
}

// NewKFRListTagsTool creates the kfr_list_tags tool
func NewKFRListTagsTool() *SessionTool {
	return &SessionTool{
		ToolName:    "kfr_list_tags",
		Description: "List the distinct tags used by fact registry entries on the current branch.",
		Run: func(pc *PipelineContext, _ json.RawMessage) (interface{}, error) {
			tags, err := memory.FactTags(pc.Session)
			if err != nil {
				return nil, err
			}
			return kfrOK(pc, "list_tags", tags), nil
		},
	}
}

// NewKFRQueryByCategoryTool creates the kfr_query_by_category tool
func NewKFRQueryByCategoryTool() *SessionTool {
	return &SessionTool{
		ToolName:    "kfr_query_by_category",
		Description: "Return fact registry entries whose category matches, ignoring case.",
		Params: []Param{
			StringParam("category", "Category to match.", true),
			BoolParam("includeInactive", "Include evicted entries. Defaults to false.", false),
		},
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args kfrCategoryArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			facts, err := memory.QueryFactsByCategory(pc.Session, args.Category, args.IncludeInactive)
			if err != nil {
				return nil, err
			}
			return kfrOK(pc, "query_by_category", facts), nil
		},
	}
}

// NewKFRQueryByTagsTool creates the kfr_query_by_tags tool
func NewKFRQueryByTagsTool() *SessionTool {
	return &SessionTool{
		ToolName:    "kfr_query_by_tags",
		Description: "Return fact registry entries carrying any or all of the given tags.",
		Params: []Param{
			StringArrayParam("tags", "Tags to match, ignoring case.", true),
			EnumParam("matchMode", "Match entries carrying any of the tags or all of them. Defaults to any.", false, "any", "all"),
			BoolParam("includeInactive", "Include evicted entries. Defaults to false.", false),
		},
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args kfrTagQueryArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			facts, err := memory.QueryFactsByTags(pc.Session, args.Tags, memory.TagMatchMode(args.MatchMode), args.IncludeInactive)
			if err != nil {
				return nil, err
			}
			return kfrOK(pc, "query_by_tags", facts), nil
		},
	}
}

// NewKFRSetCategoryTool creates the kfr_set_category tool
func NewKFRSetCategoryTool() *SessionTool {
	return &SessionTool{
		ToolName:    "kfr_set_category",
		Description: "Set or clear the category of a fact registry entry.",
		Params: []Param{
			StringParam("kfrId", "Id of the entry.", true),
			StringParam("category", "New category. Blank or omitted clears it.", false),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args kfrSetCategoryArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			fact, err := memory.SetFactCategory(pc.Session, args.KfrID, args.Category)
			if err != nil {
				return nil, err
			}
			return kfrOK(pc, "set_category", []*memory.Fact{fact}), nil
		},
	}
}

// NewKFRSetTagsTool creates the kfr_set_tags tool
func NewKFRSetTagsTool() *SessionTool {
	return &SessionTool{
		ToolName:    "kfr_set_tags",
		Description: "Replace the tags of a fact registry entry. An empty list clears them.",
		Params: []Param{
			StringParam("kfrId", "Id of the entry.", true),
			StringArrayParam("tags", "Complete new tag set.", false),
		},
		Mutating: true,
		Run: func(pc *PipelineContext, raw json.RawMessage) (interface{}, error) {
			var args kfrSetTagsArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			fact, err := memory.SetFactTags(pc.Session, args.KfrID, args.Tags)
			if err != nil {
				return nil, err
			}
			return kfrOK(pc, "set_tags", []*memory.Fact{fact}), nil
		},
	}
}
