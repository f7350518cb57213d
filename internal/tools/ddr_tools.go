package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"toolhost/internal/memory"
	"toolhost/internal/models"
)

// DDRManager owns the document register. GetDDR returns nil, nil when the
// identifier does not exist.
type DDRManager interface {
	CreateDDR(ctx context.Context, org, user models.EntityHeader, draft models.DDRDraft) (*models.DDR, error)
	GetDDR(ctx context.Context, org, user models.EntityHeader, identifier string) (*models.DDR, error)
	ListDDRs(ctx context.Context, org, user models.EntityHeader, filter models.DDRFilter) ([]models.DDRSummary, error)
	UpdateDDR(ctx context.Context, ddr *models.DDR, org, user models.EntityHeader) error
}

type ddrIdentifierArgs struct {
	Identifier string `json:"identifier"`
}

type ddrCreateArgs struct {
	Tla     string      `json:"tla"`
	Index   interface{} `json:"index"`
	Title   string      `json:"title"`
	Summary string      `json:"summary"`
}

type ddrListArgs struct {
	Status string `json:"status"`
	Tla    string `json:"tla"`
}

type ddrMetadataArgs struct {
	Identifier string  `json:"identifier"`
	Title      *string `json:"title"`
	Summary    *string `json:"summary"`
	Notes      *string `json:"notes"`
}

type ddrStatusArgs struct {
	Identifier string `json:"identifier"`
	Status     string `json:"status"`
}

// ddrSnapshot is the get_ddr result
type ddrSnapshot struct {
	Identifier            string               `json:"identifier"`
	Tla                   string               `json:"tla"`
	Title                 string               `json:"title"`
	Summary               string               `json:"summary"`
	Notes                 string               `json:"notes,omitempty"`
	Status                string               `json:"status"`
	StatusTimestamp       string               `json:"status_timestamp"`
	Goal                  string               `json:"goal"`
	GoalApprovedBy        *models.EntityHeader `json:"goal_approved_by"`
	GoalApprovedTimestamp string               `json:"goal_approved_timestamp"`
	ApprovedBy            *models.EntityHeader `json:"approved_by"`
	ApprovedTimestamp     string               `json:"approved_timestamp"`
}

const identifierDescription = "DDR identifier in TLA-### format, for example 'SYS-001'."

func utcNow() string {
	return time.Now().UTC().Format(memory.TimestampLayout)
}

// loadDDR validates the identifier argument and fetches the record.
func loadDDR(ctx context.Context, manager DDRManager, tc *ToolContext, identifier string) (*models.DDR, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, "", Validation("identifier is required.")
	}
	ddr, err := manager.GetDDR(ctx, tc.Org(), tc.User(), identifier)
	if err != nil {
		return nil, identifier, err
	}
	if ddr == nil {
		return nil, identifier, NotFound("DDR '%s' not found.", identifier)
	}
	return ddr, identifier, nil
}

func saveDDR(ctx context.Context, manager DDRManager, tc *ToolContext, ddr *models.DDR) error {
	user := tc.User()
	ddr.LastUpdatedBy = &user
	ddr.LastUpdatedDate = utcNow()
	return manager.UpdateDDR(ctx, ddr, tc.Org(), user)
}

// requestedIndex reads the optional index argument. Anything that is not a
// positive whole number means "allocate the next one".
func requestedIndex(v interface{}) int {
	var n int
	switch value := v.(type) {
	case float64:
		if value != float64(int(value)) {
			return 0
		}
		n = int(value)
	case string:
		n, _ = strconv.Atoi(strings.TrimSpace(value))
	}
	if n < 0 {
		return 0
	}
	return n
}

// NewCreateDDRTool creates the create_ddr tool
func NewCreateDDRTool(manager DDRManager) *StatelessTool {
	return &StatelessTool{
		ToolName:    "create_ddr",
		Description: "Create a new DDR in Draft status. The identifier is TLA-### where ### is the next free index unless one is given.",
		Params: []Param{
			StringParam("tla", "Three letter acronym the DDR is filed under, for example 'SYS'.", true),
			StringParam("index", "Optional index to use. If omitted or not a number, the next free index is allocated.", false),
			StringParam("title", "DDR title.", true),
			StringParam("summary", "One or two sentence summary of the DDR.", true),
		},
		Run: func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args ddrCreateArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			draft := models.DDRDraft{
				Tla:     strings.ToUpper(strings.TrimSpace(args.Tla)),
				Index:   requestedIndex(args.Index),
				Title:   strings.TrimSpace(args.Title),
				Summary: strings.TrimSpace(args.Summary),
			}
			switch {
			case draft.Tla == "":
				return nil, Validation("tla is required.")
			case draft.Title == "":
				return nil, Validation("title is required.")
			case draft.Summary == "":
				return nil, Validation("summary is required.")
			}

			ddr, err := manager.CreateDDR(ctx, tc.Org(), tc.User(), draft)
			if errors.Is(err, models.ErrDDRExists) {
				return nil, Precondition("DDR '%s' already exists.", models.FormatDDRIdentifier(draft.Tla, draft.Index))
			}
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"identifier": ddr.Identifier,
				"tla":        ddr.Tla,
				"title":      ddr.Title,
				"summary":    ddr.Summary,
				"status":     ddr.Status,
			}, nil
		},
	}
}

// NewGetDDRTool creates the get_ddr tool
func NewGetDDRTool(manager DDRManager) *StatelessTool {
	return &StatelessTool{
		ToolName:    "get_ddr",
		Description: "Get a DDR snapshot including metadata, goal and approval info.",
		Params: []Param{
			StringParam("identifier", identifierDescription, true),
		},
		Run: func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args ddrIdentifierArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			ddr, _, err := loadDDR(ctx, manager, tc, args.Identifier)
			if err != nil {
				return nil, err
			}
			return ddrSnapshot{
				Identifier:            models.FormatDDRIdentifier(ddr.Tla, ddr.Index),
				Tla:                   ddr.Tla,
				Title:                 ddr.Title,
				Summary:               ddr.Summary,
				Notes:                 ddr.Notes,
				Status:                ddr.Status,
				StatusTimestamp:       ddr.StatusTimestamp,
				Goal:                  ddr.Goal,
				GoalApprovedBy:        ddr.GoalApprovedBy,
				GoalApprovedTimestamp: ddr.GoalApprovedTimestamp,
				ApprovedBy:            ddr.ApprovedBy,
				ApprovedTimestamp:     ddr.ApprovedTimestamp,
			}, nil
		},
	}
}

// NewListDDRsTool creates the list_ddrs tool
func NewListDDRsTool(manager DDRManager) *StatelessTool {
	return &StatelessTool{
		ToolName:    "list_ddrs",
		Description: "List the DDRs of the current organization with identifier, title, summary, status and status timestamp.",
		Params: []Param{
			EnumParam("status", "Only list DDRs in this status.", false, models.DDRStatuses...),
			StringParam("tla", "Only list DDRs with this three letter acronym.", false),
		},
		Run: func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args ddrListArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			filter := models.DDRFilter{Tla: strings.TrimSpace(args.Tla)}
			if status := strings.TrimSpace(args.Status); status != "" {
				canonical, ok := canonicalDDRStatus(status)
				if !ok {
					return nil, Validation("Invalid status '%s'.", status)
				}
				filter.Status = canonical
			}
			items, err := manager.ListDDRs(ctx, tc.Org(), tc.User(), filter)
			if err != nil {
				return nil, err
			}
			if items == nil {
				items = []models.DDRSummary{}
			}
			return map[string]interface{}{
				"items":        items,
				"record_count": len(items),
			}, nil
		},
	}
}

// NewUpdateDDRMetadataTool creates the update_ddr_metadata tool
func NewUpdateDDRMetadataTool(manager DDRManager) *StatelessTool {
	return &StatelessTool{
		ToolName:    "update_ddr_metadata",
		Description: "Update the DDR title and/or summary metadata.",
		Params: []Param{
			StringParam("identifier", identifierDescription, true),
			StringParam("title", "New DDR title. If omitted, the title is not changed.", false),
			StringParam("summary", "New DDR summary. If omitted, the summary is not changed.", false),
			StringParam("notes", "Note with any relevant information such as warnings.", false),
		},
		Run: func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args ddrMetadataArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if strings.TrimSpace(args.Identifier) == "" {
				return nil, Validation("identifier is required.")
			}
			if args.Title == nil && args.Summary == nil {
				return nil, Validation("At least one of title or summary must be provided.")
			}
			ddr, identifier, err := loadDDR(ctx, manager, tc, args.Identifier)
			if err != nil {
				return nil, err
			}

			if args.Title != nil && strings.TrimSpace(*args.Title) != "" {
				ddr.Title = strings.TrimSpace(*args.Title)
			}
			if args.Summary != nil && strings.TrimSpace(*args.Summary) != "" {
				ddr.Summary = strings.TrimSpace(*args.Summary)
			}
			if args.Notes != nil && strings.TrimSpace(*args.Notes) != "" {
				ddr.Notes = strings.TrimSpace(*args.Notes)
			}
			if err := saveDDR(ctx, manager, tc, ddr); err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"identifier": identifier,
				"title":      ddr.Title,
				"summary":    ddr.Summary,
				"notes":      ddr.Notes,
			}, nil
		},
	}
}

func canonicalDDRStatus(status string) (string, bool) {
	for _, s := range models.DDRStatuses {
		if memory.IgnoreCase.Equal(s, status) {
			return s, true
		}
	}
	return "", false
}

// NewSetDDRStatusTool creates the set_ddr_status tool
func NewSetDDRStatusTool(manager DDRManager) *StatelessTool {
	return &StatelessTool{
		ToolName:    "set_ddr_status",
		Description: "Set the workflow status of a DDR (Draft, InProgress, ReadyForApproval, Approved, Rejected, Tabled, ResearchDraft).",
		Params: []Param{
			StringParam("identifier", identifierDescription, true),
			EnumParam("status", "New DDR status. Case-insensitive.", true, models.DDRStatuses...),
		},
		Run: func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args ddrStatusArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if strings.TrimSpace(args.Identifier) == "" {
				return nil, Validation("identifier is required.")
			}
			status := strings.TrimSpace(args.Status)
			if status == "" {
				return nil, Validation("status is required.")
			}
			canonical, ok := canonicalDDRStatus(status)
			if !ok {
				return nil, Validation("Invalid status '%s'.", status)
			}

			ddr, identifier, err := loadDDR(ctx, manager, tc, args.Identifier)
			if err != nil {
				return nil, err
			}
			ddr.Status = canonical
			ddr.StatusTimestamp = utcNow()
			if err := saveDDR(ctx, manager, tc, ddr); err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"identifier":       identifier,
				"status":           canonical,
				"status_timestamp": ddr.StatusTimestamp,
			}, nil
		},
	}
}

// NewApproveDDRGoalTool creates the approve_ddr_goal tool
func NewApproveDDRGoalTool(manager DDRManager) *StatelessTool {
	return &StatelessTool{
		ToolName:    "approve_ddr_goal",
		Description: "Approve the goal statement of a DDR, recording approver and timestamp. The goal text must already be set.",
		Params: []Param{
			StringParam("identifier", identifierDescription, true),
		},
		Run: func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args ddrIdentifierArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			ddr, identifier, err := loadDDR(ctx, manager, tc, args.Identifier)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(ddr.Goal) == "" {
				return nil, Precondition("DDR cannot approve goal because no goal has been set.")
			}

			// Already approved: report the existing approval unchanged.
			if !ddr.GoalApprovedBy.IsEmpty() && strings.TrimSpace(ddr.GoalApprovedTimestamp) != "" {
				return map[string]interface{}{
					"identifier":              identifier,
					"goal_approved_by":        ddr.GoalApprovedBy,
					"goal_approved_timestamp": ddr.GoalApprovedTimestamp,
				}, nil
			}

			user := tc.User()
			ddr.GoalApprovedBy = &user
			ddr.GoalApprovedTimestamp = utcNow()
			if err := saveDDR(ctx, manager, tc, ddr); err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"identifier":              identifier,
				"goal_approved_by":        user,
				"goal_approved_timestamp": ddr.GoalApprovedTimestamp,
			}, nil
		},
	}
}

// NewApproveDDRTool creates the approve_ddr tool
func NewApproveDDRTool(manager DDRManager) *StatelessTool {
	return &StatelessTool{
		ToolName:    "approve_ddr",
		Description: "Approve a DDR after its goal has been approved, recording approver and timestamps.",
		Params: []Param{
			StringParam("identifier", identifierDescription, true),
		},
		Run: func(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args ddrIdentifierArgs
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			ddr, identifier, err := loadDDR(ctx, manager, tc, args.Identifier)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(ddr.Goal) == "" || strings.TrimSpace(ddr.GoalApprovedTimestamp) == "" {
				return nil, Precondition("DDR cannot be approved because the goal has not been approved.")
			}

			now := utcNow()
			user := tc.User()
			ddr.ApprovedBy = &user
			ddr.ApprovedTimestamp = now
			ddr.Status = models.DDRStatusApproved
			ddr.StatusTimestamp = now
			if err := saveDDR(ctx, manager, tc, ddr); err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"identifier":         identifier,
				"status":             ddr.Status,
				"approved_by":        user,
				"approved_timestamp": now,
			}, nil
		},
	}
}
