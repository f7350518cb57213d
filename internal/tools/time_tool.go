package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"toolhost/internal/memory"
)

type timestampArgs struct {
	Timezone string `json:"timezone"`
}

// NewTimestampTool creates the get_current_timestamp tool
func NewTimestampTool() *StatelessTool {
	return &StatelessTool{
		ToolName:    "get_current_timestamp",
		Description: "Get the current UTC timestamp in the format used by every record in this system.",
		Params: []Param{
			StringParam("timezone", "Timezone name (e.g., 'America/New_York', 'Asia/Tokyo'). Adds a localTime field when set.", false),
		},
		Run: executeGetCurrentTimestamp,
	}
}

func executeGetCurrentTimestamp(_ context.Context, _ *ToolContext, raw json.RawMessage) (interface{}, error) {
	var args timestampArgs
	if err := DecodeArgs(raw, &args); err != nil {
		return nil, err
	}

	now := time.Now()
	result := map[string]interface{}{
		"timestamp": now.UTC().Format(memory.TimestampLayout),
	}

	if tz := strings.TrimSpace(args.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, Validation("Invalid timezone '%s', use format like 'America/New_York' or 'UTC'.", tz)
		}
		result["timezone"] = tz
		result["localTime"] = now.In(loc).Format("2006-01-02 15:04:05 MST")
	}
	return result, nil
}

// NewAuditFieldsForCreateTool creates the get_audit_fields_for_create tool
func NewAuditFieldsForCreateTool() *StatelessTool {
	return &StatelessTool{
		ToolName:    "get_audit_fields_for_create",
		Description: "Get the creation and last-update audit fields for a new record, stamped with the current user and time.",
		Run: func(_ context.Context, tc *ToolContext, _ json.RawMessage) (interface{}, error) {
			if err := requireUser(tc); err != nil {
				return nil, err
			}
			now := utcNow()
			user := tc.User()
			return map[string]interface{}{
				"creationDate":    now,
				"lastUpdatedDate": now,
				"createdBy":       user,
				"lastUpdatedBy":   user,
			}, nil
		},
	}
}

// NewAuditFieldsForUpdateTool creates the get_audit_fields_for_update tool
func NewAuditFieldsForUpdateTool() *StatelessTool {
	return &StatelessTool{
		ToolName:    "get_audit_fields_for_update",
		Description: "Get the last-update audit fields for an existing record, stamped with the current user and time.",
		Run: func(_ context.Context, tc *ToolContext, _ json.RawMessage) (interface{}, error) {
			if err := requireUser(tc); err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"lastUpdatedDate": utcNow(),
				"lastUpdatedBy":   tc.User(),
			}, nil
		},
	}
}

// NewCurrentUserTool creates the get_current_user tool
func NewCurrentUserTool() *StatelessTool {
	return &StatelessTool{
		ToolName:    "get_current_user",
		Description: "Get the user and organization the conversation is acting for.",
		Run: func(_ context.Context, tc *ToolContext, _ json.RawMessage) (interface{}, error) {
			if err := requireUser(tc); err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"user": tc.User(),
				"org":  tc.Org(),
			}, nil
		},
	}
}

func requireUser(tc *ToolContext) error {
	if tc == nil || tc.UserID == "" {
		return Precondition("No authenticated user is available for this call.")
	}
	return nil
}
