package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"toolhost/internal/memory"
)

func decodeResult(t *testing.T, res Result, v interface{}) {
	t.Helper()
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err)
	}
	if err := json.Unmarshal(mustEnvelope(t, res.Envelope).Result, v); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
}

func TestNewTimestampTool(t *testing.T) {
	tool := NewTimestampTool()

	if tool.Name() != "get_current_timestamp" {
		t.Errorf("Expected tool name 'get_current_timestamp', got %s", tool.Name())
	}
	if !tool.IsServerExecuted() {
		t.Error("Expected tool to execute on the server")
	}
	if len(tool.Schema().Parameters.Required) != 0 {
		t.Errorf("Expected no required parameters, got %v", tool.Schema().Parameters.Required)
	}
}

func TestExecuteGetCurrentTimestamp_DefaultUTC(t *testing.T) {
	registry := newTestRegistry(t)

	before := time.Now().UTC().Add(-time.Second)
	res := registry.Execute(context.Background(), "get_current_timestamp", ToolContext{}, nil)

	var body map[string]string
	decodeResult(t, res, &body)

	stamp, err := time.Parse(memory.TimestampLayout, body["timestamp"])
	if err != nil {
		t.Fatalf("Expected timestamp in the record layout, got %s: %v", body["timestamp"], err)
	}
	if stamp.Before(before) {
		t.Errorf("Expected current time, got %s", body["timestamp"])
	}
	if _, ok := body["localTime"]; ok {
		t.Error("Expected no localTime without a timezone")
	}
}

func TestExecuteGetCurrentTimestamp_WithTimezone(t *testing.T) {
	timezones := []string{"America/New_York", "Asia/Tokyo", "Europe/London"}

	for _, tz := range timezones {
		t.Run(tz, func(t *testing.T) {
			res := newTestRegistry(t).Execute(context.Background(), "get_current_timestamp", ToolContext{},
				json.RawMessage(`{"timezone":"`+tz+`"}`))

			var body map[string]string
			decodeResult(t, res, &body)
			if body["timezone"] != tz {
				t.Errorf("Expected timezone %s, got %s", tz, body["timezone"])
			}
			if body["localTime"] == "" {
				t.Error("Expected localTime to be set")
			}
		})
	}
}

func TestExecuteGetCurrentTimestamp_InvalidTimezone(t *testing.T) {
	res := newTestRegistry(t).Execute(context.Background(), "get_current_timestamp", ToolContext{},
		json.RawMessage(`{"timezone":"Invalid/Timezone"}`))

	if res.OK() {
		t.Fatal("Expected error for invalid timezone")
	}
	if res.Err.Category != ErrorCategoryValidation {
		t.Errorf("Expected validation, got %s", res.Err.Category)
	}
}

func TestAuditFieldsForCreate(t *testing.T) {
	res := newTestRegistry(t).Execute(context.Background(), "get_audit_fields_for_create",
		ToolContext{UserID: "user-1", UserName: "Ada"}, nil)

	var body struct {
		CreationDate    string `json:"creationDate"`
		LastUpdatedDate string `json:"lastUpdatedDate"`
		CreatedBy       struct {
			ID string `json:"id"`
		} `json:"createdBy"`
		LastUpdatedBy struct {
			Text string `json:"text"`
		} `json:"lastUpdatedBy"`
	}
	decodeResult(t, res, &body)

	if body.CreationDate == "" || body.CreationDate != body.LastUpdatedDate {
		t.Errorf("Expected matching creation and update stamps, got %s and %s", body.CreationDate, body.LastUpdatedDate)
	}
	if body.CreatedBy.ID != "user-1" {
		t.Errorf("Expected createdBy user-1, got %s", body.CreatedBy.ID)
	}
	if body.LastUpdatedBy.Text != "Ada" {
		t.Errorf("Expected lastUpdatedBy Ada, got %s", body.LastUpdatedBy.Text)
	}
}

func TestAuditFieldsForUpdate_RequiresUser(t *testing.T) {
	res := newTestRegistry(t).Execute(context.Background(), "get_audit_fields_for_update", ToolContext{}, nil)

	if res.OK() {
		t.Fatal("Expected failure without a user")
	}
	if res.Err.Category != ErrorCategoryPrecondition {
		t.Errorf("Expected precondition, got %s", res.Err.Category)
	}
}

func TestCurrentUser(t *testing.T) {
	res := newTestRegistry(t).Execute(context.Background(), "get_current_user",
		ToolContext{UserID: "user-1", UserName: "Ada", OrgID: "org-1", OrgName: "Engines"}, nil)

	var body struct {
		User struct{ ID, Text string } `json:"user"`
		Org  struct{ ID, Text string } `json:"org"`
	}
	decodeResult(t, res, &body)

	if body.Org.ID != "org-1" || body.Org.Text != "Engines" {
		t.Errorf("Unexpected org: %+v", body.Org)
	}
}
