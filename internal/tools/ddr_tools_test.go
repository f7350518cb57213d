package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"toolhost/internal/models"
)

type fakeDDRs struct {
	records map[string]*models.DDR
	updates int
	failGet error
}

func newFakeDDRs(records ...*models.DDR) *fakeDDRs {
	f := &fakeDDRs{records: make(map[string]*models.DDR)}
	for _, r := range records {
		f.records[strings.ToUpper(r.Identifier)] = r
	}
	return f
}

func (f *fakeDDRs) CreateDDR(_ context.Context, _, user models.EntityHeader, draft models.DDRDraft) (*models.DDR, error) {
	index := draft.Index
	if index == 0 {
		for _, r := range f.records {
			if r.Tla == draft.Tla && r.Index > index {
				index = r.Index
			}
		}
		index++
	}
	identifier := models.FormatDDRIdentifier(draft.Tla, index)
	if _, exists := f.records[identifier]; exists {
		return nil, models.ErrDDRExists
	}
	ddr := &models.DDR{
		ID:         identifier,
		Tla:        draft.Tla,
		Index:      index,
		Identifier: identifier,
		Title:      draft.Title,
		Summary:    draft.Summary,
		Status:     models.DDRStatusDraft,
		CreatedBy:  &user,
	}
	f.records[identifier] = ddr
	return ddr, nil
}

func (f *fakeDDRs) GetDDR(_ context.Context, _, _ models.EntityHeader, identifier string) (*models.DDR, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	ddr, ok := f.records[strings.ToUpper(identifier)]
	if !ok {
		return nil, nil
	}
	copied := *ddr
	return &copied, nil
}

func (f *fakeDDRs) ListDDRs(_ context.Context, _, _ models.EntityHeader, filter models.DDRFilter) ([]models.DDRSummary, error) {
	var out []models.DDRSummary
	for _, ddr := range f.records {
		if filter.Status != "" && ddr.Status != filter.Status {
			continue
		}
		out = append(out, models.DDRSummary{Identifier: ddr.Identifier, Title: ddr.Title, Status: ddr.Status})
	}
	return out, nil
}

func (f *fakeDDRs) UpdateDDR(_ context.Context, ddr *models.DDR, _, _ models.EntityHeader) error {
	f.updates++
	copied := *ddr
	f.records[strings.ToUpper(ddr.Identifier)] = &copied
	return nil
}

func sampleDDR() *models.DDR {
	return &models.DDR{
		ID:         "ddr-1",
		Tla:        "SYS",
		Index:      1,
		Identifier: "SYS-001",
		Title:      "Session memory",
		Status:     models.DDRStatusDraft,
	}
}

func runDDRTool(t *testing.T, store *fakeDDRs, name, args string) Result {
	t.Helper()
	registry, err := NewBuiltinRegistry(Collaborators{DDRs: store})
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return registry.Execute(context.Background(), name, ToolContext{
		UserID: "user-1", UserName: "Ada", OrgID: "org-1", OrgName: "Engines",
	}, json.RawMessage(args))
}

func TestGetDDR(t *testing.T) {
	store := newFakeDDRs(sampleDDR())

	var body map[string]interface{}
	decodeResult(t, runDDRTool(t, store, "get_ddr", `{"identifier":" sys-001 "}`), &body)
	if body["identifier"] != "SYS-001" || body["title"] != "Session memory" {
		t.Errorf("Unexpected snapshot: %v", body)
	}

	tests := []struct {
		name string
		args string
		want string
		cat  ErrorCategory
	}{
		{name: "missing identifier", args: `{}`, want: "identifier is required.", cat: ErrorCategoryValidation},
		{name: "unknown identifier", args: `{"identifier":"SYS-404"}`, want: "DDR 'SYS-404' not found.", cat: ErrorCategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runDDRTool(t, store, "get_ddr", tt.args)
			if res.OK() {
				t.Fatal("Expected failure")
			}
			if res.Err.Category != tt.cat || res.Err.Message != tt.want {
				t.Errorf("Expected %s '%s', got %s '%s'", tt.cat, tt.want, res.Err.Category, res.Err.Message)
			}
		})
	}
}

func TestCreateDDR(t *testing.T) {
	store := newFakeDDRs(sampleDDR())

	var created map[string]interface{}
	decodeResult(t, runDDRTool(t, store, "create_ddr", `{"tla":" sys ","title":"Catalog policy","summary":"Disable tools by file"}`), &created)
	if created["identifier"] != "SYS-002" {
		t.Errorf("Expected SYS-002, got %v", created["identifier"])
	}
	if created["status"] != models.DDRStatusDraft || created["tla"] != "SYS" {
		t.Errorf("Unexpected create result: %v", created)
	}
	if ddr := store.records["SYS-002"]; ddr == nil || ddr.CreatedBy.ID != "user-1" {
		t.Errorf("Expected SYS-002 stored with its author, got %+v", ddr)
	}

	var first map[string]interface{}
	decodeResult(t, runDDRTool(t, store, "create_ddr", `{"tla":"NET","title":"Transport","summary":"Wire format"}`), &first)
	if first["identifier"] != "NET-001" {
		t.Errorf("Expected NET-001 for a new TLA, got %v", first["identifier"])
	}
}

func TestCreateDDR_ExplicitIndex(t *testing.T) {
	store := newFakeDDRs(sampleDDR())

	tests := []struct {
		name  string
		index string
		want  string
	}{
		{name: "string index", index: `"7"`, want: "SYS-007"},
		{name: "number index", index: `12`, want: "SYS-012"},
		{name: "non numeric allocates", index: `"next"`, want: "SYS-013"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]interface{}
			args := `{"tla":"SYS","index":` + tt.index + `,"title":"Imported","summary":"From the old register"}`
			decodeResult(t, runDDRTool(t, store, "create_ddr", args), &body)
			if body["identifier"] != tt.want {
				t.Errorf("Expected %s, got %v", tt.want, body["identifier"])
			}
		})
	}
}

func TestCreateDDR_Failures(t *testing.T) {
	store := newFakeDDRs(sampleDDR())

	tests := []struct {
		name string
		args string
		want string
		cat  ErrorCategory
	}{
		{name: "missing tla", args: `{"title":"T","summary":"S"}`, want: "tla is required.", cat: ErrorCategoryValidation},
		{name: "missing title", args: `{"tla":"SYS","summary":"S"}`, want: "title is required.", cat: ErrorCategoryValidation},
		{name: "blank summary", args: `{"tla":"SYS","title":"T","summary":"  "}`, want: "summary is required.", cat: ErrorCategoryValidation},
		{name: "index in use", args: `{"tla":"sys","index":"1","title":"T","summary":"S"}`, want: "DDR 'SYS-001' already exists.", cat: ErrorCategoryPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runDDRTool(t, store, "create_ddr", tt.args)
			if res.OK() {
				t.Fatal("Expected failure")
			}
			if res.Err.Category != tt.cat || res.Err.Message != tt.want {
				t.Errorf("Expected %s '%s', got %s '%s'", tt.cat, tt.want, res.Err.Category, res.Err.Message)
			}
		})
	}
	if len(store.records) != 1 {
		t.Errorf("Expected failed creates to leave the register alone, got %d records", len(store.records))
	}
}

func TestGetDDR_CollaboratorFailureIsGeneric(t *testing.T) {
	store := newFakeDDRs()
	store.failGet = errors.New("connection reset")

	res := runDDRTool(t, store, "get_ddr", `{"identifier":"SYS-001"}`)
	if res.OK() || res.Err.Category != ErrorCategoryUnexpected {
		t.Fatalf("Expected unexpected failure, got %+v", res.Err)
	}
	if strings.Contains(string(res.Envelope), "connection reset") {
		t.Error("Expected collaborator error text to stay out of the envelope")
	}
}

func TestSetDDRStatus(t *testing.T) {
	store := newFakeDDRs(sampleDDR())

	var body map[string]string
	decodeResult(t, runDDRTool(t, store, "set_ddr_status", `{"identifier":"SYS-001","status":"readyforapproval"}`), &body)
	if body["status"] != models.DDRStatusReadyForApproval {
		t.Errorf("Expected canonical status, got %s", body["status"])
	}
	if store.records["SYS-001"].StatusTimestamp == "" {
		t.Error("Expected status timestamp to be stamped")
	}

	res := runDDRTool(t, store, "set_ddr_status", `{"identifier":"SYS-001"}`)
	if res.OK() || res.Err.Message != "status is required." {
		t.Errorf("Expected missing status failure, got %s", res.Envelope)
	}

	res = runDDRTool(t, store, "set_ddr_status", `{"identifier":"SYS-001","status":"Shipped"}`)
	if res.OK() || res.Err.Message != "Invalid status 'Shipped'." {
		t.Errorf("Expected invalid status failure, got %s", res.Envelope)
	}
}

func TestUpdateDDRMetadata(t *testing.T) {
	store := newFakeDDRs(sampleDDR())

	res := runDDRTool(t, store, "update_ddr_metadata", `{"identifier":"SYS-001"}`)
	if res.OK() || res.Err.Message != "At least one of title or summary must be provided." {
		t.Errorf("Expected failure without title or summary, got %s", res.Envelope)
	}

	var body map[string]string
	decodeResult(t, runDDRTool(t, store, "update_ddr_metadata", `{"identifier":"SYS-001","title":"  ","summary":"Working memory design"}`), &body)
	if body["title"] != "Session memory" {
		t.Errorf("Expected blank title to be ignored, got %s", body["title"])
	}
	if body["summary"] != "Working memory design" {
		t.Errorf("Expected summary to be applied, got %s", body["summary"])
	}
}

func TestApproveDDR_RequiresGoalApproval(t *testing.T) {
	store := newFakeDDRs(sampleDDR())

	res := runDDRTool(t, store, "approve_ddr_goal", `{"identifier":"SYS-001"}`)
	if res.OK() || res.Err.Category != ErrorCategoryPrecondition {
		t.Fatalf("Expected precondition failure for empty goal, got %s", res.Envelope)
	}
	if res.Err.Message != "DDR cannot approve goal because no goal has been set." {
		t.Errorf("Unexpected message: %s", res.Err.Message)
	}

	store.records["SYS-001"].Goal = "Persist working memory per session"
	res = runDDRTool(t, store, "approve_ddr", `{"identifier":"SYS-001"}`)
	if res.OK() || res.Err.Message != "DDR cannot be approved because the goal has not been approved." {
		t.Fatalf("Expected approval to wait for goal approval, got %s", res.Envelope)
	}
	if store.updates != 0 {
		t.Errorf("Expected no writes on refused approvals, got %d", store.updates)
	}

	decodeResult(t, runDDRTool(t, store, "approve_ddr_goal", `{"identifier":"SYS-001"}`), &map[string]interface{}{})
	stamped := store.records["SYS-001"].GoalApprovedTimestamp
	if stamped == "" {
		t.Fatal("Expected goal approval timestamp")
	}

	// A second goal approval reports the existing one without writing.
	var again map[string]interface{}
	decodeResult(t, runDDRTool(t, store, "approve_ddr_goal", `{"identifier":"SYS-001"}`), &again)
	if again["goal_approved_timestamp"] != stamped || store.updates != 1 {
		t.Errorf("Expected existing approval to be returned unchanged, got %v after %d writes", again, store.updates)
	}

	var approved struct {
		Status     string `json:"status"`
		ApprovedBy struct {
			ID string `json:"id"`
		} `json:"approved_by"`
	}
	decodeResult(t, runDDRTool(t, store, "approve_ddr", `{"identifier":"SYS-001"}`), &approved)
	if approved.Status != models.DDRStatusApproved || approved.ApprovedBy.ID != "user-1" {
		t.Errorf("Unexpected approval result: %+v", approved)
	}
}

func TestListDDRs(t *testing.T) {
	approved := sampleDDR()
	approved.Identifier = "SYS-002"
	approved.Status = models.DDRStatusApproved
	store := newFakeDDRs(sampleDDR(), approved)

	var body struct {
		Items       []models.DDRSummary `json:"items"`
		RecordCount int                 `json:"record_count"`
	}
	decodeResult(t, runDDRTool(t, store, "list_ddrs", `{"status":"approved"}`), &body)
	if body.RecordCount != 1 || body.Items[0].Identifier != "SYS-002" {
		t.Errorf("Expected only SYS-002, got %+v", body)
	}

	decodeResult(t, runDDRTool(t, store, "list_ddrs", ``), &body)
	if body.RecordCount != 2 {
		t.Errorf("Expected 2 records, got %d", body.RecordCount)
	}
}
