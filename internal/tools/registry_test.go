package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"toolhost/internal/memory"
)

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	registry, err := NewBuiltinRegistry(Collaborators{}, opts...)
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return registry
}

func newTestPipeline(session *memory.Session) *PipelineContext {
	return NewPipelineContext(context.Background(), ToolContext{
		UserID:   "user-1",
		UserName: "Ada Lovelace",
		OrgID:    "org-1",
		OrgName:  "Analytical Engines",
	}, session)
}

func mustEnvelope(t *testing.T, raw json.RawMessage) *Envelope {
	t.Helper()
	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("Failed to parse envelope %s: %v", raw, err)
	}
	return env
}

func echoTool(name string) *StatelessTool {
	return &StatelessTool{
		ToolName:    name,
		Description: "Echoes its input",
		Params:      []Param{StringParam("input", "Text to echo", false)},
		Run: func(_ context.Context, _ *ToolContext, raw json.RawMessage) (interface{}, error) {
			var args struct {
				Input string `json:"input"`
			}
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return map[string]string{"echo": args.Input}, nil
		},
	}
}

type shapelessTool struct{}

func (shapelessTool) Name() string           { return "shapeless" }
func (shapelessTool) IsServerExecuted() bool { return true }
func (shapelessTool) Schema() FunctionSchema { return BuildSchema("shapeless", "") }

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (o *recordingObserver) ObserveToolCall(toolName, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string][]string)
	}
	o.outcomes[toolName] = append(o.outcomes[toolName], outcome)
}

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) SessionChanged(_ context.Context, sessionID, branch, toolName string) error {
	n.calls = append(n.calls, sessionID+"/"+branch+"/"+toolName)
	return nil
}

type staticPolicy map[string]bool

func (p staticPolicy) IsDisabled(toolName string) bool { return p[toolName] }

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	if registry.Count() != 0 {
		t.Errorf("Expected 0 tools in new registry, got %d", registry.Count())
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool("test_tool")); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}

	if registry.Count() != 1 {
		t.Errorf("Expected 1 tool, got %d", registry.Count())
	}
}

func TestRegistry_Register_EmptyName(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool("")); err == nil {
		t.Error("Expected error for empty tool name, got nil")
	}
}

func TestRegistry_Register_NoInvocationShape(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(shapelessTool{}); err == nil {
		t.Error("Expected error for a tool without an execution entry point, got nil")
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool("test_tool")); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}
	if err := registry.Register(echoTool("test_tool")); err == nil {
		t.Error("Expected error for duplicate tool registration, got nil")
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(echoTool("test_tool"))

	tool, exists := registry.Get("test_tool")
	if !exists {
		t.Fatal("Expected tool to exist")
	}
	if tool.Name() != "test_tool" {
		t.Errorf("Expected tool name 'test_tool', got %s", tool.Name())
	}

	if _, exists := registry.Get("missing"); exists {
		t.Error("Expected missing tool to not exist")
	}
}

func TestRegistry_SchemasSortedAndFiltered(t *testing.T) {
	registry := NewRegistry(WithPolicy(staticPolicy{"beta": true}))
	for _, name := range []string{"gamma", "alpha", "beta"} {
		_ = registry.Register(echoTool(name))
	}

	schemas := registry.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("Expected 2 enabled schemas, got %d", len(schemas))
	}
	if schemas[0].Name != "alpha" || schemas[1].Name != "gamma" {
		t.Errorf("Expected [alpha gamma], got [%s %s]", schemas[0].Name, schemas[1].Name)
	}

	list, err := registry.List()
	if err != nil {
		t.Fatalf("Failed to list tools: %v", err)
	}
	if list[0]["type"] != "function" {
		t.Errorf("Expected type 'function', got %v", list[0]["type"])
	}
}

func TestRegistry_Execute(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(echoTool("echo"))

	res := registry.Execute(context.Background(), "echo", ToolContext{UserID: "user-1"}, json.RawMessage(`{"input":"hi","extra":1}`))
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err)
	}

	env := mustEnvelope(t, res.Envelope)
	if !env.OK {
		t.Error("Expected ok=true")
	}
	if string(env.Result) != `{"echo":"hi"}` {
		t.Errorf("Expected result {\"echo\":\"hi\"}, got %s", env.Result)
	}
}

func TestRegistry_Execute_NotFound(t *testing.T) {
	registry := NewRegistry()

	res := registry.Execute(context.Background(), "nope", ToolContext{}, nil)
	if res.OK() {
		t.Fatal("Expected failure for unknown tool")
	}
	if res.Err.Category != ErrorCategoryNotFound {
		t.Errorf("Expected not_found, got %s", res.Err.Category)
	}
	env := mustEnvelope(t, res.Envelope)
	if env.OK || env.Error != "Tool 'nope' not found." {
		t.Errorf("Unexpected envelope: %s", res.Envelope)
	}
}

func TestRegistry_Execute_DisabledTool(t *testing.T) {
	registry := NewRegistry(WithPolicy(staticPolicy{"echo": true}))
	_ = registry.Register(echoTool("echo"))

	res := registry.Execute(context.Background(), "echo", ToolContext{}, nil)
	if res.OK() {
		t.Fatal("Expected disabled tool to be refused")
	}
	if res.Err.Message != "Tool 'echo' is disabled." {
		t.Errorf("Unexpected message: %s", res.Err.Message)
	}
}

func TestRegistry_Execute_PipelineOnlyToolNotSupported(t *testing.T) {
	registry := newTestRegistry(t)

	res := registry.Execute(context.Background(), "session_kfr", ToolContext{UserID: "user-1"}, json.RawMessage(`{"operation":"list"}`))
	if res.OK() {
		t.Fatal("Expected session tool to refuse the narrow context")
	}
	if res.Err.Category != ErrorCategoryNotSupported {
		t.Errorf("Expected not_supported, got %s", res.Err.Category)
	}
	if !errors.Is(res.Err, ErrShapeNotSupported) {
		t.Error("Expected error to wrap ErrShapeNotSupported")
	}
}

func TestRegistry_ExecutePipeline_NarrowsForContextTools(t *testing.T) {
	registry := newTestRegistry(t)

	res := registry.ExecutePipeline(newTestPipeline(nil), "get_current_user", nil)
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err)
	}

	var body struct {
		User struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"user"`
	}
	if err := json.Unmarshal(mustEnvelope(t, res.Envelope).Result, &body); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if body.User.ID != "user-1" || body.User.Text != "Ada Lovelace" {
		t.Errorf("Unexpected user: %+v", body.User)
	}
}

func TestRegistry_ExecutePipeline_NoSession(t *testing.T) {
	registry := newTestRegistry(t)

	res := registry.ExecutePipeline(newTestPipeline(nil), "session_kfr", json.RawMessage(`{"operation":"list"}`))
	if res.OK() {
		t.Fatal("Expected failure without a session")
	}
	if res.Err.Category != ErrorCategoryNoSession {
		t.Errorf("Expected no_session, got %s", res.Err.Category)
	}
	if res.Err.Message != "session_kfr requires an active session." {
		t.Errorf("Unexpected message: %s", res.Err.Message)
	}
}

func TestRegistry_ExecutePipeline_MalformedArguments(t *testing.T) {
	registry := newTestRegistry(t)
	pc := newTestPipeline(memory.NewSession("s-1", "user-1", "org-1"))

	res := registry.ExecutePipeline(pc, "session_kfr", json.RawMessage(`{"operation":`))
	if res.OK() {
		t.Fatal("Expected failure for malformed arguments")
	}
	if res.Err.Category != ErrorCategoryMalformedInput {
		t.Errorf("Expected malformed_input, got %s", res.Err.Category)
	}
	if mustEnvelope(t, res.Envelope).Error != "argumentsJson was not valid JSON." {
		t.Errorf("Unexpected envelope: %s", res.Envelope)
	}
}

func TestRegistry_Execute_RecoversPanics(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&StatelessTool{
		ToolName: "boom_tool",
		Run: func(context.Context, *ToolContext, json.RawMessage) (interface{}, error) {
			panic("boom")
		},
	})

	res := registry.Execute(context.Background(), "boom_tool", ToolContext{}, nil)
	if res.OK() {
		t.Fatal("Expected failure from panicking tool")
	}
	if res.Err.Category != ErrorCategoryUnexpected {
		t.Errorf("Expected unexpected, got %s", res.Err.Category)
	}
	if mustEnvelope(t, res.Envelope).Error != "boom_tool failed to process request." {
		t.Errorf("Unexpected envelope: %s", res.Envelope)
	}
}

func TestRegistry_Execute_CancelledBeforeStart(t *testing.T) {
	registry := NewRegistry()
	called := false
	_ = registry.Register(&StatelessTool{
		ToolName: "slow_tool",
		Run: func(context.Context, *ToolContext, json.RawMessage) (interface{}, error) {
			called = true
			return nil, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := registry.Execute(ctx, "slow_tool", ToolContext{}, nil)
	if called {
		t.Error("Expected tool not to run after cancellation")
	}
	if res.OK() || res.Err.Category != ErrorCategoryCancelled {
		t.Errorf("Expected cancelled failure, got %+v", res.Err)
	}
}

func TestRegistry_ObserverAndNotifier(t *testing.T) {
	observer := &recordingObserver{}
	notifier := &recordingNotifier{}
	registry := newTestRegistry(t, WithObserver(observer), WithChangeNotifier(notifier))
	pc := newTestPipeline(memory.NewSession("s-1", "user-1", "org-1"))

	registry.ExecutePipeline(pc, "session_kfr", json.RawMessage(`{"operation":"list"}`))
	registry.ExecutePipeline(pc, "session_kfr", json.RawMessage(`{"operation":"bogus"}`))
	registry.ExecutePipeline(pc, "kfr_list_tags", nil)

	got := observer.outcomes["session_kfr"]
	if len(got) != 2 || got[0] != "ok" || got[1] != "validation" {
		t.Errorf("Expected outcomes [ok validation], got %v", got)
	}

	// list succeeded on a mutating tool; bogus failed; kfr_list_tags is read-only.
	if len(notifier.calls) != 1 || notifier.calls[0] != "s-1/main/session_kfr" {
		t.Errorf("Expected one change notification, got %v", notifier.calls)
	}
}

func TestRegistry_ObserverFoldsUnknownNames(t *testing.T) {
	observer := &recordingObserver{}
	registry := newTestRegistry(t, WithObserver(observer))
	pc := newTestPipeline(memory.NewSession("s-1", "user-1", "org-1"))

	for _, name := range []string{"bogus_0", "bogus_1", "bogus_2"} {
		registry.Execute(context.Background(), name, ToolContext{UserID: "user-1", OrgID: "org-1"}, nil)
	}
	registry.ExecutePipeline(pc, "bogus_3", nil)

	if len(observer.outcomes) != 1 {
		t.Errorf("Expected a single observed label, got %v", observer.outcomes)
	}
	got := observer.outcomes[UnknownToolLabel]
	if len(got) != 4 || got[0] != "not_found" {
		t.Errorf("Expected 4 not_found outcomes under %s, got %v", UnknownToolLabel, got)
	}
}

func TestRegistry_ThreadSafety(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	numGoroutines := 100

	// Concurrent registrations
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			// Ignore duplicate errors
			_ = registry.Register(echoTool(string(rune('a' + (id % 26)))))
		}(i)
	}

	// Concurrent reads
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			registry.Get(string(rune('a' + (id % 26))))
			registry.Schemas()
			registry.Count()
		}(i)
	}

	wg.Wait()

	if registry.Count() != 26 {
		t.Errorf("Expected 26 tools after concurrent registration, got %d", registry.Count())
	}
}

func TestBuiltinRegistry_Tools(t *testing.T) {
	registry := newTestRegistry(t)

	expected := []string{
		"session_kfr", "kfr_list_categories", "kfr_list_tags", "kfr_query_by_category",
		"kfr_query_by_tags", "kfr_set_category", "kfr_set_tags",
		"session_list_create", "session_list_get", "session_lists_list", "session_list_update",
		"session_list_delete", "session_list_item_add", "session_list_item_update",
		"session_list_item_move", "session_list_item_remove", "session_list_items_list",
		"get_current_timestamp", "get_audit_fields_for_create", "get_audit_fields_for_update",
		"get_current_user",
	}
	for _, name := range expected {
		if _, exists := registry.Get(name); !exists {
			t.Errorf("Expected built-in tool %s to be registered", name)
		}
	}
	if registry.Count() != len(expected) {
		t.Errorf("Expected %d tools without collaborators, got %d", len(expected), registry.Count())
	}
	if _, exists := registry.Get("get_ddr"); exists {
		t.Error("Expected DDR tools to be absent without a DDR store")
	}
}

func TestBuiltinRegistry_WithCollaborators(t *testing.T) {
	registry, err := NewBuiltinRegistry(Collaborators{DDRs: newFakeDDRs(), Categories: &fakeCategories{}})
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	for _, name := range []string{"create_ddr", "get_ddr", "list_ddrs", "update_ddr_metadata", "set_ddr_status", "approve_ddr_goal", "approve_ddr", "categories_list"} {
		if _, exists := registry.Get(name); !exists {
			t.Errorf("Expected collaborator tool %s to be registered", name)
		}
	}
}
