package tools

import (
	"context"
	"encoding/json"

	"toolhost/internal/memory"
	"toolhost/internal/models"
)

// Tool is the capability every catalog entry shares. A tool additionally
// implements ContextTool, PipelineTool, or both; the registry selects the
// invocation shape from those.
type Tool interface {
	Name() string
	IsServerExecuted() bool
	Schema() FunctionSchema
}

// ContextTool runs with caller identity only.
type ContextTool interface {
	Tool
	Execute(ctx context.Context, tc *ToolContext, args json.RawMessage) (json.RawMessage, error)
}

// PipelineTool runs against a conversation session.
type PipelineTool interface {
	Tool
	ExecutePipeline(pc *PipelineContext, args json.RawMessage) (json.RawMessage, error)
}

// MutatingTool is implemented by tools whose successful calls change session state.
type MutatingTool interface {
	Mutates() bool
}

// ToolContext carries the acting user and organization.
type ToolContext struct {
	UserID   string
	UserName string
	OrgID    string
	OrgName  string
	CallID   string
}

// User returns the acting user as an entity header
func (tc *ToolContext) User() models.EntityHeader {
	return models.EntityHeader{ID: tc.UserID, Text: tc.UserName}
}

// Org returns the acting organization as an entity header
func (tc *ToolContext) Org() models.EntityHeader {
	return models.EntityHeader{ID: tc.OrgID, Text: tc.OrgName}
}

// PipelineContext extends ToolContext with the active session and the
// caller's cancellation signal.
type PipelineContext struct {
	ToolContext
	Session *memory.Session
	ctx     context.Context
}

// NewPipelineContext binds a session to a request context. A nil session is
// allowed; session-aware tools then fail with a no-session error.
func NewPipelineContext(ctx context.Context, tc ToolContext, session *memory.Session) *PipelineContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PipelineContext{ToolContext: tc, Session: session, ctx: ctx}
}

// Context returns the cancellation context of the call.
func (pc *PipelineContext) Context() context.Context {
	if pc.ctx == nil {
		return context.Background()
	}
	return pc.ctx
}

// SessionID returns the id of the bound session, or "" without one.
func (pc *PipelineContext) SessionID() string {
	if pc.Session == nil {
		return ""
	}
	return pc.Session.ID
}

// PipelineFunc is the body of a session-aware tool. The returned value becomes
// the envelope's result.
type PipelineFunc func(pc *PipelineContext, args json.RawMessage) (interface{}, error)

// ContextFunc is the body of a stateless tool.
type ContextFunc func(ctx context.Context, tc *ToolContext, args json.RawMessage) (interface{}, error)

// SessionTool is a PipelineTool built from a declared parameter set.
type SessionTool struct {
	ToolName    string
	Description string
	Params      []Param
	Mutating    bool
	Run         PipelineFunc
}

func (t *SessionTool) Name() string           { return t.ToolName }
func (t *SessionTool) IsServerExecuted() bool { return true }
func (t *SessionTool) Mutates() bool          { return t.Mutating }

func (t *SessionTool) Schema() FunctionSchema {
	return BuildSchema(t.ToolName, t.Description, t.Params...)
}

func (t *SessionTool) ExecutePipeline(pc *PipelineContext, args json.RawMessage) (json.RawMessage, error) {
	if pc == nil || pc.Session == nil {
		return nil, memory.ErrNoSession
	}
	result, err := t.Run(pc, args)
	if err != nil {
		return nil, err
	}
	return Success(result)
}

// StatelessTool is a ContextTool built from a declared parameter set.
type StatelessTool struct {
	ToolName    string
	Description string
	Params      []Param
	Run         ContextFunc
}

func (t *StatelessTool) Name() string           { return t.ToolName }
func (t *StatelessTool) IsServerExecuted() bool { return true }

func (t *StatelessTool) Schema() FunctionSchema {
	return BuildSchema(t.ToolName, t.Description, t.Params...)
}

func (t *StatelessTool) Execute(ctx context.Context, tc *ToolContext, args json.RawMessage) (json.RawMessage, error) {
	result, err := t.Run(ctx, tc, args)
	if err != nil {
		return nil, err
	}
	return Success(result)
}
