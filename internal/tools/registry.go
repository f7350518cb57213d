package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"toolhost/internal/logging"
)

// Observer receives the outcome of every dispatched call
type Observer interface {
	ObserveToolCall(toolName, outcome string, duration time.Duration)
}

// Policy decides whether a registered tool may currently be called or advertised
type Policy interface {
	IsDisabled(toolName string) bool
}

// ChangeNotifier is told after a mutating tool succeeds against a session
type ChangeNotifier interface {
	SessionChanged(ctx context.Context, sessionID, branch, toolName string) error
}

// Result is the outcome of a dispatched call. Envelope is always set.
type Result struct {
	Envelope json.RawMessage
	Err      *ToolError
}

// OK reports whether the call succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Registry manages all available tools and dispatches calls to them
type Registry struct {
	tools    map[string]Tool
	mutex    sync.RWMutex
	observer Observer
	policy   Policy
	notifier ChangeNotifier
}

// Option configures a Registry
type Option func(*Registry)

// WithObserver reports call outcomes to o
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithPolicy hides and blocks the tools p disables
func WithPolicy(p Policy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithChangeNotifier announces successful session mutations to n
func WithChangeNotifier(n ChangeNotifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a new tool to the registry
func (r *Registry) Register(tool Tool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	_, isContext := tool.(ContextTool)
	_, isPipeline := tool.(PipelineTool)
	if !isContext && !isPipeline {
		return fmt.Errorf("tool %s must implement ContextTool or PipelineTool", name)
	}

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s is already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.tools)
}

// Names returns every registered tool name in ascending order
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the published schema of every enabled tool, ordered by name
func (r *Registry) Schemas() []FunctionSchema {
	names := r.Names()
	schemas := make([]FunctionSchema, 0, len(names))
	for _, name := range names {
		if r.disabled(name) {
			continue
		}
		tool, ok := r.Get(name)
		if !ok {
			continue
		}
		schemas = append(schemas, tool.Schema())
	}
	return schemas
}

// List returns all enabled tools in OpenAI tool format
func (r *Registry) List() ([]map[string]interface{}, error) {
	return OpenAITools(r.Schemas())
}

func (r *Registry) disabled(name string) bool {
	return r.policy != nil && r.policy.IsDisabled(name)
}

// Execute runs a tool through the narrow context shape. Tools that only
// run against a session fail with a not-supported error.
func (r *Registry) Execute(ctx context.Context, name string, tc ToolContext, args json.RawMessage) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	tool, terr := r.lookup(name)
	if terr != nil {
		return r.finish(name, tc, nil, time.Now(), nil, terr)
	}

	ensureCallID(&tc)
	start := time.Now()

	ct, ok := tool.(ContextTool)
	if !ok {
		return r.finish(name, tc, nil, start, nil, notSupported(name, "tool execution context"))
	}

	envelope, err := guard(ctx, func() (json.RawMessage, error) {
		return ct.Execute(ctx, &tc, args)
	})
	return r.finish(name, tc, nil, start, envelope, err)
}

// ExecutePipeline runs a tool with the session-bearing context. Stateless
// tools receive the identity part of pc.
func (r *Registry) ExecutePipeline(pc *PipelineContext, name string, args json.RawMessage) Result {
	if pc == nil {
		pc = NewPipelineContext(context.Background(), ToolContext{}, nil)
	}
	tool, terr := r.lookup(name)
	if terr != nil {
		return r.finish(name, pc.ToolContext, pc, time.Now(), nil, terr)
	}

	ensureCallID(&pc.ToolContext)
	start := time.Now()
	ctx := pc.Context()

	var call func() (json.RawMessage, error)
	switch t := tool.(type) {
	case PipelineTool:
		call = func() (json.RawMessage, error) { return t.ExecutePipeline(pc, args) }
	case ContextTool:
		tc := pc.ToolContext
		call = func() (json.RawMessage, error) { return t.Execute(ctx, &tc, args) }
	default:
		return r.finish(name, pc.ToolContext, pc, start, nil, notSupported(name, "pipeline context"))
	}

	envelope, err := guard(ctx, call)
	if err == nil {
		r.announce(ctx, tool, pc)
	}
	return r.finish(name, pc.ToolContext, pc, start, envelope, err)
}

func (r *Registry) lookup(name string) (Tool, *ToolError) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, NotFound("Tool '%s' not found.", name)
	}
	if r.disabled(name) {
		return nil, Precondition("Tool '%s' is disabled.", name)
	}
	return tool, nil
}

// guard checks cancellation before the call starts and converts panics
// into errors.
func guard(ctx context.Context, call func() (json.RawMessage, error)) (envelope json.RawMessage, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			envelope = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return call()
}

func (r *Registry) finish(name string, tc ToolContext, pc *PipelineContext, start time.Time, envelope json.RawMessage, err error) Result {
	result := Result{Envelope: envelope}
	outcome := "ok"

	if err != nil {
		te := classify(name, err)
		result = Result{Envelope: Failure(te.Message), Err: te}
		outcome = te.Category.String()

		logger := logging.WithTool(name, tc.UserID, tc.OrgID)
		if pc != nil && pc.Session != nil {
			logger = logging.WithSession(logger, pc.Session.ID, pc.Session.CurrentBranch)
		}
		switch te.Category {
		case ErrorCategoryUnexpected:
			log.Printf("❌ [TOOL:%s] Unexpected failure (call %s): %v", name, tc.CallID, te.Cause)
			logger.Error("tool call failed", "call_id", tc.CallID, "error", te.Cause)
		case ErrorCategoryMalformedInput:
			logger.Warn("malformed tool arguments", "call_id", tc.CallID, "error", te.Cause)
		default:
			logger.Debug("tool call rejected", "call_id", tc.CallID, "category", outcome, "message", te.Message)
		}
	}

	if r.observer != nil {
		r.observer.ObserveToolCall(r.metricLabel(name), outcome, time.Since(start))
	}
	return result
}

// UnknownToolLabel is reported to the observer for names that are not
// registered, so callers cannot mint a series per made-up name.
const UnknownToolLabel = "unknown"

func (r *Registry) metricLabel(name string) string {
	if _, ok := r.Get(name); ok {
		return name
	}
	return UnknownToolLabel
}

func (r *Registry) announce(ctx context.Context, tool Tool, pc *PipelineContext) {
	if r.notifier == nil || pc.Session == nil {
		return
	}
	m, ok := tool.(MutatingTool)
	if !ok || !m.Mutates() {
		return
	}
	if err := r.notifier.SessionChanged(ctx, pc.Session.ID, pc.Session.CurrentBranch, tool.Name()); err != nil {
		log.Printf("⚠️  [TOOL:%s] Failed to announce session change for %s: %v", tool.Name(), pc.Session.ID, err)
	}
}

func ensureCallID(tc *ToolContext) {
	if tc.CallID == "" {
		tc.CallID = ulid.Make().String()
	}
}
