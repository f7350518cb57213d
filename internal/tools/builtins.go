package tools

import (
	"fmt"
	"log"
)

// Collaborators are the optional record stores behind the collaborator tools.
// Tools whose store is nil are not registered.
type Collaborators struct {
	DDRs       DDRManager
	Categories CategoryManager
}

// SessionTools returns the working-memory tools
func SessionTools() []Tool {
	return []Tool{
		NewSessionKFRTool(),
		NewKFRListCategoriesTool(),
		NewKFRListTagsTool(),
		NewKFRQueryByCategoryTool(),
		NewKFRQueryByTagsTool(),
		NewKFRSetCategoryTool(),
		NewKFRSetTagsTool(),

		NewListCreateTool(),
		NewListGetTool(),
		NewListsListTool(),
		NewListUpdateTool(),
		NewListDeleteTool(),
		NewListItemAddTool(),
		NewListItemUpdateTool(),
		NewListItemMoveTool(),
		NewListItemRemoveTool(),
		NewListItemsListTool(),
	}
}

// IdentityTools returns the time, audit and current-user tools
func IdentityTools() []Tool {
	return []Tool{
		NewTimestampTool(),
		NewAuditFieldsForCreateTool(),
		NewAuditFieldsForUpdateTool(),
		NewCurrentUserTool(),
	}
}

// CollaboratorTools returns the tools backed by the configured stores
func CollaboratorTools(c Collaborators) []Tool {
	var out []Tool
	if c.DDRs != nil {
		out = append(out,
			NewCreateDDRTool(c.DDRs),
			NewGetDDRTool(c.DDRs),
			NewListDDRsTool(c.DDRs),
			NewUpdateDDRMetadataTool(c.DDRs),
			NewSetDDRStatusTool(c.DDRs),
			NewApproveDDRGoalTool(c.DDRs),
			NewApproveDDRTool(c.DDRs),
		)
	}
	if c.Categories != nil {
		out = append(out, NewCategoryListTool(c.Categories))
	}
	return out
}

// RegisterBuiltins registers every built-in tool the collaborators allow
func RegisterBuiltins(r *Registry, c Collaborators) error {
	groups := [][]Tool{SessionTools(), IdentityTools(), CollaboratorTools(c)}
	for _, group := range groups {
		for _, tool := range group {
			if err := r.Register(tool); err != nil {
				return fmt.Errorf("failed to register built-in tools: %w", err)
			}
		}
	}
	log.Printf("🔧 [TOOLS] Registered %d tools", r.Count())
	return nil
}

// NewBuiltinRegistry creates a registry holding every built-in tool
func NewBuiltinRegistry(c Collaborators, opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	if err := RegisterBuiltins(r, c); err != nil {
		return nil, err
	}
	return r, nil
}
