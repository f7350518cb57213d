package tools

import (
	"context"
	"encoding/json"
	"strings"

	"toolhost/internal/models"
)

// CategoryManager pages through an organization's categories
type CategoryManager interface {
	ListCategories(ctx context.Context, org, user models.EntityHeader, entityType string, req models.ListRequest) ([]models.Category, error)
}

const defaultCategoryPageSize = 100

// CategoryListTool lists categories of one entity type. It runs only with a
// pipeline context.
type CategoryListTool struct {
	manager CategoryManager
}

// NewCategoryListTool creates the categories_list tool
func NewCategoryListTool(manager CategoryManager) *CategoryListTool {
	return &CategoryListTool{manager: manager}
}

func (t *CategoryListTool) Name() string           { return "categories_list" }
func (t *CategoryListTool) IsServerExecuted() bool { return true }

func (t *CategoryListTool) Schema() FunctionSchema {
	return BuildSchema(t.Name(), "Lists categories of a given entity type.",
		StringParam("entityType", "The category type to list.", true),
		IntParam("pageSize", "Categories per page. Defaults to 100.", false),
		IntParam("pageIndex", "Zero-based page. Defaults to 0.", false),
	)
}

type categoryListArgs struct {
	EntityType string `json:"entityType"`
	PageSize   int    `json:"pageSize"`
	PageIndex  int    `json:"pageIndex"`
}

func (t *CategoryListTool) ExecutePipeline(pc *PipelineContext, raw json.RawMessage) (json.RawMessage, error) {
	args := categoryListArgs{PageSize: defaultCategoryPageSize}
	if err := DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	entityType := strings.TrimSpace(args.EntityType)
	if entityType == "" {
		return nil, Validation("entityType is required.")
	}
	if args.PageSize <= 0 {
		args.PageSize = defaultCategoryPageSize
	}
	if args.PageIndex < 0 {
		args.PageIndex = 0
	}

	categories, err := t.manager.ListCategories(pc.Context(), pc.Org(), pc.User(), entityType, models.ListRequest{
		PageSize:  args.PageSize,
		PageIndex: args.PageIndex,
	})
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return Success(map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}
