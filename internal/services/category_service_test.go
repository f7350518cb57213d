package services

import (
	"testing"

	"toolhost/internal/models"
)

func TestCategoryFindOptions(t *testing.T) {
	tests := []struct {
		name      string
		req       models.ListRequest
		wantSkip  int64
		wantLimit int64
	}{
		{"defaults", models.ListRequest{}, 0, 100},
		{"second page", models.ListRequest{PageSize: 25, PageIndex: 1}, 25, 25},
		{"capped size", models.ListRequest{PageSize: 10000}, 0, maxCategoryPageSize},
		{"negative index", models.ListRequest{PageSize: 10, PageIndex: -3}, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := categoryFindOptions(tt.req)
			if opts.Skip == nil || *opts.Skip != tt.wantSkip {
				t.Errorf("Expected skip %d, got %v", tt.wantSkip, opts.Skip)
			}
			if opts.Limit == nil || *opts.Limit != tt.wantLimit {
				t.Errorf("Expected limit %d, got %v", tt.wantLimit, opts.Limit)
			}
		})
	}
}
