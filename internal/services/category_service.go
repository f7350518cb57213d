package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toolhost/internal/database"
	"toolhost/internal/models"
)

const maxCategoryPageSize = 500

// CategoryService lists org-defined categories from MongoDB
type CategoryService struct {
	collection *mongo.Collection
}

// NewCategoryService creates a category service over the categories collection
func NewCategoryService(db *database.MongoDB) *CategoryService {
	return &CategoryService{collection: db.Collection(database.CollectionCategories)}
}

// categoryFindOptions builds the paged, name-ordered find for req
func categoryFindOptions(req models.ListRequest) *options.FindOptions {
	size := req.PageSize
	if size <= 0 {
		size = 100
	}
	if size > maxCategoryPageSize {
		size = maxCategoryPageSize
	}
	index := req.PageIndex
	if index < 0 {
		index = 0
	}

	return options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(int64(index) * int64(size)).
		SetLimit(int64(size))
}

// ListCategories returns one page of categories for entityType in the org
func (s *CategoryService) ListCategories(ctx context.Context, org, user models.EntityHeader, entityType string, req models.ListRequest) ([]models.Category, error) {
	filter := bson.M{"org_id": org.ID, "entity_type": entityType}

	cursor, err := s.collection.Find(ctx, filter, categoryFindOptions(req))
	if err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}
