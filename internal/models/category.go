package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Category is an organization-defined label for one entity type
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgID       string             `bson:"org_id" json:"orgId"`
	EntityType  string             `bson:"entity_type" json:"entityType"`
	Key         string             `bson:"key" json:"key"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

// ListRequest pages through a listing. PageIndex is zero-based.
type ListRequest struct {
	PageSize  int
	PageIndex int
}
