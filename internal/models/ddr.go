package models

import (
	"errors"
	"fmt"
)

// DDR statuses accepted by the register
const (
	DDRStatusDraft            = "Draft"
	DDRStatusInProgress       = "InProgress"
	DDRStatusReadyForApproval = "ReadyForApproval"
	DDRStatusApproved         = "Approved"
	DDRStatusRejected         = "Rejected"
	DDRStatusTabled           = "Tabled"
	DDRStatusResearchDraft    = "ResearchDraft"
)

// DDRStatuses lists every valid status in display order
var DDRStatuses = []string{
	DDRStatusDraft,
	DDRStatusInProgress,
	DDRStatusReadyForApproval,
	DDRStatusApproved,
	DDRStatusRejected,
	DDRStatusTabled,
	DDRStatusResearchDraft,
}

// DDR is a detailed design review record kept in the document register.
// Identifier has the form TLA-### and is unique within an organization.
type DDR struct {
	ID                    string        `json:"id"`
	OrgID                 string        `json:"orgId"`
	Tla                   string        `json:"tla"`
	Index                 int           `json:"index"`
	Identifier            string        `json:"identifier"`
	Title                 string        `json:"title"`
	Summary               string        `json:"summary"`
	Notes                 string        `json:"notes,omitempty"`
	Goal                  string        `json:"goal"`
	GoalApprovedTimestamp string        `json:"goalApprovedTimestamp,omitempty"`
	GoalApprovedBy        *EntityHeader `json:"goalApprovedBy,omitempty"`
	Status                string        `json:"status"`
	StatusTimestamp       string        `json:"statusTimestamp,omitempty"`
	ApprovedTimestamp     string        `json:"approvedTimestamp,omitempty"`
	ApprovedBy            *EntityHeader `json:"approvedBy,omitempty"`
	CreatedBy             *EntityHeader `json:"createdBy,omitempty"`
	LastUpdatedBy         *EntityHeader `json:"lastUpdatedBy,omitempty"`
	CreationDate          string        `json:"creationDate"`
	LastUpdatedDate       string        `json:"lastUpdatedDate"`
}

// ErrDDRExists is returned when a create names an identifier already in use
var ErrDDRExists = errors.New("DDR already exists")

// DDRDraft is what a caller supplies to open a new record. A zero Index asks
// the register for the next free one under Tla.
type DDRDraft struct {
	Tla     string
	Index   int
	Title   string
	Summary string
}

// FormatDDRIdentifier builds the TLA-### identifier of a record
func FormatDDRIdentifier(tla string, index int) string {
	return fmt.Sprintf("%s-%03d", tla, index)
}

// DDRSummary is the list projection of a DDR
type DDRSummary struct {
	Identifier      string `json:"identifier"`
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	Status          string `json:"status"`
	StatusTimestamp string `json:"status_timestamp"`
}

// DDRFilter narrows a DDR listing. Blank fields match everything.
type DDRFilter struct {
	Status string
	Tla    string
}
