package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"toolhost/internal/database"
	"toolhost/internal/memory"
	"toolhost/internal/models"
)

const ddrColumns = `id, org_id, tla, idx, identifier, title, summary, notes, goal,
	goal_approved_timestamp, goal_approved_by_id, goal_approved_by_text,
	status, status_timestamp, approved_timestamp, approved_by_id, approved_by_text,
	created_by_id, created_by_text, last_updated_by_id, last_updated_by_text,
	creation_date, last_updated_date`

// DDRService is the SQL-backed document register. Records are scoped by org.
type DDRService struct {
	db *database.DB
}

// NewDDRService creates a DDR service over an initialized database
func NewDDRService(db *database.DB) *DDRService {
	return &DDRService{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func header(id, text string) *models.EntityHeader {
	if id == "" && text == "" {
		return nil
	}
	return &models.EntityHeader{ID: id, Text: text}
}

func headerFields(h *models.EntityHeader) (string, string) {
	if h == nil {
		return "", ""
	}
	return h.ID, h.Text
}

func scanDDR(row rowScanner) (*models.DDR, error) {
	var ddr models.DDR
	var goalByID, goalByText, approvedByID, approvedByText string
	var createdByID, createdByText, updatedByID, updatedByText string

	err := row.Scan(
		&ddr.ID, &ddr.OrgID, &ddr.Tla, &ddr.Index, &ddr.Identifier, &ddr.Title, &ddr.Summary, &ddr.Notes, &ddr.Goal,
		&ddr.GoalApprovedTimestamp, &goalByID, &goalByText,
		&ddr.Status, &ddr.StatusTimestamp, &ddr.ApprovedTimestamp, &approvedByID, &approvedByText,
		&createdByID, &createdByText, &updatedByID, &updatedByText,
		&ddr.CreationDate, &ddr.LastUpdatedDate,
	)
	if err != nil {
		return nil, err
	}

	ddr.GoalApprovedBy = header(goalByID, goalByText)
	ddr.ApprovedBy = header(approvedByID, approvedByText)
	ddr.CreatedBy = header(createdByID, createdByText)
	ddr.LastUpdatedBy = header(updatedByID, updatedByText)
	return &ddr, nil
}

// GetDDR looks a record up by identifier, case-insensitively. It returns
// nil, nil when the identifier is unknown in the org.
func (s *DDRService) GetDDR(ctx context.Context, org, user models.EntityHeader, identifier string) (*models.DDR, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ddrColumns+` FROM ddrs WHERE org_id = ? AND UPPER(identifier) = ?`,
		org.ID, strings.ToUpper(strings.TrimSpace(identifier)))

	ddr, err := scanDDR(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get DDR %s: %w", identifier, err)
	}
	return ddr, nil
}

// ListDDRs returns summaries ordered by identifier
func (s *DDRService) ListDDRs(ctx context.Context, org, user models.EntityHeader, filter models.DDRFilter) ([]models.DDRSummary, error) {
	query := `SELECT identifier, title, summary, status, status_timestamp FROM ddrs WHERE org_id = ?`
	args := []interface{}{org.ID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Tla != "" {
		query += ` AND UPPER(tla) = ?`
		args = append(args, strings.ToUpper(filter.Tla))
	}
	query += ` ORDER BY tla, idx`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list DDRs: %w", err)
	}
	defer rows.Close()

	summaries := []models.DDRSummary{}
	for rows.Next() {
		var summary models.DDRSummary
		if err := rows.Scan(&summary.Identifier, &summary.Title, &summary.Summary, &summary.Status, &summary.StatusTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan DDR: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list DDRs: %w", err)
	}
	return summaries, nil
}

// UpdateDDR writes every mutable column of ddr back to the register
func (s *DDRService) UpdateDDR(ctx context.Context, ddr *models.DDR, org, user models.EntityHeader) error {
	goalByID, goalByText := headerFields(ddr.GoalApprovedBy)
	approvedByID, approvedByText := headerFields(ddr.ApprovedBy)
	updatedByID, updatedByText := headerFields(ddr.LastUpdatedBy)

	result, err := s.db.ExecContext(ctx, `
		UPDATE ddrs SET
			title = ?, summary = ?, notes = ?, goal = ?,
			goal_approved_timestamp = ?, goal_approved_by_id = ?, goal_approved_by_text = ?,
			status = ?, status_timestamp = ?, approved_timestamp = ?, approved_by_id = ?, approved_by_text = ?,
			last_updated_by_id = ?, last_updated_by_text = ?, last_updated_date = ?
		WHERE org_id = ? AND id = ?`,
		ddr.Title, ddr.Summary, ddr.Notes, ddr.Goal,
		ddr.GoalApprovedTimestamp, goalByID, goalByText,
		ddr.Status, ddr.StatusTimestamp, ddr.ApprovedTimestamp, approvedByID, approvedByText,
		updatedByID, updatedByText, ddr.LastUpdatedDate,
		org.ID, ddr.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update DDR %s: %w", ddr.Identifier, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("failed to update DDR %s: no such record in org %s", ddr.Identifier, org.ID)
	}

	log.Printf("📝 [DDR] Updated %s (status=%s) by %s", ddr.Identifier, ddr.Status, user.ID)
	return nil
}

// CreateDDR opens a new Draft record. Without an explicit index it takes
// the next one under the TLA; an explicit index already in use fails with
// models.ErrDDRExists.
func (s *DDRService) CreateDDR(ctx context.Context, org, user models.EntityHeader, draft models.DDRDraft) (*models.DDR, error) {
	tla := strings.ToUpper(strings.TrimSpace(draft.Tla))
	if tla == "" {
		return nil, fmt.Errorf("tla is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	next := draft.Index
	if next > 0 {
		var taken int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM ddrs WHERE org_id = ? AND tla = ? AND idx = ?`, org.ID, tla, next,
		).Scan(&taken); err != nil {
			return nil, fmt.Errorf("failed to check DDR index: %w", err)
		}
		if taken > 0 {
			return nil, fmt.Errorf("%s: %w", models.FormatDDRIdentifier(tla, next), models.ErrDDRExists)
		}
	} else if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(idx), 0) + 1 FROM ddrs WHERE org_id = ? AND tla = ?`, org.ID, tla,
	).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to allocate DDR index: %w", err)
	}

	now := time.Now().UTC().Format(memory.TimestampLayout)
	author := &models.EntityHeader{ID: user.ID, Text: user.Text}
	ddr := &models.DDR{
		ID:              uuid.New().String(),
		OrgID:           org.ID,
		Tla:             tla,
		Index:           next,
		Identifier:      models.FormatDDRIdentifier(tla, next),
		Title:           strings.TrimSpace(draft.Title),
		Summary:         strings.TrimSpace(draft.Summary),
		Status:          models.DDRStatusDraft,
		StatusTimestamp: now,
		CreatedBy:       author,
		LastUpdatedBy:   author,
		CreationDate:    now,
		LastUpdatedDate: now,
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ddrs (`+ddrColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ddr.ID, ddr.OrgID, ddr.Tla, ddr.Index, ddr.Identifier, ddr.Title, ddr.Summary, ddr.Notes, ddr.Goal,
		"", "", "",
		ddr.Status, ddr.StatusTimestamp, "", "", "",
		user.ID, user.Text, user.ID, user.Text,
		ddr.CreationDate, ddr.LastUpdatedDate,
	); err != nil {
		return nil, fmt.Errorf("failed to insert DDR: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit DDR: %w", err)
	}

	log.Printf("✅ [DDR] Created %s in org %s", ddr.Identifier, org.ID)
	return ddr, nil
}
