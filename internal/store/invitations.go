// internal/store/invitations.go
package store

import (
	"context"
	"database/sql"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/models"
)

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

// ListByAssessment returns every invitation belonging to an assessment,
// in creation order.
func (s *InvitationStore) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assessment_id, rater_type, rater_email, status, sent_at, completed_at, created_at
		FROM invitations
		WHERE assessment_id = $1
		ORDER BY created_at ASC, id ASC`, assessmentID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("invitations list", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var raterEmail sql.NullString
		var sentAt, completedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.AssessmentID, &inv.RaterType, &raterEmail,
			&inv.Status, &sentAt, &completedAt, &inv.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("invitations scan", err)
		}
		inv.RaterEmail = raterEmail.String
		if sentAt.Valid {
			t := sentAt.Time
			inv.SentAt = &t
		}
		if completedAt.Valid {
			t := completedAt.Time
			inv.CompletedAt = &t
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("invitations rows", err)
	}
	return invitations, nil
}
