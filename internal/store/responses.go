// internal/store/responses.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type ResponseStore struct {
	db  *sql.DB
	log logger.Logger
}

func NewResponseStore(db *sql.DB, log logger.Logger) *ResponseStore {
	return &ResponseStore{db: db, log: log}
}

// ListCompletedRated joins completed responses with their invitations and
// returns them in the shape the scorer consumes. Only responses marked
// complete on invitations in the completed state are included; at most one
// such response exists per invitation.
func (s *ResponseStore) ListCompletedRated(ctx context.Context, assessmentID string) ([]models.RatedResponse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.invitation_id, i.rater_type, r.items
		FROM responses r
		JOIN invitations i ON i.id = r.invitation_id
		WHERE i.assessment_id = $1
		  AND i.status = $2
		  AND r.is_complete = TRUE
		ORDER BY r.submitted_at ASC, r.invitation_id ASC`,
		assessmentID, models.InvitationStatusCompleted)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("responses list", err)
	}
	defer rows.Close()

	var rated []models.RatedResponse
	for rows.Next() {
		var rr models.RatedResponse
		var itemsRaw []byte
		if err := rows.Scan(&rr.InvitationID, &rr.RaterType, &itemsRaw); err != nil {
			return nil, errors.NewQueryExecutionFailedError("responses scan", err)
		}
		if err := json.Unmarshal(itemsRaw, &rr.Items); err != nil {
			s.log.WithError(err).Warn("Skipping response with malformed items payload", map[string]interface{}{
				"invitation_id": rr.InvitationID,
			})
			continue
		}
		rated = append(rated, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("responses rows", err)
	}
	return rated, nil
}
