// internal/store/assessments.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type AssessmentStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAssessmentStore(db *sql.DB, log logger.Logger) *AssessmentStore {
	return &AssessmentStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "assessments"}),
	}
}

const assessmentColumns = `id, tenant_id, agency_id, template_id, subject_user_id,
	subject_name, subject_email, status, opens_at, closes_at, anonymized,
	program_id, computed_results, created_at, updated_at`

// Get loads one assessment by ID.
func (s *AssessmentStore) Get(ctx context.Context, id string) (*models.Assessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+assessmentColumns+`
		FROM assessments WHERE id = $1`, id)

	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewAssessmentNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("assessment get", err)
	}
	return a, nil
}

// FindPriorCompleted returns the most recent completed assessment of the
// same subject across the given template lineage, excluding the current
// assessment. Returns nil without error when none exists.
func (s *AssessmentStore) FindPriorCompleted(ctx context.Context, current *models.Assessment, templateIDs []string) (*models.Assessment, error) {
	var row *sql.Row
	if current.SubjectUserID != nil {
		row = s.db.QueryRowContext(ctx, `
			SELECT `+assessmentColumns+`
			FROM assessments
			WHERE status = 'completed'
			  AND computed_results IS NOT NULL
			  AND id <> $1
			  AND subject_user_id = $2
			  AND template_id = ANY($3)
			ORDER BY updated_at DESC
			LIMIT 1`, current.ID, *current.SubjectUserID, pq.Array(templateIDs))
	} else {
		row = s.db.QueryRowContext(ctx, `
			SELECT `+assessmentColumns+`
			FROM assessments
			WHERE status = 'completed'
			  AND computed_results IS NOT NULL
			  AND id <> $1
			  AND subject_email = $2
			  AND template_id = ANY($3)
			ORDER BY updated_at DESC
			LIMIT 1`, current.ID, current.SubjectEmail, pq.Array(templateIDs))
	}

	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("prior assessment lookup", err)
	}
	return a, nil
}

// ListCompletedSnapshots returns the computed results of every completed
// assessment for the agency across the given template lineage. Feeds the
// benchmark engine.
func (s *AssessmentStore) ListCompletedSnapshots(ctx context.Context, agencyID string, templateIDs []string) ([]models.ComputedAssessmentResults, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT computed_results
		FROM assessments
		WHERE status = 'completed'
		  AND computed_results IS NOT NULL
		  AND agency_id = $1
		  AND template_id = ANY($2)
		ORDER BY updated_at ASC, id ASC`, agencyID, pq.Array(templateIDs))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("completed snapshots list", err)
	}
	defer rows.Close()

	var snapshots []models.ComputedAssessmentResults
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewQueryExecutionFailedError("completed snapshots scan", err)
		}
		var snap models.ComputedAssessmentResults
		if err := json.Unmarshal(raw, &snap); err != nil {
			// A corrupt snapshot is skipped, not fatal: it is a rebuildable
			// cache and the owning assessment can be re-scored.
			s.logger.Warn("skipping unreadable computed results row", map[string]interface{}{
				"agencyId": agencyID,
				"error":    err,
			})
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("completed snapshots rows", err)
	}
	return snapshots, nil
}

// BenchmarkKey identifies one benchmark recomputation unit.
type BenchmarkKey struct {
	AgencyID   string
	TemplateID string
}

// ListBenchmarkKeys returns the distinct (agency, template) pairs that
// have at least one completed assessment. The scheduler resolves template
// IDs to lineage roots before recomputing.
func (s *AssessmentStore) ListBenchmarkKeys(ctx context.Context) ([]BenchmarkKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT agency_id, template_id
		FROM assessments
		WHERE status = 'completed' AND computed_results IS NOT NULL
		ORDER BY agency_id, template_id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("benchmark keys list", err)
	}
	defer rows.Close()

	var keys []BenchmarkKey
	for rows.Next() {
		var k BenchmarkKey
		if err := rows.Scan(&k.AgencyID, &k.TemplateID); err != nil {
			return nil, errors.NewQueryExecutionFailedError("benchmark keys scan", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("benchmark keys rows", err)
	}
	return keys, nil
}

// WriteSnapshot atomically flips the assessment status and writes the
// results document in one guarded single-row update: both change together
// or neither does. Zero rows affected means another writer moved the
// status first.
func (s *AssessmentStore) WriteSnapshot(ctx context.Context, assessmentID string, fromStatus, toStatus models.AssessmentStatus, snapshot []byte, computedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assessments
		SET status = $1, computed_results = $2, updated_at = $3
		WHERE id = $4 AND status = $5`,
		string(toStatus), snapshot, computedAt, assessmentID, string(fromStatus))
	if err != nil {
		return errors.NewQueryExecutionFailedError("snapshot write", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("snapshot write rows", err)
	}
	if affected == 0 {
		return errors.NewConcurrentCompletionError(assessmentID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (*models.Assessment, error) {
	var a models.Assessment
	var subjectUserID, subjectName, subjectEmail, programID sql.NullString
	var opensAt, closesAt sql.NullTime
	var computedResults []byte

	err := row.Scan(&a.ID, &a.TenantID, &a.AgencyID, &a.TemplateID,
		&subjectUserID, &subjectName, &subjectEmail, &a.Status,
		&opensAt, &closesAt, &a.Anonymized, &programID,
		&computedResults, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if subjectUserID.Valid {
		a.SubjectUserID = &subjectUserID.String
	}
	a.SubjectName = subjectName.String
	a.SubjectEmail = subjectEmail.String
	if programID.Valid {
		a.ProgramID = &programID.String
	}
	if opensAt.Valid {
		t := opensAt.Time
		a.OpensAt = &t
	}
	if closesAt.Valid {
		t := closesAt.Time
		a.ClosesAt = &t
	}
	if len(computedResults) > 0 {
		var snap models.ComputedAssessmentResults
		if err := json.Unmarshal(computedResults, &snap); err == nil {
			a.ComputedResults = &snap
		}
	}

	return &a, nil
}
