// internal/scoring/assembler/assembler_test.go
package assembler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// ==========================
// Test Fakes
// ==========================

type fakeTemplates struct {
	tmpl *models.Template
}

func (f *fakeTemplates) Get(ctx context.Context, id string) (*models.Template, error) {
	if f.tmpl == nil {
		return nil, errors.NewTemplateNotFoundError(id)
	}
	return f.tmpl, nil
}

type fakeAssessments struct {
	assessment *models.Assessment
	prior      *models.Assessment
	writeErr   error

	written     []byte
	writtenFrom models.AssessmentStatus
	writtenTo   models.AssessmentStatus
	writes      int
}

func (f *fakeAssessments) Get(ctx context.Context, id string) (*models.Assessment, error) {
	if f.assessment == nil {
		return nil, errors.NewAssessmentNotFoundError(id)
	}
	return f.assessment, nil
}

func (f *fakeAssessments) FindPriorCompleted(ctx context.Context, current *models.Assessment, templateIDs []string) (*models.Assessment, error) {
	return f.prior, nil
}

func (f *fakeAssessments) WriteSnapshot(ctx context.Context, assessmentID string, fromStatus, toStatus models.AssessmentStatus, snapshot []byte, computedAt time.Time) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.written = snapshot
	f.writtenFrom = fromStatus
	f.writtenTo = toStatus
	return nil
}

type fakeInvitations struct {
	list []models.Invitation
}

func (f *fakeInvitations) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Invitation, error) {
	return f.list, nil
}

type fakeResponses struct {
	list []models.RatedResponse
}

func (f *fakeResponses) ListCompletedRated(ctx context.Context, assessmentID string) ([]models.RatedResponse, error) {
	return f.list, nil
}

type fakeLineage struct{}

func (f *fakeLineage) LineageIDs(ctx context.Context, templateID string) ([]string, error) {
	return []string{templateID}, nil
}

type fakeIndexer struct {
	indexed int
}

func (f *fakeIndexer) IndexSnapshot(ctx context.Context, assessment *models.Assessment, results *models.ComputedAssessmentResults) error {
	f.indexed++
	return nil
}

// ==========================
// Test Fixtures
// ==========================

func rating(v float64) *float64 {
	return &v
}

func assemblerTemplate() *models.Template {
	return &models.Template{
		ID:         "tmpl-1",
		AgencyID:   "agency-1",
		ScaleMin:   1,
		ScaleMax:   5,
		RaterTypes: []models.RaterType{models.RaterTypeSelf, models.RaterTypePeer},
		Competencies: []models.Competency{
			{ID: "c1", Name: "Communication", DisplayOrder: 0, Questions: []models.Question{
				{ID: "q1", Text: "Listens actively", Type: models.QuestionTypeRating,
					Rating: &models.RatingSettings{IsCCI: true}},
				{ID: "q2", Text: "What should change?", Type: models.QuestionTypeText},
			}},
		},
	}
}

func closedAssessment() *models.Assessment {
	return &models.Assessment{
		ID:         "assessment-1",
		TenantID:   "tenant-1",
		AgencyID:   "agency-1",
		TemplateID: "tmpl-1",
		Status:     models.AssessmentStatusClosed,
	}
}

func assessmentFixture() (*fakeAssessments, *fakeInvitations, *fakeResponses) {
	assessments := &fakeAssessments{assessment: closedAssessment()}
	invitations := &fakeInvitations{list: []models.Invitation{
		{ID: "inv-self", RaterType: models.RaterTypeSelf, Status: models.InvitationStatusCompleted},
		{ID: "inv-peer-1", RaterType: models.RaterTypePeer, Status: models.InvitationStatusCompleted},
		{ID: "inv-peer-2", RaterType: models.RaterTypePeer, Status: models.InvitationStatusCompleted},
	}}
	responses := &fakeResponses{list: []models.RatedResponse{
		{InvitationID: "inv-self", RaterType: models.RaterTypeSelf, Items: []models.ResponseItem{
			{CompetencyID: "c1", QuestionID: "q1", Rating: rating(4)},
			{CompetencyID: "c1", QuestionID: "q2", Text: "More delegation."},
		}},
		{InvitationID: "inv-peer-1", RaterType: models.RaterTypePeer, Items: []models.ResponseItem{
			{CompetencyID: "c1", QuestionID: "q1", Rating: rating(5), Comment: "Strong listener."},
		}},
		{InvitationID: "inv-peer-2", RaterType: models.RaterTypePeer, Items: []models.ResponseItem{
			{CompetencyID: "c1", QuestionID: "q1", Rating: rating(3)},
		}},
	}}
	return assessments, invitations, responses
}

func newTestAssembler(t *testing.T, assessments *fakeAssessments, invitations *fakeInvitations, responses *fakeResponses, indexer SnapshotIndexer) *Assembler {
	return New(
		config.ScoringConfig{RankingSize: 5},
		&fakeTemplates{tmpl: assemblerTemplate()},
		assessments, invitations, responses,
		&fakeLineage{}, nil, indexer,
		logger.NewTestLogger(t),
	)
}

// ==========================
// Complete Tests
// ==========================

func TestAssembler_Complete(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()
	indexer := &fakeIndexer{}

	results, err := newTestAssembler(t, assessments, invitations, responses, indexer).
		Complete(context.Background(), "assessment-1")
	require.NoError(t, err)
	require.NotNil(t, results)

	assert.NotEmpty(t, results.SnapshotID)
	assert.False(t, results.ComputedAt.IsZero())

	// Self 4.0, peers 5.0 and 3.0 → others' average 4.0, zero gap.
	require.Len(t, results.CompetencyScores, 1)
	cs := results.CompetencyScores[0]
	require.NotNil(t, cs.SelfScore)
	require.NotNil(t, cs.OthersAverage)
	assert.InDelta(t, 4.0, *cs.SelfScore, 1e-9)
	assert.InDelta(t, 4.0, *cs.OthersAverage, 1e-9)
	assert.InDelta(t, 4.0, results.OverallScore, 1e-9)

	require.Len(t, results.Gaps, 1)
	assert.Equal(t, models.GapAligned, results.Gaps[0].Classification)
	assert.Equal(t, []string{"c1"}, results.Johari.OpenArea)

	// q1 is the lone CCI item: (4.0 - 1) / 4 * 100 = 75.
	require.NotNil(t, results.CCI)
	assert.InDelta(t, 75.0, results.CCI.Score, 1e-9)

	require.NotNil(t, results.CurrentCeiling)
	assert.Equal(t, "c1", results.CurrentCeiling.CompetencyID)
	assert.InDelta(t, 1.0, results.CurrentCeiling.Headroom, 1e-9)

	// Text answers and comments are grouped under their questions.
	require.Len(t, results.Comments, 2)
	assert.Equal(t, "q1", results.Comments[0].QuestionID)
	assert.Equal(t, "Strong listener.", results.Comments[0].Comments[0].Text)
	assert.Equal(t, "q2", results.Comments[1].QuestionID)

	assert.Nil(t, results.Trend, "no prior assessment")

	assert.Equal(t, 1, assessments.writes)
	assert.Equal(t, models.AssessmentStatusClosed, assessments.writtenFrom)
	assert.Equal(t, models.AssessmentStatusCompleted, assessments.writtenTo)
	assert.NotEmpty(t, assessments.written)
	assert.Equal(t, 1, indexer.indexed)
}

func TestAssembler_Complete_InsufficientData(t *testing.T) {
	assessments, _, responses := assessmentFixture()
	invitations := &fakeInvitations{list: []models.Invitation{
		{ID: "inv-peer-1", RaterType: models.RaterTypePeer, Status: models.InvitationStatusStarted},
		{ID: "inv-peer-2", RaterType: models.RaterTypePeer, Status: models.InvitationStatusDeclined},
	}}

	_, err := newTestAssembler(t, assessments, invitations, responses, nil).
		Complete(context.Background(), "assessment-1")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInsufficientData))
	assert.Zero(t, assessments.writes, "nothing is written on failure")
}

func TestAssembler_Complete_AlreadyCompleted(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()
	assessments.assessment.Status = models.AssessmentStatusCompleted

	_, err := newTestAssembler(t, assessments, invitations, responses, nil).
		Complete(context.Background(), "assessment-1")

	require.Error(t, err, "completing twice must fail, not silently succeed")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidStatusTransition))
}

func TestAssembler_Complete_WrongStatus(t *testing.T) {
	for _, status := range []models.AssessmentStatus{
		models.AssessmentStatusDraft,
		models.AssessmentStatusOpen,
	} {
		t.Run(string(status), func(t *testing.T) {
			assessments, invitations, responses := assessmentFixture()
			assessments.assessment.Status = status

			_, err := newTestAssembler(t, assessments, invitations, responses, nil).
				Complete(context.Background(), "assessment-1")

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidStatusTransition))
		})
	}
}

func TestAssembler_Complete_ConcurrentConflict(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()
	assessments.writeErr = errors.NewConcurrentCompletionError("assessment-1")

	_, err := newTestAssembler(t, assessments, invitations, responses, nil).
		Complete(context.Background(), "assessment-1")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConcurrentCompletion))
}

func TestAssembler_Complete_InvalidTemplate(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()
	tmpl := assemblerTemplate()
	tmpl.ScaleMax = tmpl.ScaleMin // invalid scale

	asm := New(config.ScoringConfig{}, &fakeTemplates{tmpl: tmpl},
		assessments, invitations, responses, &fakeLineage{}, nil, nil,
		logger.NewTestLogger(t))

	_, err := asm.Complete(context.Background(), "assessment-1")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTemplateConfig))
}

func TestAssembler_Complete_WithTrend(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()

	priorScore := 3.0
	assessments.prior = &models.Assessment{
		ID:     "assessment-0",
		Status: models.AssessmentStatusCompleted,
		ComputedResults: &models.ComputedAssessmentResults{
			SnapshotID: "snap-prev",
			ComputedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			CompetencyScores: []models.CompetencyScore{
				{CompetencyID: "c1", OthersAverage: &priorScore},
			},
		},
	}

	results, err := newTestAssembler(t, assessments, invitations, responses, nil).
		Complete(context.Background(), "assessment-1")
	require.NoError(t, err)

	require.NotNil(t, results.Trend)
	assert.Equal(t, "assessment-0", results.Trend.PreviousAssessmentID)
	require.Len(t, results.Trend.Competencies, 1)
	assert.InDelta(t, 1.0, results.Trend.Competencies[0].Change, 1e-9) // 3.0 → 4.0
	assert.Equal(t, models.TrendImproved, results.Trend.Competencies[0].Direction)
}

// ==========================
// Rescore Tests
// ==========================

func TestAssembler_Rescore(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()
	assessments.assessment.Status = models.AssessmentStatusCompleted

	results, err := newTestAssembler(t, assessments, invitations, responses, nil).
		Rescore(context.Background(), "assessment-1")
	require.NoError(t, err)
	require.NotNil(t, results)

	assert.Equal(t, models.AssessmentStatusCompleted, assessments.writtenFrom)
	assert.Equal(t, models.AssessmentStatusCompleted, assessments.writtenTo)
}

func TestAssembler_Rescore_RequiresCompletedStatus(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()

	_, err := newTestAssembler(t, assessments, invitations, responses, nil).
		Rescore(context.Background(), "assessment-1")

	require.Error(t, err, "re-score is only valid from completed")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidStatusTransition))
}

// ==========================
// Determinism
// ==========================

func TestAssembler_RepeatRunsDifferOnlyInIdentity(t *testing.T) {
	assessments, invitations, responses := assessmentFixture()
	asm := newTestAssembler(t, assessments, invitations, responses, nil)

	first, err := asm.Complete(context.Background(), "assessment-1")
	require.NoError(t, err)

	assessments.assessment.Status = models.AssessmentStatusClosed
	second, err := asm.Complete(context.Background(), "assessment-1")
	require.NoError(t, err)

	assert.NotEqual(t, first.SnapshotID, second.SnapshotID)

	first.SnapshotID, second.SnapshotID = "", ""
	first.ComputedAt, second.ComputedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
}
