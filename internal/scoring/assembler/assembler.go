// internal/scoring/assembler/assembler.go

// Package assembler orchestrates the full scoring pipeline and owns the
// closed → completed assessment transition. It is the only writer of
// ComputedAssessmentResults snapshots.
package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/metrics"
	"assessment-engine/internal/models"
	"assessment-engine/internal/scoring/cci"
	"assessment-engine/internal/scoring/gap"
	"assessment-engine/internal/scoring/scorer"
	"assessment-engine/internal/scoring/trend"
)

// TemplateSource loads published template definitions.
type TemplateSource interface {
	Get(ctx context.Context, id string) (*models.Template, error)
}

// AssessmentSource loads assessments, finds the subject's prior completed
// one, and performs the guarded snapshot write.
type AssessmentSource interface {
	Get(ctx context.Context, id string) (*models.Assessment, error)
	FindPriorCompleted(ctx context.Context, current *models.Assessment, templateIDs []string) (*models.Assessment, error)
	WriteSnapshot(ctx context.Context, assessmentID string, fromStatus, toStatus models.AssessmentStatus, snapshot []byte, computedAt time.Time) error
}

// InvitationSource lists an assessment's invitations.
type InvitationSource interface {
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Invitation, error)
}

// ResponseSource lists completed responses tagged with rater type.
type ResponseSource interface {
	ListCompletedRated(ctx context.Context, assessmentID string) ([]models.RatedResponse, error)
}

// LineageSource expands a template ID into its full version lineage.
type LineageSource interface {
	LineageIDs(ctx context.Context, templateID string) ([]string, error)
}

// SnapshotIndexer pushes a completed snapshot into the search index.
type SnapshotIndexer interface {
	IndexSnapshot(ctx context.Context, assessment *models.Assessment, results *models.ComputedAssessmentResults) error
}

// Assembler merges scorer, gap analyzer, CCI calculator and trend
// comparator output into one immutable snapshot. The snapshot is fully
// reconstructible from template + invitations + responses, so everything
// here is a derived cache; only SnapshotID and ComputedAt vary between
// identical runs.
type Assembler struct {
	cfg config.ScoringConfig

	templates   TemplateSource
	assessments AssessmentSource
	invitations InvitationSource
	responses   ResponseSource
	lineage     LineageSource

	scorer *scorer.Scorer
	cci    *cci.Calculator

	// redis invalidates cached result reads after a snapshot write; nil
	// disables invalidation. indexer is likewise optional.
	redis   *redis.Client
	indexer SnapshotIndexer

	logger logger.Logger
}

func New(
	cfg config.ScoringConfig,
	templates TemplateSource,
	assessments AssessmentSource,
	invitations InvitationSource,
	responses ResponseSource,
	lineage LineageSource,
	rdb *redis.Client,
	indexer SnapshotIndexer,
	log logger.Logger,
) *Assembler {
	return &Assembler{
		cfg:         cfg,
		templates:   templates,
		assessments: assessments,
		invitations: invitations,
		responses:   responses,
		lineage:     lineage,
		scorer:      scorer.New(log),
		cci:         cci.New(log),
		redis:       rdb,
		indexer:     indexer,
		logger:      log.WithFields(map[string]interface{}{"component": "assembler"}),
	}
}

// Complete runs the scoring pipeline for a closed assessment and flips it
// to completed. Calling it on an already-completed assessment fails with
// INVALID_STATUS_TRANSITION; recomputation goes through Rescore instead.
func (a *Assembler) Complete(ctx context.Context, assessmentID string) (*models.ComputedAssessmentResults, error) {
	return a.run(ctx, assessmentID, false)
}

// Rescore recomputes the snapshot of an already-completed assessment,
// overwriting the old one with a fresh ComputedAt. This is a deliberate,
// audited operation for late corrections, never a background refresh.
func (a *Assembler) Rescore(ctx context.Context, assessmentID string) (*models.ComputedAssessmentResults, error) {
	return a.run(ctx, assessmentID, true)
}

func (a *Assembler) run(ctx context.Context, assessmentID string, rescore bool) (*models.ComputedAssessmentResults, error) {
	mode := "complete"
	if rescore {
		mode = "rescore"
	}
	log := a.logger.WithFields(map[string]interface{}{
		"assessmentId": assessmentID,
		"mode":         mode,
	})

	start := time.Now()
	results, err := a.assemble(ctx, assessmentID, rescore, log)
	metrics.ScoringRunDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ScoringRunsFailed.WithLabelValues(mode, string(errors.CodeOf(err))).Inc()
		return nil, err
	}

	metrics.ScoringRunsCompleted.WithLabelValues(mode).Inc()
	return results, nil
}

func (a *Assembler) assemble(ctx context.Context, assessmentID string, rescore bool, log logger.Logger) (*models.ComputedAssessmentResults, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.Timeout)*time.Millisecond)
		defer cancel()
	}

	assessment, err := a.assessments.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	fromStatus := models.AssessmentStatusClosed
	if rescore {
		fromStatus = models.AssessmentStatusCompleted
	}
	if assessment.Status != fromStatus {
		return nil, errors.NewInvalidStatusTransitionError(
			string(assessment.Status), string(models.AssessmentStatusCompleted))
	}

	tmpl, err := a.templates.Get(ctx, assessment.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	invitations, err := a.invitations.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, inv := range invitations {
		if inv.Status == models.InvitationStatusCompleted {
			completed++
		}
	}
	if completed == 0 {
		return nil, errors.NewInsufficientDataError(
			fmt.Sprintf("assessment %s has no completed invitations", assessmentID))
	}

	responses, err := a.responses.ListCompletedRated(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	scored, err := a.scorer.Score(&scorer.Input{
		Template:    tmpl,
		Invitations: invitations,
		Responses:   responses,
	})
	if err != nil {
		return nil, err
	}

	analyzer := gap.New(gap.Config{
		Threshold:   tmpl.EffectiveGapThreshold(),
		RankingSize: a.cfg.RankingSize,
	}, a.logger)
	analyzed := analyzer.Analyze(tmpl, scored.CompetencyScores, scored.ItemScores)

	results := &models.ComputedAssessmentResults{
		SnapshotID:       uuid.NewString(),
		ComputedAt:       time.Now().UTC(),
		OverallScore:     scored.OverallScore,
		ResponseRates:    scored.ResponseRates,
		CompetencyScores: scored.CompetencyScores,
		ItemScores:       scored.ItemScores,
		Gaps:             analyzed.Gaps,
		TopItems:         analyzed.TopItems,
		BottomItems:      analyzed.BottomItems,
		Johari:           analyzed.Johari,
		Comments:         rollUpComments(tmpl, assessment.Anonymized, invitations, responses),
		CCI:              a.cci.Calculate(tmpl, scored.ItemScores),
		CurrentCeiling:   ceilingSummary(tmpl, scored.CompetencyScores),
	}

	if trendCmp, err := a.compareTrend(ctx, assessment, tmpl, scored.CompetencyScores); err != nil {
		// A failed prior lookup degrades the snapshot, it does not block
		// completion. The trend section is simply omitted.
		log.WithError(err).Warn("prior assessment lookup failed, trend omitted", nil)
	} else {
		results.Trend = trendCmp
	}

	// Empty sections marshal as [] rather than null so consumers and the
	// schema can treat every section as an array.
	if results.CompetencyScores == nil {
		results.CompetencyScores = []models.CompetencyScore{}
	}
	if results.ItemScores == nil {
		results.ItemScores = []models.ItemScore{}
	}
	if results.Gaps == nil {
		results.Gaps = []models.GapEntry{}
	}
	if results.TopItems == nil {
		results.TopItems = []models.RankedItem{}
	}
	if results.BottomItems == nil {
		results.BottomItems = []models.RankedItem{}
	}

	snapshot, err := json.Marshal(results)
	if err != nil {
		return nil, errors.NewSnapshotValidationFailedError("marshal: " + err.Error())
	}
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	if err := a.assessments.WriteSnapshot(ctx, assessmentID, fromStatus,
		models.AssessmentStatusCompleted, snapshot, results.ComputedAt); err != nil {
		return nil, err
	}

	if rescore {
		log.Info("assessment re-scored, prior snapshot overwritten", map[string]interface{}{
			"snapshotId": results.SnapshotID,
		})
	} else {
		log.Info("assessment completed", map[string]interface{}{
			"snapshotId":           results.SnapshotID,
			"completedInvitations": completed,
		})
	}

	a.postCommit(assessment, results, log)

	return results, nil
}

// compareTrend finds the subject's most recent prior completed assessment
// across the template lineage and diffs competency scores against it.
func (a *Assembler) compareTrend(ctx context.Context, assessment *models.Assessment, tmpl *models.Template, current []models.CompetencyScore) (*models.TrendComparison, error) {
	templateIDs, err := a.lineage.LineageIDs(ctx, assessment.TemplateID)
	if err != nil {
		return nil, err
	}

	prior, err := a.assessments.FindPriorCompleted(ctx, assessment, templateIDs)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, nil
	}
	if prior.ComputedResults == nil {
		return nil, errors.NewPriorResultsMissingError(prior.ID)
	}

	comparator := trend.New(tmpl.EffectiveGapThreshold(), a.logger)
	return comparator.Compare(prior.ID, prior.ComputedResults, current), nil
}

// postCommit runs the best-effort side effects of a snapshot write. A
// failure here is logged and swallowed: the completed assessment is
// already durable and both effects are repairable.
func (a *Assembler) postCommit(assessment *models.Assessment, results *models.ComputedAssessmentResults, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.redis != nil {
		if err := a.redis.Del(ctx, resultsCacheKey(assessment.ID)).Err(); err != nil {
			log.WithError(err).Warn("results cache invalidation failed", nil)
		}
	}

	if a.indexer != nil {
		if err := a.indexer.IndexSnapshot(ctx, assessment, results); err != nil {
			log.WithError(err).Warn("snapshot indexing failed", nil)
		}
	}
}

func resultsCacheKey(assessmentID string) string {
	return "results:" + assessmentID
}

// ceilingSummary names the competency with the lowest others' average and
// its headroom to the scale maximum. Omitted when no competency has a
// non-self respondent.
func ceilingSummary(tmpl *models.Template, scores []models.CompetencyScore) *models.CeilingSummary {
	var lowest *models.CompetencyScore
	for i := range scores {
		if scores[i].OthersAverage == nil {
			continue
		}
		if lowest == nil || *scores[i].OthersAverage < *lowest.OthersAverage {
			lowest = &scores[i]
		}
	}
	if lowest == nil {
		return nil
	}
	return &models.CeilingSummary{
		CompetencyID: lowest.CompetencyID,
		Score:        *lowest.OthersAverage,
		Headroom:     float64(tmpl.ScaleMax) - *lowest.OthersAverage,
	}
}
