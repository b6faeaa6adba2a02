// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// Indexer writes completed result snapshots into the search index so
// reporting surfaces can query them. Indexing is best effort: a failure
// never rolls back a completed assessment, the caller logs and moves on.
type Indexer struct {
	client *elasticsearch.Client
	cfg    config.SearchConfig
	log    logger.Logger
}

func NewIndexer(client *elasticsearch.Client, cfg config.SearchConfig, log logger.Logger) *Indexer {
	return &Indexer{client: client, cfg: cfg, log: log}
}

// resultDocument is the flattened projection stored per snapshot. Scores
// are denormalized so dashboards can aggregate without reassembling the
// full snapshot JSON.
type resultDocument struct {
	AssessmentID string    `json:"assessment_id"`
	TenantID     string    `json:"tenant_id"`
	AgencyID     string    `json:"agency_id"`
	TemplateID   string    `json:"template_id"`
	SnapshotID   string    `json:"snapshot_id"`
	ComputedAt   time.Time `json:"computed_at"`
	OverallScore float64   `json:"overall_score"`

	Competencies []competencyDocument `json:"competencies"`
	CommentCount int                  `json:"comment_count"`
	CCIScore     *float64             `json:"cci_score,omitempty"`
	CCIBand      string               `json:"cci_band,omitempty"`
}

type competencyDocument struct {
	CompetencyID  string   `json:"competency_id"`
	Name          string   `json:"name"`
	SelfScore     *float64 `json:"self_score,omitempty"`
	OthersAverage *float64 `json:"others_average,omitempty"`
	Gap           *float64 `json:"gap,omitempty"`
}

// IndexSnapshot writes one completed assessment's snapshot projection,
// keyed by assessment ID so recomputation overwrites the prior document.
func (ix *Indexer) IndexSnapshot(ctx context.Context, assessment *models.Assessment, results *models.ComputedAssessmentResults) error {
	if !ix.cfg.Enabled {
		return nil
	}

	doc := buildDocument(assessment, results)
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewSearchIndexFailedError(ix.cfg.Index, err)
	}

	timeout := time.Duration(ix.cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := esapi.IndexRequest{
		Index:      ix.cfg.Index,
		DocumentID: assessment.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return errors.NewSearchIndexFailedError(ix.cfg.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchIndexFailedError(ix.cfg.Index,
			fmt.Errorf("index response: %s", res.String()))
	}

	ix.log.Debug("Indexed result snapshot", map[string]interface{}{
		"assessment_id": assessment.ID,
		"index":         ix.cfg.Index,
		"snapshot_id":   results.SnapshotID,
	})
	return nil
}

func buildDocument(assessment *models.Assessment, results *models.ComputedAssessmentResults) resultDocument {
	gapByCompetency := make(map[string]float64, len(results.Gaps))
	for _, g := range results.Gaps {
		gapByCompetency[g.CompetencyID] = g.Gap
	}

	competencies := make([]competencyDocument, 0, len(results.CompetencyScores))
	for _, cs := range results.CompetencyScores {
		cd := competencyDocument{
			CompetencyID:  cs.CompetencyID,
			Name:          cs.Name,
			SelfScore:     cs.SelfScore,
			OthersAverage: cs.OthersAverage,
		}
		if gap, ok := gapByCompetency[cs.CompetencyID]; ok {
			g := gap
			cd.Gap = &g
		}
		competencies = append(competencies, cd)
	}

	commentCount := 0
	for _, group := range results.Comments {
		commentCount += len(group.Comments)
	}

	doc := resultDocument{
		AssessmentID: assessment.ID,
		TenantID:     assessment.TenantID,
		AgencyID:     assessment.AgencyID,
		TemplateID:   assessment.TemplateID,
		SnapshotID:   results.SnapshotID,
		ComputedAt:   results.ComputedAt,
		OverallScore: results.OverallScore,
		Competencies: competencies,
		CommentCount: commentCount,
	}
	if results.CCI != nil {
		score := results.CCI.Score
		doc.CCIScore = &score
		doc.CCIBand = string(results.CCI.Band)
	}
	return doc
}
