// internal/models/results.go
package models

import "time"

type GapClassification string

const (
	GapBlindSpot      GapClassification = "blind_spot"
	GapHiddenStrength GapClassification = "hidden_strength"
	GapAligned        GapClassification = "aligned"
)

type TrendDirection string

const (
	TrendImproved TrendDirection = "improved"
	TrendDeclined TrendDirection = "declined"
	TrendStable   TrendDirection = "stable"
)

type CCIBand string

const (
	CCIBandLow      CCIBand = "low"
	CCIBandModerate CCIBand = "moderate"
	CCIBandHigh     CCIBand = "high"
	CCIBandVeryHigh CCIBand = "very_high"
)

// ResponseRate reports invitation completion per rater type. UnderMin is
// set when completions fall below the template's configured minimum so
// consumers can flag low confidence; scores are never suppressed for it.
type ResponseRate struct {
	RaterType RaterType `json:"raterType"`
	Invited   int       `json:"invited"`
	Completed int       `json:"completed"`
	Rate      float64   `json:"rate"`
	UnderMin  bool      `json:"underMin,omitempty"`
}

// CompetencyScore aggregates one competency across rater types. Scores
// only contains rater types with at least one respondent; a type with
// zero respondents is omitted, never recorded as zero.
type CompetencyScore struct {
	CompetencyID string    `json:"competencyId"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"displayOrder"`
	Scores       map[RaterType]float64 `json:"scores"`

	SelfScore     *float64 `json:"selfScore,omitempty"`
	OthersAverage *float64 `json:"othersAverage,omitempty"`

	ResponseDistribution map[int]int `json:"responseDistribution,omitempty"`
	// RaterAgreement is the population standard deviation of per-rater
	// competency averages among non-self raters; nil with fewer than two.
	RaterAgreement *float64 `json:"raterAgreement,omitempty"`
}

// ItemScore aggregates one question. Averages are post reverse-scoring.
type ItemScore struct {
	CompetencyID  string    `json:"competencyId"`
	QuestionID    string    `json:"questionId"`
	QuestionText  string    `json:"questionText"`
	QuestionOrder int       `json:"questionOrder"`
	Scores        map[RaterType]float64 `json:"scores"`
	SelfScore     *float64  `json:"selfScore,omitempty"`
	OthersAverage *float64  `json:"othersAverage,omitempty"`
}

type GapEntry struct {
	CompetencyID   string            `json:"competencyId"`
	SelfScore      float64           `json:"selfScore"`
	OthersAverage  float64           `json:"othersAverage"`
	Gap            float64           `json:"gap"`
	Classification GapClassification `json:"classification"`
}

type RankedItem struct {
	CompetencyID string  `json:"competencyId"`
	QuestionID   string  `json:"questionId"`
	QuestionText string  `json:"questionText"`
	Score        float64 `json:"score"`
}

// JohariWindow buckets competency IDs by the four-quadrant awareness
// model, split at the scale midpoint.
type JohariWindow struct {
	OpenArea    []string `json:"openArea"`
	BlindSpot   []string `json:"blindSpot"`
	HiddenArea  []string `json:"hiddenArea"`
	UnknownArea []string `json:"unknownArea"`
}

type CCIResult struct {
	Score     float64 `json:"score"` // normalized 0-100
	Band      CCIBand `json:"band"`
	ItemCount int     `json:"itemCount"`
}

// CeilingSummary names the competency with the lowest others' average and
// its distance to the scale maximum.
type CeilingSummary struct {
	CompetencyID string  `json:"competencyId"`
	Score        float64 `json:"score"`
	Headroom     float64 `json:"headroom"`
}

type CompetencyTrend struct {
	CompetencyID  string         `json:"competencyId"`
	Previous      float64        `json:"previous"`
	Current       float64        `json:"current"`
	Change        float64        `json:"change"`
	ChangePercent *float64       `json:"changePercent,omitempty"`
	Direction     TrendDirection `json:"direction"`
}

type TrendComparison struct {
	PreviousAssessmentID string            `json:"previousAssessmentId"`
	PreviousComputedAt   time.Time         `json:"previousComputedAt"`
	Competencies         []CompetencyTrend `json:"competencies"`
	OverallChange        float64           `json:"overallChange"`
	OverallDirection     TrendDirection    `json:"overallDirection"`
}

// CommentEntry is one free-text answer or comment. RaterType is folded to
// "anonymous" when anonymization rules apply.
type CommentEntry struct {
	RaterType RaterType `json:"raterType"`
	Text      string    `json:"text"`
}

type CommentGroup struct {
	CompetencyID string         `json:"competencyId"`
	QuestionID   string         `json:"questionId"`
	QuestionText string         `json:"questionText"`
	Comments     []CommentEntry `json:"comments"`
}

// ComputedAssessmentResults is the immutable analytic snapshot written at
// completion. It is fully reconstructible from Template + Invitations +
// Responses; only ComputedAt and SnapshotID vary between identical runs.
type ComputedAssessmentResults struct {
	SnapshotID string    `json:"snapshotId"`
	ComputedAt time.Time `json:"computedAt"`

	OverallScore  float64           `json:"overallScore"`
	ResponseRates []ResponseRate    `json:"responseRates"`

	CompetencyScores []CompetencyScore `json:"competencyScores"`
	ItemScores       []ItemScore       `json:"itemScores"`

	Gaps        []GapEntry   `json:"gaps"`
	TopItems    []RankedItem `json:"topItems"`
	BottomItems []RankedItem `json:"bottomItems"`
	Johari      JohariWindow `json:"johariWindow"`

	Comments []CommentGroup `json:"comments,omitempty"`

	CCI            *CCIResult       `json:"cci,omitempty"`
	CurrentCeiling *CeilingSummary  `json:"currentCeiling,omitempty"`
	Trend          *TrendComparison `json:"trend,omitempty"`
}
