// internal/models/assessment.go
package models

import "time"

type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "draft"
	AssessmentStatusOpen      AssessmentStatus = "open"
	AssessmentStatusClosed    AssessmentStatus = "closed"
	AssessmentStatusCompleted AssessmentStatus = "completed"
)

// assessmentTransitions encodes the forward-only lifecycle. closed →
// completed is reserved for the results assembler.
var assessmentTransitions = map[AssessmentStatus]AssessmentStatus{
	AssessmentStatusDraft:  AssessmentStatusOpen,
	AssessmentStatusOpen:   AssessmentStatusClosed,
	AssessmentStatusClosed: AssessmentStatusCompleted,
}

// CanTransition reports whether from → to is a legal assessment move.
func (s AssessmentStatus) CanTransition(to AssessmentStatus) bool {
	next, ok := assessmentTransitions[s]
	return ok && next == to
}

// Assessment is one evaluation instance of a subject, created from exactly
// one template version. The subject is either an internal user
// (SubjectUserID) or an external name/email pair, never both.
type Assessment struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	AgencyID   string `json:"agencyId"`
	TemplateID string `json:"templateId"`

	SubjectUserID *string `json:"subjectUserId,omitempty"`
	SubjectName   string  `json:"subjectName,omitempty"`
	SubjectEmail  string  `json:"subjectEmail,omitempty"`

	Status     AssessmentStatus `json:"status"`
	OpensAt    *time.Time       `json:"opensAt,omitempty"`
	ClosesAt   *time.Time       `json:"closesAt,omitempty"`
	Anonymized bool             `json:"anonymized"`
	ProgramID  *string          `json:"programId,omitempty"`

	// ComputedResults is nil until Status is completed; once set it is a
	// derived, rebuildable cache, never source of truth.
	ComputedResults *ComputedAssessmentResults `json:"computedResults,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubjectKey identifies the subject for prior-assessment lookup: the
// internal user ID when present, otherwise the external email.
func (a *Assessment) SubjectKey() string {
	if a.SubjectUserID != nil {
		return *a.SubjectUserID
	}
	return a.SubjectEmail
}
