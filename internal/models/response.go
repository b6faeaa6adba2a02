// internal/models/response.go
package models

import "time"

// ResponseItem is one per-question answer. Rating is set for rating
// questions, Text for free-text answers; Comment may accompany either.
type ResponseItem struct {
	CompetencyID string   `json:"competencyId"`
	QuestionID   string   `json:"questionId"`
	Rating       *float64 `json:"rating,omitempty"`
	Text         string   `json:"text,omitempty"`
	Comment      string   `json:"comment,omitempty"`
}

// Response holds the answers submitted by one invitation. An invitation
// may accumulate drafts, but exactly one record carries IsComplete = true;
// once complete the content is immutable.
type Response struct {
	ID           string         `json:"id"`
	InvitationID string         `json:"invitationId"`
	IsComplete   bool           `json:"isComplete"`
	SubmittedAt  *time.Time     `json:"submittedAt,omitempty"`
	Items        []ResponseItem `json:"items"`
}

// RatedResponse is a completed response tagged with its invitation's rater
// type and invitation ID, the shape the scorer consumes.
type RatedResponse struct {
	InvitationID string         `json:"invitationId"`
	RaterType    RaterType      `json:"raterType"`
	Items        []ResponseItem `json:"items"`
}
