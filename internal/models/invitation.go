// internal/models/invitation.go
package models

import "time"

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusSent      InvitationStatus = "sent"
	InvitationStatusViewed    InvitationStatus = "viewed"
	InvitationStatusStarted   InvitationStatus = "started"
	InvitationStatusCompleted InvitationStatus = "completed"
	InvitationStatusDeclined  InvitationStatus = "declined"
	InvitationStatusExpired   InvitationStatus = "expired"
)

// invitationOrder pins the forward-only lifecycle. declined/expired are
// side exits from any non-terminal state.
var invitationOrder = map[InvitationStatus]int{
	InvitationStatusPending:   0,
	InvitationStatusSent:      1,
	InvitationStatusViewed:    2,
	InvitationStatusStarted:   3,
	InvitationStatusCompleted: 4,
}

// CanTransition reports whether from → to is a legal invitation move.
func (s InvitationStatus) CanTransition(to InvitationStatus) bool {
	fromIdx, fromOK := invitationOrder[s]
	if !fromOK {
		return false // declined/expired are terminal
	}
	if to == InvitationStatusDeclined || to == InvitationStatusExpired {
		return s != InvitationStatusCompleted
	}
	toIdx, toOK := invitationOrder[to]
	return toOK && toIdx == fromIdx+1
}

// IsTerminal reports whether no further transitions are possible.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationStatusCompleted ||
		s == InvitationStatusDeclined ||
		s == InvitationStatusExpired
}

// Invitation assigns one rater to one assessment.
type Invitation struct {
	ID           string           `json:"id"`
	AssessmentID string           `json:"assessmentId"`
	RaterType    RaterType        `json:"raterType"`
	RaterEmail   string           `json:"raterEmail,omitempty"`
	Status       InvitationStatus `json:"status"`
	SentAt       *time.Time       `json:"sentAt,omitempty"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}
