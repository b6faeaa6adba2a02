// internal/models/rater.go
package models

type RaterType string

const (
	RaterTypeSelf         RaterType = "self"
	RaterTypeManager      RaterType = "manager"
	RaterTypePeer         RaterType = "peer"
	RaterTypeDirectReport RaterType = "direct_report"

	// RaterTypeAnonymous is not an invitation rater type; it is the label
	// comment attribution folds into when anonymization applies.
	RaterTypeAnonymous RaterType = "anonymous"
)

// KnownRaterTypes lists every rater type the engine understands, in
// display order.
var KnownRaterTypes = []RaterType{
	RaterTypeSelf,
	RaterTypeManager,
	RaterTypePeer,
	RaterTypeDirectReport,
}

// IsSelf reports whether the rater is the assessment subject.
func (r RaterType) IsSelf() bool {
	return r == RaterTypeSelf
}

// IsKnown reports whether the rater type is one the engine understands.
func (r RaterType) IsKnown() bool {
	for _, known := range KnownRaterTypes {
		if r == known {
			return true
		}
	}
	return false
}
