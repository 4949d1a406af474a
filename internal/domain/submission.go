package domain

import "time"

// Submission is one append-only work-delivery record. It references its gig
// and submitter for lookup only; nothing cascades through it.
type Submission struct {
	ID            string    `json:"id"`
	SubmitterID   string    `json:"submitterId"`
	ContractGigID string    `json:"contractGigId"`
	Milestone     string    `json:"milestone,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	URI           string    `json:"uri"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	SubmitterID   string
	ContractGigID string
}
