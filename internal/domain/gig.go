package domain

import "time"

type GigStatus string

const (
	GigStatusOpen       GigStatus = "Open"
	GigStatusInProgress GigStatus = "InProgress"
	GigStatusCompleted  GigStatus = "Completed"
	GigStatusCancelled  GigStatus = "Cancelled"
)

// Valid reports whether s is one of the four lifecycle states.
func (s GigStatus) Valid() bool {
	switch s {
	case GigStatusOpen, GigStatusInProgress, GigStatusCompleted, GigStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s GigStatus) Terminal() bool {
	return s == GigStatusCompleted || s == GigStatusCancelled
}

// CanTransition enforces the monotonic lifecycle:
// Open -> InProgress -> Completed, with cancellation allowed from any
// non-terminal state. No skips, no reversals.
func (s GigStatus) CanTransition(to GigStatus) bool {
	switch s {
	case GigStatusOpen:
		return to == GigStatusInProgress || to == GigStatusCancelled
	case GigStatusInProgress:
		return to == GigStatusCompleted || to == GigStatusCancelled
	}
	return false
}

// GigKey identifies a gig by its on-chain coordinates. The pair is unique:
// one on-chain gig maps to exactly one off-chain record.
type GigKey struct {
	ContractGigID         string
	EscrowContractAddress string
}

// Gig mirrors an on-chain work contract with human-readable metadata.
// It is never the source of truth for fund movement.
type Gig struct {
	ClientAddress         string    `json:"clientAddress"`
	FreelancerAddress     *string   `json:"freelancerAddress"`
	Description           string    `json:"description"`
	Budget                string    `json:"budget"`
	Status                GigStatus `json:"status"`
	ContractGigID         string    `json:"contractGigId"`
	EscrowContractAddress string    `json:"escrowContractAddress"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// Key returns the on-chain coordinates of the gig.
func (g Gig) Key() GigKey {
	return GigKey{ContractGigID: g.ContractGigID, EscrowContractAddress: g.EscrowContractAddress}
}

// GigFilter narrows gig queries. Address matches are case-insensitive exact.
type GigFilter struct {
	Status                *GigStatus
	ClientAddress         string
	FreelancerAddress     string
	ContractGigID         string
	EscrowContractAddress string
}

// DirectLookup reports whether the filter addresses a single record.
func (f GigFilter) DirectLookup() bool {
	return f.ContractGigID != "" && f.Status == nil && f.ClientAddress == "" && f.FreelancerAddress == ""
}
