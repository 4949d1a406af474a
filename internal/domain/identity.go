package domain

import "time"

// Identity is the off-chain record of a wallet address: profile metadata and
// the reputation counters accumulated from completed gigs.
type Identity struct {
	ID            string           `json:"id"`
	Address       string           `json:"address"`
	DisplayName   string           `json:"displayName"`
	Nonce         string           `json:"-"`
	Bio           string           `json:"bio,omitempty"`
	Skills        []string         `json:"skills,omitempty"`
	Portfolio     []PortfolioEntry `json:"portfolio,omitempty"`
	PhotoURL      string           `json:"photoUrl,omitempty"`
	CompletedGigs int64            `json:"completedGigs"`
	TotalEarned   string           `json:"totalEarned"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// PortfolioEntry is a single showcased work item on a profile.
type PortfolioEntry struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ProfileUpdate carries the owner-editable profile fields. Nil means keep.
type ProfileUpdate struct {
	DisplayName *string           `json:"displayName,omitempty"`
	Bio         *string           `json:"bio,omitempty"`
	Skills      *[]string         `json:"skills,omitempty"`
	Portfolio   *[]PortfolioEntry `json:"portfolio,omitempty"`
	PhotoURL    *string           `json:"photoUrl,omitempty"`
}

// RankedFreelancer is the leaderboard projection of an Identity. Profile and
// auth fields are deliberately absent.
type RankedFreelancer struct {
	Address       string `json:"address"`
	DisplayName   string `json:"displayName"`
	CompletedGigs int64  `json:"completedGigs"`
	TotalEarned   string `json:"totalEarned"`
}
