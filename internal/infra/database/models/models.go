package models

import (
	"encoding/json"
	"time"

	"github.com/aakaru/securelance/internal/domain"
)

type Identity struct {
	ID            string    `json:"id" gorm:"primaryKey;type:text"`
	Address       string    `json:"address" gorm:"type:text;uniqueIndex"`
	DisplayName   string    `json:"displayName" gorm:"type:text;uniqueIndex"`
	Nonce         string    `json:"nonce" gorm:"type:text"`
	Bio           string    `json:"bio" gorm:"type:text"`
	Skills        string    `json:"skills" gorm:"type:json;default:'[]'"`
	Portfolio     string    `json:"portfolio" gorm:"type:json;default:'[]'"`
	PhotoURL      string    `json:"photoUrl" gorm:"type:text"`
	CompletedGigs int64     `json:"completedGigs" gorm:"type:bigint;not null;default:0"`
	TotalEarned   string    `json:"totalEarned" gorm:"type:numeric(78,0);not null;default:0"`
	CDate         time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate         time.Time `json:"mdate" gorm:"autoUpdateTime;type:timestamp with time zone;not null"`
}

type Gig struct {
	ID                    int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ClientAddress         string    `json:"clientAddress" gorm:"type:text;index;not null"`
	FreelancerAddress     *string   `json:"freelancerAddress" gorm:"type:text;index"`
	Description           string    `json:"description" gorm:"type:text;not null"`
	Budget                string    `json:"budget" gorm:"type:numeric(78,0);not null"`
	Status                string    `json:"status" gorm:"type:text;index;not null"`
	ContractGigID         string    `json:"contractGigId" gorm:"type:text;uniqueIndex:uniq_chain_gig;not null"`
	EscrowContractAddress string    `json:"escrowContractAddress" gorm:"type:text;uniqueIndex:uniq_chain_gig;not null"`
	CDate                 time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate                 time.Time `json:"mdate" gorm:"autoUpdateTime;type:timestamp with time zone;not null"`
}

type Submission struct {
	ID            string    `json:"id" gorm:"primaryKey;type:text"`
	SubmitterID   string    `json:"submitterId" gorm:"type:text;index;not null"`
	Submitter     Identity  `json:"-" gorm:"foreignKey:SubmitterID;references:ID;constraint:OnDelete:CASCADE;"`
	ContractGigID string    `json:"contractGigId" gorm:"type:text;index"`
	Milestone     string    `json:"milestone" gorm:"type:text"`
	Notes         string    `json:"notes" gorm:"type:text"`
	URI           string    `json:"uri" gorm:"type:text;not null"`
	CDate         time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func (m Identity) ToDomain() domain.Identity {
	var skills []string
	if m.Skills != "" {
		json.Unmarshal([]byte(m.Skills), &skills)
	}
	var portfolio []domain.PortfolioEntry
	if m.Portfolio != "" {
		json.Unmarshal([]byte(m.Portfolio), &portfolio)
	}
	return domain.Identity{
		ID:            m.ID,
		Address:       m.Address,
		DisplayName:   m.DisplayName,
		Nonce:         m.Nonce,
		Bio:           m.Bio,
		Skills:        skills,
		Portfolio:     portfolio,
		PhotoURL:      m.PhotoURL,
		CompletedGigs: m.CompletedGigs,
		TotalEarned:   m.TotalEarned,
		CreatedAt:     m.CDate,
		UpdatedAt:     m.MDate,
	}
}

func IdentityFromDomain(identity domain.Identity) Identity {
	skills, _ := json.Marshal(identity.Skills)
	if identity.Skills == nil {
		skills = []byte("[]")
	}
	portfolio, _ := json.Marshal(identity.Portfolio)
	if identity.Portfolio == nil {
		portfolio = []byte("[]")
	}
	return Identity{
		ID:            identity.ID,
		Address:       identity.Address,
		DisplayName:   identity.DisplayName,
		Nonce:         identity.Nonce,
		Bio:           identity.Bio,
		Skills:        string(skills),
		Portfolio:     string(portfolio),
		PhotoURL:      identity.PhotoURL,
		CompletedGigs: identity.CompletedGigs,
		TotalEarned:   identity.TotalEarned,
	}
}

func (m Gig) ToDomain() domain.Gig {
	return domain.Gig{
		ClientAddress:         m.ClientAddress,
		FreelancerAddress:     m.FreelancerAddress,
		Description:           m.Description,
		Budget:                m.Budget,
		Status:                domain.GigStatus(m.Status),
		ContractGigID:         m.ContractGigID,
		EscrowContractAddress: m.EscrowContractAddress,
		CreatedAt:             m.CDate,
		UpdatedAt:             m.MDate,
	}
}

func GigFromDomain(gig domain.Gig) Gig {
	return Gig{
		ClientAddress:         gig.ClientAddress,
		FreelancerAddress:     gig.FreelancerAddress,
		Description:           gig.Description,
		Budget:                gig.Budget,
		Status:                string(gig.Status),
		ContractGigID:         gig.ContractGigID,
		EscrowContractAddress: gig.EscrowContractAddress,
	}
}

func (m Submission) ToDomain() domain.Submission {
	return domain.Submission{
		ID:            m.ID,
		SubmitterID:   m.SubmitterID,
		ContractGigID: m.ContractGigID,
		Milestone:     m.Milestone,
		Notes:         m.Notes,
		URI:           m.URI,
		CreatedAt:     m.CDate,
	}
}

func SubmissionFromDomain(s domain.Submission) Submission {
	return Submission{
		ID:            s.ID,
		SubmitterID:   s.SubmitterID,
		ContractGigID: s.ContractGigID,
		Milestone:     s.Milestone,
		Notes:         s.Notes,
		URI:           s.URI,
	}
}
