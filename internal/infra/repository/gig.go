package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aakaru/securelance/internal/domain"
	"github.com/aakaru/securelance/internal/infra/database/models"
)

type GigRepository struct {
	db *gorm.DB
}

func NewGigRepository(db *gorm.DB) *GigRepository {
	return &GigRepository{db: db}
}

func (r *GigRepository) Create(ctx context.Context, gig domain.Gig) (domain.Gig, error) {
	model := models.GigFromDomain(gig)
	err := r.db.WithContext(ctx).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Gig{}, domain.ErrDuplicateGig
	}
	if err != nil {
		return domain.Gig{}, domain.StoreUnavailableError{Err: err}
	}
	return model.ToDomain(), nil
}

func (r *GigRepository) Get(ctx context.Context, key domain.GigKey) (domain.Gig, error) {
	var model models.Gig
	err := r.db.WithContext(ctx).
		Where("contract_gig_id = ? AND escrow_contract_address = ?", key.ContractGigID, key.EscrowContractAddress).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Gig{}, domain.ErrGigNotFound
	}
	if err != nil {
		return domain.Gig{}, domain.StoreUnavailableError{Err: err}
	}
	return model.ToDomain(), nil
}

func (r *GigRepository) Query(ctx context.Context, filter domain.GigFilter) ([]domain.Gig, error) {
	query := r.db.WithContext(ctx).Model(&models.Gig{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.ClientAddress != "" {
		query = query.Where("client_address = ?", filter.ClientAddress)
	}
	if filter.FreelancerAddress != "" {
		query = query.Where("freelancer_address = ?", filter.FreelancerAddress)
	}
	if filter.ContractGigID != "" {
		query = query.Where("contract_gig_id = ?", filter.ContractGigID)
	}
	if filter.EscrowContractAddress != "" {
		query = query.Where("escrow_contract_address = ?", filter.EscrowContractAddress)
	}

	var rows []models.Gig
	err := query.Order("c_date DESC").Find(&rows).Error
	if err != nil {
		return nil, domain.StoreUnavailableError{Err: err}
	}

	out := make([]domain.Gig, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// SelectFreelancer assigns a freelancer and moves the gig to InProgress.
// The write is conditional on the gig still being Open.
func (r *GigRepository) SelectFreelancer(ctx context.Context, key domain.GigKey, freelancer string) (domain.Gig, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Gig{}).
		Where("contract_gig_id = ? AND escrow_contract_address = ? AND status = ?",
			key.ContractGigID, key.EscrowContractAddress, string(domain.GigStatusOpen)).
		Updates(map[string]any{
			"freelancer_address": freelancer,
			"status":             string(domain.GigStatusInProgress),
		})
	if result.Error != nil {
		return domain.Gig{}, domain.StoreUnavailableError{Err: result.Error}
	}
	if result.RowsAffected == 0 {
		// disambiguate absent from wrong-state
		if _, err := r.Get(ctx, key); err != nil {
			return domain.Gig{}, err
		}
		return domain.Gig{}, domain.ErrInvalidTransition
	}
	return r.Get(ctx, key)
}

// UpdateStatus transitions a gig from one status to another. The write is
// conditional on the current status so concurrent transitions cannot race
// past each other.
func (r *GigRepository) UpdateStatus(ctx context.Context, key domain.GigKey, from, to domain.GigStatus) (domain.Gig, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Gig{}).
		Where("contract_gig_id = ? AND escrow_contract_address = ? AND status = ?",
			key.ContractGigID, key.EscrowContractAddress, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return domain.Gig{}, domain.StoreUnavailableError{Err: result.Error}
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, key); err != nil {
			return domain.Gig{}, err
		}
		return domain.Gig{}, domain.ErrInvalidTransition
	}
	return r.Get(ctx, key)
}
