package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aakaru/securelance/internal/domain"
	"github.com/aakaru/securelance/internal/infra/database/models"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, s domain.Submission) (domain.Submission, error) {
	model := models.SubmissionFromDomain(s)
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		return domain.Submission{}, domain.StoreUnavailableError{Err: err}
	}
	return model.ToDomain(), nil
}

func (r *SubmissionRepository) List(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})
	if filter.SubmitterID != "" {
		query = query.Where("submitter_id = ?", filter.SubmitterID)
	}
	if filter.ContractGigID != "" {
		query = query.Where("contract_gig_id = ?", filter.ContractGigID)
	}

	var rows []models.Submission
	err := query.Order("c_date DESC").Find(&rows).Error
	if err != nil {
		return nil, domain.StoreUnavailableError{Err: err}
	}

	out := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}
