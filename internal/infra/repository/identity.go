package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aakaru/securelance/internal/domain"
	"github.com/aakaru/securelance/internal/infra/database/models"
)

type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Create(ctx context.Context, identity domain.Identity) (domain.Identity, error) {
	model := models.IdentityFromDomain(identity)
	err := r.db.WithContext(ctx).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Identity{}, domain.ErrAddressTaken
	}
	if err != nil {
		return domain.Identity{}, domain.StoreUnavailableError{Err: err}
	}
	return model.ToDomain(), nil
}

func (r *IdentityRepository) GetByAddress(ctx context.Context, address string) (domain.Identity, error) {
	var model models.Identity
	err := r.db.WithContext(ctx).
		Where("address = ?", address).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Identity{}, domain.ErrAddressNotFound
	}
	if err != nil {
		return domain.Identity{}, domain.StoreUnavailableError{Err: err}
	}
	return model.ToDomain(), nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	var model models.Identity
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Identity{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Identity{}, domain.StoreUnavailableError{Err: err}
	}
	return model.ToDomain(), nil
}

func (r *IdentityRepository) GetByDisplayName(ctx context.Context, name string) (domain.Identity, error) {
	var model models.Identity
	err := r.db.WithContext(ctx).
		Where("display_name = ?", name).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Identity{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Identity{}, domain.StoreUnavailableError{Err: err}
	}
	return model.ToDomain(), nil
}

func (r *IdentityRepository) RotateNonce(ctx context.Context, address string, nonce string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("address = ?", address).
		Update("nonce", nonce)
	if result.Error != nil {
		return domain.StoreUnavailableError{Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (r *IdentityRepository) SetDisplayName(ctx context.Context, id string, name string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		Update("display_name", name)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return domain.ErrNameTaken
	}
	if result.Error != nil {
		return domain.StoreUnavailableError{Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *IdentityRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Identity, error) {
	assignments := map[string]any{}
	if update.DisplayName != nil {
		assignments["display_name"] = *update.DisplayName
	}
	if update.Bio != nil {
		assignments["bio"] = *update.Bio
	}
	if update.Skills != nil {
		assignments["skills"] = marshalJSONList(*update.Skills)
	}
	if update.Portfolio != nil {
		assignments["portfolio"] = marshalJSONList(*update.Portfolio)
	}
	if update.PhotoURL != nil {
		assignments["photo_url"] = *update.PhotoURL
	}

	if len(assignments) > 0 {
		result := r.db.WithContext(ctx).
			Model(&models.Identity{}).
			Where("id = ?", id).
			Updates(assignments)
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.Identity{}, domain.ErrNameTaken
		}
		if result.Error != nil {
			return domain.Identity{}, domain.StoreUnavailableError{Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return domain.Identity{}, domain.ErrAccountNotFound
		}
	}

	return r.GetByID(ctx, id)
}

// CreditCompletion increments the completed-gig counter and adds amount to
// the earnings total in one transaction. The row is locked for the duration
// so concurrent credits serialize instead of clobbering each other.
func (r *IdentityRepository) CreditCompletion(ctx context.Context, address string, amount *big.Int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.Identity
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", address).
			Take(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUnknownFreelancer
		}
		if err != nil {
			return err
		}

		total, ok := new(big.Int).SetString(model.TotalEarned, 10)
		if !ok {
			return domain.ErrInvalidAmount
		}
		total.Add(total, amount)

		return tx.Model(&models.Identity{}).
			Where("id = ?", model.ID).
			Updates(map[string]any{
				"completed_gigs": gorm.Expr("completed_gigs + 1"),
				"total_earned":   total.String(),
			}).Error
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidAmount) {
		return domain.StoreUnavailableError{Err: err}
	}
	return err
}

func marshalJSONList(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(out)
}

func (r *IdentityRepository) ListFreelancers(ctx context.Context) ([]domain.Identity, error) {
	var rows []models.Identity
	err := r.db.WithContext(ctx).
		Order("address").
		Find(&rows).Error
	if err != nil {
		return nil, domain.StoreUnavailableError{Err: err}
	}

	out := make([]domain.Identity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}
