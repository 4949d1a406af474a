package usecase

import (
	"context"
	"math/big"
	"strings"

	"github.com/aakaru/securelance/internal/domain"
)

// ReputationUsecase accumulates completed-gig counts and total earnings.
// Amounts are wei-denominated decimal strings and may exceed what a float
// or int64 can hold, so every step goes through math/big.
type ReputationUsecase struct {
	repo IdentityRepository
}

func NewReputationUsecase(repo IdentityRepository) *ReputationUsecase {
	return &ReputationUsecase{repo: repo}
}

// CreditCompletion adds one completed gig and the gig budget to the
// freelancer's totals in a single atomic update. A parse failure aborts
// before any store access.
func (uc *ReputationUsecase) CreditCompletion(ctx context.Context, address string, amount string) error {
	amt, ok := new(big.Int).SetString(amount, 10)
	if !ok || amt.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	return uc.repo.CreditCompletion(ctx, strings.ToLower(address), amt)
}
