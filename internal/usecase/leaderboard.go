package usecase

import (
	"context"
	"math/big"
	"sort"

	"github.com/aakaru/securelance/internal/domain"
)

const (
	defaultLeaderboardSize = 5
	maxLeaderboardSize     = 100
)

// LeaderboardUsecase is a read-only ranking projection over identities.
// It owns no storage of its own.
type LeaderboardUsecase struct {
	repo  IdentityRepository
	cache RankingCache
}

func NewLeaderboardUsecase(repo IdentityRepository, cache RankingCache) *LeaderboardUsecase {
	return &LeaderboardUsecase{repo: repo, cache: cache}
}

// TopFreelancers ranks by completed-gig count descending, ties broken by
// total earned compared as big integers. Only public reputation fields are
// exposed.
func (uc *LeaderboardUsecase) TopFreelancers(ctx context.Context, limit int) ([]domain.RankedFreelancer, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	if uc.cache != nil {
		if ranking, ok := uc.cache.GetRanking(limit); ok {
			return ranking, nil
		}
	}

	identities, err := uc.repo.ListFreelancers(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(identities, func(i, j int) bool {
		if identities[i].CompletedGigs != identities[j].CompletedGigs {
			return identities[i].CompletedGigs > identities[j].CompletedGigs
		}
		return compareEarned(identities[i].TotalEarned, identities[j].TotalEarned) > 0
	})

	if len(identities) > limit {
		identities = identities[:limit]
	}

	ranking := make([]domain.RankedFreelancer, 0, len(identities))
	for _, identity := range identities {
		ranking = append(ranking, domain.RankedFreelancer{
			Address:       identity.Address,
			DisplayName:   identity.DisplayName,
			CompletedGigs: identity.CompletedGigs,
			TotalEarned:   identity.TotalEarned,
		})
	}

	if uc.cache != nil {
		uc.cache.SetRanking(limit, ranking)
	}
	return ranking, nil
}

// compareEarned compares decimal-string amounts numerically, not
// lexicographically. An unparseable value ranks lowest.
func compareEarned(a, b string) int {
	ai, aok := new(big.Int).SetString(a, 10)
	bi, bok := new(big.Int).SetString(b, 10)
	if !aok && !bok {
		return 0
	}
	if !aok {
		return -1
	}
	if !bok {
		return 1
	}
	return ai.Cmp(bi)
}
