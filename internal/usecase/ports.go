package usecase

import (
	"context"
	"math/big"

	"github.com/aakaru/securelance/internal/domain"
)

// IdentityRepository defines persistence for identities and their
// reputation counters.
type IdentityRepository interface {
	Create(ctx context.Context, identity domain.Identity) (domain.Identity, error)
	GetByAddress(ctx context.Context, address string) (domain.Identity, error)
	GetByID(ctx context.Context, id string) (domain.Identity, error)
	GetByDisplayName(ctx context.Context, name string) (domain.Identity, error)
	RotateNonce(ctx context.Context, address string, nonce string) error
	SetDisplayName(ctx context.Context, id string, name string) error
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Identity, error)
	CreditCompletion(ctx context.Context, address string, amount *big.Int) error
	ListFreelancers(ctx context.Context) ([]domain.Identity, error)
}

// GigRepository defines persistence for gigs. Status transitions are
// conditional updates: a write that does not observe the expected current
// status must fail, never overwrite.
type GigRepository interface {
	Create(ctx context.Context, gig domain.Gig) (domain.Gig, error)
	Get(ctx context.Context, key domain.GigKey) (domain.Gig, error)
	Query(ctx context.Context, filter domain.GigFilter) ([]domain.Gig, error)
	SelectFreelancer(ctx context.Context, key domain.GigKey, freelancer string) (domain.Gig, error)
	UpdateStatus(ctx context.Context, key domain.GigKey, from, to domain.GigStatus) (domain.Gig, error)
}

// SubmissionRepository defines the append-only submission log.
type SubmissionRepository interface {
	Create(ctx context.Context, s domain.Submission) (domain.Submission, error)
	List(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error)
}

// BlobStore stores bytes in content-addressed storage and returns a
// retrieval URI.
type BlobStore interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
}

// ReputationCrediter is the accumulator invoked on gig completion.
type ReputationCrediter interface {
	CreditCompletion(ctx context.Context, address string, amount string) error
}

// EventPublisher fans lifecycle events out to realtime subscribers.
type EventPublisher interface {
	PublishGigEvent(ctx context.Context, event domain.GigEvent) error
}

// RankingCache caches leaderboard projections for a short TTL.
type RankingCache interface {
	GetRanking(limit int) ([]domain.RankedFreelancer, bool)
	SetRanking(limit int, ranking []domain.RankedFreelancer)
}

// ProfileCache caches public profile reads, invalidated on update.
type ProfileCache interface {
	GetProfile(id string) (domain.Identity, bool)
	SetProfile(identity domain.Identity)
	InvalidateProfile(id string)
}
