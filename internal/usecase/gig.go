package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/aakaru/securelance"
	"github.com/aakaru/securelance/internal/domain"
)

// GigUsecase owns the gig lifecycle. It trusts that callers only invoke
// transitions in response to real on-chain events or authorized in-app
// actions, but independently enforces monotonic status discipline and
// key uniqueness so replayed or out-of-order mirrored events cannot
// corrupt the record.
type GigUsecase struct {
	repo       GigRepository
	reputation ReputationCrediter
	publisher  EventPublisher

	// serializes terminal transitions per gig key so a concurrent cancel
	// or duplicate completion cannot land between the reputation credit
	// and the status write
	mu    sync.Mutex
	locks map[domain.GigKey]*keyLock
}

// keyLock is refcounted so the entry can be evicted once the last holder
// releases it; terminal gigs do not pin map entries forever.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewGigUsecase(repo GigRepository, reputation ReputationCrediter, publisher EventPublisher) *GigUsecase {
	return &GigUsecase{
		repo:       repo,
		reputation: reputation,
		publisher:  publisher,
		locks:      map[domain.GigKey]*keyLock{},
	}
}

// CreateGigInput mirrors an on-chain gig-posting event.
type CreateGigInput struct {
	ClientAddress         string `json:"clientAddress"`
	Description           string `json:"description"`
	Budget                string `json:"budget"`
	ContractGigID         string `json:"contractGigId"`
	EscrowContractAddress string `json:"escrowContractAddress"`
}

// Create inserts a gig in state Open. A second mirror of the same on-chain
// event fails with the duplicate-gig conflict and leaves a single record.
func (uc *GigUsecase) Create(ctx context.Context, input CreateGigInput) (domain.Gig, error) {
	client, err := securelance.NormalizeAddress(input.ClientAddress)
	if err != nil {
		return domain.Gig{}, domain.ErrInvalidAddress
	}
	escrow, err := securelance.NormalizeAddress(input.EscrowContractAddress)
	if err != nil {
		return domain.Gig{}, domain.ErrInvalidAddress
	}
	if strings.TrimSpace(input.Description) == "" || strings.TrimSpace(input.ContractGigID) == "" {
		return domain.Gig{}, domain.ErrMissingField
	}
	budget, ok := new(big.Int).SetString(input.Budget, 10)
	if !ok || budget.Sign() < 0 {
		return domain.Gig{}, domain.ErrInvalidAmount
	}

	gig, err := uc.repo.Create(ctx, domain.Gig{
		ClientAddress:         client,
		Description:           input.Description,
		Budget:                budget.String(),
		Status:                domain.GigStatusOpen,
		ContractGigID:         input.ContractGigID,
		EscrowContractAddress: escrow,
	})
	if err != nil {
		return domain.Gig{}, err
	}

	uc.publish(ctx, domain.GigEventCreated, gig)
	return gig, nil
}

// Get returns a single gig by its on-chain key.
func (uc *GigUsecase) Get(ctx context.Context, key domain.GigKey) (domain.Gig, error) {
	return uc.repo.Get(ctx, normalizeKey(key))
}

// Query lists gigs, newest first unless the filter is a direct lookup.
func (uc *GigUsecase) Query(ctx context.Context, filter domain.GigFilter) ([]domain.Gig, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.ValidationError{Reason: "invalid status filter"}
	}
	filter.ClientAddress = strings.ToLower(filter.ClientAddress)
	filter.FreelancerAddress = strings.ToLower(filter.FreelancerAddress)
	filter.EscrowContractAddress = strings.ToLower(filter.EscrowContractAddress)

	// a filter addressing one record reads it directly instead of scanning
	if filter.DirectLookup() && filter.EscrowContractAddress != "" {
		gig, err := uc.repo.Get(ctx, domain.GigKey{
			ContractGigID:         filter.ContractGigID,
			EscrowContractAddress: filter.EscrowContractAddress,
		})
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Gig{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []domain.Gig{gig}, nil
	}

	return uc.repo.Query(ctx, filter)
}

// SelectFreelancer assigns a freelancer to an Open gig and moves it to
// InProgress. A gig in any other state rejects the assignment.
func (uc *GigUsecase) SelectFreelancer(ctx context.Context, key domain.GigKey, freelancerAddress string) (domain.Gig, error) {
	freelancer, err := securelance.NormalizeAddress(freelancerAddress)
	if err != nil {
		return domain.Gig{}, domain.ErrInvalidAddress
	}

	gig, err := uc.repo.SelectFreelancer(ctx, normalizeKey(key), freelancer)
	if err != nil {
		return domain.Gig{}, err
	}

	uc.publish(ctx, domain.GigEventSelected, gig)
	return gig, nil
}

// Complete moves an InProgress gig to Completed, crediting the assigned
// freelancer's reputation before the status write. The money already moved
// on-chain, so a failed reputation credit is logged and never blocks the
// transition.
func (uc *GigUsecase) Complete(ctx context.Context, key domain.GigKey) (domain.Gig, error) {
	key = normalizeKey(key)

	unlock := uc.lock(key)
	defer unlock()

	gig, err := uc.repo.Get(ctx, key)
	if err != nil {
		return domain.Gig{}, err
	}
	if gig.Status != domain.GigStatusInProgress {
		return domain.Gig{}, domain.ErrInvalidTransition
	}

	if gig.FreelancerAddress != nil && *gig.FreelancerAddress != "" {
		if err := uc.reputation.CreditCompletion(ctx, *gig.FreelancerAddress, gig.Budget); err != nil {
			slog.WarnContext(ctx, "reputation credit skipped",
				slog.String("contractGigId", gig.ContractGigID),
				slog.String("freelancer", *gig.FreelancerAddress),
				slog.String("error", err.Error()),
			)
		}
	} else {
		// should be unreachable given the state machine; completing
		// anyway keeps the registry aligned with the chain
		slog.WarnContext(ctx, "gig completed without assigned freelancer",
			slog.String("contractGigId", gig.ContractGigID),
		)
	}

	gig, err = uc.repo.UpdateStatus(ctx, key, domain.GigStatusInProgress, domain.GigStatusCompleted)
	if err != nil {
		return domain.Gig{}, err
	}

	uc.publish(ctx, domain.GigEventCompleted, gig)
	return gig, nil
}

// Cancel moves a non-terminal gig to Cancelled, mirroring an on-chain
// cancellation. Cancelled records are kept, never deleted.
func (uc *GigUsecase) Cancel(ctx context.Context, key domain.GigKey) (domain.Gig, error) {
	key = normalizeKey(key)

	// same lock as Complete: a cancel must not slip between a
	// completion's reputation credit and its status write
	unlock := uc.lock(key)
	defer unlock()

	gig, err := uc.repo.Get(ctx, key)
	if err != nil {
		return domain.Gig{}, err
	}
	if !gig.Status.CanTransition(domain.GigStatusCancelled) {
		return domain.Gig{}, domain.ErrInvalidTransition
	}

	gig, err = uc.repo.UpdateStatus(ctx, key, gig.Status, domain.GigStatusCancelled)
	if err != nil {
		return domain.Gig{}, err
	}

	uc.publish(ctx, domain.GigEventCancelled, gig)
	return gig, nil
}

func (uc *GigUsecase) publish(ctx context.Context, eventType string, gig domain.Gig) {
	if uc.publisher == nil {
		return
	}
	event := domain.GigEvent{Type: eventType, Gig: gig, Timestamp: time.Now().UTC()}
	if err := uc.publisher.PublishGigEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "gig event publish failed",
			slog.String("type", eventType),
			slog.String("contractGigId", gig.ContractGigID),
			slog.String("error", err.Error()),
		)
	}
}

func (uc *GigUsecase) lock(key domain.GigKey) func() {
	uc.mu.Lock()
	l, ok := uc.locks[key]
	if !ok {
		l = &keyLock{}
		uc.locks[key] = l
	}
	l.refs++
	uc.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		uc.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(uc.locks, key)
		}
		uc.mu.Unlock()
	}
}

func normalizeKey(key domain.GigKey) domain.GigKey {
	key.EscrowContractAddress = strings.ToLower(key.EscrowContractAddress)
	return key
}
