package usecase

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aakaru/securelance/internal/domain"
)

// memIdentityRepo is an in-memory IdentityRepository with the same
// uniqueness and atomicity semantics as the real store.
type memIdentityRepo struct {
	mu         sync.Mutex
	byAddress  map[string]*domain.Identity
	creditErrs []error
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{byAddress: map[string]*domain.Identity{}}
}

func (m *memIdentityRepo) Create(ctx context.Context, identity domain.Identity) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byAddress[identity.Address]; ok {
		return domain.Identity{}, domain.ErrAddressTaken
	}
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt
	cp := identity
	m.byAddress[identity.Address] = &cp
	return identity, nil
}

func (m *memIdentityRepo) GetByAddress(ctx context.Context, address string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity, ok := m.byAddress[address]; ok {
		return *identity, nil
	}
	return domain.Identity{}, domain.ErrAddressNotFound
}

func (m *memIdentityRepo) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.byAddress {
		if identity.ID == id {
			return *identity, nil
		}
	}
	return domain.Identity{}, domain.ErrAccountNotFound
}

func (m *memIdentityRepo) GetByDisplayName(ctx context.Context, name string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.byAddress {
		if identity.DisplayName == name {
			return *identity, nil
		}
	}
	return domain.Identity{}, domain.ErrAccountNotFound
}

func (m *memIdentityRepo) RotateNonce(ctx context.Context, address, nonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.byAddress[address]
	if !ok {
		return domain.ErrAddressNotFound
	}
	identity.Nonce = nonce
	return nil
}

func (m *memIdentityRepo) SetDisplayName(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.byAddress {
		if identity.ID == id {
			identity.DisplayName = name
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (m *memIdentityRepo) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.byAddress {
		if identity.ID != id {
			continue
		}
		if update.DisplayName != nil {
			identity.DisplayName = *update.DisplayName
		}
		if update.Bio != nil {
			identity.Bio = *update.Bio
		}
		if update.Skills != nil {
			identity.Skills = *update.Skills
		}
		if update.Portfolio != nil {
			identity.Portfolio = *update.Portfolio
		}
		if update.PhotoURL != nil {
			identity.PhotoURL = *update.PhotoURL
		}
		identity.UpdatedAt = time.Now()
		return *identity, nil
	}
	return domain.Identity{}, domain.ErrAccountNotFound
}

func (m *memIdentityRepo) CreditCompletion(ctx context.Context, address string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.byAddress[address]
	if !ok {
		return domain.ErrUnknownFreelancer
	}
	total, ok := new(big.Int).SetString(identity.TotalEarned, 10)
	if !ok {
		return domain.ErrInvalidAmount
	}
	identity.CompletedGigs++
	identity.TotalEarned = total.Add(total, amount).String()
	return nil
}

func (m *memIdentityRepo) ListFreelancers(ctx context.Context) ([]domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Identity
	for _, identity := range m.byAddress {
		out = append(out, *identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

// memGigRepo is an in-memory GigRepository with conditional-update
// transition semantics.
type memGigRepo struct {
	mu      sync.Mutex
	gigs    map[domain.GigKey]*domain.Gig
	queries int
}

func newMemGigRepo() *memGigRepo {
	return &memGigRepo{gigs: map[domain.GigKey]*domain.Gig{}}
}

func (m *memGigRepo) Create(ctx context.Context, gig domain.Gig) (domain.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gigs[gig.Key()]; ok {
		return domain.Gig{}, domain.ErrDuplicateGig
	}
	gig.CreatedAt = time.Now()
	gig.UpdatedAt = gig.CreatedAt
	cp := gig
	m.gigs[gig.Key()] = &cp
	return gig, nil
}

func (m *memGigRepo) Get(ctx context.Context, key domain.GigKey) (domain.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gig, ok := m.gigs[key]; ok {
		return *gig, nil
	}
	return domain.Gig{}, domain.ErrGigNotFound
}

func (m *memGigRepo) Query(ctx context.Context, filter domain.GigFilter) ([]domain.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	var out []domain.Gig
	for _, gig := range m.gigs {
		if filter.Status != nil && gig.Status != *filter.Status {
			continue
		}
		if filter.ClientAddress != "" && !strings.EqualFold(gig.ClientAddress, filter.ClientAddress) {
			continue
		}
		if filter.FreelancerAddress != "" && (gig.FreelancerAddress == nil || !strings.EqualFold(*gig.FreelancerAddress, filter.FreelancerAddress)) {
			continue
		}
		if filter.ContractGigID != "" && gig.ContractGigID != filter.ContractGigID {
			continue
		}
		if filter.EscrowContractAddress != "" && !strings.EqualFold(gig.EscrowContractAddress, filter.EscrowContractAddress) {
			continue
		}
		out = append(out, *gig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memGigRepo) SelectFreelancer(ctx context.Context, key domain.GigKey, freelancer string) (domain.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gig, ok := m.gigs[key]
	if !ok {
		return domain.Gig{}, domain.ErrGigNotFound
	}
	if gig.Status != domain.GigStatusOpen {
		return domain.Gig{}, domain.ErrInvalidTransition
	}
	gig.FreelancerAddress = &freelancer
	gig.Status = domain.GigStatusInProgress
	gig.UpdatedAt = time.Now()
	return *gig, nil
}

func (m *memGigRepo) UpdateStatus(ctx context.Context, key domain.GigKey, from, to domain.GigStatus) (domain.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gig, ok := m.gigs[key]
	if !ok {
		return domain.Gig{}, domain.ErrGigNotFound
	}
	if gig.Status != from {
		return domain.Gig{}, domain.ErrInvalidTransition
	}
	gig.Status = to
	gig.UpdatedAt = time.Now()
	return *gig, nil
}

// recordingCrediter counts credit calls without touching a store.
type recordingCrediter struct {
	calls []struct{ address, amount string }
	err   error
}

func (r *recordingCrediter) CreditCompletion(ctx context.Context, address, amount string) error {
	r.calls = append(r.calls, struct{ address, amount string }{address, amount})
	return r.err
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	events []domain.GigEvent
}

func (r *recordingPublisher) PublishGigEvent(ctx context.Context, event domain.GigEvent) error {
	r.events = append(r.events, event)
	return nil
}

// memBlobStore returns a deterministic URI per filename.
type memBlobStore struct {
	puts int
}

func (m *memBlobStore) Put(ctx context.Context, filename string, data []byte) (string, error) {
	m.puts++
	return "https://blobs.example/" + filename, nil
}

// memSubmissionRepo is an append-only in-memory submission log.
type memSubmissionRepo struct {
	subs []domain.Submission
}

func (m *memSubmissionRepo) Create(ctx context.Context, s domain.Submission) (domain.Submission, error) {
	s.CreatedAt = time.Now()
	m.subs = append(m.subs, s)
	return s, nil
}

func (m *memSubmissionRepo) List(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	var out []domain.Submission
	for _, s := range m.subs {
		if filter.SubmitterID != "" && s.SubmitterID != filter.SubmitterID {
			continue
		}
		if filter.ContractGigID != "" && s.ContractGigID != filter.ContractGigID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
