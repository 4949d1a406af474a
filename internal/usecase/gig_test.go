package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aakaru/securelance/internal/domain"
)

const (
	clientAddr     = "0x1111111111111111111111111111111111111111"
	freelancerAddr = "0x2222222222222222222222222222222222222222"
	escrowAddr     = "0x3333333333333333333333333333333333333333"
)

func validCreateInput() CreateGigInput {
	return CreateGigInput{
		ClientAddress:         clientAddr,
		Description:           "build a landing page",
		Budget:                "1000000000000000000",
		ContractGigID:         "7",
		EscrowContractAddress: escrowAddr,
	}
}

func newGigFixture() (*GigUsecase, *memGigRepo, *recordingCrediter, *recordingPublisher) {
	repo := newMemGigRepo()
	crediter := &recordingCrediter{}
	publisher := &recordingPublisher{}
	return NewGigUsecase(repo, crediter, publisher), repo, crediter, publisher
}

func TestCreateGig(t *testing.T) {
	uc, repo, _, publisher := newGigFixture()

	gig, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if gig.Status != domain.GigStatusOpen {
		t.Fatalf("expected Open got %s", gig.Status)
	}
	if gig.FreelancerAddress != nil {
		t.Fatalf("freelancer must be unset on creation")
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != domain.GigEventCreated {
		t.Fatalf("expected created event got %+v", publisher.events)
	}
	if len(repo.gigs) != 1 {
		t.Fatalf("expected one record got %d", len(repo.gigs))
	}
}

func TestCreateGigDuplicateMirror(t *testing.T) {
	uc, repo, _, _ := newGigFixture()

	if _, err := uc.Create(context.Background(), validCreateInput()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := uc.Create(context.Background(), validCreateInput()); !errors.Is(err, domain.ErrDuplicateGig) {
		t.Fatalf("expected duplicate gig got %v", err)
	}
	if len(repo.gigs) != 1 {
		t.Fatalf("store must contain exactly one record, got %d", len(repo.gigs))
	}
}

func TestCreateGigValidation(t *testing.T) {
	uc, _, _, _ := newGigFixture()

	cases := []struct {
		name   string
		mutate func(*CreateGigInput)
		want   error
	}{
		{"bad client address", func(in *CreateGigInput) { in.ClientAddress = "nope" }, domain.ErrInvalidAddress},
		{"bad escrow address", func(in *CreateGigInput) { in.EscrowContractAddress = "nope" }, domain.ErrInvalidAddress},
		{"empty description", func(in *CreateGigInput) { in.Description = "  " }, domain.ErrMissingField},
		{"empty contract id", func(in *CreateGigInput) { in.ContractGigID = "" }, domain.ErrMissingField},
		{"empty budget", func(in *CreateGigInput) { in.Budget = "" }, domain.ErrInvalidAmount},
		{"float budget", func(in *CreateGigInput) { in.Budget = "1.5" }, domain.ErrInvalidAmount},
		{"negative budget", func(in *CreateGigInput) { in.Budget = "-10" }, domain.ErrInvalidAmount},
	}

	for _, c := range cases {
		input := validCreateInput()
		c.mutate(&input)
		if _, err := uc.Create(context.Background(), input); !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v got %v", c.name, c.want, err)
		}
	}
}

func TestSelectFreelancer(t *testing.T) {
	uc, _, _, publisher := newGigFixture()
	input := validCreateInput()
	gig, _ := uc.Create(context.Background(), input)

	updated, err := uc.SelectFreelancer(context.Background(), gig.Key(), freelancerAddr)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if updated.Status != domain.GigStatusInProgress {
		t.Fatalf("expected InProgress got %s", updated.Status)
	}
	if updated.FreelancerAddress == nil || *updated.FreelancerAddress != freelancerAddr {
		t.Fatalf("freelancer not set: %+v", updated.FreelancerAddress)
	}
	if publisher.events[len(publisher.events)-1].Type != domain.GigEventSelected {
		t.Fatalf("expected selected event")
	}

	// a second selection finds the gig no longer Open
	if _, err := uc.SelectFreelancer(context.Background(), gig.Key(), clientAddr); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
}

func TestSelectFreelancerNotFound(t *testing.T) {
	uc, _, _, _ := newGigFixture()
	key := domain.GigKey{ContractGigID: "404", EscrowContractAddress: escrowAddr}
	if _, err := uc.SelectFreelancer(context.Background(), key, freelancerAddr); !errors.Is(err, domain.ErrGigNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestCompleteFromOpenFailsBeforeCredit(t *testing.T) {
	uc, _, crediter, _ := newGigFixture()
	gig, _ := uc.Create(context.Background(), validCreateInput())

	if _, err := uc.Complete(context.Background(), gig.Key()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
	if len(crediter.calls) != 0 {
		t.Fatalf("credit must not run for an Open gig")
	}
}

func TestCompleteCreditsExactlyOnce(t *testing.T) {
	uc, _, crediter, publisher := newGigFixture()
	input := validCreateInput()
	gig, _ := uc.Create(context.Background(), input)
	uc.SelectFreelancer(context.Background(), gig.Key(), freelancerAddr)

	completed, err := uc.Complete(context.Background(), gig.Key())
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != domain.GigStatusCompleted {
		t.Fatalf("expected Completed got %s", completed.Status)
	}
	if len(crediter.calls) != 1 {
		t.Fatalf("expected exactly one credit got %d", len(crediter.calls))
	}
	if crediter.calls[0].address != freelancerAddr || crediter.calls[0].amount != input.Budget {
		t.Fatalf("unexpected credit: %+v", crediter.calls[0])
	}
	if publisher.events[len(publisher.events)-1].Type != domain.GigEventCompleted {
		t.Fatalf("expected completed event")
	}

	// a duplicate completion webhook fails before any second credit
	if _, err := uc.Complete(context.Background(), gig.Key()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
	if len(crediter.calls) != 1 {
		t.Fatalf("duplicate completion must not credit again, got %d", len(crediter.calls))
	}
}

func TestCompleteProceedsWhenCreditFails(t *testing.T) {
	uc, _, crediter, _ := newGigFixture()
	crediter.err = domain.ErrUnknownFreelancer
	gig, _ := uc.Create(context.Background(), validCreateInput())
	uc.SelectFreelancer(context.Background(), gig.Key(), freelancerAddr)

	completed, err := uc.Complete(context.Background(), gig.Key())
	if err != nil {
		t.Fatalf("completion must not be blocked by the reputation projection: %v", err)
	}
	if completed.Status != domain.GigStatusCompleted {
		t.Fatalf("expected Completed got %s", completed.Status)
	}
}

func TestCompleteWithoutFreelancerSkipsCredit(t *testing.T) {
	uc, repo, crediter, _ := newGigFixture()
	gig, _ := uc.Create(context.Background(), validCreateInput())
	// force the anomalous state directly in the store
	repo.gigs[gig.Key()].Status = domain.GigStatusInProgress

	completed, err := uc.Complete(context.Background(), gig.Key())
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != domain.GigStatusCompleted {
		t.Fatalf("expected Completed got %s", completed.Status)
	}
	if len(crediter.calls) != 0 {
		t.Fatalf("no freelancer assigned, credit must be skipped")
	}
}

func TestCancel(t *testing.T) {
	uc, _, _, _ := newGigFixture()

	open, _ := uc.Create(context.Background(), validCreateInput())
	cancelled, err := uc.Cancel(context.Background(), open.Key())
	if err != nil {
		t.Fatalf("cancel from Open failed: %v", err)
	}
	if cancelled.Status != domain.GigStatusCancelled {
		t.Fatalf("expected Cancelled got %s", cancelled.Status)
	}

	input := validCreateInput()
	input.ContractGigID = "8"
	inProgress, _ := uc.Create(context.Background(), input)
	uc.SelectFreelancer(context.Background(), inProgress.Key(), freelancerAddr)
	if _, err := uc.Cancel(context.Background(), inProgress.Key()); err != nil {
		t.Fatalf("cancel from InProgress failed: %v", err)
	}

	// terminal states refuse every mutation
	if _, err := uc.Cancel(context.Background(), cancelled.Key()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
	if _, err := uc.SelectFreelancer(context.Background(), cancelled.Key(), freelancerAddr); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
	if _, err := uc.Complete(context.Background(), cancelled.Key()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
}

// blockingCrediter parks inside CreditCompletion until released, modeling a
// slow reputation write in the middle of a completion.
type blockingCrediter struct {
	entered chan struct{}
	release chan struct{}
	calls   int
}

func (b *blockingCrediter) CreditCompletion(ctx context.Context, address, amount string) error {
	b.calls++
	close(b.entered)
	<-b.release
	return nil
}

func TestCancelWaitsForInFlightCompletion(t *testing.T) {
	repo := newMemGigRepo()
	crediter := &blockingCrediter{entered: make(chan struct{}), release: make(chan struct{})}
	uc := NewGigUsecase(repo, crediter, nil)

	gig, _ := uc.Create(context.Background(), validCreateInput())
	uc.SelectFreelancer(context.Background(), gig.Key(), freelancerAddr)

	completeErr := make(chan error, 1)
	go func() {
		_, err := uc.Complete(context.Background(), gig.Key())
		completeErr <- err
	}()
	<-crediter.entered

	cancelErr := make(chan error, 1)
	go func() {
		_, err := uc.Cancel(context.Background(), gig.Key())
		cancelErr <- err
	}()

	// the cancel must park on the per-gig lock while the credit is in
	// flight, not race ahead and flip the status under the completion
	select {
	case err := <-cancelErr:
		t.Fatalf("cancel ran while a completion held the gig: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(crediter.release)

	if err := <-completeErr; err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := <-cancelErr; !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
	if crediter.calls != 1 {
		t.Fatalf("expected exactly one credit got %d", crediter.calls)
	}

	final, _ := uc.Get(context.Background(), gig.Key())
	if final.Status != domain.GigStatusCompleted {
		t.Fatalf("a credited gig must end Completed, got %s", final.Status)
	}
}

func TestLockEntriesEvicted(t *testing.T) {
	uc, _, _, _ := newGigFixture()

	gig, _ := uc.Create(context.Background(), validCreateInput())
	uc.SelectFreelancer(context.Background(), gig.Key(), freelancerAddr)
	if _, err := uc.Complete(context.Background(), gig.Key()); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if _, err := uc.Cancel(context.Background(), gig.Key()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}

	uc.mu.Lock()
	remaining := len(uc.locks)
	uc.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("lock entries must be evicted after release, %d left", remaining)
	}
}

func TestQueryDirectLookup(t *testing.T) {
	uc, repo, _, _ := newGigFixture()
	gig, _ := uc.Create(context.Background(), validCreateInput())

	results, err := uc.Query(context.Background(), domain.GigFilter{
		ContractGigID:         gig.ContractGigID,
		EscrowContractAddress: escrowAddr,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].ContractGigID != gig.ContractGigID {
		t.Fatalf("unexpected result: %+v", results)
	}
	if repo.queries != 0 {
		t.Fatalf("pair lookup must read the record directly, saw %d scans", repo.queries)
	}

	// an absent pair yields an empty list, not an error
	results, err = uc.Query(context.Background(), domain.GigFilter{
		ContractGigID:         "404",
		EscrowContractAddress: escrowAddr,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result got %+v", results)
	}

	// any additional filter falls back to the scan path
	open := domain.GigStatusOpen
	if _, err := uc.Query(context.Background(), domain.GigFilter{
		ContractGigID:         gig.ContractGigID,
		EscrowContractAddress: escrowAddr,
		Status:                &open,
	}); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if repo.queries != 1 {
		t.Fatalf("filtered query must scan, saw %d scans", repo.queries)
	}
}

func TestQueryFilters(t *testing.T) {
	uc, _, _, _ := newGigFixture()

	first := validCreateInput()
	uc.Create(context.Background(), first)
	second := validCreateInput()
	second.ContractGigID = "8"
	gig2, _ := uc.Create(context.Background(), second)
	uc.SelectFreelancer(context.Background(), gig2.Key(), freelancerAddr)

	open := domain.GigStatusOpen
	results, err := uc.Query(context.Background(), domain.GigFilter{Status: &open})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].ContractGigID != "7" {
		t.Fatalf("unexpected open gigs: %+v", results)
	}

	// case-insensitive freelancer match
	results, err = uc.Query(context.Background(), domain.GigFilter{FreelancerAddress: "0x2222222222222222222222222222222222222222"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0].ContractGigID != "8" {
		t.Fatalf("unexpected freelancer gigs: %+v", results)
	}

	// direct lookup by pair
	results, err = uc.Query(context.Background(), domain.GigFilter{ContractGigID: "8", EscrowContractAddress: escrowAddr})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected single record got %d", len(results))
	}

	bad := domain.GigStatus("Nope")
	if _, err := uc.Query(context.Background(), domain.GigFilter{Status: &bad}); err == nil {
		t.Fatalf("expected invalid status filter error")
	}
}
