package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aakaru/securelance/internal/domain"
)

// SubmissionUsecase records work deliveries: the file goes to the
// content-addressed blob store, the metadata into the append-only log.
type SubmissionUsecase struct {
	repo  SubmissionRepository
	blobs BlobStore
}

func NewSubmissionUsecase(repo SubmissionRepository, blobs BlobStore) *SubmissionUsecase {
	return &SubmissionUsecase{repo: repo, blobs: blobs}
}

// SubmitInput describes one uploaded deliverable.
type SubmitInput struct {
	SubmitterID   string
	ContractGigID string
	Milestone     string
	Notes         string
	Filename      string
	Data          []byte
}

// Submit stores the file and appends the submission record. Submissions are
// immutable once written.
func (uc *SubmissionUsecase) Submit(ctx context.Context, input SubmitInput) (domain.Submission, error) {
	if input.SubmitterID == "" || strings.TrimSpace(input.ContractGigID) == "" {
		return domain.Submission{}, domain.ErrMissingField
	}
	if len(input.Data) == 0 {
		return domain.Submission{}, domain.ValidationError{Reason: "file is required"}
	}

	uri, err := uc.blobs.Put(ctx, input.Filename, input.Data)
	if err != nil {
		return domain.Submission{}, err
	}

	return uc.repo.Create(ctx, domain.Submission{
		ID:            uuid.NewString(),
		SubmitterID:   input.SubmitterID,
		ContractGigID: input.ContractGigID,
		Milestone:     input.Milestone,
		Notes:         input.Notes,
		URI:           uri,
	})
}

// List returns submissions matching the filter, newest first.
func (uc *SubmissionUsecase) List(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	return uc.repo.List(ctx, filter)
}
