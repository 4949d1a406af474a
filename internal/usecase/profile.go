package usecase

import (
	"context"
	"errors"

	"github.com/aakaru/securelance/internal/domain"
)

// ProfileUsecase serves public profile reads and owner-only updates.
type ProfileUsecase struct {
	repo  IdentityRepository
	blobs BlobStore
	cache ProfileCache
}

func NewProfileUsecase(repo IdentityRepository, blobs BlobStore, cache ProfileCache) *ProfileUsecase {
	return &ProfileUsecase{repo: repo, blobs: blobs, cache: cache}
}

// Get returns a profile by identity id. Reads go through the cache; the
// nonce never leaves the domain type's serialization anyway.
func (uc *ProfileUsecase) Get(ctx context.Context, id string) (domain.Identity, error) {
	if uc.cache != nil {
		if identity, ok := uc.cache.GetProfile(id); ok {
			return identity, nil
		}
	}

	identity, err := uc.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}

	if uc.cache != nil {
		uc.cache.SetProfile(identity)
	}
	return identity, nil
}

// Update applies owner-editable fields. Display name changes keep the
// global uniqueness invariant.
func (uc *ProfileUsecase) Update(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Identity, error) {
	if update.DisplayName != nil {
		if *update.DisplayName == "" {
			return domain.Identity{}, domain.ErrMissingField
		}
		existing, err := uc.repo.GetByDisplayName(ctx, *update.DisplayName)
		if err == nil && existing.ID != id {
			return domain.Identity{}, domain.ErrNameTaken
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, err
		}
	}

	identity, err := uc.repo.UpdateProfile(ctx, id, update)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}

	if uc.cache != nil {
		uc.cache.InvalidateProfile(id)
	}
	return identity, nil
}

// SetPhoto uploads a profile photo to the blob store and records its URI.
func (uc *ProfileUsecase) SetPhoto(ctx context.Context, id, filename string, data []byte) (domain.Identity, error) {
	if len(data) == 0 {
		return domain.Identity{}, domain.ValidationError{Reason: "file is required"}
	}

	uri, err := uc.blobs.Put(ctx, filename, data)
	if err != nil {
		return domain.Identity{}, err
	}
	return uc.Update(ctx, id, domain.ProfileUpdate{PhotoURL: &uri})
}
