package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aakaru/securelance"
	"github.com/aakaru/securelance/internal/domain"
	"github.com/aakaru/securelance/jwt"
)

// AuthUsecase implements the challenge-response login: a wallet proves
// control of its address by signing the server-issued nonce.
type AuthUsecase struct {
	repo     IdentityRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthUsecase(repo IdentityRepository, secret []byte) *AuthUsecase {
	return &AuthUsecase{
		repo:     repo,
		secret:   secret,
		tokenTTL: domain.SessionTokenTTL,
	}
}

// LoginResult pairs a session token with the authenticated identity.
type LoginResult struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

// RequestNonce returns a fresh single-use nonce for the address, creating a
// placeholder identity on first contact. The nonce is rotated on every call
// so an issued challenge can never be signed twice.
func (uc *AuthUsecase) RequestNonce(ctx context.Context, address string) (string, error) {
	addr, err := securelance.NormalizeAddress(address)
	if err != nil {
		return "", domain.ErrInvalidAddress
	}

	nonce, err := securelance.NewNonce()
	if err != nil {
		return "", err
	}

	_, err = uc.repo.GetByAddress(ctx, addr)
	if errors.Is(err, domain.ErrNotFound) {
		_, err := uc.repo.Create(ctx, domain.Identity{
			ID:          uuid.NewString(),
			Address:     addr,
			DisplayName: securelance.PlaceholderName(addr),
			Nonce:       nonce,
			TotalEarned: "0",
		})
		if err != nil {
			return "", err
		}
		return nonce, nil
	}
	if err != nil {
		return "", err
	}

	if err := uc.repo.RotateNonce(ctx, addr, nonce); err != nil {
		return "", err
	}
	return nonce, nil
}

// VerifyAndLogin reconstructs the challenge from the stored nonce, recovers
// the signer and compares it to the claimed address. The nonce is burned on
// every attempt, win or lose, so an intercepted signature cannot be replayed.
func (uc *AuthUsecase) VerifyAndLogin(ctx context.Context, address, signature, username string) (LoginResult, error) {
	addr, err := securelance.NormalizeAddress(address)
	if err != nil {
		return LoginResult{}, domain.ErrInvalidAddress
	}
	if signature == "" {
		return LoginResult{}, domain.ErrMalformedSignature
	}

	identity, err := uc.repo.GetByAddress(ctx, addr)
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, domain.ErrAddressNotFound
	}
	if err != nil {
		return LoginResult{}, err
	}

	recovered, recoverErr := securelance.RecoverSigner(securelance.Challenge(identity.Nonce), signature)

	if err := uc.burnNonce(ctx, addr); err != nil {
		return LoginResult{}, err
	}

	if recoverErr != nil {
		return LoginResult{}, domain.ErrMalformedSignature
	}
	if recovered != addr {
		return LoginResult{}, domain.ErrSignatureMismatch
	}

	// a chosen name may be claimed once, while the account still carries
	// its auto-generated placeholder
	if username != "" && identity.DisplayName == securelance.PlaceholderName(addr) {
		existing, err := uc.repo.GetByDisplayName(ctx, username)
		if err == nil && existing.Address != addr {
			return LoginResult{}, domain.ErrNameTaken
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return LoginResult{}, err
		}
		if err := uc.repo.SetDisplayName(ctx, identity.ID, username); err != nil {
			return LoginResult{}, err
		}
		identity.DisplayName = username
	}

	token, err := uc.issueToken(identity.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Identity: identity}, nil
}

// Signup registers an identity for a chosen name and address up front,
// without a signature. The first signed login still goes through the nonce
// challenge like everyone else.
func (uc *AuthUsecase) Signup(ctx context.Context, username, address string) (LoginResult, error) {
	addr, err := securelance.NormalizeAddress(address)
	if err != nil {
		return LoginResult{}, domain.ErrInvalidAddress
	}
	if username == "" {
		return LoginResult{}, domain.ErrMissingField
	}

	if _, err := uc.repo.GetByAddress(ctx, addr); err == nil {
		return LoginResult{}, domain.ErrAddressTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, err
	}
	if existing, err := uc.repo.GetByDisplayName(ctx, username); err == nil && existing.Address != addr {
		return LoginResult{}, domain.ErrNameTaken
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, err
	}

	nonce, err := securelance.NewNonce()
	if err != nil {
		return LoginResult{}, err
	}
	identity, err := uc.repo.Create(ctx, domain.Identity{
		ID:          uuid.NewString(),
		Address:     addr,
		DisplayName: username,
		Nonce:       nonce,
		TotalEarned: "0",
	})
	if err != nil {
		return LoginResult{}, err
	}

	token, err := uc.issueToken(identity.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Identity: identity}, nil
}

func (uc *AuthUsecase) burnNonce(ctx context.Context, address string) error {
	nonce, err := securelance.NewNonce()
	if err != nil {
		return err
	}
	return uc.repo.RotateNonce(ctx, address, nonce)
}

func (uc *AuthUsecase) issueToken(identityID string) (string, error) {
	now := time.Now()
	return jwt.Create(jwt.Claims{
		Issuer:         domain.TokenIssuer,
		Subject:        identityID,
		ExpirationTime: strconv.FormatInt(now.Add(uc.tokenTTL).Unix(), 10),
		IssuedAt:       strconv.FormatInt(now.Unix(), 10),
		JWTID:          uuid.NewString(),
	}, uc.secret)
}
