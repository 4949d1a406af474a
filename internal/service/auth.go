package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/aakaru/securelance/internal/domain"
	"github.com/aakaru/securelance/internal/usecase"
	"github.com/aakaru/securelance/jwt"
)

var tracer = otel.Tracer("auth")

// AuthService resolves bearer tokens to identities for request middleware.
type AuthService struct {
	repo       usecase.IdentityRepository
	secret     []byte
	identities *gocache.Cache
}

func NewAuthService(repo usecase.IdentityRepository, secret []byte) *AuthService {
	return &AuthService{
		repo:       repo,
		secret:     secret,
		identities: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

type AuthResult struct {
	IdentityID string
	Address    string
}

func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	_, claims, err := jwt.Validate(token, s.secret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, domain.ErrUnauthorized
	}

	if claims.Issuer != domain.TokenIssuer {
		span.RecordError(errors.New("jwt issuer mismatch"))
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		span.RecordError(errors.New("jwt subject missing"))
		return nil, domain.ErrUnauthorized
	}

	if cached, ok := s.identities.Get(claims.Subject); ok {
		identity := cached.(domain.Identity)
		return &AuthResult{IdentityID: identity.ID, Address: identity.Address}, nil
	}

	identity, err := s.repo.GetByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.identities.Set(identity.ID, identity, gocache.DefaultExpiration)

	return &AuthResult{IdentityID: identity.ID, Address: identity.Address}, nil
}
