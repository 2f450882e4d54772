package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lotmarket/auction-api/internal/core/domain"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// AuthService implements dev-grade registration and login. Registration
// creates the caller's profile explicitly.
type AuthService struct {
	repo        ports.IdentityRepository
	profiles    ports.ProfileService
	jwtSecret   string
	tokenTTL    time.Duration
	adminSignup bool
}

// AuthOption tunes an AuthService.
type AuthOption func(*AuthService)

// WithAdminSignup lets Register create admin accounts. Without it only
// members can self-register.
func WithAdminSignup() AuthOption {
	return func(s *AuthService) { s.adminSignup = true }
}

func NewAuthService(repo ports.IdentityRepository, profiles ports.ProfileService, jwtSecret string, tokenTTL time.Duration, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{repo: repo, profiles: profiles, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, *domain.Profile, error) {
	if in.Username == "" || in.Password == "" {
		return nil, nil, fmt.Errorf("%w: username and password", domain.ErrMissingField)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if role == domain.RoleAdmin && !s.adminSignup {
		return nil, nil, fmt.Errorf("%w: admin accounts cannot self-register", domain.ErrForbidden)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	identity, err := s.repo.Create(ctx, &domain.Identity{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.profiles.EnsureProfile(ctx, identity.ID, identity.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("create profile: %w", err)
	}
	return identity, profile, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Identity, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	identity, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(identity)
	if err != nil {
		return "", nil, err
	}
	return token, identity, nil
}

func (s *AuthService) generateToken(identity *domain.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      identity.ID,
		"username": identity.Username,
		"role":     identity.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
