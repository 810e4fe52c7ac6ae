package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/audit"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	repo       repository.UserRepository
	tokens     TokenIssuer
	bcryptCost int
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, tokens TokenIssuer) UserService {
	return &userServiceImpl{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register registers a new user.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	role := req.Role
	if role == "" {
		role = domain.RoleBuyer
	}

	// bcrypt only reads the first 72 bytes; the binding counts runes.
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrEmailExists) {
			l.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	resp, err := s.issue(user)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldUserID, user.ID).Msg("failed to generate token after register")
		return nil, err
	}

	audit.Record(ctx, audit.ActionRegister, user.ID).Detail(user.Role).Msg("user registered")
	return resp, nil
}

// Login authenticates a user.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.Record(ctx, audit.ActionLoginFailed, 0).Detail(email).Msg("login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.Record(ctx, audit.ActionLoginFailed, user.ID).Detail(email).Msg("login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(user)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldUserID, user.ID).Msg("failed to generate token after login")
		return nil, err
	}

	audit.Record(ctx, audit.ActionLogin, user.ID).Msg("user logged in")
	return resp, nil
}

// ListSellers lists seller accounts with their catalogue size.
func (s *userServiceImpl) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	return s.repo.ListSellers(ctx)
}

func (s *userServiceImpl) issue(user *domain.User) (*domain.AuthResponse, error) {
	token, exp, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      user.ToResponse(),
	}, nil
}
