package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/notekeep/notekeep/internal/auth"
	"github.com/notekeep/notekeep/internal/metrics"
	"github.com/notekeep/notekeep/internal/model"
	"github.com/notekeep/notekeep/internal/repository"
)

// UserService handles registration, authentication and profile logic.
type UserService struct {
	repo       *repository.Repository
	tokens     *auth.TokenManager
	refreshTTL time.Duration
	metrics    metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, tokens *auth.TokenManager, refreshTTL time.Duration, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		repo:       repo,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		metrics:    recorder,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates a new user with a hashed password.
// Returns ErrEmailExists when the email is already registered.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	var missing []string
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if err := newValidationError(missing); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserRegistered()

	return user, nil
}

// LoginInput defines input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput carries the issued credentials after a successful login
// or refresh.
type LoginOutput struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown email and wrong password both return ErrInvalidCredentials
// so the two cases cannot be told apart.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	var missing []string
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if err := newValidationError(missing); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	match, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !match {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	out, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.IncLoginSuccess()

	return out, nil
}

// Refresh exchanges a valid refresh token for a new access/refresh
// pair. The stored token is rotated so the presented value stops
// working immediately.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenInvalid
	}

	stored, err := s.repo.GetValidRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	newValue, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(s.refreshTTL)
	if err := s.repo.RotateRefreshToken(ctx, stored.ID, newValue, expiresAt); err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.metrics.IncTokenRefreshed()

	return &LoginOutput{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: newValue,
	}, nil
}

// Logout revokes all refresh tokens for the user. Access tokens are
// stateless and remain valid until expiry.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.DeleteRefreshTokensByUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// Profile retrieves the user's own record.
func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines input for updating a profile. Nil fields
// are left unchanged.
type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UpdateProfile applies partial changes to the user's own record.
// A field that is present but empty is rejected rather than applied.
// Returns ErrEmailExists when the new email is taken by another user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	var missing []string
	if input.Email != nil && *input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Password != nil && *input.Password == "" {
		missing = append(missing, "password")
	}
	if err := newValidationError(missing); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// DeleteAccount removes the user; notes and refresh tokens cascade.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// issueTokens creates an access token and persists a fresh refresh token.
func (s *UserService) issueTokens(ctx context.Context, user *model.User) (*LoginOutput, error) {
	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshValue, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	refresh := &model.RefreshToken{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		Token:     refreshValue,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}

	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &LoginOutput{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
	}, nil
}
