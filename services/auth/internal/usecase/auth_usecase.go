package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/jwt"
	"blogsphere/pkg/logger"
	"blogsphere/services/auth/internal/entity"
	"blogsphere/services/auth/internal/repo/persistent"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthenticated)

type AuthUseCase interface {
	Register(ctx context.Context, email, name, password string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	GetProfile(ctx context.Context, requesterID string) (*entity.User, error)
	UpdateName(ctx context.Context, requesterID, name string) (*entity.User, error)
}

type authUseCase struct {
	userRepo   persistent.UserRepository
	jwtService *jwt.Service
	logger     *logger.Logger
}

func NewAuthUseCase(
	userRepo persistent.UserRepository,
	jwtService *jwt.Service,
	logger *logger.Logger,
) AuthUseCase {
	return &authUseCase{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// defaultName uses the local part of the address when no name is given.
func defaultName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func (uc *authUseCase) Register(ctx context.Context, email, name, password string) (*entity.User, string, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName(email)
	}

	_, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", fmt.Errorf("%w: user with this email", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		uc.logger.Error("Failed to look up user %s: %v", email, err)
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, "", fmt.Errorf("%w: password must be at most 72 bytes", apperrors.ErrValidation)
	}
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return nil, "", fmt.Errorf("failed to process registration")
	}

	user := &entity.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		uc.logger.Error("Failed to create user: %v", err)
		return nil, "", err
	}

	token, err := uc.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", fmt.Errorf("failed to generate token")
	}

	uc.logger.Info("Registered user %s", user.ID)
	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := uc.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", fmt.Errorf("failed to generate token")
	}

	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) GetProfile(ctx context.Context, requesterID string) (*entity.User, error) {
	if requesterID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	user, err := uc.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateName changes the requester's own display name. There is no way to
// address another user's profile.
func (uc *authUseCase) UpdateName(ctx context.Context, requesterID, name string) (*entity.User, error) {
	if requesterID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}

	if err := uc.userRepo.UpdateName(ctx, requesterID, name); err != nil {
		return nil, err
	}
	return uc.GetProfile(ctx, requesterID)
}
