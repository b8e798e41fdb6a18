package usecase

import (
	"context"
	"strings"
	"testing"

	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/jwt"
	"blogsphere/pkg/logger"
	"blogsphere/services/auth/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "user-new"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateName(ctx context.Context, id, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func newUseCase(repo *MockUserRepository) (AuthUseCase, *jwt.Service) {
	jwtService := jwt.NewService("test-secret-key")
	return NewAuthUseCase(repo, jwtService, logger.New()), jwtService
}

func TestRegister(t *testing.T) {
	repo := new(MockUserRepository)
	uc, jwtService := newUseCase(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ana@example.com").Return(nil, apperrors.ErrNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(u *entity.User) bool {
		return u.Email == "ana@example.com" && u.Name == "ana" && u.Password != "secret1" && !u.IsPremium
	})).Return(nil)

	user, token, err := uc.Register(ctx, "  Ana@Example.com ", "", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "user-new", user.ID)
	assert.Empty(t, user.Password)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-new", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	repo.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ana@example.com").Return(&entity.User{ID: "user-1"}, nil)

	_, _, err := uc.Register(ctx, "ana@example.com", "Ana", "secret1")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_StoreDown(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ana@example.com").Return(nil, apperrors.ErrUpstreamUnavailable)

	_, _, err := uc.Register(ctx, "ana@example.com", "Ana", "secret1")

	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestLogin(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, "ana@example.com").
		Return(&entity.User{ID: "user-1", Email: "ana@example.com", Password: string(hash)}, nil)

	user, token, err := uc.Login(ctx, "ana@example.com", "secret1")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "user-1", user.ID)
	assert.Empty(t, user.Password)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, "ana@example.com").
		Return(&entity.User{ID: "user-1", Password: string(hash)}, nil)

	_, _, err := uc.Login(ctx, "ana@example.com", "nope")

	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "who@example.com").Return(nil, apperrors.ErrNotFound)

	_, _, err := uc.Login(ctx, "who@example.com", "x")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetProfile_Anonymous(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)

	_, err := uc.GetProfile(context.Background(), "")

	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateName(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)
	ctx := context.Background()

	repo.On("UpdateName", ctx, "user-1", "Ana B").Return(nil)
	repo.On("GetByID", ctx, "user-1").Return(&entity.User{ID: "user-1", Name: "Ana B", Password: "hash"}, nil)

	user, err := uc.UpdateName(ctx, "user-1", "  Ana B ")

	require.NoError(t, err)
	assert.Equal(t, "Ana B", user.Name)
	assert.Empty(t, user.Password)
}

func TestUpdateName_Blank(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)

	_, err := uc.UpdateName(context.Background(), "user-1", "   ")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	repo.AssertNotCalled(t, "UpdateName", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	repo := new(MockUserRepository)
	uc, _ := newUseCase(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ana@example.com").Return(nil, apperrors.ErrNotFound)

	// 24 three-byte runes: short in characters, 72+ bytes on the wire
	_, _, err := uc.Register(ctx, "ana@example.com", "Ana", strings.Repeat("ж", 24)+"x")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
