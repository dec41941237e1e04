package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelierhq/atelier-api/internal/domain"
)

type authRepoStub struct {
	CreateFn      func(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmailFn func(ctx context.Context, email string) (domain.User, error)
}

func (s *authRepoStub) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return s.CreateFn(ctx, user)
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.FindByEmailFn(ctx, email)
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes the password and defaults the role", func(t *testing.T) {
		var stored domain.User
		repo := &authRepoStub{
			CreateFn: func(ctx context.Context, user domain.User) (domain.User, error) {
				stored = user
				user.ID = 1
				return user, nil
			},
		}
		svc := NewAuthService(repo)

		created, err := svc.Signup(ctx, domain.User{
			Email: "a@example.com", Password: "password1", Name: "Ada",
		})

		require.NoError(t, err)
		assert.Equal(t, uint(1), created.ID)
		assert.Equal(t, domain.UserRoleParticipant, stored.Role)
		assert.NotEqual(t, "password1", stored.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password1")))
	})

	t.Run("duplicate email passes through", func(t *testing.T) {
		repo := &authRepoStub{
			CreateFn: func(ctx context.Context, user domain.User) (domain.User, error) {
				return domain.User{}, ErrUserEmailExists
			},
		}
		svc := NewAuthService(repo)

		_, err := svc.Signup(ctx, domain.User{Email: "a@example.com", Password: "password1"})
		require.ErrorIs(t, err, ErrUserEmailExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &authRepoStub{
		FindByEmailFn: func(ctx context.Context, email string) (domain.User, error) {
			if email != "a@example.com" {
				return domain.User{}, ErrUserNotFound
			}
			return domain.User{ID: 1, Email: email, Password: string(hash)}, nil
		},
	}
	svc := NewAuthService(repo)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Login(ctx, "a@example.com", "password1")

		require.NoError(t, err)
		assert.Equal(t, uint(1), user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "a@example.com", "nope")
		require.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "b@example.com", "password1")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}
