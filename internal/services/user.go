package services

import (
	"context"
	"errors"
	"strings"

	"github.com/coopsite/apiserver/internal/password"
	"github.com/coopsite/apiserver/internal/store"
	"github.com/coopsite/apiserver/types"
)

// ErrInvalidCredentials is returned for any failed authentication,
// whether the email is unknown or the password is wrong. Callers must not
// distinguish the two cases, to avoid user enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// UserService encapsulates user use-cases. Plaintext passwords are hashed
// on write; the repository only ever sees the digest.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Create persists a new user. The plaintext password is replaced with its
// bcrypt digest before the repository is called. Email uniqueness is
// enforced by the repository, which reports store.ErrDuplicateEmail.
func (s *UserService) Create(ctx context.Context, user types.User, plaintext string) (types.User, error) {
	digest, err := password.Hash(plaintext)
	if err != nil {
		return types.User{}, err
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.PasswordHash = digest
	return s.repo.Create(ctx, user)
}

// Update persists changes to a user. A non-empty plaintext re-hashes the
// password; an empty one leaves the stored digest untouched.
func (s *UserService) Update(ctx context.Context, user types.User, plaintext string) (types.User, error) {
	if plaintext != "" {
		digest, err := password.Hash(plaintext)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = digest
	}
	return s.repo.Update(ctx, user)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Authenticate verifies an email/password pair. Unknown email and wrong
// password both yield ErrInvalidCredentials. Repository faults other than
// not-found pass through so the handler can answer 5xx instead of 401.
func (s *UserService) Authenticate(ctx context.Context, email, plaintext string) (types.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}
