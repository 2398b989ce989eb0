// Package storefake provides in-memory repository implementations for
// tests and single-binary runs without a database.
package storefake

import (
	"context"
	"sync"

	"github.com/coopsite/apiserver/internal/store"
	"github.com/coopsite/apiserver/types"
)

// UserRepo is an in-memory user repository guarded by a mutex.
type UserRepo struct {
	mu     sync.RWMutex
	nextID int
	users  map[int]types.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		nextID: 1,
		users:  make(map[int]types.User),
	}
}

func (r *UserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}

	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *UserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *UserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
