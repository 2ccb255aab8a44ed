package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/user-accounts-api/internal/domain/entity"
	"github.com/oksasatya/user-accounts-api/internal/domain/repository"
)

// UserRepository is a map-backed implementation of the user repository port.
// It enforces the same email uniqueness and id-ascending ordering the postgres
// adapter does, which makes it suitable for tests and local runs without a
// database.
type UserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]*entity.User)}
}

func clone(u *entity.User) *entity.User {
	cp := *u
	return &cp
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email.Equal(u.Email) {
			return nil, repository.ErrDuplicateEmail
		}
	}

	r.nextID++
	created := clone(u)
	created.ID = r.nextID
	r.users[created.ID] = created
	return clone(created), nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return clone(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email.String() == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetAll(_ context.Context, skip, limit int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*entity.User, 0)
	for i, id := range ids {
		if i < skip {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, clone(r.users[id]))
	}
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == 0 {
		return nil, repository.ErrUserNotFound
	}
	if _, ok := r.users[u.ID]; !ok {
		return nil, repository.ErrUserNotFound
	}
	for id, existing := range r.users {
		if id != u.ID && existing.Email.Equal(u.Email) {
			return nil, repository.ErrDuplicateEmail
		}
	}

	updated := clone(u)
	updated.UpdatedAt = time.Now().UTC()
	r.users[updated.ID] = updated
	return clone(updated), nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
