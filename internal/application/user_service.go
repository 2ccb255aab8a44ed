package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-accounts-api/internal/domain/entity"
	repo "github.com/oksasatya/user-accounts-api/internal/domain/repository"
	"github.com/oksasatya/user-accounts-api/internal/domain/valueobject"
	"github.com/oksasatya/user-accounts-api/pkg/helpers"
)

// ErrEmailAlreadyExists is returned when a create or email change targets an
// email already owned by another user. The pre-check and the store's unique
// constraint both surface as this error.
var ErrEmailAlreadyExists = errors.New("email already exists")

const (
	defaultListLimit = 100
	defaultCacheTTL  = 5 * time.Minute
)

// Service orchestrates the user use cases over the repository port.
// Redis and ES are optional; a nil client disables caching/search.
type Service struct {
	Repo         repo.UserRepository
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	CacheTTL     time.Duration
}

func NewService(r repo.UserRepository, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Service{
		Repo:         r,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		CacheTTL:     cacheTTL,
	}
}

type CreateUserInput struct {
	Name   string
	Email  string
	Active bool
}

// UpdateUserInput carries optional field updates; nil means "leave unchanged".
type UpdateUserInput struct {
	Name   *string
	Email  *string
	Active *bool
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email.String(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("user:profile:%d", id)
}

// CreateUser checks email uniqueness, builds the entity and persists it.
// The users table carries a unique constraint as the authoritative backstop
// for the check-then-create race; a violation surfaces as ErrEmailAlreadyExists.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*UserResponse, error) {
	existing, err := s.Repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	email, err := valueobject.NewEmailAddress(in.Email)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u, err := entity.NewUser(in.Name, email, in.Active, now)
	if err != nil {
		return nil, err
	}

	created, err := s.Repo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", in.Email).Error("create user failed")
		}
		return nil, err
	}

	_ = s.indexUser(ctx, created)
	return toResponse(created), nil
}

// GetUser returns the user for id, or (nil, nil) when no user exists.
// Responses are cached in Redis under a short TTL.
func (s *Service) GetUser(ctx context.Context, id int64) (*UserResponse, error) {
	if s.Redis != nil {
		var cached UserResponse
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, cacheKey(id), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	res := toResponse(u)
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, cacheKey(id), res, s.CacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("cache write failed")
		}
	}
	return res, nil
}

// ListUsers returns an offset/limit window of users in stable store order.
func (s *Service) ListUsers(ctx context.Context, skip, limit int) ([]*UserResponse, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	users, err := s.Repo.GetAll(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	return out, nil
}

// UpdateUser applies the provided fields to an existing user and persists the
// result. Returns (nil, nil) when the id is unknown. Changing the email to one
// owned by another user fails with ErrEmailAlreadyExists; re-submitting the
// user's own email is allowed. Setting active to its current value is a no-op
// rather than an AlreadyActive/AlreadyInactive failure.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*UserResponse, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	if in.Name != nil {
		if err := u.Rename(*in.Name); err != nil {
			return nil, err
		}
	}

	if in.Email != nil {
		owner, err := s.Repo.GetByEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.ID != id {
			return nil, ErrEmailAlreadyExists
		}
		email, err := valueobject.NewEmailAddress(*in.Email)
		if err != nil {
			return nil, err
		}
		u.ChangeEmail(email)
	}

	if in.Active != nil && *in.Active != u.Active {
		if *in.Active {
			err = u.Activate()
		} else {
			err = u.Deactivate()
		}
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.Repo.Update(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrUserNotFound):
			return nil, nil
		case errors.Is(err, repo.ErrDuplicateEmail):
			return nil, ErrEmailAlreadyExists
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Error("update user failed")
		}
		return nil, err
	}

	s.invalidateCache(ctx, id)
	_ = s.indexUser(ctx, updated)
	return toResponse(updated), nil
}

// DeleteUser removes the user and reports whether a record existed.
func (s *Service) DeleteUser(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidateCache(ctx, id)
		s.removeFromIndex(ctx, id)
	}
	return deleted, nil
}

func (s *Service) invalidateCache(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, cacheKey(id)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("cache invalidation failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email.String(),
		"active":     u.Active,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: fmt.Sprintf("%d", u.ID), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

func (s *Service) removeFromIndex(ctx context.Context, id int64) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: fmt.Sprintf("%d", id)}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// SearchUsers performs a simple multi_match search on name and email.
// Returns an empty result set when Elasticsearch is not configured.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
