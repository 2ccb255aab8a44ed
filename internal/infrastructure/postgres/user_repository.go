package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/user-accounts-api/internal/domain/entity"
	"github.com/oksasatya/user-accounts-api/internal/domain/repository"
	"github.com/oksasatya/user-accounts-api/internal/domain/valueobject"
)

const uniqueViolationCode = "23505"

// Querier is the subset of pgxpool.Pool the repository uses. Tests substitute
// a pgxmock pool through it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email.String(), u.Active, u.CreatedAt, u.UpdatedAt)

	created := *u
	if err := row.Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, mapWriteError(err)
	}
	return &created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *UserRepository) GetAll(ctx context.Context, skip, limit int) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM users
		ORDER BY id ASC
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.ID == 0 {
		return nil, repository.ErrUserNotFound
	}
	updated := *u
	updated.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, active = $3, updated_at = $4
		WHERE id = $5
	`, updated.Name, updated.Email.String(), updated.Active, updated.UpdatedAt, updated.ID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if res.RowsAffected() == 0 {
		return nil, repository.ErrUserNotFound
	}
	return &updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var email string
	if err := row.Scan(&u.ID, &u.Name, &email, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	addr, err := valueobject.NewEmailAddress(email)
	if err != nil {
		return nil, err
	}
	u.Email = addr
	return u, nil
}

// mapWriteError translates a unique-constraint violation on the email column
// into the port-level duplicate error. The constraint is the authoritative
// backstop for the application's check-then-act uniqueness sequence.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return repository.ErrDuplicateEmail
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
