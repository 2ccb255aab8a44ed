package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-accounts-api/internal/domain/entity"
	"github.com/oksasatya/user-accounts-api/internal/domain/repository"
	"github.com/oksasatya/user-accounts-api/internal/domain/valueobject"
	"github.com/oksasatya/user-accounts-api/internal/infrastructure/postgres"
)

func testUser(t *testing.T, id int64, email string) *entity.User {
	t.Helper()
	addr, err := valueobject.NewEmailAddress(email)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &entity.User{ID: id, Name: "Ana", Email: addr, Active: true, CreatedAt: now, UpdatedAt: now}
}

func userRows(mockPool pgxmock.PgxPoolIface, users ...*entity.User) *pgxmock.Rows {
	rows := mockPool.NewRows([]string{"id", "name", "email", "active", "created_at", "updated_at"})
	for _, u := range users {
		rows.AddRow(u.ID, u.Name, u.Email.String(), u.Active, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("assigns id and persisted timestamps", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		u := testUser(t, 0, "ana@example.com")
		now := time.Now().UTC()
		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(u.Name, "ana@example.com", u.Active, u.CreatedAt, u.UpdatedAt).
			WillReturnRows(mockPool.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

		created, err := repo.Create(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Zero(t, u.ID, "input entity is not mutated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate email", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		u := testUser(t, 0, "ana@example.com")
		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(u.Name, "ana@example.com", u.Active, u.CreatedAt, u.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})

		_, err = repo.Create(context.Background(), u)
		require.Error(t, err)
		assert.True(t, errors.Is(err, repository.ErrDuplicateEmail))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		stored := testUser(t, 1, "ana@example.com")
		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(userRows(mockPool, stored))

		got, err := repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, "ana@example.com", got.Email.String())
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing row yields nil without error", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(999)).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(context.Background(), 999)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := postgres.NewUserRepository(mockPool)

	stored := testUser(t, 7, "ana@example.com")
	mockPool.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").
		WithArgs("ana@example.com").
		WillReturnRows(userRows(mockPool, stored))

	got, err := repo.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUserRepository_GetAll(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := postgres.NewUserRepository(mockPool)

	a := testUser(t, 1, "a@example.com")
	b := testUser(t, 2, "b@example.com")
	mockPool.ExpectQuery("SELECT (.+) FROM users ORDER BY id ASC OFFSET \\$1 LIMIT \\$2").
		WithArgs(0, 100).
		WillReturnRows(userRows(mockPool, a, b))

	got, err := repo.GetAll(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	t.Run("success refreshes updated_at", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		u := testUser(t, 1, "ana@example.com")
		mockPool.ExpectExec("UPDATE users").
			WithArgs(u.Name, "ana@example.com", u.Active, pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		updated, err := repo.Update(context.Background(), u)
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(u.UpdatedAt) || updated.UpdatedAt.Equal(u.UpdatedAt))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("zero id fails without touching the database", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		_, err = repo.Update(context.Background(), testUser(t, 0, "ana@example.com"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, repository.ErrUserNotFound))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("no row matched", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		u := testUser(t, 42, "ana@example.com")
		mockPool.ExpectExec("UPDATE users").
			WithArgs(u.Name, "ana@example.com", u.Active, pgxmock.AnyArg(), int64(42)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		_, err = repo.Update(context.Background(), u)
		require.Error(t, err)
		assert.True(t, errors.Is(err, repository.ErrUserNotFound))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate email", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		u := testUser(t, 1, "taken@example.com")
		mockPool.ExpectExec("UPDATE users").
			WithArgs(u.Name, "taken@example.com", u.Active, pgxmock.AnyArg(), int64(1)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})

		_, err = repo.Update(context.Background(), u)
		require.Error(t, err)
		assert.True(t, errors.Is(err, repository.ErrDuplicateEmail))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("existing row", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		mockPool.ExpectExec("DELETE FROM users WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		deleted, err := repo.Delete(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewUserRepository(mockPool)

		mockPool.ExpectExec("DELETE FROM users WHERE id = \\$1").
			WithArgs(int64(999)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		deleted, err := repo.Delete(context.Background(), 999)
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
