package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"urbangen/internal/domain"
	"urbangen/internal/infra"
	"urbangen/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	db infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(db infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{db: db}
}

// Create inserts a new user. Unique violations on email or name map to the
// corresponding domain errors so handlers can answer with a conflict.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, sqlinline.QInsertUser,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		string(user.Role),
		user.Credits,
		user.Country,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return domain.ErrDuplicateEmail
			case "users_name_key":
				return domain.ErrDuplicateName
			}
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, sqlinline.QSelectUserByID, id))
}

// GetByEmail fetches a user by email address.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, sqlinline.QSelectUserByEmail, email))
}

// SetCredits overwrites the user's balance.
func (r *UserRepositoryPG) SetCredits(ctx context.Context, id string, credits int) error {
	tag, err := r.db.Exec(ctx, sqlinline.QSetUserCredits, id, credits)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DebitCredits subtracts cost from the balance in a single conditional update,
// so two concurrent generations can never drive the balance negative. The
// updated balance is returned.
func (r *UserRepositoryPG) DebitCredits(ctx context.Context, id string, cost int) (int, error) {
	var balance int
	err := r.db.QueryRow(ctx, sqlinline.QDebitUserCredits, id, cost).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the user is missing or the balance is too low; decide which.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return 0, getErr
			}
			return 0, domain.ErrInsufficientCredits
		}
		return 0, err
	}
	return balance, nil
}

// AddCredits adds amount to the balance and returns the new total.
func (r *UserRepositoryPG) AddCredits(ctx context.Context, id string, amount int) (int, error) {
	var balance int
	err := r.db.QueryRow(ctx, sqlinline.QAddUserCredits, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// CountCreatedSince counts accounts created at or after the given instant.
func (r *UserRepositoryPG) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sqlinline.QCountUsersCreatedSince, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the total number of accounts.
func (r *UserRepositoryPG) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sqlinline.QCountUsers).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &role, &u.Credits, &u.Country, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
