package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetCredits(ctx context.Context, id string, credits int) error
	// DebitCredits atomically subtracts cost from the user's balance and
	// returns the new balance. It fails with ErrInsufficientCredits when the
	// balance is lower than cost, without modifying it.
	DebitCredits(ctx context.Context, id string, cost int) (int, error)
	// AddCredits atomically adds the amount and returns the new balance.
	AddCredits(ctx context.Context, id string, amount int) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

// RecordRepository persists immutable generation audit records.
type RecordRepository interface {
	Create(ctx context.Context, record *GenerationRecord) error
	ListByUser(ctx context.Context, userID string) ([]GenerationRecord, error)
	ListAll(ctx context.Context) ([]GenerationRecord, error)
	Stats(ctx context.Context) (*AdminStats, error)
}

// OrderRepository persists recharge orders.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// MarkPaid transitions a pending order to success exactly once. It fails
	// with ErrDuplicateOperation when the order is not pending, which makes
	// webhook processing idempotent per order id.
	MarkPaid(ctx context.Context, id, tradeNo string) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}
