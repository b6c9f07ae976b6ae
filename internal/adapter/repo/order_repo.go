package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"urbangen/internal/domain"
	"urbangen/internal/infra"
	"urbangen/internal/sqlinline"
)

// OrderRepositoryPG implements domain.OrderRepository backed by PostgreSQL.
type OrderRepositoryPG struct {
	db infra.SQLExecutor
}

// NewOrderRepository creates a new OrderRepositoryPG.
func NewOrderRepository(db infra.SQLExecutor) *OrderRepositoryPG {
	return &OrderRepositoryPG{db: db}
}

// Create inserts a pending order.
func (r *OrderRepositoryPG) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.db.Exec(ctx, sqlinline.QInsertOrder,
		order.ID,
		order.UserID,
		order.PackageID,
		order.Amount,
		order.Credits,
		order.Subject,
		string(order.Status),
	)
	return err
}

// GetByID fetches an order.
func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, sqlinline.QSelectOrderByID, id))
}

// MarkPaid transitions a pending order to success. The conditional update
// matches at most once per order, so a replayed webhook gets
// ErrDuplicateOperation instead of crediting twice.
func (r *OrderRepositoryPG) MarkPaid(ctx context.Context, id, tradeNo string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, sqlinline.QMarkOrderPaid, id, tradeNo))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, domain.ErrDuplicateOperation
			}
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListAll returns every order, newest first.
func (r *OrderRepositoryPG) ListAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListAllOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var status string
		err := rows.Scan(&o.ID, &o.UserID, &o.PackageID, &o.Amount, &o.Credits, &o.Subject,
			&status, &o.TradeNo, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, err
		}
		o.Status = domain.OrderStatus(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.PackageID, &o.Amount, &o.Credits, &o.Subject,
		&status, &o.TradeNo, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

var _ domain.OrderRepository = (*OrderRepositoryPG)(nil)
