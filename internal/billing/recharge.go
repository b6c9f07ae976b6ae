package billing

import (
	"context"
	"errors"
	"fmt"

	"urbangen/internal/domain"
)

// ConfirmRecharge marks an order paid and credits the buyer. It is idempotent
// per order id: a replayed confirmation finds the order already transitioned
// and credits nothing.
func (s *Service) ConfirmRecharge(ctx context.Context, orderID, tradeNo string) (*domain.Order, int, error) {
	order, err := s.orders.MarkPaid(ctx, orderID, tradeNo)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOperation) {
			s.logger.Info().Str("order_id", orderID).Msg("billing: duplicate payment confirmation ignored")
		}
		return nil, 0, err
	}

	newBalance, err := s.users.AddCredits(ctx, order.UserID, order.Credits)
	if err != nil {
		s.logger.Error().Err(err).
			Str("order_id", orderID).
			Str("user_id", order.UserID).
			Int("credits", order.Credits).
			Msg("billing: order marked paid but credit grant failed")
		return nil, 0, fmt.Errorf("%w: credit grant: %v", ErrSettlementIncomplete, err)
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("user_id", order.UserID).
		Int("credits", order.Credits).
		Int("balance", newBalance).
		Msg("billing: recharge credited")
	return order, newBalance, nil
}
