package handlers

import (
	"net/http"
	"time"

	"urbangen/internal/domain"
)

type statsWindowDTO struct {
	TotalImages     int     `json:"total_images"`
	SuccessImages   int     `json:"success_images"`
	CreditsConsumed int     `json:"credits_consumed"`
	NewUsers        int     `json:"new_users"`
	RechargeAmount  float64 `json:"recharge_amount"`
	RechargeCredits int     `json:"recharge_credits"`
}

func toStatsWindowDTO(w domain.StatsWindow) statsWindowDTO {
	return statsWindowDTO{
		TotalImages:     w.TotalImages,
		SuccessImages:   w.SuccessImages,
		CreditsConsumed: w.CreditsConsumed,
		NewUsers:        w.NewUsers,
		RechargeAmount:  w.RechargeAmount,
		RechargeCredits: w.RechargeCredits,
	}
}

// AdminStats serves the dashboard aggregates.
func (a *App) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Records.Stats(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("stats query failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	type moduleUsageDTO struct {
		ModuleName string `json:"module_name"`
		Count      int    `json:"count"`
	}
	usage := make([]moduleUsageDTO, 0, len(stats.ModuleUsage))
	for _, m := range stats.ModuleUsage {
		usage = append(usage, moduleUsageDTO{ModuleName: m.ModuleName, Count: m.Count})
	}
	a.json(w, http.StatusOK, map[string]any{
		"today":        toStatsWindowDTO(stats.Today),
		"total":        toStatsWindowDTO(stats.Total),
		"total_users":  stats.TotalUsers,
		"module_usage": usage,
	})
}

// AdminRecords returns every generation record, newest first.
func (a *App) AdminRecords(w http.ResponseWriter, r *http.Request) {
	records, err := a.Records.ListAll(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list all records failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load records")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": a.toRecordDTOs(records)})
}

// AdminOrders returns every recharge order, newest first.
func (a *App) AdminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := a.Orders.ListAll(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list all orders failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load orders")
		return
	}
	type orderDTO struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		PackageID string    `json:"package_id"`
		Amount    float64   `json:"amount"`
		Credits   int       `json:"credits"`
		Status    string    `json:"status"`
		TradeNo   string    `json:"trade_no,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
	items := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		items = append(items, orderDTO{
			ID:        o.ID,
			UserID:    o.UserID,
			PackageID: o.PackageID,
			Amount:    o.Amount,
			Credits:   o.Credits,
			Status:    string(o.Status),
			TradeNo:   o.TradeNo,
			CreatedAt: o.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
