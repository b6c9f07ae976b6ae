package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"urbangen/internal/billing"
	"urbangen/internal/domain"
	"urbangen/internal/infra"
	"urbangen/internal/infra/geoip"
	"urbangen/internal/middleware"
	"urbangen/internal/payment"
	"urbangen/internal/providers/grsai"
	"urbangen/internal/storage"
)

// Generator abstracts the image provider so handler tests can stub it.
type Generator interface {
	Generate(ctx context.Context, req grsai.GenerationRequest, onProgress grsai.ProgressFunc) (*grsai.Artifact, error)
}

// Settler abstracts the billing service for handler tests.
type Settler interface {
	Settle(ctx context.Context, userID string, cost int, artifact *grsai.Artifact, imageID string, meta billing.RecordMeta) (*billing.SettlementResult, error)
	RecordFailure(ctx context.Context, userID, imageID string, meta billing.RecordMeta) error
	ConfirmRecharge(ctx context.Context, orderID, tradeNo string) (*domain.Order, int, error)
}

// App is the dependency container shared by all HTTP handlers.
type App struct {
	Users     domain.UserRepository
	Records   domain.RecordRepository
	Orders    domain.OrderRepository
	Generator Generator
	Billing   Settler
	Store     *storage.FileStore
	Payments  *payment.Client
	GeoIP     geoip.CountryResolver
	Cfg       *infra.Config
	Logger    *infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": slug, "message": message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
