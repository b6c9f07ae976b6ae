package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"urbangen/internal/domain"
	"urbangen/internal/payment"
)

type createOrderRequest struct {
	PackageID string `json:"package_id"`
}

type createOrderResponse struct {
	OrderID string  `json:"order_id"`
	QRCode  string  `json:"qr_code"`
	Amount  float64 `json:"amount"`
	Credits int     `json:"credits"`
}

// CreateOrder registers a pending recharge order with the payment gateway and
// returns the QR code for the buyer.
func (a *App) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	pkg := domain.PackageByID(req.PackageID)
	if pkg == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown package")
		return
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		PackageID: pkg.ID,
		Amount:    pkg.Price,
		Credits:   pkg.Credits,
		Subject:   pkg.Label,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	if err := a.Orders.Create(r.Context(), order); err != nil {
		a.Logger.Error().Err(err).Msg("create order failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create order")
		return
	}

	qrCode, err := a.Payments.Precreate(r.Context(), payment.PrecreateRequest{
		OutTradeNo: order.ID,
		Amount:     order.Amount,
		Subject:    order.Subject,
	})
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			a.error(w, http.StatusServiceUnavailable, "unavailable", "payments are not enabled")
			return
		}
		a.Logger.Error().Err(err).Str("order_id", order.ID).Msg("precreate failed")
		a.error(w, http.StatusBadGateway, "gateway_error", "payment gateway rejected the order")
		return
	}

	a.json(w, http.StatusOK, createOrderResponse{
		OrderID: order.ID,
		QRCode:  qrCode,
		Amount:  order.Amount,
		Credits: order.Credits,
	})
}

// PaymentNotify handles the gateway webhook. The signature is verified before
// anything is trusted, and crediting is idempotent per order, so gateway
// retries are safe. The gateway expects the literal body "success" once the
// notification has been accepted.
func (a *App) PaymentNotify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failure", http.StatusBadRequest)
		return
	}
	notif, err := a.Payments.VerifyNotify(r.PostForm)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("payment notification rejected")
		http.Error(w, "failure", http.StatusBadRequest)
		return
	}
	if notif.TradeStatus != payment.TradeStatusSuccess {
		// Intermediate statuses are acknowledged but not credited.
		w.Write([]byte("success"))
		return
	}

	_, _, err = a.Billing.ConfirmRecharge(r.Context(), notif.OutTradeNo, notif.TradeNo)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOperation) {
			w.Write([]byte("success"))
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			a.Logger.Warn().Str("order_id", notif.OutTradeNo).Msg("notification for unknown order")
			http.Error(w, "failure", http.StatusNotFound)
			return
		}
		a.Logger.Error().Err(err).Str("order_id", notif.OutTradeNo).Msg("recharge confirmation failed")
		http.Error(w, "failure", http.StatusInternalServerError)
		return
	}
	w.Write([]byte("success"))
}

// QueryOrder lets the client poll an order's status while the QR code is shown.
func (a *App) QueryOrder(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	orderID := chi.URLParam(r, "id")
	order, err := a.Orders.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load order")
		return
	}
	if order.UserID != userID {
		a.error(w, http.StatusForbidden, "forbidden", "not your order")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"order_id": order.ID,
		"status":   string(order.Status),
		"credits":  order.Credits,
		"amount":   order.Amount,
	})
}

// ListPackages returns the purchasable credit bundles.
func (a *App) ListPackages(w http.ResponseWriter, r *http.Request) {
	type packageDTO struct {
		ID      string  `json:"id"`
		Credits int     `json:"credits"`
		Price   float64 `json:"price"`
		Label   string  `json:"label"`
	}
	items := make([]packageDTO, 0, len(domain.RechargePackages))
	for _, pkg := range domain.RechargePackages {
		items = append(items, packageDTO{ID: pkg.ID, Credits: pkg.Credits, Price: pkg.Price, Label: pkg.Label})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
