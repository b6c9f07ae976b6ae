package handlers

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"urbangen/internal/domain"
	"urbangen/internal/middleware"
	"urbangen/internal/payment"
)

func notifyApp(t *testing.T) (*App, *memUsers, *memOrders, func(url.Values)) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	client, err := payment.NewClient(payment.Options{PublicKeyPEM: pubPEM})
	if err != nil {
		t.Fatalf("payment client: %v", err)
	}

	users := newMemUsers()
	orders := newMemOrders()
	app := newTestApp(users, &memRecords{}, orders, &stubGenerator{})
	app.Payments = client

	sign := func(values url.Values) {
		var keys []string
		for k := range values {
			if k == "sign" || k == "sign_type" || values.Get(k) == "" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var pairs []string
		for _, k := range keys {
			pairs = append(pairs, k+"="+values.Get(k))
		}
		digest := sha256.Sum256([]byte(strings.Join(pairs, "&")))
		sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		values.Set("sign", base64.StdEncoding.EncodeToString(sig))
		values.Set("sign_type", "RSA2")
	}
	return app, users, orders, sign
}

func postNotify(app *App, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/notify", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	app.PaymentNotify(rec, req)
	return rec
}

func TestPaymentNotifyCreditsOnce(t *testing.T) {
	app, users, orders, sign := notifyApp(t)
	user := seedUser(users, 50)
	_ = orders.Create(context.Background(), &domain.Order{
		ID:        "ord-1",
		UserID:    user.ID,
		PackageID: "pkg-1000",
		Amount:    10,
		Credits:   1000,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	})

	values := url.Values{}
	values.Set("out_trade_no", "ord-1")
	values.Set("trade_no", "gw-777")
	values.Set("trade_status", "TRADE_SUCCESS")
	values.Set("total_amount", "10.00")
	sign(values)

	first := postNotify(app, values)
	if first.Code != http.StatusOK || first.Body.String() != "success" {
		t.Fatalf("first notify: %d %q", first.Code, first.Body.String())
	}
	stored, _ := users.GetByID(context.Background(), user.ID)
	if stored.Credits != 1050 {
		t.Fatalf("balance = %d, want 1050", stored.Credits)
	}

	// A gateway retry must acknowledge without crediting again.
	second := postNotify(app, values)
	if second.Code != http.StatusOK || second.Body.String() != "success" {
		t.Fatalf("replayed notify: %d %q", second.Code, second.Body.String())
	}
	stored, _ = users.GetByID(context.Background(), user.ID)
	if stored.Credits != 1050 {
		t.Fatalf("balance after replay = %d, want 1050", stored.Credits)
	}

	order, _ := orders.GetByID(context.Background(), "ord-1")
	if order.Status != domain.OrderStatusSuccess || order.TradeNo != "gw-777" {
		t.Fatalf("order = %+v", order)
	}
}

func TestPaymentNotifyRejectsBadSignature(t *testing.T) {
	app, users, orders, sign := notifyApp(t)
	user := seedUser(users, 50)
	_ = orders.Create(context.Background(), &domain.Order{
		ID: "ord-2", UserID: user.ID, Credits: 1000, Status: domain.OrderStatusPending,
	})

	values := url.Values{}
	values.Set("out_trade_no", "ord-2")
	values.Set("trade_status", "TRADE_SUCCESS")
	sign(values)
	values.Set("out_trade_no", "ord-other")

	rec := postNotify(app, values)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	stored, _ := users.GetByID(context.Background(), user.ID)
	if stored.Credits != 50 {
		t.Fatalf("balance = %d, want 50", stored.Credits)
	}
}

func TestPaymentNotifyIgnoresIntermediateStatus(t *testing.T) {
	app, users, orders, sign := notifyApp(t)
	user := seedUser(users, 50)
	_ = orders.Create(context.Background(), &domain.Order{
		ID: "ord-3", UserID: user.ID, Credits: 1000, Status: domain.OrderStatusPending,
	})

	values := url.Values{}
	values.Set("out_trade_no", "ord-3")
	values.Set("trade_status", "WAIT_BUYER_PAY")
	sign(values)

	rec := postNotify(app, values)
	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Fatalf("notify: %d %q", rec.Code, rec.Body.String())
	}
	order, _ := orders.GetByID(context.Background(), "ord-3")
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("order transitioned on intermediate status: %+v", order)
	}
}

func TestQueryOrderEnforcesOwnership(t *testing.T) {
	app, users, orders, _ := notifyApp(t)
	owner := seedUser(users, 50)
	_ = orders.Create(context.Background(), &domain.Order{
		ID: "ord-4", UserID: owner.ID, Credits: 1000, Status: domain.OrderStatusPending,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/payment/orders/ord-4", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), "22222222-2222-2222-2222-222222222222", "user"))
	req = withURLParam(req, "id", "ord-4")
	rec := httptest.NewRecorder()
	app.QueryOrder(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
