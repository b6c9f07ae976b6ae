package payment

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func testKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemData)
}

func signValues(t *testing.T, key *rsa.PrivateKey, values url.Values) {
	t.Helper()
	digest := sha256.Sum256([]byte(signingString(values)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	values.Set("sign", base64.StdEncoding.EncodeToString(sig))
	values.Set("sign_type", "RSA2")
}

func TestVerifyNotifyAcceptsSignedParams(t *testing.T) {
	key, pub := testKeyPair(t)
	client, err := NewClient(Options{GatewayURL: "https://pay.example", AppID: "app-1", PublicKeyPEM: pub})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	values := url.Values{}
	values.Set("out_trade_no", "ord-123")
	values.Set("trade_no", "2026090122001")
	values.Set("trade_status", "TRADE_SUCCESS")
	values.Set("total_amount", "45.00")
	signValues(t, key, values)

	notif, err := client.VerifyNotify(values)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if notif.OutTradeNo != "ord-123" || notif.TradeNo != "2026090122001" {
		t.Fatalf("unexpected notification: %+v", notif)
	}
	if notif.TradeStatus != TradeStatusSuccess {
		t.Fatalf("trade status = %q", notif.TradeStatus)
	}
	if notif.TotalAmount != 45.0 {
		t.Fatalf("amount = %v", notif.TotalAmount)
	}
}

func TestVerifyNotifyRejectsTamperedParams(t *testing.T) {
	key, pub := testKeyPair(t)
	client, err := NewClient(Options{PublicKeyPEM: pub})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	values := url.Values{}
	values.Set("out_trade_no", "ord-123")
	values.Set("total_amount", "45.00")
	signValues(t, key, values)
	values.Set("total_amount", "0.01")

	if _, err := client.VerifyNotify(values); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyNotifyWithoutKeyFailsClosed(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	values := url.Values{}
	values.Set("out_trade_no", "ord-123")
	values.Set("sign", base64.StdEncoding.EncodeToString([]byte("junk")))
	if _, err := client.VerifyNotify(values); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestPrecreateReturnsQRCode(t *testing.T) {
	var captured precreatePayload
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/trade/precreate" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"code":"10000","qr_code":"https://qr.example/abc"}`)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
		}, nil
	})}

	client, err := NewClient(Options{GatewayURL: "https://pay.example", AppID: "app-1", HTTPClient: httpClient})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	qr, err := client.Precreate(context.Background(), PrecreateRequest{OutTradeNo: "ord-9", Amount: 10, Subject: "1000 credits"})
	if err != nil {
		t.Fatalf("precreate: %v", err)
	}
	if qr != "https://qr.example/abc" {
		t.Fatalf("qr = %q", qr)
	}
	if captured.TotalAmount != "10.00" || captured.OutTradeNo != "ord-9" {
		t.Fatalf("payload = %+v", captured)
	}
}

func TestPrecreateRejectedByGateway(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"code":"40004","sub_msg":"invalid app"}`)),
		}, nil
	})}
	client, err := NewClient(Options{GatewayURL: "https://pay.example", AppID: "app-1", HTTPClient: httpClient})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Precreate(context.Background(), PrecreateRequest{OutTradeNo: "ord-9", Amount: 10}); err == nil {
		t.Fatal("expected error")
	} else if !strings.Contains(err.Error(), "invalid app") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPrecreateRequiresConfiguration(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Precreate(context.Background(), PrecreateRequest{OutTradeNo: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
