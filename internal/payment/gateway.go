package payment

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"urbangen/internal/infra"
)

var (
	// ErrNotConfigured indicates the gateway client lacks credentials.
	ErrNotConfigured = errors.New("payment: gateway not configured")
	// ErrBadSignature indicates a webhook failed authenticity verification.
	ErrBadSignature = errors.New("payment: invalid notification signature")
)

// TradeStatusSuccess is the terminal status that releases credits.
const TradeStatusSuccess = "TRADE_SUCCESS"

// Options configures the payment gateway client.
type Options struct {
	GatewayURL string
	AppID      string
	// PublicKeyPEM is the gateway's RSA public key, used to verify the
	// detached signature on payment notifications.
	PublicKeyPEM string
	NotifyURL    string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client talks to the QR-code payment gateway: order precreation and webhook
// signature verification.
type Client struct {
	gatewayURL string
	appID      string
	publicKey  *rsa.PublicKey
	notifyURL  string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a gateway client. A missing public key leaves webhook
// verification disabled-by-rejection: every notification fails closed.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	client := &Client{
		gatewayURL: strings.TrimRight(opts.GatewayURL, "/"),
		appID:      strings.TrimSpace(opts.AppID),
		notifyURL:  strings.TrimSpace(opts.NotifyURL),
		httpClient: httpClient,
		logger:     logger,
	}
	if pemData := strings.TrimSpace(opts.PublicKeyPEM); pemData != "" {
		key, err := parsePublicKey(pemData)
		if err != nil {
			return nil, err
		}
		client.publicKey = key
	}
	return client, nil
}

// Configured reports whether precreate calls can be made.
func (c *Client) Configured() bool {
	return c.gatewayURL != "" && c.appID != ""
}

// PrecreateRequest describes the order to register with the gateway.
type PrecreateRequest struct {
	OutTradeNo string
	Amount     float64
	Subject    string
}

type precreatePayload struct {
	AppID       string `json:"app_id"`
	OutTradeNo  string `json:"out_trade_no"`
	TotalAmount string `json:"total_amount"`
	Subject     string `json:"subject"`
	ProductCode string `json:"product_code"`
	NotifyURL   string `json:"notify_url,omitempty"`
}

type precreateResponse struct {
	Code   string `json:"code"`
	Msg    string `json:"msg"`
	SubMsg string `json:"sub_msg"`
	QRCode string `json:"qr_code"`
}

// Precreate registers a pending order and returns the QR code the buyer scans.
func (c *Client) Precreate(ctx context.Context, req PrecreateRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	payload := precreatePayload{
		AppID:       c.appID,
		OutTradeNo:  req.OutTradeNo,
		TotalAmount: strconv.FormatFloat(req.Amount, 'f', 2, 64),
		Subject:     req.Subject,
		ProductCode: "FACE_TO_FACE_PAYMENT",
		NotifyURL:   c.notifyURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("payment: encode precreate: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/trade/precreate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("payment: build precreate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment: precreate: %w", err)
	}
	defer resp.Body.Close()

	var decoded precreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("payment: decode precreate response: %w", err)
	}
	if decoded.Code != "10000" {
		msg := decoded.SubMsg
		if msg == "" {
			msg = decoded.Msg
		}
		return "", fmt.Errorf("payment: precreate rejected: %s (%s)", msg, decoded.Code)
	}
	if decoded.QRCode == "" {
		return "", fmt.Errorf("payment: precreate response missing qr code")
	}
	return decoded.QRCode, nil
}

// Notification is a verified payment confirmation.
type Notification struct {
	OutTradeNo  string
	TradeNo     string
	TradeStatus string
	TotalAmount float64
}

// VerifyNotify authenticates a webhook's detached RSA signature and extracts
// the trade fields. The signature covers every parameter except sign and
// sign_type, sorted by key and joined as k=v pairs with &.
func (c *Client) VerifyNotify(values url.Values) (*Notification, error) {
	if c.publicKey == nil {
		return nil, ErrBadSignature
	}
	sign := values.Get("sign")
	if sign == "" {
		return nil, ErrBadSignature
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return nil, ErrBadSignature
	}
	digest := sha256.Sum256([]byte(signingString(values)))
	if err := rsa.VerifyPKCS1v15(c.publicKey, crypto.SHA256, digest[:], sigBytes); err != nil {
		return nil, ErrBadSignature
	}

	amount, _ := strconv.ParseFloat(values.Get("total_amount"), 64)
	notification := &Notification{
		OutTradeNo:  values.Get("out_trade_no"),
		TradeNo:     values.Get("trade_no"),
		TradeStatus: values.Get("trade_status"),
		TotalAmount: amount,
	}
	if notification.OutTradeNo == "" {
		return nil, fmt.Errorf("payment: notification missing out_trade_no")
	}
	return notification, nil
}

// signingString builds the canonical sorted parameter string the gateway signs.
func signingString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "sign" || key == "sign_type" {
			continue
		}
		if values.Get(key) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	return strings.Join(pairs, "&")
}

func parsePublicKey(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("payment: public key is not valid PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("payment: parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("payment: public key is not RSA")
	}
	return key, nil
}
