// Package nitropay implements the provider adapter for the NitroPay
// gateway. NitroPay has no token handshake: every call carries the
// static key pair in headers, so Authenticate only validates the
// configuration and mints a long-lived credential for the cache.
package nitropay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/shopspring/decimal"
)

// Config holds the gateway endpoint and the merchant's key pair.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Adapter talks to the NitroPay API.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates the adapter with a 30s HTTP timeout.
func New(cfg Config, logger *slog.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With("adapter", "nitropay"),
	}
}

func (a *Adapter) Slug() string { return "nitropay" }

// Authenticate checks the key pair is present. The secret itself is the
// bearer; the 24h expiry only bounds how long the credential cache
// holds it before re-validating.
func (a *Adapter) Authenticate(ctx context.Context) (provider.Credentials, error) {
	if a.cfg.APIKey == "" || a.cfg.APISecret == "" {
		return provider.Credentials{}, fmt.Errorf("%w: missing api key pair", domain.ErrAuthFailed)
	}
	return provider.Credentials{
		AccessToken: a.cfg.APISecret,
		TokenType:   "ApiKey",
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}, nil
}

// CreateDeposit requests a dynamic QR code for the charge.
func (a *Adapter) CreateDeposit(ctx context.Context, creds provider.Credentials, p provider.DepositParams) (*provider.Charge, error) {
	reqBody := qrCodeRequest{
		ExternalID:  p.ExternalID,
		Amount:      p.Amount,
		CallbackURL: p.CallbackURL,
		Payer: payerInfo{
			Name:  p.Customer.Name,
			TaxID: p.Customer.Document,
			Email: p.Customer.Email,
		},
	}

	respBody, err := a.doRequest(ctx, creds, http.MethodPost, "/v1/pix/qrcode", reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating qrcode: %w", err)
	}

	var qr qrCodeResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		return nil, fmt.Errorf("decoding qrcode response: %w", err)
	}

	a.logger.Debug("qrcode created", "external_id", p.ExternalID, "transaction_id", qr.TransactionID)

	return &provider.Charge{
		ProviderRef: qr.TransactionID,
		PaymentCode: qr.QRCode,
		QRCodeURL:   qr.QRCodeImage,
		ExpiresAt:   qr.ExpiresAt,
	}, nil
}

// CreateWithdrawal requests a payout to the beneficiary's key.
func (a *Adapter) CreateWithdrawal(ctx context.Context, creds provider.Credentials, p provider.WithdrawalParams) (*provider.Transfer, error) {
	reqBody := paymentRequest{
		ExternalID: p.ExternalID,
		Amount:     p.Amount,
		PixKey:     p.PixKey,
		PixKeyType: string(p.PixKeyType),
	}

	respBody, err := a.doRequest(ctx, creds, http.MethodPost, "/v1/pix/payments", reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating payout: %w", err)
	}

	var pay paymentResponse
	if err := json.Unmarshal(respBody, &pay); err != nil {
		return nil, fmt.Errorf("decoding payout response: %w", err)
	}

	a.logger.Debug("payout created", "external_id", p.ExternalID, "transaction_id", pay.TransactionID, "status", pay.Status)

	return &provider.Transfer{
		ProviderRef: pay.TransactionID,
		Status:      translatePaymentStatus(pay.Status),
	}, nil
}

// TranslateWebhook maps a gateway notification to the canonical event.
func (a *Adapter) TranslateWebhook(payload []byte) (*provider.WebhookEvent, error) {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decoding webhook payload: %w", err)
	}

	ev := &provider.WebhookEvent{
		ExternalID:  body.ExternalID,
		ProviderRef: body.TransactionID,
		Amount:      body.Amount,
		EndToEndID:  body.EndToEndID,
		Reason:      body.ErrorMessage,
	}

	switch body.Event {
	case eventPayIn:
		ev.Kind = provider.EventDeposit
		ev.Paid = body.Status == statusPaid
	case eventPayOut:
		ev.Kind = provider.EventWithdrawal
		ev.Paid = body.Status == statusCompleted
	default:
		return nil, fmt.Errorf("unknown webhook event %q", body.Event)
	}
	return ev, nil
}

func (a *Adapter) doRequest(ctx context.Context, creds provider.Credentials, method, path string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", a.cfg.APIKey)
	req.Header.Set("X-Api-Secret", creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrNetworkFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", domain.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", domain.ErrNetworkFailure, resp.StatusCode)
	case resp.StatusCode >= 400:
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrProviderRejected, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProviderRejected, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func translatePaymentStatus(s string) domain.WithdrawalStatus {
	switch s {
	case statusCompleted:
		return domain.WithdrawalCompleted
	case statusFailed:
		return domain.WithdrawalFailed
	default:
		return domain.WithdrawalPending
	}
}

var _ provider.Adapter = (*Adapter)(nil)

// Wire shapes.

const (
	eventPayIn  = "PIX_PAY_IN"
	eventPayOut = "PIX_PAY_OUT"

	statusPaid      = "PAID"
	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
)

type payerInfo struct {
	Name  string `json:"name"`
	TaxID string `json:"taxId"`
	Email string `json:"email,omitempty"`
}

type qrCodeRequest struct {
	ExternalID  string          `json:"externalId"`
	Amount      decimal.Decimal `json:"amount"`
	CallbackURL string          `json:"callbackUrl,omitempty"`
	Payer       payerInfo       `json:"payer"`
}

type qrCodeResponse struct {
	TransactionID string    `json:"transactionId"`
	QRCode        string    `json:"qrCode"`
	QRCodeImage   string    `json:"qrCodeImage,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type paymentRequest struct {
	ExternalID string          `json:"externalId"`
	Amount     decimal.Decimal `json:"amount"`
	PixKey     string          `json:"pixKey"`
	PixKeyType string          `json:"pixKeyType"`
}

type paymentResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

type webhookPayload struct {
	Event         string          `json:"event"`
	ExternalID    string          `json:"externalId"`
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	EndToEndID    string          `json:"endToEndId,omitempty"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
