// Package pagfast implements the provider adapter for the PagFast
// acquirer: OAuth2 client-credentials authentication and a Bacen
// cob-style PIX API (charges keyed by txid, copia-e-cola payment
// codes, pix-send transfers).
package pagfast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/shopspring/decimal"
)

// Config holds the acquirer endpoint and the merchant's credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// PixKey is the receiving key charges are registered under.
	PixKey string
	// ChargeExpiry bounds how long a generated charge stays payable.
	// Defaults to one hour.
	ChargeExpiry time.Duration
}

// Adapter talks to the PagFast API. It keeps no credential state; the
// caller passes the bearer obtained from Authenticate into every call.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates the adapter with a 30s HTTP timeout.
func New(cfg Config, logger *slog.Logger) *Adapter {
	if cfg.ChargeExpiry <= 0 {
		cfg.ChargeExpiry = time.Hour
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With("adapter", "pagfast"),
	}
}

func (a *Adapter) Slug() string { return "pagfast" }

// Authenticate exchanges the client credentials for a bearer token.
func (a *Adapter) Authenticate(ctx context.Context) (provider.Credentials, error) {
	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/oauth/token", body)
	if err != nil {
		return provider.Credentials{}, err
	}
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return provider.Credentials{}, fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Credentials{}, fmt.Errorf("%w: reading response: %v", domain.ErrAuthFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Mensagem != "" {
			return provider.Credentials{}, fmt.Errorf("%w: %s", domain.ErrAuthFailed, apiErr.Mensagem)
		}
		return provider.Credentials{}, fmt.Errorf("%w: status %d", domain.ErrAuthFailed, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return provider.Credentials{}, fmt.Errorf("%w: decoding token: %v", domain.ErrAuthFailed, err)
	}

	return provider.Credentials{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}, nil
}

// CreateDeposit registers a charge under our transaction id. The txid
// is the idempotency key at the acquirer, so retrying with the same id
// is safe.
func (a *Adapter) CreateDeposit(ctx context.Context, creds provider.Credentials, p provider.DepositParams) (*provider.Charge, error) {
	reqBody := cobRequest{
		Calendario: cobCalendario{Expiracao: int(a.cfg.ChargeExpiry.Seconds())},
		Valor:      cobValor{Original: p.Amount.StringFixed(2)},
		Chave:      a.cfg.PixKey,
	}
	if p.Customer.Name != "" || p.Customer.Document != "" {
		devedor := &cobDevedor{Nome: p.Customer.Name}
		switch len(p.Customer.Document) {
		case 11:
			devedor.CPF = p.Customer.Document
		case 14:
			devedor.CNPJ = p.Customer.Document
		}
		reqBody.Devedor = devedor
	}

	respBody, err := a.doRequest(ctx, creds, http.MethodPut, "/v2/cob/"+url.PathEscape(p.ExternalID), reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating charge: %w", err)
	}

	var cob cobResponse
	if err := json.Unmarshal(respBody, &cob); err != nil {
		return nil, fmt.Errorf("decoding charge response: %w", err)
	}

	a.logger.Debug("charge created", "external_id", p.ExternalID, "cob_id", cob.CobID)

	charge := &provider.Charge{
		ProviderRef: cob.CobID,
		PaymentCode: cob.PixCopiaECola,
		QRCodeURL:   cob.Location,
	}
	if cob.Calendario.Expiracao > 0 {
		charge.ExpiresAt = time.Now().Add(time.Duration(cob.Calendario.Expiracao) * time.Second)
	}
	return charge, nil
}

// CreateWithdrawal sends a PIX to the beneficiary's key. Settlement is
// asynchronous; the synchronous response normally reports
// EM_PROCESSAMENTO and the webhook closes the transfer.
func (a *Adapter) CreateWithdrawal(ctx context.Context, creds provider.Credentials, p provider.WithdrawalParams) (*provider.Transfer, error) {
	reqBody := sendRequest{
		Valor:      p.Amount.StringFixed(2),
		Pagador:    sendParty{Chave: a.cfg.PixKey},
		Favorecido: sendParty{Chave: p.PixKey},
	}

	respBody, err := a.doRequest(ctx, creds, http.MethodPut, "/v2/pix/"+url.PathEscape(p.ExternalID), reqBody)
	if err != nil {
		return nil, fmt.Errorf("sending pix: %w", err)
	}

	var sent sendResponse
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return nil, fmt.Errorf("decoding send response: %w", err)
	}

	a.logger.Debug("transfer sent", "external_id", p.ExternalID, "e2e_id", sent.EndToEndID, "status", sent.Status)

	return &provider.Transfer{
		ProviderRef: sent.EndToEndID,
		Status:      translateSendStatus(sent.Status),
	}, nil
}

// TranslateWebhook maps a notification body to the canonical event.
// Entries with an idEnvio settle a withdrawal; the rest confirm or
// cancel a charge.
func (a *Adapter) TranslateWebhook(payload []byte) (*provider.WebhookEvent, error) {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decoding webhook payload: %w", err)
	}
	if len(body.Pix) == 0 {
		return nil, errors.New("webhook payload carries no pix entries")
	}
	entry := body.Pix[0]

	ev := &provider.WebhookEvent{
		EndToEndID: entry.EndToEndID,
		Reason:     entry.Motivo,
	}
	if entry.Valor != "" {
		amount, err := decimal.NewFromString(entry.Valor)
		if err != nil {
			return nil, fmt.Errorf("parsing webhook amount %q: %w", entry.Valor, err)
		}
		ev.Amount = amount
	}

	if entry.IDEnvio != "" {
		ev.Kind = provider.EventWithdrawal
		ev.ExternalID = entry.IDEnvio
		ev.ProviderRef = entry.EndToEndID
		ev.Paid = entry.Status == sendStatusDone
		return ev, nil
	}

	ev.Kind = provider.EventDeposit
	ev.ExternalID = entry.TxID
	ev.ProviderRef = entry.CobID
	ev.Paid = entry.Status == cobStatusSettled
	return ev, nil
}

func (a *Adapter) doRequest(ctx context.Context, creds provider.Credentials, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
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
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error() != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrProviderRejected, apiErr.Error())
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProviderRejected, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func translateSendStatus(s string) domain.WithdrawalStatus {
	switch s {
	case sendStatusDone:
		return domain.WithdrawalCompleted
	case sendStatusFailed:
		return domain.WithdrawalFailed
	default:
		return domain.WithdrawalPending
	}
}

var _ provider.Adapter = (*Adapter)(nil)
