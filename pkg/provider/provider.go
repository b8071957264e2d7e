// Package provider defines the contract every PIX acquirer adapter
// implements. Side effects and provider-specific response shapes are
// confined to adapters; the orchestrator only ever sees these types.
package provider

import (
	"context"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/shopspring/decimal"
)

// Credentials is an immutable bearer credential obtained from
// Authenticate and passed into subsequent calls. Adapters never keep
// mutable global credential state, so they are safe to share across
// concurrent requests.
type Credentials struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Expired reports whether the credential is past (or within lead of) its
// expiry.
func (c Credentials) Expired(lead time.Duration) bool {
	return c.AccessToken == "" || time.Now().Add(lead).After(c.ExpiresAt)
}

// Charge is the provider-native result of creating a deposit charge.
type Charge struct {
	// ProviderRef is the acquirer's own identifier for the charge.
	ProviderRef string
	// PaymentCode is the renderable "copia e cola" string for the payer.
	PaymentCode string
	// QRCodeURL points at a scannable image when the acquirer renders one.
	QRCodeURL string
	ExpiresAt time.Time
}

// Transfer is the provider-native result of creating a withdrawal.
type Transfer struct {
	ProviderRef string
	// Status as reported synchronously; most acquirers settle async via
	// webhook and report a pending status here.
	Status domain.WithdrawalStatus
}

// WebhookEvent is the canonical reconciliation event every adapter
// translates its webhook payload into.
type WebhookEvent struct {
	// ExternalID is our transaction id echoed back by the acquirer.
	ExternalID string
	// ProviderRef is the acquirer-side id, used as a fallback lookup key.
	ProviderRef string
	// Kind tells whether the event settles a deposit or a withdrawal.
	Kind EventKind
	// Paid is true for a settlement confirmation, false for expiry,
	// refusal or failure.
	Paid bool
	// Amount is the settled amount as reported by the acquirer.
	Amount decimal.Decimal
	// EndToEndID is the Bacen E2E id when present.
	EndToEndID string
	// Reason carries the provider's failure description, if any.
	Reason string
}

// EventKind discriminates webhook events.
type EventKind string

const (
	EventDeposit    EventKind = "deposit"
	EventWithdrawal EventKind = "withdrawal"
)

// DepositParams is the typed input for CreateDeposit.
type DepositParams struct {
	ExternalID  string
	Amount      decimal.Decimal
	Customer    domain.Customer
	CallbackURL string
}

// WithdrawalParams is the typed input for CreateWithdrawal.
type WithdrawalParams struct {
	ExternalID string
	Amount     decimal.Decimal
	PixKey     string
	PixKeyType domain.PixKeyType
}

// Adapter is implemented once per acquirer.
type Adapter interface {
	// Slug identifies the adapter in configuration and webhook routes.
	Slug() string

	// Authenticate obtains a bearer credential. Failures surface as
	// domain.ErrAuthFailed, never as a panic across the boundary.
	Authenticate(ctx context.Context) (Credentials, error)

	// CreateDeposit creates a charge at the acquirer and returns the
	// provider reference plus the payment code.
	CreateDeposit(ctx context.Context, creds Credentials, p DepositParams) (*Charge, error)

	// CreateWithdrawal creates a transfer to the beneficiary's PIX key.
	CreateWithdrawal(ctx context.Context, creds Credentials, p WithdrawalParams) (*Transfer, error)

	// TranslateWebhook parses the raw provider payload into the canonical
	// event shape. It is pure: no I/O, no persistence.
	TranslateWebhook(payload []byte) (*WebhookEvent, error)
}
