package fixtures

import (
	"context"
	"time"

	"github.com/andrevalim/pixhub/pkg/provider"
)

// FakeAdapter is a scriptable provider adapter.
type FakeAdapter struct {
	Name string

	AuthErr   error
	AuthCalls int

	Charge       *provider.Charge
	ChargeErr    error
	DepositCalls []provider.DepositParams

	Transfer        *provider.Transfer
	TransferErr     error
	WithdrawalCalls []provider.WithdrawalParams

	// RejectTokens makes the next N deposit/withdrawal calls fail with
	// the given error before succeeding, to exercise re-auth retries.
	RejectTokens int
	RejectWith   error

	Event        *provider.WebhookEvent
	TranslateErr error
}

// NewFakeAdapter creates an adapter that succeeds with canned responses.
func NewFakeAdapter(name string) *FakeAdapter {
	return &FakeAdapter{
		Name: name,
		Charge: &provider.Charge{
			ProviderRef: name + "-charge-1",
			PaymentCode: "00020126pix-copia-e-cola6304ABCD",
			ExpiresAt:   time.Now().Add(time.Hour),
		},
		Transfer: &provider.Transfer{ProviderRef: name + "-transfer-1"},
	}
}

func (f *FakeAdapter) Slug() string { return f.Name }

func (f *FakeAdapter) Authenticate(context.Context) (provider.Credentials, error) {
	f.AuthCalls++
	if f.AuthErr != nil {
		return provider.Credentials{}, f.AuthErr
	}
	return provider.Credentials{
		AccessToken: "token",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (f *FakeAdapter) CreateDeposit(_ context.Context, _ provider.Credentials, p provider.DepositParams) (*provider.Charge, error) {
	f.DepositCalls = append(f.DepositCalls, p)
	if f.RejectTokens > 0 {
		f.RejectTokens--
		return nil, f.RejectWith
	}
	if f.ChargeErr != nil {
		return nil, f.ChargeErr
	}
	return f.Charge, nil
}

func (f *FakeAdapter) CreateWithdrawal(_ context.Context, _ provider.Credentials, p provider.WithdrawalParams) (*provider.Transfer, error) {
	f.WithdrawalCalls = append(f.WithdrawalCalls, p)
	if f.RejectTokens > 0 {
		f.RejectTokens--
		return nil, f.RejectWith
	}
	if f.TransferErr != nil {
		return nil, f.TransferErr
	}
	return f.Transfer, nil
}

func (f *FakeAdapter) TranslateWebhook([]byte) (*provider.WebhookEvent, error) {
	if f.TranslateErr != nil {
		return nil, f.TranslateErr
	}
	return f.Event, nil
}

var _ provider.Adapter = (*FakeAdapter)(nil)

// DirectCreds authenticates on every call and records invalidations.
type DirectCreds struct {
	Invalidated []string
}

func (d *DirectCreds) Credentials(ctx context.Context, a provider.Adapter) (provider.Credentials, error) {
	return a.Authenticate(ctx)
}

func (d *DirectCreds) Invalidate(_ context.Context, slug string) {
	d.Invalidated = append(d.Invalidated, slug)
}

var _ provider.CredentialSource = (*DirectCreds)(nil)
