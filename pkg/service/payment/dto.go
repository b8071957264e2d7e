package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositRequest is the merchant-facing input for creating a charge.
// Amount positivity is enforced by the fee engine, which owns all
// monetary validation.
type DepositRequest struct {
	ExternalID  string              `json:"external_id" validate:"omitempty,max=64"`
	Provider    string              `json:"provider" validate:"omitempty,max=32"`
	Amount      decimal.Decimal     `json:"amount" validate:"required"`
	Customer    CustomerRequest     `json:"customer" validate:"required"`
	CallbackURL string              `json:"callback_url" validate:"omitempty,url"`
	Split       *SplitRequest       `json:"split,omitempty"`
}

// CustomerRequest identifies the payer.
type CustomerRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Document string `json:"document" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// SplitRequest attaches a one-off split to the charge.
type SplitRequest struct {
	BeneficiaryEmail string          `json:"beneficiary_email" validate:"required,email"`
	Percentage       decimal.Decimal `json:"percentage" validate:"required"`
}

// DepositResponse is returned after the charge exists at the acquirer
// and in the ledger.
type DepositResponse struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	ExternalID    string          `json:"external_id"`
	Status        string          `json:"status"`
	PaymentCode   string          `json:"payment_code"`
	QRCodeURL     string          `json:"qrcode_url,omitempty"`
	Gross         decimal.Decimal `json:"gross"`
	Fee           decimal.Decimal `json:"fee"`
	Net           decimal.Decimal `json:"net"`
	ExpiresAt     time.Time       `json:"expires_at,omitempty"`
}

// WithdrawRequest is the merchant-facing input for a cash-out.
type WithdrawRequest struct {
	ExternalID  string          `json:"external_id" validate:"omitempty,max=64"`
	Provider    string          `json:"provider" validate:"omitempty,max=32"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PixKey      string          `json:"pix_key" validate:"required,max=140"`
	PixKeyType  string          `json:"pix_key_type" validate:"required,oneof=CPF CNPJ EMAIL PHONE EVP"`
	CallbackURL string          `json:"callback_url" validate:"omitempty,url"`
	// WebOrigin marks withdrawals initiated from the merchant panel,
	// which pay the flat web fee instead of the percentage.
	WebOrigin bool `json:"-"`
}

// WithdrawResponse is returned once the withdrawal is persisted.
type WithdrawResponse struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	ExternalID    string          `json:"external_id"`
	Status        string          `json:"status"`
	Gross         decimal.Decimal `json:"gross"`
	Fee           decimal.Decimal `json:"fee"`
	Net           decimal.Decimal `json:"net"`
	TotalDebited  decimal.Decimal `json:"total_debited"`
}

// StatusResponse reports the current state of a transaction.
type StatusResponse struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	ExternalID    string          `json:"external_id"`
	Status        string          `json:"status"`
	Gross         decimal.Decimal `json:"gross"`
	Net           decimal.Decimal `json:"net"`
}
