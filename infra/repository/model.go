// Package repository implements the ledger contracts over gorm and
// PostgreSQL. Uniqueness lives in the schema: the database, not
// application code, is the final arbiter of duplicate external ids and
// duplicate split executions.
package repository

import (
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the persisted merchant account.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Email     string          `gorm:"type:varchar(255);uniqueIndex;not null"`
	Document  string          `gorm:"type:varchar(14);index"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	Withdrawn decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`

	ManagerID    *uuid.UUID      `gorm:"type:uuid"`
	ManagerPct   decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0"`
	AffiliateID  *uuid.UUID      `gorm:"type:uuid"`
	AffiliatePct decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0"`

	FeeSeparate bool `gorm:"not null;default:false"`

	FeePercentage     decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0"`
	FeeBaseline       decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	FlexibleEnabled   bool            `gorm:"not null;default:false"`
	FlexibleThreshold decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	FlexibleLowFee    decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	FlexibleHighPct   decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0"`
	Surcharge         decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	WithdrawalPct     decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0"`
	WithdrawalWebFee  decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string { return "accounts" }

// Deposit is the persisted cash-in row.
type Deposit struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ExternalID  string          `gorm:"type:varchar(128);uniqueIndex;not null"`
	AccountID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Provider    string          `gorm:"type:varchar(32);not null"`
	ProviderRef string          `gorm:"type:varchar(128);index"`
	Gross       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Net         decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Fee         decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	FeeKind     string          `gorm:"type:varchar(16);not null"`
	SplitBase   decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	PaymentCode string          `gorm:"type:text"`

	CustomerName     string `gorm:"type:varchar(128)"`
	CustomerDocument string `gorm:"type:varchar(14)"`
	CustomerEmail    string `gorm:"type:varchar(255)"`
	CustomerPhone    string `gorm:"type:varchar(20)"`

	CallbackURL string `gorm:"type:text"`

	SplitBeneficiaryEmail *string          `gorm:"type:varchar(255)"`
	SplitPercentage       *decimal.Decimal `gorm:"type:numeric(8,4)"`

	Status     string `gorm:"type:varchar(32);index;not null"`
	ReleasedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Deposit) TableName() string { return "deposits" }

// Withdrawal is the persisted cash-out row.
type Withdrawal struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ExternalID   string          `gorm:"type:varchar(128);uniqueIndex;not null"`
	AccountID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Provider     string          `gorm:"type:varchar(32);not null"`
	ProviderRef  string          `gorm:"type:varchar(128);index"`
	Gross        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Net          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Fee          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	FeeKind      string          `gorm:"type:varchar(16);not null"`
	FeeSeparate  bool            `gorm:"not null;default:false"`
	TotalDebited decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PixKey       string          `gorm:"type:varchar(140);not null"`
	PixKeyType   string          `gorm:"type:varchar(8);not null"`
	CallbackURL  string          `gorm:"type:text"`
	Automatic    bool            `gorm:"not null;default:false"`
	Refunded     bool            `gorm:"not null;default:false"`
	Status       string          `gorm:"type:varchar(32);index;not null"`
	SettledAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Withdrawal) TableName() string { return "withdrawals" }

// SplitDirective is a persisted split rule.
type SplitDirective struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Kind             string          `gorm:"type:varchar(16);index:idx_directive_kind_payer;not null"`
	PayerAccountID   uuid.UUID       `gorm:"type:uuid;index:idx_directive_kind_payer;not null"`
	BeneficiaryID    *uuid.UUID      `gorm:"type:uuid"`
	BeneficiaryEmail string          `gorm:"type:varchar(255)"`
	Percentage       decimal.Decimal `gorm:"type:numeric(8,4);not null"`
	CreatedAt        time.Time
}

func (SplitDirective) TableName() string { return "split_directives" }

// SplitExecution is one directive applied to one transaction. The
// composite unique index is what makes split payout at-most-once.
type SplitExecution struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DirectiveID   uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_split_exec_directive_tx;not null"`
	TransactionID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_split_exec_directive_tx;not null"`
	BaseAmount    decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	SplitAmount   decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Status        string          `gorm:"type:varchar(16);index;not null"`
	ErrorMessage  string          `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SplitExecution) TableName() string { return "split_executions" }

// --- domain mapping ---

func accountToDomain(m *Account) *domain.Account {
	return &domain.Account{
		ID:           m.ID,
		Email:        m.Email,
		Document:     m.Document,
		Balance:      m.Balance,
		Withdrawn:    m.Withdrawn,
		ManagerID:    m.ManagerID,
		ManagerPct:   m.ManagerPct,
		AffiliateID:  m.AffiliateID,
		AffiliatePct: m.AffiliatePct,
		FeeSeparate:  m.FeeSeparate,
		Fees: domain.FeeConfig{
			Percentage:        m.FeePercentage,
			Baseline:          m.FeeBaseline,
			FlexibleEnabled:   m.FlexibleEnabled,
			FlexibleThreshold: m.FlexibleThreshold,
			FlexibleLowFee:    m.FlexibleLowFee,
			FlexibleHighPct:   m.FlexibleHighPct,
			Surcharge:         m.Surcharge,
			WithdrawalPct:     m.WithdrawalPct,
			WithdrawalWebFee:  m.WithdrawalWebFee,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func depositToModel(d *domain.Deposit) *Deposit {
	m := &Deposit{
		ID:               d.ID,
		ExternalID:       d.ExternalID,
		AccountID:        d.AccountID,
		Provider:         d.Provider,
		ProviderRef:      d.ProviderRef,
		Gross:            d.Gross,
		Net:              d.Net,
		Fee:              d.Fee,
		FeeKind:          string(d.FeeKind),
		SplitBase:        d.SplitBase,
		PaymentCode:      d.PaymentCode,
		CustomerName:     d.Customer.Name,
		CustomerDocument: d.Customer.Document,
		CustomerEmail:    d.Customer.Email,
		CustomerPhone:    d.Customer.Phone,
		CallbackURL:      d.CallbackURL,
		Status:           string(d.Status),
		ReleasedAt:       d.ReleasedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Split != nil {
		email := d.Split.BeneficiaryEmail
		pct := d.Split.Percentage
		m.SplitBeneficiaryEmail = &email
		m.SplitPercentage = &pct
	}
	return m
}

func depositToDomain(m *Deposit) *domain.Deposit {
	d := &domain.Deposit{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		AccountID:   m.AccountID,
		Provider:    m.Provider,
		ProviderRef: m.ProviderRef,
		Gross:       m.Gross,
		Net:         m.Net,
		Fee:         m.Fee,
		FeeKind:     domain.FeeKind(m.FeeKind),
		SplitBase:   m.SplitBase,
		PaymentCode: m.PaymentCode,
		Customer: domain.Customer{
			Name:     m.CustomerName,
			Document: m.CustomerDocument,
			Email:    m.CustomerEmail,
			Phone:    m.CustomerPhone,
		},
		CallbackURL: m.CallbackURL,
		Status:      domain.DepositStatus(m.Status),
		ReleasedAt:  m.ReleasedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.SplitBeneficiaryEmail != nil && m.SplitPercentage != nil {
		d.Split = &domain.InlineSplit{
			BeneficiaryEmail: *m.SplitBeneficiaryEmail,
			Percentage:       *m.SplitPercentage,
		}
	}
	return d
}

func withdrawalToModel(w *domain.Withdrawal) *Withdrawal {
	return &Withdrawal{
		ID:           w.ID,
		ExternalID:   w.ExternalID,
		AccountID:    w.AccountID,
		Provider:     w.Provider,
		ProviderRef:  w.ProviderRef,
		Gross:        w.Gross,
		Net:          w.Net,
		Fee:          w.Fee,
		FeeKind:      string(w.FeeKind),
		FeeSeparate:  w.FeeSeparate,
		TotalDebited: w.TotalDebited,
		PixKey:       w.PixKey,
		PixKeyType:   string(w.PixKeyType),
		CallbackURL:  w.CallbackURL,
		Automatic:    w.Automatic,
		Refunded:     w.Refunded,
		Status:       string(w.Status),
		SettledAt:    w.SettledAt,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func withdrawalToDomain(m *Withdrawal) *domain.Withdrawal {
	return &domain.Withdrawal{
		ID:           m.ID,
		ExternalID:   m.ExternalID,
		AccountID:    m.AccountID,
		Provider:     m.Provider,
		ProviderRef:  m.ProviderRef,
		Gross:        m.Gross,
		Net:          m.Net,
		Fee:          m.Fee,
		FeeKind:      domain.FeeKind(m.FeeKind),
		FeeSeparate:  m.FeeSeparate,
		TotalDebited: m.TotalDebited,
		PixKey:       m.PixKey,
		PixKeyType:   domain.PixKeyType(m.PixKeyType),
		CallbackURL:  m.CallbackURL,
		Automatic:    m.Automatic,
		Refunded:     m.Refunded,
		Status:       domain.WithdrawalStatus(m.Status),
		SettledAt:    m.SettledAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func directiveToModel(d *domain.SplitDirective) *SplitDirective {
	m := &SplitDirective{
		ID:               d.ID,
		Kind:             string(d.Kind),
		PayerAccountID:   d.PayerAccountID,
		BeneficiaryEmail: d.BeneficiaryEmail,
		Percentage:       d.Percentage,
		CreatedAt:        d.CreatedAt,
	}
	if d.BeneficiaryID != uuid.Nil {
		id := d.BeneficiaryID
		m.BeneficiaryID = &id
	}
	return m
}

func directiveToDomain(m *SplitDirective) *domain.SplitDirective {
	d := &domain.SplitDirective{
		ID:               m.ID,
		Kind:             domain.SplitKind(m.Kind),
		PayerAccountID:   m.PayerAccountID,
		BeneficiaryEmail: m.BeneficiaryEmail,
		Percentage:       m.Percentage,
		CreatedAt:        m.CreatedAt,
	}
	if m.BeneficiaryID != nil {
		d.BeneficiaryID = *m.BeneficiaryID
	}
	return d
}

func executionToModel(e *domain.SplitExecution) *SplitExecution {
	return &SplitExecution{
		ID:            e.ID,
		DirectiveID:   e.DirectiveID,
		TransactionID: e.TransactionID,
		BaseAmount:    e.BaseAmount,
		SplitAmount:   e.SplitAmount,
		Status:        string(e.Status),
		ErrorMessage:  e.ErrorMessage,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func executionToDomain(m *SplitExecution) *domain.SplitExecution {
	return &domain.SplitExecution{
		ID:            m.ID,
		DirectiveID:   m.DirectiveID,
		TransactionID: m.TransactionID,
		BaseAmount:    m.BaseAmount,
		SplitAmount:   m.SplitAmount,
		Status:        domain.SplitExecutionStatus(m.Status),
		ErrorMessage:  m.ErrorMessage,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
