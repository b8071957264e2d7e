package payment

import (
	"context"
	"fmt"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/fees"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/google/uuid"
)

// CreateDeposit creates a PIX charge for the account.
//
// Validation fails fast before anything is written. The row is persisted
// first, retrying under a fresh id on a uniqueness collision, and only
// then is the charge created at the acquirer, under the id that actually
// persisted. The webhook the acquirer later echoes therefore always
// resolves to the row that owns the charge. A provider failure after the
// insert leaves the row in WAITING_FOR_APPROVAL for later
// reconciliation.
func (s *Service) CreateDeposit(ctx context.Context, accountID uuid.UUID, req DepositRequest) (*DepositResponse, error) {
	log := s.logger.With("account_id", accountID, "candidate_id", req.ExternalID)

	doc := domain.NormalizeDocument(req.Customer.Document)
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	acc, err := s.uow.Repos().Accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	breakdown, err := fees.Deposit(req.Amount, acc.Fees)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapter(req.Provider)
	if err != nil {
		return nil, err
	}

	externalID, err := s.depositIDs.Allocate(ctx, req.ExternalID)
	if err != nil {
		return nil, err
	}

	customer := domain.Customer{
		Name:     req.Customer.Name,
		Document: doc,
		Email:    req.Customer.Email,
		Phone:    req.Customer.Phone,
	}

	dep := &domain.Deposit{
		ID:          uuid.New(),
		AccountID:   acc.ID,
		Provider:    adapter.Slug(),
		Gross:       fees.Round2(breakdown.Gross),
		Net:         fees.Round2(breakdown.Net),
		Fee:         fees.Round2(breakdown.Fee),
		FeeKind:     breakdown.Kind,
		SplitBase:   breakdown.SplittableBase,
		Customer:    customer,
		CallbackURL: req.CallbackURL,
		Status:      domain.DepositWaitingApproval,
		CreatedAt:   s.now(),
	}
	if req.Split != nil {
		dep.Split = &domain.InlineSplit{
			BeneficiaryEmail: req.Split.BeneficiaryEmail,
			Percentage:       req.Split.Percentage,
		}
	}

	externalID, err = s.depositIDs.PersistWithRetry(ctx, externalID, func(ctx context.Context, id string) error {
		dep.ExternalID = id
		return s.uow.Repos().Deposits.Create(ctx, dep)
	})
	if err != nil {
		return nil, fmt.Errorf("persisting deposit: %w", err)
	}

	var charge *provider.Charge
	err = s.withCredentials(ctx, adapter, func(creds provider.Credentials) error {
		var callErr error
		charge, callErr = adapter.CreateDeposit(ctx, creds, provider.DepositParams{
			ExternalID:  externalID,
			Amount:      breakdown.Gross,
			Customer:    customer,
			CallbackURL: req.CallbackURL,
		})
		return callErr
	})
	if err != nil {
		log.Error("provider refused charge, row stays pending",
			"provider", adapter.Slug(), "transaction_id", dep.ID, "error", err)
		return nil, fmt.Errorf("creating charge at %s: %w", adapter.Slug(), err)
	}

	if err := s.uow.Repos().Deposits.SetProviderCharge(ctx, dep.ID, charge.ProviderRef, charge.PaymentCode); err != nil {
		return nil, fmt.Errorf("recording provider charge: %w", err)
	}
	dep.ProviderRef = charge.ProviderRef
	dep.PaymentCode = charge.PaymentCode

	log.Info("deposit created",
		"transaction_id", dep.ID, "external_id", externalID,
		"provider", adapter.Slug(), "gross", dep.Gross, "fee", dep.Fee)

	return &DepositResponse{
		TransactionID: dep.ID,
		ExternalID:    externalID,
		Status:        string(dep.Status),
		PaymentCode:   charge.PaymentCode,
		QRCodeURL:     charge.QRCodeURL,
		Gross:         dep.Gross,
		Fee:           dep.Fee,
		Net:           dep.Net,
		ExpiresAt:     charge.ExpiresAt,
	}, nil
}

// GetDeposit returns the current state of a deposit owned by the
// account.
func (s *Service) GetDeposit(ctx context.Context, accountID uuid.UUID, externalID string) (*StatusResponse, error) {
	dep, err := s.uow.Repos().Deposits.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if dep.AccountID != accountID {
		return nil, domain.ErrTransactionNotFound
	}
	return &StatusResponse{
		TransactionID: dep.ID,
		ExternalID:    dep.ExternalID,
		Status:        string(dep.Status),
		Gross:         dep.Gross,
		Net:           dep.Net,
	}, nil
}
