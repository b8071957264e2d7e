package payment

import (
	"context"
	"fmt"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/events"
	"github.com/andrevalim/pixhub/pkg/fees"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/andrevalim/pixhub/pkg/repository"
	"github.com/google/uuid"
)

// CreateWithdrawal initiates a cash-out to the merchant's PIX key.
//
// Automatic mode debits the payer and dispatches to the provider in the
// same call; a provider refusal refunds the debit and surfaces the
// error. Manual mode persists the request as PENDING_APPROVAL and stops:
// no debit, no provider call, until an admin releases it.
func (s *Service) CreateWithdrawal(ctx context.Context, accountID uuid.UUID, req WithdrawRequest) (*WithdrawResponse, error) {
	log := s.logger.With("account_id", accountID, "candidate_id", req.ExternalID)

	keyType := domain.PixKeyType(req.PixKeyType)
	pixKey, err := validatePixKey(req.PixKey, keyType)
	if err != nil {
		return nil, err
	}

	acc, err := s.uow.Repos().Accounts.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	breakdown, err := fees.Withdrawal(req.Amount, acc.Fees, req.WebOrigin, acc.FeeSeparate)
	if err != nil {
		return nil, err
	}
	if acc.Balance.LessThan(breakdown.TotalToDebit) {
		return nil, domain.ErrInsufficientFunds
	}

	adapter, err := s.adapter(req.Provider)
	if err != nil {
		return nil, err
	}

	externalID, err := s.withdrawalIDs.Allocate(ctx, req.ExternalID)
	if err != nil {
		return nil, err
	}

	automatic := !s.cfg.ManualWithdrawals
	w := &domain.Withdrawal{
		ID:           uuid.New(),
		AccountID:    acc.ID,
		Provider:     adapter.Slug(),
		Gross:        fees.Round2(breakdown.Gross),
		Net:          fees.Round2(breakdown.Net),
		Fee:          fees.Round2(breakdown.Fee),
		FeeKind:      breakdown.Kind,
		FeeSeparate:  acc.FeeSeparate,
		TotalDebited: fees.Round2(breakdown.TotalToDebit),
		PixKey:       pixKey,
		PixKeyType:   keyType,
		CallbackURL:  req.CallbackURL,
		Automatic:    automatic,
		Status:       domain.WithdrawalPendingApproval,
		CreatedAt:    s.now(),
	}
	if automatic {
		w.Status = domain.WithdrawalPending
	}

	// The row insert and the balance debit commit together; a uniqueness
	// collision rolls both back and retries under a fresh id.
	externalID, err = s.withdrawalIDs.PersistWithRetry(ctx, externalID, func(ctx context.Context, id string) error {
		w.ExternalID = id
		return s.uow.Do(ctx, func(r repository.Repositories) error {
			if err := r.Withdrawals.Create(ctx, w); err != nil {
				return err
			}
			if !automatic {
				return nil
			}
			return r.Accounts.DecrementBalance(ctx, acc.ID, w.TotalDebited)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("persisting withdrawal: %w", err)
	}

	if automatic {
		if err := s.dispatch(ctx, adapter, w); err != nil {
			return nil, err
		}
	}

	log.Info("withdrawal created",
		"transaction_id", w.ID, "external_id", externalID,
		"status", w.Status, "total_debited", w.TotalDebited)

	return &WithdrawResponse{
		TransactionID: w.ID,
		ExternalID:    externalID,
		Status:        string(w.Status),
		Gross:         w.Gross,
		Fee:           w.Fee,
		Net:           w.Net,
		TotalDebited:  w.TotalDebited,
	}, nil
}

// ReleaseWithdrawal is the admin approval of a manual withdrawal: it
// debits the payer and dispatches the transfer. The compare-and-set
// guards against two admins releasing the same row.
func (s *Service) ReleaseWithdrawal(ctx context.Context, id uuid.UUID) error {
	w, err := s.uow.Repos().Withdrawals.Get(ctx, id)
	if err != nil {
		return err
	}
	adapter, err := s.providers.Get(w.Provider)
	if err != nil {
		return err
	}

	var moved bool
	err = s.uow.Do(ctx, func(r repository.Repositories) error {
		moved, err = r.Withdrawals.UpdateStatus(ctx, w.ID, domain.WithdrawalPendingApproval, domain.WithdrawalPending)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
		return r.Accounts.DecrementBalance(ctx, w.AccountID, w.TotalDebited)
	})
	if err != nil {
		return fmt.Errorf("releasing withdrawal: %w", err)
	}
	if !moved {
		return fmt.Errorf("release %s: %w", w.ID, domain.ErrInvalidTransition)
	}

	w.Status = domain.WithdrawalPending
	s.logger.Info("withdrawal released by admin", "transaction_id", w.ID)
	return s.dispatch(ctx, adapter, w)
}

// RefuseWithdrawal is the admin rejection of a manual withdrawal. No
// balance moved yet, so nothing is refunded; the merchant is notified.
func (s *Service) RefuseWithdrawal(ctx context.Context, id uuid.UUID) error {
	w, err := s.uow.Repos().Withdrawals.Get(ctx, id)
	if err != nil {
		return err
	}
	moved, err := s.uow.Repos().Withdrawals.UpdateStatus(ctx, w.ID, domain.WithdrawalPendingApproval, domain.WithdrawalRejected)
	if err != nil {
		return fmt.Errorf("refusing withdrawal: %w", err)
	}
	if !moved {
		return fmt.Errorf("refuse %s: %w", w.ID, domain.ErrInvalidTransition)
	}

	s.logger.Info("withdrawal refused by admin", "transaction_id", w.ID)
	s.emitFinalized(ctx, w, domain.WithdrawalRejected)
	return nil
}

// GetWithdrawal returns the current state of a withdrawal owned by the
// account.
func (s *Service) GetWithdrawal(ctx context.Context, accountID uuid.UUID, externalID string) (*StatusResponse, error) {
	w, err := s.uow.Repos().Withdrawals.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if w.AccountID != accountID {
		return nil, domain.ErrTransactionNotFound
	}
	return &StatusResponse{
		TransactionID: w.ID,
		ExternalID:    w.ExternalID,
		Status:        string(w.Status),
		Gross:         w.Gross,
		Net:           w.Net,
	}, nil
}

// dispatch sends a debited PENDING withdrawal to the provider. A refusal
// rolls the money back through the refund path and marks the row FAILED,
// so no partial state survives the call.
func (s *Service) dispatch(ctx context.Context, adapter provider.Adapter, w *domain.Withdrawal) error {
	var transfer *provider.Transfer
	err := s.withCredentials(ctx, adapter, func(creds provider.Credentials) error {
		var callErr error
		transfer, callErr = adapter.CreateWithdrawal(ctx, creds, provider.WithdrawalParams{
			ExternalID: w.ExternalID,
			Amount:     w.Net,
			PixKey:     w.PixKey,
			PixKeyType: w.PixKeyType,
		})
		return callErr
	})
	if err != nil {
		s.logger.Error("provider refused transfer",
			"transaction_id", w.ID, "provider", adapter.Slug(), "error", err)
		if failErr := s.failAndRefund(ctx, w); failErr != nil {
			return failErr
		}
		return fmt.Errorf("creating transfer at %s: %w", adapter.Slug(), err)
	}

	if err := s.uow.Repos().Withdrawals.SetProviderRef(ctx, w.ID, transfer.ProviderRef); err != nil {
		return fmt.Errorf("recording provider ref: %w", err)
	}
	w.ProviderRef = transfer.ProviderRef
	return nil
}

// failAndRefund moves a dispatched withdrawal to FAILED and returns the
// debited total, at most once, when the provider call itself failed.
func (s *Service) failAndRefund(ctx context.Context, w *domain.Withdrawal) error {
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		moved, err := r.Withdrawals.UpdateStatus(ctx, w.ID, domain.WithdrawalPending, domain.WithdrawalFailed)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
		won, err := r.Withdrawals.MarkRefunded(ctx, w.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		return r.Accounts.IncrementBalance(ctx, w.AccountID, w.TotalDebited)
	})
	if err != nil {
		return fmt.Errorf("refunding failed withdrawal: %w", err)
	}
	s.emitFinalized(ctx, w, domain.WithdrawalFailed)
	return nil
}

// emitFinalized publishes the terminal event for synchronous failure
// paths, where no webhook will ever arrive.
func (s *Service) emitFinalized(ctx context.Context, w *domain.Withdrawal, status domain.WithdrawalStatus) {
	err := s.bus.Emit(ctx, events.WithdrawalFinalized{
		TransactionID: w.ID,
		ExternalID:    w.ExternalID,
		AccountID:     w.AccountID,
		Status:        string(status),
		CallbackURL:   w.CallbackURL,
	})
	if err != nil {
		s.logger.Error("emitting withdrawal finalized", "transaction_id", w.ID, "error", err)
	}
}

// validatePixKey checks the key shape for its declared DICT type.
// Document keys get full check-digit validation; EVP keys must parse as
// UUIDs; email and phone shapes were already constrained at binding.
func validatePixKey(key string, t domain.PixKeyType) (string, error) {
	switch t {
	case domain.PixKeyCPF, domain.PixKeyCNPJ:
		doc := domain.NormalizeDocument(key)
		if err := domain.ValidateDocument(doc); err != nil {
			return "", err
		}
		return doc, nil
	case domain.PixKeyRandom:
		if _, err := uuid.Parse(key); err != nil {
			return "", fmt.Errorf("%w: malformed EVP key", domain.ErrInvalidDocument)
		}
		return key, nil
	case domain.PixKeyEmail, domain.PixKeyPhone:
		return key, nil
	default:
		return "", fmt.Errorf("%w: unknown key type %q", domain.ErrInvalidDocument, t)
	}
}
