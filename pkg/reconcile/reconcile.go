// Package reconcile advances transactions through their terminal states
// in response to provider webhook events. Every transition is a
// compare-and-set, so redelivered or out-of-order webhooks collapse into
// no-ops instead of double-crediting.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/andrevalim/pixhub/pkg/events"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/andrevalim/pixhub/pkg/repository"
)

// Reconciler applies canonical webhook events to the ledger and emits
// domain events for downstream handlers (split execution, merchant
// callbacks).
type Reconciler struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// New creates a reconciler over the given unit of work and event bus.
func New(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		uow:    uow,
		bus:    bus,
		logger: logger.With("component", "reconcile"),
	}
}

// Apply routes a canonical event to the matching state machine. A nil
// error with no transition means the event was stale or redelivered.
func (r *Reconciler) Apply(ctx context.Context, ev *provider.WebhookEvent) error {
	switch ev.Kind {
	case provider.EventDeposit:
		return r.applyDeposit(ctx, ev)
	case provider.EventWithdrawal:
		return r.applyWithdrawal(ctx, ev)
	default:
		return fmt.Errorf("unknown webhook event kind %q", ev.Kind)
	}
}

func (r *Reconciler) applyDeposit(ctx context.Context, ev *provider.WebhookEvent) error {
	dep, err := r.findDeposit(ctx, ev)
	if err != nil {
		return err
	}
	log := r.logger.With("transaction_id", dep.ID, "external_id", dep.ExternalID)

	if dep.Status.Terminal() {
		log.Info("deposit already settled, ignoring webhook", "status", dep.Status)
		return nil
	}

	if !ev.Paid {
		moved, err := r.uow.Repos().Deposits.UpdateStatus(ctx, dep.ID, domain.DepositWaitingApproval, domain.DepositCancelled)
		if err != nil {
			return fmt.Errorf("cancelling deposit: %w", err)
		}
		if !moved {
			log.Info("deposit cancel lost the race, ignoring")
			return nil
		}
		log.Info("deposit cancelled", "reason", ev.Reason)
		r.emit(ctx, events.DepositCancelled{
			TransactionID: dep.ID,
			ExternalID:    dep.ExternalID,
			AccountID:     dep.AccountID,
			CallbackURL:   dep.CallbackURL,
		}, log)
		return nil
	}

	if !ev.Amount.IsZero() && !ev.Amount.Equal(dep.Gross) {
		log.Warn("settled amount differs from charge",
			"charged", dep.Gross, "settled", ev.Amount)
	}

	// Status flip and balance credit commit together; the CAS makes a
	// redelivered confirmation a no-op before any credit happens.
	var moved bool
	err = r.uow.Do(ctx, func(repos repository.Repositories) error {
		moved, err = repos.Deposits.UpdateStatus(ctx, dep.ID, domain.DepositWaitingApproval, domain.DepositReleased)
		if err != nil {
			return fmt.Errorf("releasing deposit: %w", err)
		}
		if !moved {
			return nil
		}
		return repos.Accounts.IncrementBalance(ctx, dep.AccountID, dep.Net)
	})
	if err != nil {
		return err
	}
	if !moved {
		log.Info("deposit release lost the race, ignoring")
		return nil
	}

	log.Info("deposit released", "net", dep.Net, "e2e_id", ev.EndToEndID)
	r.emit(ctx, events.DepositReleased{
		TransactionID: dep.ID,
		ExternalID:    dep.ExternalID,
		AccountID:     dep.AccountID,
		Net:           dep.Net,
		CallbackURL:   dep.CallbackURL,
	}, log)
	return nil
}

func (r *Reconciler) applyWithdrawal(ctx context.Context, ev *provider.WebhookEvent) error {
	w, err := r.findWithdrawal(ctx, ev)
	if err != nil {
		return err
	}
	log := r.logger.With("transaction_id", w.ID, "external_id", w.ExternalID)

	if w.Status.Terminal() {
		log.Info("withdrawal already settled, ignoring webhook", "status", w.Status)
		return nil
	}

	target := domain.WithdrawalCompleted
	if !ev.Paid {
		target = domain.WithdrawalFailed
	}

	var moved bool
	err = r.uow.Do(ctx, func(repos repository.Repositories) error {
		moved, err = repos.Withdrawals.UpdateStatus(ctx, w.ID, w.Status, target)
		if err != nil {
			return fmt.Errorf("settling withdrawal: %w", err)
		}
		if !moved {
			return nil
		}
		if target == domain.WithdrawalCompleted {
			return repos.Accounts.AddWithdrawn(ctx, w.AccountID, w.Gross)
		}
		return r.refundIfDebited(ctx, repos, w)
	})
	if err != nil {
		return err
	}
	if !moved {
		log.Info("withdrawal settle lost the race, ignoring")
		return nil
	}

	log.Info("withdrawal settled", "status", target, "reason", ev.Reason)
	r.emit(ctx, events.WithdrawalFinalized{
		TransactionID: w.ID,
		ExternalID:    w.ExternalID,
		AccountID:     w.AccountID,
		Status:        string(target),
		CallbackURL:   w.CallbackURL,
	}, log)
	return nil
}

// refundIfDebited returns the debited total to the payer after a failed
// withdrawal. Any withdrawal the provider reported on was in PENDING and
// therefore already debited, at request time for automatic flows or at
// admin release for manual ones. The refunded flag flip guarantees the
// refund happens at most once even under concurrent failure webhooks.
func (r *Reconciler) refundIfDebited(ctx context.Context, repos repository.Repositories, w *domain.Withdrawal) error {
	if w.Status != domain.WithdrawalPending {
		return nil
	}
	won, err := repos.Withdrawals.MarkRefunded(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("marking withdrawal refunded: %w", err)
	}
	if !won {
		return nil
	}
	if err := repos.Accounts.IncrementBalance(ctx, w.AccountID, w.TotalDebited); err != nil {
		return fmt.Errorf("refunding withdrawal: %w", err)
	}
	r.logger.Info("withdrawal refunded", "transaction_id", w.ID, "amount", w.TotalDebited)
	return nil
}

func (r *Reconciler) findDeposit(ctx context.Context, ev *provider.WebhookEvent) (*domain.Deposit, error) {
	repos := r.uow.Repos()
	if ev.ExternalID != "" {
		dep, err := repos.Deposits.GetByExternalID(ctx, ev.ExternalID)
		if err == nil {
			return dep, nil
		}
	}
	if ev.ProviderRef != "" {
		dep, err := repos.Deposits.GetByProviderRef(ctx, ev.ProviderRef)
		if err == nil {
			return dep, nil
		}
	}
	return nil, fmt.Errorf("deposit for webhook %q/%q: %w", ev.ExternalID, ev.ProviderRef, domain.ErrTransactionNotFound)
}

func (r *Reconciler) findWithdrawal(ctx context.Context, ev *provider.WebhookEvent) (*domain.Withdrawal, error) {
	repos := r.uow.Repos()
	if ev.ExternalID != "" {
		w, err := repos.Withdrawals.GetByExternalID(ctx, ev.ExternalID)
		if err == nil {
			return w, nil
		}
	}
	if ev.ProviderRef != "" {
		w, err := repos.Withdrawals.GetByProviderRef(ctx, ev.ProviderRef)
		if err == nil {
			return w, nil
		}
	}
	return nil, fmt.Errorf("withdrawal for webhook %q/%q: %w", ev.ExternalID, ev.ProviderRef, domain.ErrTransactionNotFound)
}

// emit publishes a domain event. The ledger transition already
// committed, so a bus failure is logged rather than surfaced to the
// webhook caller.
func (r *Reconciler) emit(ctx context.Context, e eventbus.Event, log *slog.Logger) {
	if err := r.bus.Emit(ctx, e); err != nil {
		log.Error("emitting event", "event", e.Type(), "error", err)
	}
}
