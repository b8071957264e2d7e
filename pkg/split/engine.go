// Package split converts a released deposit's fee into payouts for
// managers, affiliates and one-off partners. Only the percentage-computed
// portion of the fee is ever distributed; the principal and any fixed fee
// stay untouched.
package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Result reports the outcome of one directive applied to one deposit.
type Result struct {
	DirectiveID uuid.UUID
	Kind        domain.SplitKind
	Status      domain.SplitExecutionStatus
	Amount      decimal.Decimal
	Error       string
}

// Outcome aggregates per-directive results. Skipped means a non-failed
// execution already existed, so the whole call was an idempotent no-op.
type Outcome struct {
	Skipped bool
	Results []Result
}

// Engine executes split payouts against the ledger.
type Engine struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a split engine over the given unit of work.
func NewEngine(uow repository.UnitOfWork, logger *slog.Logger) *Engine {
	return &Engine{
		uow:    uow,
		logger: logger.With("component", "split"),
		now:    time.Now,
	}
}

// Process distributes the splittable fee base of a released deposit.
//
// The guard in step one plus the unique index on (directive, transaction)
// make the whole call safe against webhook redelivery: the second
// delivery either sees an existing non-failed execution and skips, or
// loses the insert race and skips that directive. A failure in one
// directive never rolls back or blocks its siblings.
func (e *Engine) Process(ctx context.Context, dep *domain.Deposit, payer *domain.Account) (*Outcome, error) {
	log := e.logger.With("transaction_id", dep.ID, "account_id", payer.ID)

	existing, err := e.uow.Repos().Splits.ListExecutionsByTransaction(ctx, dep.ID)
	if err != nil {
		return nil, fmt.Errorf("listing split executions: %w", err)
	}
	for _, ex := range existing {
		if ex.Status != domain.SplitFailed {
			log.Info("split already executed, skipping", "execution_id", ex.ID)
			return &Outcome{Skipped: true}, nil
		}
	}

	// A FIXED fee has no splittable base: no split executes regardless of
	// configured directives.
	if dep.FeeKind == domain.FeeFixed || dep.SplitBase.LessThanOrEqual(decimal.Zero) {
		log.Debug("no splittable base", "fee_kind", dep.FeeKind)
		return &Outcome{}, nil
	}

	directives, err := e.collectDirectives(ctx, dep, payer, existing)
	if err != nil {
		return nil, err
	}
	if len(directives) == 0 {
		return &Outcome{}, nil
	}

	out := &Outcome{}
	for _, dir := range directives {
		res := e.execute(ctx, dep, payer, dir, log)
		out.Results = append(out.Results, res)
	}
	return out, nil
}

// collectDirectives gathers the one-off directive attached to the deposit
// plus the payer's standing manager/affiliate rules, materializing a
// standing rule the first time a qualifying deposit is processed. failed
// holds this transaction's earlier FAILED executions, whose one-off
// directive is reused on retry.
func (e *Engine) collectDirectives(
	ctx context.Context,
	dep *domain.Deposit,
	payer *domain.Account,
	failed []*domain.SplitExecution,
) ([]*domain.SplitDirective, error) {
	repos := e.uow.Repos()
	var out []*domain.SplitDirective

	if s := dep.Split; s != nil {
		dir, err := e.oneOffDirective(ctx, payer, s, failed)
		if err != nil {
			return nil, err
		}
		out = append(out, dir)
	}

	standing := []struct {
		kind        domain.SplitKind
		beneficiary *uuid.UUID
		pct         decimal.Decimal
	}{
		{domain.SplitManager, payer.ManagerID, payer.ManagerPct},
		{domain.SplitAffiliate, payer.AffiliateID, payer.AffiliatePct},
	}
	for _, s := range standing {
		if s.beneficiary == nil || s.pct.LessThanOrEqual(decimal.Zero) {
			continue
		}
		dir, err := repos.Splits.FindStandingDirective(ctx, s.kind, payer.ID)
		if err != nil {
			return nil, fmt.Errorf("finding %s directive: %w", s.kind, err)
		}
		if dir == nil {
			dir = &domain.SplitDirective{
				ID:             uuid.New(),
				Kind:           s.kind,
				PayerAccountID: payer.ID,
				BeneficiaryID:  *s.beneficiary,
				Percentage:     s.pct,
				CreatedAt:      e.now(),
			}
			if err := repos.Splits.CreateDirective(ctx, dir); err != nil {
				return nil, fmt.Errorf("materializing %s directive: %w", s.kind, err)
			}
			e.logger.Info("standing split rule materialized",
				"kind", s.kind, "payer", payer.ID, "beneficiary", *s.beneficiary)
		}
		out = append(out, dir)
	}
	return out, nil
}

// oneOffDirective resolves the directive for an inline split. A retry
// after a FAILED execution reuses the directive that execution belongs
// to, so the reclaim on (directive, transaction) finds the same row
// instead of minting an orphan sibling.
func (e *Engine) oneOffDirective(
	ctx context.Context,
	payer *domain.Account,
	s *domain.InlineSplit,
	failed []*domain.SplitExecution,
) (*domain.SplitDirective, error) {
	repos := e.uow.Repos()
	for _, ex := range failed {
		dir, err := repos.Splits.GetDirective(ctx, ex.DirectiveID)
		if err != nil {
			return nil, fmt.Errorf("loading directive %s: %w", ex.DirectiveID, err)
		}
		if dir.Kind == domain.SplitOneOff {
			return dir, nil
		}
	}

	dir := &domain.SplitDirective{
		ID:               uuid.New(),
		Kind:             domain.SplitOneOff,
		PayerAccountID:   payer.ID,
		BeneficiaryEmail: s.BeneficiaryEmail,
		Percentage:       s.Percentage,
		CreatedAt:        e.now(),
	}
	if err := repos.Splits.CreateDirective(ctx, dir); err != nil {
		return nil, fmt.Errorf("creating one-off directive: %w", err)
	}
	return dir, nil
}

// execute runs one directive to a terminal execution state. The row is
// claimed with a PROCESSING insert first, so a concurrent redelivery that
// loses the unique-index race skips cleanly; afterwards the credit,
// debit and COMPLETED mark commit as one ledger transaction.
func (e *Engine) execute(
	ctx context.Context,
	dep *domain.Deposit,
	payer *domain.Account,
	dir *domain.SplitDirective,
	log *slog.Logger,
) Result {
	repos := e.uow.Repos()
	log = log.With("directive_id", dir.ID, "kind", dir.Kind)

	amount := dep.SplitBase.Mul(dir.Percentage).Div(hundred)

	exec := &domain.SplitExecution{
		ID:            uuid.New(),
		DirectiveID:   dir.ID,
		TransactionID: dep.ID,
		BaseAmount:    dep.SplitBase,
		SplitAmount:   amount,
		Status:        domain.SplitProcessing,
		CreatedAt:     e.now(),
	}

	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(dep.SplitBase) {
		exec.Status = domain.SplitFailed
		exec.ErrorMessage = fmt.Sprintf("split amount %s outside (0, %s]", amount, dep.SplitBase)
		if err := repos.Splits.CreateExecution(ctx, exec); err != nil {
			log.Error("recording rejected split", "error", err)
		}
		return e.result(dir, exec)
	}

	if err := repos.Splits.CreateExecution(ctx, exec); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			log.Info("execution already claimed for directive, skipping")
			return Result{DirectiveID: dir.ID, Kind: dir.Kind, Status: domain.SplitCompleted,
				Error: domain.ErrDuplicateExecution.Error()}
		}
		log.Error("claiming split execution", "error", err)
		return Result{DirectiveID: dir.ID, Kind: dir.Kind, Status: domain.SplitFailed, Error: err.Error()}
	}

	beneficiary, err := e.resolveBeneficiary(ctx, dir)
	if err != nil {
		e.fail(ctx, exec, err, log)
		return e.result(dir, exec)
	}

	err = e.uow.Do(ctx, func(r repository.Repositories) error {
		if err := r.Accounts.IncrementBalance(ctx, beneficiary.ID, amount); err != nil {
			return fmt.Errorf("crediting beneficiary: %w", err)
		}
		if err := r.Accounts.DecrementBalance(ctx, payer.ID, amount); err != nil {
			return fmt.Errorf("debiting payer: %w", err)
		}
		exec.Status = domain.SplitCompleted
		return r.Splits.UpdateExecution(ctx, exec)
	})
	if err != nil {
		e.fail(ctx, exec, err, log)
		return e.result(dir, exec)
	}

	log.Info("split executed",
		"beneficiary", beneficiary.ID, "amount", amount, "base", dep.SplitBase)
	return e.result(dir, exec)
}

func (e *Engine) resolveBeneficiary(ctx context.Context, dir *domain.SplitDirective) (*domain.Account, error) {
	repos := e.uow.Repos()
	if dir.BeneficiaryID != uuid.Nil {
		acc, err := repos.Accounts.Get(ctx, dir.BeneficiaryID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBeneficiaryNotFound, err)
		}
		return acc, nil
	}
	acc, err := repos.Accounts.GetByEmail(ctx, dir.BeneficiaryEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBeneficiaryNotFound, err)
	}
	return acc, nil
}

// fail moves an execution to FAILED with the captured reason. An
// execution never stays PROCESSING past the call that claimed it.
func (e *Engine) fail(ctx context.Context, exec *domain.SplitExecution, cause error, log *slog.Logger) {
	exec.Status = domain.SplitFailed
	exec.ErrorMessage = cause.Error()
	if err := e.uow.Repos().Splits.UpdateExecution(ctx, exec); err != nil {
		log.Error("marking split execution failed", "error", err, "cause", cause)
		return
	}
	log.Warn("split execution failed", "error", cause)
}

func (e *Engine) result(dir *domain.SplitDirective, exec *domain.SplitExecution) Result {
	return Result{
		DirectiveID: dir.ID,
		Kind:        dir.Kind,
		Status:      exec.Status,
		Amount:      exec.SplitAmount,
		Error:       exec.ErrorMessage,
	}
}
