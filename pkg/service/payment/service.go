// Package payment orchestrates the full life of a PIX transaction:
// validation, fee computation, id allocation, the provider call and the
// initial persist. Reconciliation of provider webhooks lives in
// package reconcile; this package owns everything up to the first
// committed row.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andrevalim/pixhub/pkg/allocator"
	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/andrevalim/pixhub/pkg/repository"
)

// Config tunes orchestration behavior.
type Config struct {
	// DefaultProvider is the adapter slug used when a request does not
	// name one.
	DefaultProvider string
	// ManualWithdrawals routes every withdrawal through admin approval
	// instead of paying out automatically.
	ManualWithdrawals bool
}

// Service is the payment orchestrator.
type Service struct {
	uow       repository.UnitOfWork
	providers *provider.Registry
	creds     provider.CredentialSource
	bus       eventbus.Bus
	cfg       Config
	logger    *slog.Logger

	depositIDs    *allocator.Allocator
	withdrawalIDs *allocator.Allocator

	now func() time.Time
}

// New creates the orchestrator.
func New(
	uow repository.UnitOfWork,
	providers *provider.Registry,
	creds provider.CredentialSource,
	bus eventbus.Bus,
	cfg Config,
	logger *slog.Logger,
) *Service {
	logger = logger.With("component", "payment")
	return &Service{
		uow:           uow,
		providers:     providers,
		creds:         creds,
		bus:           bus,
		cfg:           cfg,
		logger:        logger,
		depositIDs:    allocator.New(depositLookup{uow}, logger),
		withdrawalIDs: allocator.New(withdrawalLookup{uow}, logger),
		now:           time.Now,
	}
}

// adapter resolves the adapter for a request, falling back to the
// configured default slug.
func (s *Service) adapter(slug string) (provider.Adapter, error) {
	if slug == "" {
		slug = s.cfg.DefaultProvider
	}
	return s.providers.Get(slug)
}

// withCredentials runs call with valid credentials, retrying exactly once
// with fresh ones when the acquirer rejects the token mid-lifetime.
func (s *Service) withCredentials(
	ctx context.Context,
	a provider.Adapter,
	call func(creds provider.Credentials) error,
) error {
	creds, err := s.creds.Credentials(ctx, a)
	if err != nil {
		return fmt.Errorf("authenticating at %s: %w", a.Slug(), err)
	}
	err = call(creds)
	if !errors.Is(err, domain.ErrAuthFailed) {
		return err
	}

	s.logger.Warn("provider rejected credentials, re-authenticating", "provider", a.Slug())
	s.creds.Invalidate(ctx, a.Slug())
	creds, err = s.creds.Credentials(ctx, a)
	if err != nil {
		return fmt.Errorf("re-authenticating at %s: %w", a.Slug(), err)
	}
	return call(creds)
}

// depositLookup adapts the deposit repository to the allocator contract.
type depositLookup struct {
	uow repository.UnitOfWork
}

func (l depositLookup) ByExternalID(ctx context.Context, externalID string) (allocator.Record, error) {
	dep, err := l.uow.Repos().Deposits.GetByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return allocator.Record{}, nil
	}
	if err != nil {
		return allocator.Record{}, err
	}
	return allocator.Record{Found: true, TerminalFailed: dep.Status == domain.DepositCancelled}, nil
}

// withdrawalLookup adapts the withdrawal repository to the allocator
// contract.
type withdrawalLookup struct {
	uow repository.UnitOfWork
}

func (l withdrawalLookup) ByExternalID(ctx context.Context, externalID string) (allocator.Record, error) {
	w, err := l.uow.Repos().Withdrawals.GetByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return allocator.Record{}, nil
	}
	if err != nil {
		return allocator.Record{}, err
	}
	return allocator.Record{Found: true, TerminalFailed: w.Status.Failed()}, nil
}
