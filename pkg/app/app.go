// Package app assembles the services on top of their shared
// dependencies and wires the event handlers onto the bus.
package app

import (
	"log/slog"

	"github.com/andrevalim/pixhub/pkg/config"
	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/andrevalim/pixhub/pkg/notifier"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/andrevalim/pixhub/pkg/reconcile"
	"github.com/andrevalim/pixhub/pkg/repository"
	"github.com/andrevalim/pixhub/pkg/service/payment"
	"github.com/andrevalim/pixhub/pkg/split"
)

// Deps contains the infrastructure dependencies the services are built
// on.
type Deps struct {
	Uow      repository.UnitOfWork
	Registry *provider.Registry
	Creds    provider.CredentialSource
	EventBus eventbus.Bus
	Logger   *slog.Logger
}

// App is the assembled application.
type App struct {
	Deps       *Deps
	Config     *config.App
	Payments   *payment.Service
	Reconciler *reconcile.Reconciler
}

// New builds the services and registers the split engine and merchant
// notifier on the event bus.
func New(deps *Deps, cfg *config.App) *App {
	a := &App{
		Deps:   deps,
		Config: cfg,
	}

	a.Payments = payment.New(
		deps.Uow,
		deps.Registry,
		deps.Creds,
		deps.EventBus,
		payment.Config{
			DefaultProvider:   cfg.Providers.Default,
			ManualWithdrawals: cfg.Payments.ManualWithdrawals,
		},
		deps.Logger,
	)
	a.Reconciler = reconcile.New(deps.Uow, deps.EventBus, deps.Logger)

	a.setupEventBus()
	return a
}

// setupEventBus attaches every handler that reacts to reconciliation
// events: split distribution and the merchant callback.
func (a *App) setupEventBus() {
	split.NewEngine(a.Deps.Uow, a.Deps.Logger).Subscribe(a.Deps.EventBus)
	notifier.New(a.Deps.Logger).Subscribe(a.Deps.EventBus)
}
