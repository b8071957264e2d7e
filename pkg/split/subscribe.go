package split

import (
	"context"
	"fmt"

	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/andrevalim/pixhub/pkg/events"
)

// Subscribe registers the engine on the bus so every released deposit
// gets its fee distributed.
func (e *Engine) Subscribe(bus eventbus.Bus) {
	bus.Register(events.TypeDepositReleased, e.onDepositReleased)
}

func (e *Engine) onDepositReleased(ctx context.Context, ev eventbus.Event) error {
	released, ok := ev.(events.DepositReleased)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", ev)
	}

	repos := e.uow.Repos()
	dep, err := repos.Deposits.Get(ctx, released.TransactionID)
	if err != nil {
		return fmt.Errorf("loading released deposit: %w", err)
	}
	payer, err := repos.Accounts.Get(ctx, dep.AccountID)
	if err != nil {
		return fmt.Errorf("loading payer account: %w", err)
	}

	_, err = e.Process(ctx, dep, payer)
	return err
}
