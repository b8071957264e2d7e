package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/andrevalim/pixhub/internal/fixtures"
	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/events"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newReconciler(ledger *fixtures.MemLedger, bus *fixtures.BusRecorder) *Reconciler {
	return New(ledger, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedDeposit(t *testing.T, ledger *fixtures.MemLedger) (*domain.Account, *domain.Deposit) {
	t.Helper()
	acc := &domain.Account{ID: uuid.New(), Email: "merchant@shop.dev", Balance: decimal.Zero}
	ledger.AddAccount(acc)
	dep := &domain.Deposit{
		ID:          uuid.New(),
		ExternalID:  "dep-1",
		AccountID:   acc.ID,
		ProviderRef: "txid-abc",
		Gross:       dec("100"),
		Net:         dec("95"),
		Fee:         dec("5"),
		FeeKind:     domain.FeePercentage,
		CallbackURL: "https://shop.dev/cb",
		Status:      domain.DepositWaitingApproval,
	}
	require.NoError(t, ledger.Repos().Deposits.Create(context.Background(), dep))
	return acc, dep
}

func seedWithdrawal(t *testing.T, ledger *fixtures.MemLedger, automatic bool) (*domain.Account, *domain.Withdrawal) {
	t.Helper()
	acc := &domain.Account{ID: uuid.New(), Email: "merchant@shop.dev", Balance: dec("10")}
	ledger.AddAccount(acc)
	w := &domain.Withdrawal{
		ID:           uuid.New(),
		ExternalID:   "wd-1",
		AccountID:    acc.ID,
		ProviderRef:  "e2e-xyz",
		Gross:        dec("50"),
		Net:          dec("48"),
		Fee:          dec("2"),
		TotalDebited: dec("50"),
		Automatic:    automatic,
		Status:       domain.WithdrawalPending,
	}
	require.NoError(t, ledger.Repos().Withdrawals.Create(context.Background(), w))
	return acc, w
}

func TestApplyDepositPaid(t *testing.T) {
	ctx := context.Background()
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	acc, dep := seedDeposit(t, ledger)

	ev := &provider.WebhookEvent{
		ExternalID: dep.ExternalID,
		Kind:       provider.EventDeposit,
		Paid:       true,
		Amount:     dec("100"),
		EndToEndID: "E2E123",
	}
	require.NoError(t, newReconciler(ledger, bus).Apply(ctx, ev))

	stored := ledger.Deposits[dep.ID]
	assert.Equal(t, domain.DepositReleased, stored.Status)
	assert.True(t, acc.Balance.Equal(dec("95")), "balance %s", acc.Balance)

	emitted := bus.Emitted(events.TypeDepositReleased)
	require.Len(t, emitted, 1)
	released := emitted[0].(events.DepositReleased)
	assert.Equal(t, dep.ID, released.TransactionID)
	assert.True(t, released.Net.Equal(dec("95")))
	assert.Equal(t, "https://shop.dev/cb", released.CallbackURL)
}

func TestApplyDepositRedeliveryIsNoOp(t *testing.T) {
	ctx := context.Background()
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	acc, dep := seedDeposit(t, ledger)

	ev := &provider.WebhookEvent{ExternalID: dep.ExternalID, Kind: provider.EventDeposit, Paid: true}
	rec := newReconciler(ledger, bus)
	require.NoError(t, rec.Apply(ctx, ev))
	require.NoError(t, rec.Apply(ctx, ev))

	// One credit, one event, despite two deliveries.
	assert.True(t, acc.Balance.Equal(dec("95")), "balance %s", acc.Balance)
	assert.Len(t, bus.Emitted(events.TypeDepositReleased), 1)
}

func TestApplyDepositUnpaidCancels(t *testing.T) {
	ctx := context.Background()
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	acc, dep := seedDeposit(t, ledger)

	ev := &provider.WebhookEvent{
		ExternalID: dep.ExternalID,
		Kind:       provider.EventDeposit,
		Paid:       false,
		Reason:     "charge expired",
	}
	require.NoError(t, newReconciler(ledger, bus).Apply(ctx, ev))

	assert.Equal(t, domain.DepositCancelled, ledger.Deposits[dep.ID].Status)
	assert.True(t, acc.Balance.IsZero())
	assert.Len(t, bus.Emitted(events.TypeDepositCancelled), 1)

	// A late payment confirmation after cancellation does not resurrect it.
	paid := &provider.WebhookEvent{ExternalID: dep.ExternalID, Kind: provider.EventDeposit, Paid: true}
	require.NoError(t, newReconciler(ledger, bus).Apply(ctx, paid))
	assert.Equal(t, domain.DepositCancelled, ledger.Deposits[dep.ID].Status)
	assert.True(t, acc.Balance.IsZero())
}

func TestApplyDepositFallsBackToProviderRef(t *testing.T) {
	ctx := context.Background()
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	_, dep := seedDeposit(t, ledger)

	ev := &provider.WebhookEvent{ProviderRef: "txid-abc", Kind: provider.EventDeposit, Paid: true}
	require.NoError(t, newReconciler(ledger, bus).Apply(ctx, ev))
	assert.Equal(t, domain.DepositReleased, ledger.Deposits[dep.ID].Status)
}

func TestApplyDepositUnknownTransaction(t *testing.T) {
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}

	ev := &provider.WebhookEvent{ExternalID: "ghost", Kind: provider.EventDeposit, Paid: true}
	err := newReconciler(ledger, bus).Apply(context.Background(), ev)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestApplyWithdrawalCompleted(t *testing.T) {
	ctx := context.Background()
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	acc, w := seedWithdrawal(t, ledger, true)

	ev := &provider.WebhookEvent{ExternalID: w.ExternalID, Kind: provider.EventWithdrawal, Paid: true}
	require.NoError(t, newReconciler(ledger, bus).Apply(ctx, ev))

	stored := ledger.Withdrawals[w.ID]
	assert.Equal(t, domain.WithdrawalCompleted, stored.Status)
	assert.False(t, stored.Refunded)
	assert.True(t, acc.Withdrawn.Equal(dec("50")), "withdrawn %s", acc.Withdrawn)
	// Balance untouched: the debit happened at request time.
	assert.True(t, acc.Balance.Equal(dec("10")))

	emitted := bus.Emitted(events.TypeWithdrawalFinalized)
	require.Len(t, emitted, 1)
	fin := emitted[0].(events.WithdrawalFinalized)
	assert.Equal(t, string(domain.WithdrawalCompleted), fin.Status)
}

func TestApplyWithdrawalFailureRefundsOnce(t *testing.T) {
	ctx := context.Background()
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	acc, w := seedWithdrawal(t, ledger, true)

	ev := &provider.WebhookEvent{
		ExternalID: w.ExternalID,
		Kind:       provider.EventWithdrawal,
		Paid:       false,
		Reason:     "key not found",
	}
	rec := newReconciler(ledger, bus)
	require.NoError(t, rec.Apply(ctx, ev))

	stored := ledger.Withdrawals[w.ID]
	assert.Equal(t, domain.WithdrawalFailed, stored.Status)
	assert.True(t, stored.Refunded)
	assert.True(t, acc.Balance.Equal(dec("60")), "balance %s", acc.Balance)

	// Redelivered failure: terminal guard stops it, no second refund.
	require.NoError(t, rec.Apply(ctx, ev))
	assert.True(t, acc.Balance.Equal(dec("60")), "balance %s", acc.Balance)
	assert.Len(t, bus.Emitted(events.TypeWithdrawalFinalized), 1)
}

func TestApplyWithdrawalFailureAfterManualRelease(t *testing.T) {
	ctx := context.Background()
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	// Manual flow already released by an admin, so the debit happened.
	acc, w := seedWithdrawal(t, ledger, false)

	ev := &provider.WebhookEvent{ExternalID: w.ExternalID, Kind: provider.EventWithdrawal, Paid: false}
	require.NoError(t, newReconciler(ledger, bus).Apply(ctx, ev))

	stored := ledger.Withdrawals[w.ID]
	assert.Equal(t, domain.WithdrawalFailed, stored.Status)
	assert.True(t, stored.Refunded)
	assert.True(t, acc.Balance.Equal(dec("60")), "balance %s", acc.Balance)
}

func TestApplyUnknownKind(t *testing.T) {
	ledger := fixtures.NewMemLedger()
	bus := &fixtures.BusRecorder{}
	ev := &provider.WebhookEvent{Kind: "boleto"}
	err := newReconciler(ledger, bus).Apply(context.Background(), ev)
	assert.Error(t, err)
}
