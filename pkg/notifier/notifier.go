// Package notifier delivers transaction status callbacks to merchant
// systems. Delivery is best effort: a merchant endpoint being down never
// fails reconciliation, it only logs.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/andrevalim/pixhub/pkg/events"
)

// DefaultTimeout bounds one callback delivery.
const DefaultTimeout = 10 * time.Second

// Payload is the callback body posted to the merchant's URL.
type Payload struct {
	Status          string `json:"status"`
	IDTransaction   string `json:"idTransaction"`
	TypeTransaction string `json:"typeTransaction"`
}

// Notifier posts status callbacks for finalized transactions.
type Notifier struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a notifier with a bounded-timeout HTTP client.
func New(logger *slog.Logger) *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: DefaultTimeout},
		logger: logger.With("component", "notifier"),
	}
}

// Subscribe registers the notifier on the bus for every event that
// carries a merchant callback.
func (n *Notifier) Subscribe(bus eventbus.Bus) {
	bus.Register(events.TypeDepositReleased, n.onDepositReleased)
	bus.Register(events.TypeDepositCancelled, n.onDepositCancelled)
	bus.Register(events.TypeWithdrawalFinalized, n.onWithdrawalFinalized)
}

func (n *Notifier) onDepositReleased(ctx context.Context, e eventbus.Event) error {
	ev, ok := e.(events.DepositReleased)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", e)
	}
	return n.Notify(ctx, ev.CallbackURL, Payload{
		Status:          string(domain.DepositReleased),
		IDTransaction:   ev.ExternalID,
		TypeTransaction: "PIX",
	})
}

func (n *Notifier) onDepositCancelled(ctx context.Context, e eventbus.Event) error {
	ev, ok := e.(events.DepositCancelled)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", e)
	}
	return n.Notify(ctx, ev.CallbackURL, Payload{
		Status:          string(domain.DepositCancelled),
		IDTransaction:   ev.ExternalID,
		TypeTransaction: "PIX",
	})
}

func (n *Notifier) onWithdrawalFinalized(ctx context.Context, e eventbus.Event) error {
	ev, ok := e.(events.WithdrawalFinalized)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", e)
	}
	return n.Notify(ctx, ev.CallbackURL, Payload{
		Status:          ev.Status,
		IDTransaction:   ev.ExternalID,
		TypeTransaction: "PIX_CASHOUT",
	})
}

// Notify posts one callback. An empty URL means the merchant opted out.
func (n *Notifier) Notify(ctx context.Context, url string, p Payload) error {
	log := n.logger.With("url", url, "transaction", p.IDTransaction, "status", p.Status)
	if url == "" {
		log.Debug("no callback url, skipping")
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Warn("merchant callback failed", "error", err)
		return fmt.Errorf("posting callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn("merchant callback rejected", "http_status", resp.StatusCode)
		return fmt.Errorf("merchant answered %d", resp.StatusCode)
	}

	log.Info("merchant callback delivered", "http_status", resp.StatusCode)
	return nil
}
