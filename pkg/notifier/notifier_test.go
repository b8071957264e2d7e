package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andrevalim/pixhub/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier() *Notifier {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNotifyPostsPayload(t *testing.T) {
	var got Payload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestNotifier().Notify(context.Background(), srv.URL, Payload{
		Status:          "RELEASE",
		IDTransaction:   "order-1",
		TypeTransaction: "PIX",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "RELEASE", got.Status)
	assert.Equal(t, "order-1", got.IDTransaction)
	assert.Equal(t, "PIX", got.TypeTransaction)
}

func TestNotifySkipsEmptyURL(t *testing.T) {
	err := newTestNotifier().Notify(context.Background(), "", Payload{Status: "RELEASE"})
	assert.NoError(t, err)
}

func TestNotifyReportsMerchantError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier().Notify(context.Background(), srv.URL, Payload{Status: "RELEASE"})
	assert.ErrorContains(t, err, "500")
}

func TestNotifyReportsUnreachableMerchant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	err := newTestNotifier().Notify(context.Background(), srv.URL, Payload{Status: "RELEASE"})
	assert.Error(t, err)
}

func TestHandlersTranslateEvents(t *testing.T) {
	var got []Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		got = append(got, p)
	}))
	defer srv.Close()

	n := newTestNotifier()
	ctx := context.Background()

	require.NoError(t, n.onDepositReleased(ctx, events.DepositReleased{
		ExternalID: "dep-1", CallbackURL: srv.URL,
	}))
	require.NoError(t, n.onWithdrawalFinalized(ctx, events.WithdrawalFinalized{
		ExternalID: "wd-1", Status: "COMPLETED", CallbackURL: srv.URL,
	}))

	require.Len(t, got, 2)
	assert.Equal(t, Payload{Status: "RELEASE", IDTransaction: "dep-1", TypeTransaction: "PIX"}, got[0])
	assert.Equal(t, Payload{Status: "COMPLETED", IDTransaction: "wd-1", TypeTransaction: "PIX_CASHOUT"}, got[1])
}
