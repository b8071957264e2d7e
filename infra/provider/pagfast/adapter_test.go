package pagfast

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/andrevalim/pixhub/pkg/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAdapter(baseURL string) *Adapter {
	return New(Config{
		BaseURL:      baseURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		PixKey:       "merchant@pixhub.dev",
		ChargeExpiry: time.Hour,
	}, testLogger())
}

func TestAuthenticate(t *testing.T) {
	t.Run("exchanges client credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/oauth/token", r.URL.Path)

			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)

			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "grant_type=client_credentials", string(body))

			json.NewEncoder(w).Encode(tokenResponse{
				AccessToken: "tok-123",
				TokenType:   "Bearer",
				ExpiresIn:   600,
			})
		}))
		defer srv.Close()

		creds, err := newAdapter(srv.URL).Authenticate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-123", creds.AccessToken)
		assert.Equal(t, "Bearer", creds.TokenType)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), creds.ExpiresAt, 5*time.Second)
		assert.False(t, creds.Expired(time.Minute))
	})

	t.Run("refused credentials surface ErrAuthFailed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(apiError{Nome: "invalid_client", Mensagem: "credenciais invalidas"})
		}))
		defer srv.Close()

		_, err := newAdapter(srv.URL).Authenticate(context.Background())
		assert.ErrorIs(t, err, domain.ErrAuthFailed)
		assert.Contains(t, err.Error(), "credenciais invalidas")
	})

	t.Run("unreachable acquirer surfaces ErrAuthFailed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, err := newAdapter(srv.URL).Authenticate(context.Background())
		assert.ErrorIs(t, err, domain.ErrAuthFailed)
	})
}

func TestCreateDeposit(t *testing.T) {
	creds := provider.Credentials{AccessToken: "tok-123", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("registers a charge under the external id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v2/cob/order-1", r.URL.Path)
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

			var req cobRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "100.00", req.Valor.Original)
			assert.Equal(t, "merchant@pixhub.dev", req.Chave)
			assert.Equal(t, 3600, req.Calendario.Expiracao)
			require.NotNil(t, req.Devedor)
			assert.Equal(t, "52998224725", req.Devedor.CPF)
			assert.Equal(t, "Maria Silva", req.Devedor.Nome)

			json.NewEncoder(w).Encode(cobResponse{
				TxID:          "order-1",
				CobID:         "cob-777",
				Status:        cobStatusActive,
				Calendario:    cobCalendario{Expiracao: 3600},
				Location:      "https://pix.pagfast.dev/qr/cob-777",
				PixCopiaECola: "00020126pix6304ABCD",
			})
		}))
		defer srv.Close()

		charge, err := newAdapter(srv.URL).CreateDeposit(context.Background(), creds, provider.DepositParams{
			ExternalID: "order-1",
			Amount:     decimal.RequireFromString("100"),
			Customer:   domain.Customer{Name: "Maria Silva", Document: "52998224725"},
		})
		require.NoError(t, err)
		assert.Equal(t, "cob-777", charge.ProviderRef)
		assert.Equal(t, "00020126pix6304ABCD", charge.PaymentCode)
		assert.Equal(t, "https://pix.pagfast.dev/qr/cob-777", charge.QRCodeURL)
		assert.WithinDuration(t, time.Now().Add(time.Hour), charge.ExpiresAt, 5*time.Second)
	})

	t.Run("maps a CNPJ document", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req cobRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotNil(t, req.Devedor)
			assert.Equal(t, "11222333000181", req.Devedor.CNPJ)
			assert.Empty(t, req.Devedor.CPF)
			json.NewEncoder(w).Encode(cobResponse{TxID: "order-2", CobID: "cob-778"})
		}))
		defer srv.Close()

		_, err := newAdapter(srv.URL).CreateDeposit(context.Background(), creds, provider.DepositParams{
			ExternalID: "order-2",
			Amount:     decimal.RequireFromString("10"),
			Customer:   domain.Customer{Name: "ACME LTDA", Document: "11222333000181"},
		})
		require.NoError(t, err)
	})

	t.Run("rejection surfaces ErrProviderRejected with the message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(apiError{Nome: "valor_invalido", Mensagem: "valor abaixo do minimo"})
		}))
		defer srv.Close()

		_, err := newAdapter(srv.URL).CreateDeposit(context.Background(), creds, provider.DepositParams{
			ExternalID: "order-3",
			Amount:     decimal.RequireFromString("0.01"),
		})
		assert.ErrorIs(t, err, domain.ErrProviderRejected)
		assert.Contains(t, err.Error(), "valor abaixo do minimo")
	})

	t.Run("stale token surfaces ErrAuthFailed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := newAdapter(srv.URL).CreateDeposit(context.Background(), creds, provider.DepositParams{
			ExternalID: "order-4",
			Amount:     decimal.RequireFromString("10"),
		})
		assert.ErrorIs(t, err, domain.ErrAuthFailed)
	})

	t.Run("acquirer outage surfaces ErrNetworkFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newAdapter(srv.URL).CreateDeposit(context.Background(), creds, provider.DepositParams{
			ExternalID: "order-5",
			Amount:     decimal.RequireFromString("10"),
		})
		assert.ErrorIs(t, err, domain.ErrNetworkFailure)
	})
}

func TestCreateWithdrawal(t *testing.T) {
	creds := provider.Credentials{AccessToken: "tok-123", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("sends the pix and reports processing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v2/pix/wd-1", r.URL.Path)

			var req sendRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "48.00", req.Valor)
			assert.Equal(t, "merchant@pixhub.dev", req.Pagador.Chave)
			assert.Equal(t, "dest@example.com", req.Favorecido.Chave)

			json.NewEncoder(w).Encode(sendResponse{
				IDEnvio:    "wd-1",
				EndToEndID: "E00038166202608310001",
				Status:     sendStatusProcessing,
			})
		}))
		defer srv.Close()

		transfer, err := newAdapter(srv.URL).CreateWithdrawal(context.Background(), creds, provider.WithdrawalParams{
			ExternalID: "wd-1",
			Amount:     decimal.RequireFromString("48"),
			PixKey:     "dest@example.com",
			PixKeyType: domain.PixKeyEmail,
		})
		require.NoError(t, err)
		assert.Equal(t, "E00038166202608310001", transfer.ProviderRef)
		assert.Equal(t, domain.WithdrawalPending, transfer.Status)
	})

	t.Run("synchronous refusal maps to FAILED", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(sendResponse{IDEnvio: "wd-2", Status: sendStatusFailed})
		}))
		defer srv.Close()

		transfer, err := newAdapter(srv.URL).CreateWithdrawal(context.Background(), creds, provider.WithdrawalParams{
			ExternalID: "wd-2",
			Amount:     decimal.RequireFromString("10"),
			PixKey:     "dest@example.com",
			PixKeyType: domain.PixKeyEmail,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.WithdrawalFailed, transfer.Status)
	})
}

func TestTranslateWebhook(t *testing.T) {
	a := newAdapter("http://unused")

	t.Run("settled charge", func(t *testing.T) {
		ev, err := a.TranslateWebhook([]byte(`{"pix":[{
			"txid":"order-1","cobId":"cob-777","endToEndId":"E123",
			"valor":"100.00","status":"CONCLUIDA"}]}`))
		require.NoError(t, err)
		assert.Equal(t, provider.EventDeposit, ev.Kind)
		assert.Equal(t, "order-1", ev.ExternalID)
		assert.Equal(t, "cob-777", ev.ProviderRef)
		assert.True(t, ev.Paid)
		assert.True(t, ev.Amount.Equal(decimal.RequireFromString("100")))
		assert.Equal(t, "E123", ev.EndToEndID)
	})

	t.Run("expired charge", func(t *testing.T) {
		ev, err := a.TranslateWebhook([]byte(`{"pix":[{
			"txid":"order-1","cobId":"cob-777","status":"REMOVIDA_PELO_PSP"}]}`))
		require.NoError(t, err)
		assert.Equal(t, provider.EventDeposit, ev.Kind)
		assert.False(t, ev.Paid)
	})

	t.Run("settled transfer", func(t *testing.T) {
		ev, err := a.TranslateWebhook([]byte(`{"pix":[{
			"idEnvio":"wd-1","endToEndId":"E456","valor":"48.00","status":"REALIZADO"}]}`))
		require.NoError(t, err)
		assert.Equal(t, provider.EventWithdrawal, ev.Kind)
		assert.Equal(t, "wd-1", ev.ExternalID)
		assert.Equal(t, "E456", ev.ProviderRef)
		assert.True(t, ev.Paid)
	})

	t.Run("failed transfer carries the reason", func(t *testing.T) {
		ev, err := a.TranslateWebhook([]byte(`{"pix":[{
			"idEnvio":"wd-1","status":"NAO_REALIZADO","motivo":"chave inexistente"}]}`))
		require.NoError(t, err)
		assert.Equal(t, provider.EventWithdrawal, ev.Kind)
		assert.False(t, ev.Paid)
		assert.Equal(t, "chave inexistente", ev.Reason)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := a.TranslateWebhook([]byte(`{`))
		assert.Error(t, err)
	})

	t.Run("empty pix envelope", func(t *testing.T) {
		_, err := a.TranslateWebhook([]byte(`{"pix":[]}`))
		assert.Error(t, err)
	})

	t.Run("unparsable amount", func(t *testing.T) {
		_, err := a.TranslateWebhook([]byte(`{"pix":[{"txid":"order-1","valor":"abc","status":"CONCLUIDA"}]}`))
		assert.Error(t, err)
	})
}
