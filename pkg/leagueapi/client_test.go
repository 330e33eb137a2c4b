package leagueapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(config.LeagueConfig{
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client, server
}

func TestCreateCharge(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/gerar-qr-pix", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"sucesso":      true,
			"transacao_id": "tx_42",
			"qr_code_url":  "https://pix.example/qr/tx_42.png",
			"item_nome":    "Turbo Kit",
			"valor_item":   150.0,
			"taxa":         7.5,
			"valor_total":  157.5,
		})
	}))

	charge, err := client.CreateCharge(context.Background(), "team-token", CreateChargeRequest{
		Kind:   "peca",
		ItemID: "part-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer team-token", gotAuth)
	assert.Equal(t, "peca", gotBody["tipo"])
	assert.Equal(t, "tx_42", charge.TransactionID)
	assert.True(t, charge.AmountTotal.Equal(decimal.NewFromFloat(157.5)))
}

func TestCreateChargeRefused(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"sucesso": false, "erro": "saldo insuficiente"})
	}))

	_, err := client.CreateCharge(context.Background(), "tok", CreateChargeRequest{Kind: "peca", ItemID: "p1"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "saldo insuficiente", typed.Message())
}

func TestChargeStatusShapes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/transacao-pix/flat":
			json.NewEncoder(w).Encode(map[string]any{"status": "pendente"})
		case "/api/transacao-pix/nested":
			json.NewEncoder(w).Encode(map[string]any{"transacao": map[string]any{"status": "aprovado"}})
		case "/api/transacao-pix/paid-flag":
			json.NewEncoder(w).Encode(map[string]any{"pago": true})
		default:
			http.NotFound(w, r)
		}
	}))

	flat, err := client.ChargeStatus(context.Background(), "tok", "flat")
	require.NoError(t, err)
	assert.Equal(t, "pendente", flat.Status)

	nested, err := client.ChargeStatus(context.Background(), "tok", "nested")
	require.NoError(t, err)
	require.NotNil(t, nested.Transaction)
	assert.Equal(t, "aprovado", nested.Transaction.Status)

	paid, err := client.ChargeStatus(context.Background(), "tok", "paid-flag")
	require.NoError(t, err)
	require.NotNil(t, paid.Paid)
	assert.True(t, *paid.Paid)
}

func TestChargeStatusGone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.ChargeStatus(context.Background(), "tok", "tx_gone")
	assert.ErrorIs(t, err, ErrChargeGone)
}

func TestMutationSetsIdempotencyKey(t *testing.T) {
	keys := map[string]bool{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Idempotency-Key")
		require.NotEmpty(t, key)
		keys[key] = true
		json.NewEncoder(w).Encode(map[string]any{"sucesso": true})
	}))

	require.NoError(t, client.StorePartInWarehouse(context.Background(), "tok", "p1"))
	require.NoError(t, client.StorePartInWarehouse(context.Background(), "tok", "p2"))
	assert.Len(t, keys, 2, "each mutation gets a fresh idempotency key")
}

func TestMutationFailureSurfacesReason(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"sucesso": false, "erro": "peça já instalada"})
	}))

	err := client.ActivateCar(context.Background(), "tok", "car-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "peça já instalada")
}

func TestBatchMutationPayloads(t *testing.T) {
	bodies := map[string][]any{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies[r.URL.Path] = body["pecas"].([]any)
		json.NewEncoder(w).Encode(map[string]any{"sucesso": true})
	}))

	require.NoError(t, client.InstallPartsOnActiveCar(context.Background(), "tok", []string{"p1", "p2"}))
	require.NoError(t, client.CreateWarehouseRequests(context.Background(), "tok", []string{"p3"}))

	assert.Equal(t, []any{"p1", "p2"}, bodies["/api/instalar-multiplas-pecas-no-carro-ativo"])
	assert.Equal(t, []any{"p3"}, bodies["/api/garagem/criar-multiplas-solicitacoes-armazem"])
}

func TestViewsRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/garagem/team-1":
			w.Write([]byte(`{"carros":[{"id":"car-1"}]}`))
		case "/api/historico/compras":
			w.Write([]byte(`[{"item":"Turbo Kit"}]`))
		default:
			http.NotFound(w, r)
		}
	}))

	garage, err := client.Garage(context.Background(), "tok", "team-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"carros":[{"id":"car-1"}]}`, string(garage))

	history, err := client.PurchaseHistory(context.Background(), "tok")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"item":"Turbo Kit"}]`, string(history))

	_, err = client.Garage(context.Background(), "tok", "")
	require.Error(t, err)
}

func TestNonOKMutationIsUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := client.StorePartInWarehouse(context.Background(), "tok", "p1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUpstream, typed.Code())
}
