package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"mercato/core"
	"mercato/storage"
)

const testToken = "secret-token"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv(AuthTokenEnv, testToken)
	node := core.NewNode(storage.NewMemDB())
	server := NewServer(node)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func rpcCall(t *testing.T, ts *httptest.Server, token, method string, params interface{}) (*RPCResponse, int) {
	t.Helper()
	encodedParams, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []json.RawMessage{encodedParams},
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := &RPCResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(decoded))
	return decoded, resp.StatusCode
}

func mustResult(t *testing.T, ts *httptest.Server, method string, params interface{}, out interface{}) {
	t.Helper()
	resp, status := rpcCall(t, ts, testToken, method, params)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	encoded, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, out))
}

func testHexAddress(fill byte) string {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return fmt.Sprintf("0x%x", addr)
}

// seedMarket registers a buyer and a seller, adds a product and publishes it
// at price 100 with stock 5. Returns the publication id.
func seedMarket(t *testing.T, ts *httptest.Server, buyer, seller string) uint64 {
	t.Helper()
	var account accountJSON
	mustResult(t, ts, "catalog_register", map[string]interface{}{
		"address": buyer, "username": "buyer", "canBuy": true,
	}, &account)
	mustResult(t, ts, "catalog_register", map[string]interface{}{
		"address": seller, "username": "seller", "canSell": true,
	}, &account)

	var product productJSON
	mustResult(t, ts, "catalog_addProduct", map[string]interface{}{
		"name": "widget", "category": "tools",
	}, &product)

	var pub publicationJSON
	mustResult(t, ts, "catalog_publish", map[string]interface{}{
		"seller": seller, "productId": product.ID, "price": "100", "stock": 5,
	}, &pub)
	return pub.ID
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWriteMethodsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, status := rpcCall(t, ts, "", "catalog_register", map[string]interface{}{
		"address": testHexAddress(0x01), "username": "alice", "canBuy": true,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp, status = rpcCall(t, ts, "wrong-token", "catalog_register", map[string]interface{}{
		"address": testHexAddress(0x01), "username": "alice", "canBuy": true,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
}

func TestMethodNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, status := rpcCall(t, ts, "", "market_unknown", map[string]interface{}{})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestOrderLifecycleOverRPC(t *testing.T) {
	ts := newTestServer(t)
	buyer := testHexAddress(0x01)
	seller := testHexAddress(0x02)
	pubID := seedMarket(t, ts, buyer, seller)

	var balance balanceJSON
	mustResult(t, ts, "ledger_credit", map[string]interface{}{
		"address": buyer, "amount": "1000",
	}, &balance)
	require.Equal(t, "1000", balance.Balance)

	var order orderJSON
	mustResult(t, ts, "market_placeOrder", map[string]interface{}{
		"buyer": buyer, "publicationId": pubID, "quantity": 2, "payment": "balance",
	}, &order)
	require.Equal(t, "pending", order.Status)
	require.Equal(t, "200", order.Total)

	mustResult(t, ts, "ledger_getBalance", map[string]interface{}{"address": buyer}, &balance)
	require.Equal(t, "800", balance.Balance)

	mustResult(t, ts, "market_markShipped", map[string]interface{}{
		"caller": seller, "id": order.ID,
	}, &order)
	require.Equal(t, "shipped", order.Status)

	mustResult(t, ts, "market_markReceived", map[string]interface{}{
		"caller": buyer, "id": order.ID,
	}, &order)
	require.Equal(t, "received", order.Status)

	mustResult(t, ts, "ledger_getBalance", map[string]interface{}{"address": seller}, &balance)
	require.Equal(t, "200", balance.Balance)

	mustResult(t, ts, "market_rate", map[string]interface{}{
		"caller": buyer, "id": order.ID, "score": 5,
	}, &order)
	require.True(t, order.RatedByBuyer)

	var rep reputationJSON
	mustResult(t, ts, "rep_getSellerReputation", map[string]interface{}{"address": seller}, &rep)
	require.Equal(t, uint64(5), rep.Average)
	require.Equal(t, uint64(1), rep.Count)
}

func TestDisputeFlowOverRPC(t *testing.T) {
	ts := newTestServer(t)
	buyer := testHexAddress(0x01)
	seller := testHexAddress(0x02)
	arbiter := testHexAddress(0x03)
	pubID := seedMarket(t, ts, buyer, seller)

	var account accountJSON
	mustResult(t, ts, "catalog_register", map[string]interface{}{
		"address": arbiter, "username": "arbiter", "arbiter": true,
	}, &account)

	var order orderJSON
	mustResult(t, ts, "market_placeOrder", map[string]interface{}{
		"buyer": buyer, "publicationId": pubID, "quantity": 1,
		"payment": "cash", "declared": "100",
	}, &order)

	mustResult(t, ts, "market_openDispute", map[string]interface{}{
		"caller": buyer, "id": order.ID, "reason": "defective",
	}, &order)
	require.Equal(t, "disputed", order.Status)

	mustResult(t, ts, "market_resolveDispute", map[string]interface{}{
		"caller": seller, "id": order.ID, "resolution": "other", "decision": "invalid",
	}, &order)
	require.Equal(t, "pending_arbiter", order.Status)

	mustResult(t, ts, "market_resolveDisputeArbiter", map[string]interface{}{
		"caller": arbiter, "id": order.ID, "resolution": "other", "decision": "valid",
	}, &order)
	require.Equal(t, "resolved", order.Status)
	require.Equal(t, arbiter, order.Arbiter)

	var outcome outcomeJSON
	mustResult(t, ts, "market_getDisputeOutcome", map[string]interface{}{"id": order.ID}, &outcome)
	require.Equal(t, "defective", outcome.Reason)
	require.Equal(t, "other", outcome.Resolution)
}

func TestErrorCodeMapping(t *testing.T) {
	ts := newTestServer(t)
	buyer := testHexAddress(0x01)
	seller := testHexAddress(0x02)
	pubID := seedMarket(t, ts, buyer, seller)

	// Unknown order → not found.
	resp, status := rpcCall(t, ts, "", "market_getOrder", map[string]interface{}{"id": 42})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMarketNotFound, resp.Error.Code)

	// Insufficient balance → conflict.
	resp, status = rpcCall(t, ts, testToken, "market_placeOrder", map[string]interface{}{
		"buyer": buyer, "publicationId": pubID, "quantity": 1, "payment": "balance",
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, codeMarketConflict, resp.Error.Code)

	// Seller cannot buy → forbidden.
	resp, status = rpcCall(t, ts, testToken, "market_placeOrder", map[string]interface{}{
		"buyer": seller, "publicationId": pubID, "quantity": 1, "payment": "cash", "declared": "100",
	})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, codeMarketForbidden, resp.Error.Code)

	// Malformed address → invalid params.
	resp, status = rpcCall(t, ts, testToken, "ledger_credit", map[string]interface{}{
		"address": "nonsense", "amount": "10",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	// Duplicate registration → conflict.
	resp, status = rpcCall(t, ts, testToken, "catalog_register", map[string]interface{}{
		"address": buyer, "username": "again", "canBuy": true,
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, codeMarketConflict, resp.Error.Code)
}
