/*
handlers_test.go - HTTP-level tests for the wallet endpoints

GIVEN an Engine backed by an in-memory fake store, WHEN a request hits
the router, THEN the response status/body match spec section 6 and
section 8's literal scenarios.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wallet-service/internal/dynamo"
	"github.com/warp/wallet-service/internal/wallet"
)

// fakeStore is a minimal in-memory dynamo.Store stand-in, just enough
// to drive the handlers end to end without a real backend.
type fakeStore struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]map[string]types.AttributeValue{}}
}

func (s *fakeStore) Get(ctx context.Context, pk string) (map[string]interface{}, error) {
	item, ok := s.items[pk]
	if !ok {
		return nil, &dynamo.Error{Code: dynamo.CodeNotFound, Message: "not found: " + pk}
	}
	out := map[string]interface{}{}
	for k, v := range item {
		if n, ok := v.(*types.AttributeValueMemberN); ok {
			out[k] = n.Value
		} else if sVal, ok := v.(*types.AttributeValueMemberS); ok {
			out[k] = sVal.Value
		}
	}
	return out, nil
}

func (s *fakeStore) TransactionWriteItems(ctx context.Context, items []types.TransactWriteItem) error {
	reasons := make([]*dynamo.ReasonSlot, len(items))
	failed := false

	for i, it := range items {
		switch {
		case it.Put != nil:
			pk := it.Put.Item["pk"].(*types.AttributeValueMemberS).Value
			if _, exists := s.items[pk]; exists {
				reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed}
				failed = true
			}
		case it.Update != nil:
			pk := it.Update.Key["pk"].(*types.AttributeValueMemberS).Value
			current, exists := s.items[pk]
			cond := *it.Update.ConditionExpression
			if cond == "attribute_exists(pk)" && !exists {
				reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed}
				failed = true
			}
			if cond == "attribute_exists(pk) AND #bal >= :n" {
				if !exists {
					reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed}
					failed = true
				} else {
					n := decimal.RequireFromString(it.Update.ExpressionAttributeValues[":n"].(*types.AttributeValueMemberN).Value)
					bal := decimal.RequireFromString(current["balance"].(*types.AttributeValueMemberN).Value)
					if bal.LessThan(n) {
						reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed}
						failed = true
					}
				}
			}
		}
	}

	if failed {
		return &dynamo.Error{Code: dynamo.CodeMultiOpCancelled, Reasons: reasons}
	}

	for _, it := range items {
		switch {
		case it.Put != nil:
			pk := it.Put.Item["pk"].(*types.AttributeValueMemberS).Value
			s.items[pk] = it.Put.Item
		case it.Update != nil:
			pk := it.Update.Key["pk"].(*types.AttributeValueMemberS).Value
			current := s.items[pk]
			n := decimal.RequireFromString(it.Update.ExpressionAttributeValues[":n"].(*types.AttributeValueMemberN).Value)
			bal := decimal.RequireFromString(current["balance"].(*types.AttributeValueMemberN).Value)
			if *it.Update.UpdateExpression == "SET #bal = #bal + :n" {
				bal = bal.Add(n)
			} else {
				bal = bal.Sub(n)
			}
			current["balance"] = &types.AttributeValueMemberN{Value: bal.String()}
			s.items[pk] = current
		}
	}
	return nil
}

func newTestRouter() *chi.Mux {
	engine := wallet.NewEngine(newFakeStore(), dynamo.NewItemFactory("wallet"), 1800, func() int64 { return 1000 })
	return NewRouter(NewHandler(engine))
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateWallet_SecondForSameUserConflicts(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wallets/", CreateWalletRequest{UserID: "U1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var created WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "0", created.Balance)

	rec2 := doRequest(t, router, http.MethodPost, "/api/v1/wallets/", CreateWalletRequest{UserID: "U1"})
	assert.Equal(t, http.StatusConflict, rec2.Code)
}

func TestDepositThenBalanceThenReplay(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wallets/", CreateWalletRequest{UserID: "U1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	depositPath := "/api/v1/wallets/" + created.ID + "/deposit"
	rec = doRequest(t, router, http.MethodPut, depositPath, AmountRequest{Amount: "1000", Nonce: "abcdef01"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/wallets/"+created.ID+"/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "1000", balance.Balance)

	rec = doRequest(t, router, http.MethodPut, depositPath, AmountRequest{Amount: "1000", Nonce: "abcdef01"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "abcdef01")
}

func TestTransferBetweenWallets(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wallets/", CreateWalletRequest{UserID: "U1"})
	var w1 WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w1))

	rec = doRequest(t, router, http.MethodPost, "/api/v1/wallets/", CreateWalletRequest{UserID: "U2"})
	var w2 WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w2))

	rec = doRequest(t, router, http.MethodPut, "/api/v1/wallets/"+w1.ID+"/deposit", AmountRequest{Amount: "1000", Nonce: "abcdef01"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/v1/wallets/"+w1.ID+"/transfer/"+w2.ID, AmountRequest{Amount: "100", Nonce: "deadbeef"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/wallets/"+w1.ID+"/balance", nil)
	var b1 WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b1))
	assert.Equal(t, "900", b1.Balance)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/wallets/"+w2.ID+"/balance", nil)
	var b2 WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b2))
	assert.Equal(t, "100", b2.Balance)
}

func TestTransferToMissingTargetIs404(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wallets/", CreateWalletRequest{UserID: "U1"})
	var w1 WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w1))
	doRequest(t, router, http.MethodPut, "/api/v1/wallets/"+w1.ID+"/deposit", AmountRequest{Amount: "1000", Nonce: "abcdef01"})

	rec = doRequest(t, router, http.MethodPut, "/api/v1/wallets/"+w1.ID+"/transfer/missing-target", AmountRequest{Amount: "1", Nonce: "deadbeef"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBalance_MissingWalletIs404(t *testing.T) {
	router := newTestRouter()
	rec := doRequest(t, router, http.MethodGet, "/api/v1/wallets/missing/balance", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeposit_InvalidAmountIs422(t *testing.T) {
	router := newTestRouter()
	rec := doRequest(t, router, http.MethodPost, "/api/v1/wallets/", CreateWalletRequest{UserID: "U1"})
	var w1 WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w1))

	rec = doRequest(t, router, http.MethodPut, "/api/v1/wallets/"+w1.ID+"/deposit", AmountRequest{Amount: "0", Nonce: "abcdef01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/v1/wallets/"+w1.ID+"/deposit", AmountRequest{Amount: "-5", Nonce: "abcdef01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/v1/wallets/"+w1.ID+"/deposit", AmountRequest{Amount: "10", Nonce: "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
