package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const chargeJSON = `{"id":"ch_1","object":"charge","amount":499,"currency":"usd","status":"succeeded","created":1700000000,"metadata":{"user_id":"user-1"}}`

func newTestLedger(t *testing.T, handler http.HandlerFunc) Ledger {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeLedgerWithBackends("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestListCharges_ByCustomer(t *testing.T) {
	var gotPath, gotCustomer string
	l := newTestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCustomer = r.URL.Query().Get("customer")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","url":"/v1/charges","has_more":false,"data":[` + chargeJSON + `]}`))
	})

	charges, err := l.ListCharges(context.Background(), "cus_123")
	require.NoError(t, err)
	assert.Equal(t, "/v1/charges", gotPath)
	assert.Equal(t, "cus_123", gotCustomer)
	require.Len(t, charges, 1)
	assert.Equal(t, access.Charge{
		ID:       "ch_1",
		Amount:   499,
		Currency: "usd",
		Status:   access.ChargeSucceeded,
		Created:  1700000000,
		UserID:   "user-1",
	}, charges[0])
}

func TestListCharges_ByUserMetadata(t *testing.T) {
	var gotPath, gotQuery string
	l := newTestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"search_result","url":"/v1/charges/search","has_more":false,"data":[` + chargeJSON + `]}`))
	})

	charges, err := l.ListCharges(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "/v1/charges/search", gotPath)
	assert.Equal(t, "metadata['user_id']:'user-1'", gotQuery)
	assert.Len(t, charges, 1)
}

func TestListCharges_Empty(t *testing.T) {
	l := newTestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","url":"/v1/charges","has_more":false,"data":[]}`))
	})

	charges, err := l.ListCharges(context.Background(), "cus_123")
	require.NoError(t, err)
	assert.NotNil(t, charges)
	assert.Empty(t, charges)
}

func TestListCharges_NoCustomer(t *testing.T) {
	l := newTestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("ledger must not be called without a customer")
	})

	charges, err := l.ListCharges(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, charges)
}

func TestListCharges_MissingCustomer(t *testing.T) {
	l := newTestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such customer"}}`))
	})

	charges, err := l.ListCharges(context.Background(), "cus_gone")
	require.NoError(t, err)
	assert.Empty(t, charges)
}

func TestListCharges_Unavailable(t *testing.T) {
	l := newTestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	})

	_, err := l.ListCharges(context.Background(), "cus_123")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	assert.True(t, apperrors.Retryable(err))
}
