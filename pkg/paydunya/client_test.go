package paydunya

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmadouLah/pneumback-sub001/pkg/config"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
)

func testConfig(baseURL string) config.PayDunyaConfig {
	return config.PayDunyaConfig{
		BaseURL:     baseURL,
		CheckoutURL: "https://checkout.example.com/invoice",
		MasterKey:   "master-key",
		PrivateKey:  "private-key",
		Token:       "api-token",
		Timeout:     2 * time.Second,
	}
}

func TestNewClientValidatesCredentials(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig("https://api.example.com")
	cfg.MasterKey = ""
	_, err := NewClient(ctx, cfg, nil)
	require.ErrorIs(t, err, errMasterKeyRequired)

	cfg = testConfig("https://api.example.com")
	cfg.PrivateKey = " "
	_, err = NewClient(ctx, cfg, nil)
	require.ErrorIs(t, err, errPrivateKeyRequired)

	cfg = testConfig("https://api.example.com")
	cfg.Token = ""
	_, err = NewClient(ctx, cfg, nil)
	require.ErrorIs(t, err, errTokenRequired)
}

func TestCreateInvoiceSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout-invoice/create", r.URL.Path)
		assert.Equal(t, "master-key", r.Header.Get("PAYDUNYA-MASTER-KEY"))
		assert.Equal(t, "private-key", r.Header.Get("PAYDUNYA-PRIVATE-KEY"))
		assert.Equal(t, "api-token", r.Header.Get("PAYDUNYA-TOKEN"))

		var req createInvoiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(144000), req.Invoice.TotalAmount)
		assert.Equal(t, "https://api.pneum.test/webhooks/paydunya", req.Actions.CallbackURL)

		json.NewEncoder(w).Encode(createInvoiceResponse{ResponseCode: "00", Token: "tok-1"})
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(srv.URL), nil)
	require.NoError(t, err)

	token, err := client.CreateInvoice(context.Background(), 144000, "Devis DEV-2026-000123", "https://api.pneum.test/webhooks/paydunya")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestCreateInvoiceGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(srv.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateInvoice(context.Background(), 1000, "d", "cb")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeGatewayUnavailable, appErr.Code())
}

func TestCreateInvoiceRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createInvoiceResponse{ResponseCode: "1001", ResponseText: "invalid keys"})
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(srv.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateInvoice(context.Background(), 1000, "d", "cb")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}

func TestCreateInvoiceRejectsNonPositiveAmount(t *testing.T) {
	client, err := NewClient(context.Background(), testConfig("https://api.example.com"), nil)
	require.NoError(t, err)

	_, err = client.CreateInvoice(context.Background(), 0, "d", "cb")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestBuildCheckoutURL(t *testing.T) {
	client, err := NewClient(context.Background(), testConfig("https://api.example.com"), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example.com/invoice/tok-1", client.BuildCheckoutURL("tok-1"))
}
