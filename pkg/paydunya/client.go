package paydunya

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AmadouLah/pneumback-sub001/pkg/config"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
)

var (
	errMasterKeyRequired  = errors.New("paydunya master key is required")
	errPrivateKeyRequired = errors.New("paydunya private key is required")
	errTokenRequired      = errors.New("paydunya token is required")
)

// Client wraps the PayDunya REST surface used by the platform: invoice
// creation and checkout URL construction. Callback verification lives in
// callback.go.
type Client struct {
	cfg  config.PayDunyaConfig
	http *http.Client
	logg *logger.Logger
}

// NewClient validates the configured credentials and builds the client.
// The HTTP client is bounded by the configured timeout so a hung provider
// surfaces as GatewayUnavailable instead of blocking the caller forever.
func NewClient(ctx context.Context, cfg config.PayDunyaConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.MasterKey) == "" {
		return nil, errMasterKeyRequired
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, errPrivateKeyRequired
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errTokenRequired
	}

	if logg != nil {
		logg.Info(ctx, "paydunya client initialized")
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		logg: logg,
	}, nil
}

// MasterKey exposes the shared secret used for callback hash verification.
func (c *Client) MasterKey() string {
	return c.cfg.MasterKey
}

type createInvoiceRequest struct {
	Invoice invoiceBody `json:"invoice"`
	Actions actionsBody `json:"actions"`
}

type invoiceBody struct {
	TotalAmount int64  `json:"total_amount"`
	Description string `json:"description"`
}

type actionsBody struct {
	CallbackURL string `json:"callback_url"`
}

type createInvoiceResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Token        string `json:"token"`
}

// CreateInvoice registers a payment invoice with the provider and returns the
// opaque invoice token. The call is made exactly once: transport failures and
// timeouts surface as GatewayUnavailable and the retry policy belongs to the
// caller, never to this method.
func (c *Client) CreateInvoice(ctx context.Context, amount int64, description, callbackURL string) (string, error) {
	if amount <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invoice amount must be positive")
	}

	body, err := json.Marshal(createInvoiceRequest{
		Invoice: invoiceBody{TotalAmount: amount, Description: description},
		Actions: actionsBody{CallbackURL: callbackURL},
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode invoice request")
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/checkout-invoice/create"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build invoice request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PAYDUNYA-MASTER-KEY", c.cfg.MasterKey)
	req.Header.Set("PAYDUNYA-PRIVATE-KEY", c.cfg.PrivateKey)
	req.Header.Set("PAYDUNYA-TOKEN", c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, "call payment gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", pkgerrors.New(pkgerrors.CodeGatewayUnavailable, fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}

	var decoded createInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, "decode gateway response")
	}
	if decoded.ResponseCode != responseCodeSuccess {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "gateway rejected invoice").WithDetails(map[string]any{
			"response_code": decoded.ResponseCode,
			"response_text": decoded.ResponseText,
		})
	}
	if strings.TrimSpace(decoded.Token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "gateway returned empty invoice token")
	}

	return decoded.Token, nil
}

// BuildCheckoutURL returns the hosted checkout page for an invoice token.
// Pure string construction, no network call.
func (c *Client) BuildCheckoutURL(token string) string {
	return strings.TrimRight(c.cfg.CheckoutURL, "/") + "/" + token
}
