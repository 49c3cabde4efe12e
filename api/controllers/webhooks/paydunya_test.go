package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AmadouLah/pneumback-sub001/internal/payments"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
)

type testReconciler struct {
	outcome payments.Outcome
	err     error
	body    []byte
}

func (r *testReconciler) Reconcile(ctx context.Context, rawBody []byte) (payments.Outcome, error) {
	r.body = rawBody
	return r.outcome, r.err
}

func webhookLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestPayDunyaWebhookAcknowledgesRejection(t *testing.T) {
	svc := &testReconciler{
		outcome: payments.Outcome{Result: payments.ResultRejected, Reason: payments.ReasonAuthenticity},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paydunya", strings.NewReader(`data={"invoice":{}}`))
	resp := httptest.NewRecorder()
	PayDunyaWebhook(svc, webhookLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("rejections must be acknowledged with 200, got %d", resp.Code)
	}
	if len(svc.body) == 0 {
		t.Fatal("raw body not forwarded to reconciler")
	}
	var envelope struct {
		Data payments.Outcome `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Result != payments.ResultRejected {
		t.Fatalf("unexpected result %q", envelope.Data.Result)
	}
}

func TestPayDunyaWebhookAcknowledgesSettlement(t *testing.T) {
	svc := &testReconciler{
		outcome: payments.Outcome{Result: payments.ResultSucceeded, InvoiceToken: "tok_9"},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paydunya", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	PayDunyaWebhook(svc, webhookLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPayDunyaWebhookSurfacesInfrastructureFailure(t *testing.T) {
	svc := &testReconciler{
		err: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable"),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paydunya", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	PayDunyaWebhook(svc, webhookLogger())(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("infrastructure failures must not be acknowledged, got %d", resp.Code)
	}
}

func TestPayDunyaWebhookNilService(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paydunya", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	PayDunyaWebhook(nil, webhookLogger())(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
