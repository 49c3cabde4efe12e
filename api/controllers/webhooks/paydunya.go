package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/AmadouLah/pneumback-sub001/api/responses"
	"github.com/AmadouLah/pneumback-sub001/internal/payments"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
)

const maxCallbackBody = 1 << 20

type paymentReconciler interface {
	Reconcile(ctx context.Context, rawBody []byte) (payments.Outcome, error)
}

// PayDunyaWebhook receives IPN callbacks from the payment provider. Any
// outcome the reconciler classifies, including rejections, is acknowledged
// with a 200 so the provider stops retrying. Only infrastructure failures
// surface as 5xx, which the provider retries later.
func PayDunyaWebhook(svc paymentReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read callback body"))
			return
		}

		outcome, err := svc.Reconcile(ctx, rawBody)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logCtx := logg.WithFields(ctx, map[string]any{
			"result":        string(outcome.Result),
			"invoice_token": outcome.InvoiceToken,
			"reason":        outcome.Reason,
		})
		logg.Info(logCtx, "paydunya callback reconciled")
		responses.WriteSuccess(w, outcome)
	}
}
