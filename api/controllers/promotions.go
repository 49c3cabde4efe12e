package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/AmadouLah/pneumback-sub001/api/responses"
	"github.com/AmadouLah/pneumback-sub001/api/validators"
	"github.com/AmadouLah/pneumback-sub001/internal/pricing"
	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
)

type createPromotionRequest struct {
	Code        string     `json:"code" validate:"required,max=64"`
	Kind        string     `json:"kind" validate:"required"`
	Value       int64      `json:"value" validate:"required,gt=0"`
	Active      *bool      `json:"active,omitempty"`
	ActiveFrom  *time.Time `json:"active_from,omitempty"`
	ActiveUntil *time.Time `json:"active_until,omitempty"`
}

// CreatePromotion registers a discount code for the pricing engine.
func CreatePromotion(repo pricing.PromotionRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion repository unavailable"))
			return
		}

		var payload createPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.PromotionKind(strings.TrimSpace(payload.Kind))
		if !kind.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown promotion kind"))
			return
		}
		if kind == enums.PromotionKindPercentage && payload.Value > 100 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "percentage promotion cannot exceed 100"))
			return
		}
		if payload.ActiveFrom != nil && payload.ActiveUntil != nil && payload.ActiveUntil.Before(*payload.ActiveFrom) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "active window ends before it starts"))
			return
		}

		active := true
		if payload.Active != nil {
			active = *payload.Active
		}

		promo, err := repo.Create(r.Context(), &models.Promotion{
			Code:        strings.ToUpper(validators.SanitizeString(payload.Code, 64)),
			Kind:        kind,
			Value:       payload.Value,
			Active:      active,
			ActiveFrom:  payload.ActiveFrom,
			ActiveUntil: payload.ActiveUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

// ListPromotions returns every registered promotion.
func ListPromotions(repo pricing.PromotionRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion repository unavailable"))
			return
		}

		promos, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"promotions": promos})
	}
}
