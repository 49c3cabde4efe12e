package controllers

import (
	"net/http"
	"strings"

	"github.com/AmadouLah/pneumback-sub001/api/responses"
	"github.com/AmadouLah/pneumback-sub001/api/validators"
	"github.com/AmadouLah/pneumback-sub001/internal/delivery"
	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
)

type markDeliveredRequest struct {
	Version       int64   `json:"version" validate:"required,gt=0"`
	GeoPosition   string  `json:"geo_position" validate:"required,max=200"`
	ProofPhotoURL *string `json:"proof_photo_url,omitempty" validate:"omitempty,url,max=1000"`
	SignatureURL  *string `json:"signature_url,omitempty" validate:"omitempty,url,max=1000"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// LivreurListOrders lists quotes currently assigned to the calling livreur.
func LivreurListOrders(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		livreurID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := quotes.QuoteFilters{AssignedLivreurID: &livreurID}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.QuoteStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown quote status"))
				return
			}
			filters.Status = &status
		} else {
			active := enums.QuoteStatusEnCoursLivraison
			filters.Status = &active
		}

		list, err := svc.ListForAdmin(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// LivreurMarkDelivered records proof-of-delivery and closes the quote.
func LivreurMarkDelivered(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		livreurID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markDeliveredRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.MarkDelivered(r.Context(), delivery.DeliverInput{
			QuoteID:       quoteID,
			Version:       payload.Version,
			ActorUserID:   livreurID,
			GeoPosition:   validators.SanitizeString(payload.GeoPosition, 200),
			ProofPhotoURL: payload.ProofPhotoURL,
			SignatureURL:  payload.SignatureURL,
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.QuoteStatusTermine)})
	}
}

// LivreurMarkAbsent records a failed delivery attempt.
func LivreurMarkAbsent(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		livreurID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload versionedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.MarkAbsent(r.Context(), delivery.AbsentInput{
			QuoteID:     quoteID,
			Version:     payload.Version,
			ActorUserID: livreurID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "absence recorded"})
	}
}
