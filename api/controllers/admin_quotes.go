package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/api/responses"
	"github.com/AmadouLah/pneumback-sub001/api/validators"
	"github.com/AmadouLah/pneumback-sub001/internal/delivery"
	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
)

type issueQuoteItemPrice struct {
	ItemID    uuid.UUID `json:"item_id" validate:"required"`
	UnitPrice int64     `json:"unit_price" validate:"required,gt=0"`
}

type issueQuoteRequest struct {
	Version       int64                 `json:"version" validate:"required,gt=0"`
	ItemPrices    []issueQuoteItemPrice `json:"item_prices" validate:"required,min=1,dive"`
	PromotionCode *string               `json:"promotion_code,omitempty" validate:"omitempty,max=64"`
	AdminNotes    *string               `json:"admin_notes,omitempty" validate:"omitempty,max=2000"`
}

type assignLivreurRequest struct {
	Version   int64     `json:"version" validate:"required,gt=0"`
	LivreurID uuid.UUID `json:"livreur_id" validate:"required"`
	Details   *string   `json:"details,omitempty" validate:"omitempty,max=1000"`
}

// AdminListQuotes pages through quote requests with optional filters.
func AdminListQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := quotes.QuoteFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.QuoteStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown quote status"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
				return
			}
			filters.UserID = &userID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("livreur_id")); raw != "" {
			livreurID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid livreur id"))
				return
			}
			filters.AssignedLivreurID = &livreurID
		}

		list, err := svc.ListForAdmin(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminGetQuote returns the operational projection of one quote.
func AdminGetQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetForAdmin(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminBeginPricing moves a pending quote into preparation.
func AdminBeginPricing(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		actorID, quoteID, payload, err := adminQuoteAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.BeginPricing(r.Context(), quoteID, payload.Version, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.QuoteStatusDevisEnPreparation)})
	}
}

// AdminIssueQuote prices every line and issues the quote to the client.
func AdminIssueQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		actorID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload issueQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := quotes.IssueQuoteInput{
			QuoteID:       quoteID,
			Version:       payload.Version,
			PromotionCode: payload.PromotionCode,
			AdminNotes:    payload.AdminNotes,
			ActorUserID:   actorID,
		}
		for _, price := range payload.ItemPrices {
			input.ItemPrices = append(input.ItemPrices, quotes.ItemPriceInput{
				ItemID:    price.ItemID,
				UnitPrice: price.UnitPrice,
			})
		}

		if err := svc.IssueQuote(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.QuoteStatusDevisEnvoye)})
	}
}

// AdminRequestValidation asks the client to confirm an issued quote.
func AdminRequestValidation(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		_, quoteID, payload, err := adminQuoteAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RequestValidation(r.Context(), quoteID, payload.Version); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.QuoteStatusEnAttenteValidation)})
	}
}

// AdminCancelQuote cancels a quote on behalf of the back office.
func AdminCancelQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		actorID, quoteID, payload, err := adminQuoteAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Cancel(r.Context(), quotes.CancelInput{
			QuoteID:     quoteID,
			Version:     payload.Version,
			ActorUserID: actorID,
			ActorRole:   enums.ActorRoleAdmin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.QuoteStatusAnnule)})
	}
}

// AdminAssignLivreur puts a paid quote in the hands of a delivery agent.
func AdminAssignLivreur(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		actorID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignLivreurRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Assign(r.Context(), delivery.AssignInput{
			QuoteID:     quoteID,
			Version:     payload.Version,
			LivreurID:   payload.LivreurID,
			Details:     payload.Details,
			ActorUserID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.QuoteStatusEnCoursLivraison)})
	}
}

func adminQuoteAction(r *http.Request) (uuid.UUID, uuid.UUID, versionedRequest, error) {
	var payload versionedRequest

	actorID, err := actorUserID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, payload, err
	}

	quoteID, err := quoteIDParam(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, payload, err
	}

	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return uuid.Nil, uuid.Nil, payload, err
	}
	return actorID, quoteID, payload, nil
}
