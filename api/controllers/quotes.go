package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/api/responses"
	"github.com/AmadouLah/pneumback-sub001/api/validators"
	"github.com/AmadouLah/pneumback-sub001/internal/payments"
	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
	"github.com/AmadouLah/pneumback-sub001/pkg/pagination"
)

const maxQuoteItems = 20

type submitQuoteItem struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	ProductName   string    `json:"product_name" validate:"required,max=200"`
	BrandName     string    `json:"brand_name" validate:"required,max=120"`
	WidthValue    int       `json:"width_value" validate:"required,gt=0"`
	ProfileValue  int       `json:"profile_value" validate:"required,gt=0"`
	DiameterValue int       `json:"diameter_value" validate:"required,gt=0"`
	Quantity      int       `json:"quantity" validate:"required,gt=0,lte=100"`
}

type submitQuoteRequest struct {
	Items                 []submitQuoteItem `json:"items" validate:"required,min=1,dive"`
	ClientMessage         *string           `json:"client_message,omitempty" validate:"omitempty,max=2000"`
	RequestedDeliveryDate *time.Time        `json:"requested_delivery_date,omitempty"`
	DeliveryDetails       *string           `json:"delivery_details,omitempty" validate:"omitempty,max=1000"`
}

type versionedRequest struct {
	Version int64 `json:"version" validate:"required,gt=0"`
}

type validateQuoteRequest struct {
	Version    int64   `json:"version" validate:"required,gt=0"`
	DeviceInfo string  `json:"device_info,omitempty" validate:"omitempty,max=500"`
	PdfURL     *string `json:"pdf_url,omitempty" validate:"omitempty,url,max=1000"`
}

// SubmitQuote records a new quote request for the authenticated client.
func SubmitQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(payload.Items) > maxQuoteItems {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many quote items"))
			return
		}

		input := quotes.SubmitInput{
			UserID:                userID,
			ClientMessage:         payload.ClientMessage,
			RequestedDeliveryDate: payload.RequestedDeliveryDate,
			DeliveryDetails:       payload.DeliveryDetails,
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, quotes.SubmitItemInput{
				ProductID:     item.ProductID,
				ProductName:   validators.SanitizeString(item.ProductName, 200),
				BrandName:     validators.SanitizeString(item.BrandName, 120),
				WidthValue:    item.WidthValue,
				ProfileValue:  item.ProfileValue,
				DiameterValue: item.DiameterValue,
				Quantity:      item.Quantity,
			})
		}

		view, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// ListClientQuotes pages through the authenticated client's quote requests.
func ListClientQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForClient(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetClientQuote returns one quote owned by the authenticated client.
func GetClientQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetForClient(r.Context(), quoteID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ValidateQuote records the client's acceptance of an issued quote.
func ValidateQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validateQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deviceInfo := strings.TrimSpace(payload.DeviceInfo)
		if deviceInfo == "" {
			deviceInfo = validators.SanitizeString(r.UserAgent(), 500)
		}

		err = svc.Validate(r.Context(), quotes.ValidateInput{
			QuoteID:     quoteID,
			Version:     payload.Version,
			ActorUserID: userID,
			IP:          requestIP(r),
			DeviceInfo:  deviceInfo,
			PdfURL:      payload.PdfURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "validated"})
	}
}

// CancelClientQuote cancels a quote on behalf of its owner.
func CancelClientQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		userID, err := actorUserID(r)
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

		err = svc.Cancel(r.Context(), quotes.CancelInput{
			QuoteID:     quoteID,
			Version:     payload.Version,
			ActorUserID: userID,
			ActorRole:   enums.ActorRoleClient,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}

// PayQuote starts a hosted checkout for a validated quote.
func PayQuote(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := quoteIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), payments.InitiateInput{
			QuoteID:     quoteID,
			ActorUserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func quoteIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "quoteID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	quoteID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote id")
	}
	return quoteID, nil
}

func listParams(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	return params, nil
}
