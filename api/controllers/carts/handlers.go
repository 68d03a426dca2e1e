package carts

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/api/middleware"
	"github.com/calderaops/procurehub-backend/api/responses"
	"github.com/calderaops/procurehub-backend/api/validators"
	internalcarts "github.com/calderaops/procurehub-backend/internal/carts"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

type itemRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	SKU            string  `json:"sku" validate:"max=64"`
	Quantity       int     `json:"quantity" validate:"required,min=1"`
	UnitPriceCents int     `json:"unit_price_cents" validate:"min=0"`
	VendorID       *string `json:"vendor_id,omitempty" validate:"omitempty,uuid4"`
}

type createCartRequest struct {
	Name              string        `json:"name" validate:"required,max=255"`
	Type              string        `json:"type" validate:"required"`
	PropertyID        *string       `json:"property_id,omitempty" validate:"omitempty,uuid4"`
	ScheduleDays      []string      `json:"schedule_days,omitempty"`
	ScheduleStartDate *time.Time    `json:"schedule_start_date,omitempty"`
	Items             []itemRequest `json:"items,omitempty" validate:"dive"`
}

type updateItemRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,max=255"`
	SKU            *string `json:"sku,omitempty" validate:"omitempty,max=64"`
	Quantity       *int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
	UnitPriceCents *int    `json:"unit_price_cents,omitempty" validate:"omitempty,min=0"`
	VendorID       *string `json:"vendor_id,omitempty" validate:"omitempty,uuid4"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create opens a new draft cart for the caller's company.
func Create(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		companyID, actorID, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cartType, err := enums.ParseCartType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart type"))
			return
		}

		propertyID, err := parseOptionalUUID(body.PropertyID, "property_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]internalcarts.ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			vendorID, err := parseOptionalUUID(item.VendorID, "vendor_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			items = append(items, internalcarts.ItemInput{
				Name:           validators.SanitizeString(item.Name, 255),
				SKU:            validators.SanitizeString(item.SKU, 64),
				Quantity:       item.Quantity,
				UnitPriceCents: item.UnitPriceCents,
				VendorID:       vendorID,
			})
		}

		input := internalcarts.CreateCartInput{
			CompanyID:         companyID,
			OwnerID:           actorID,
			PropertyID:        propertyID,
			Name:              validators.SanitizeString(body.Name, 255),
			Type:              cartType,
			ScheduleDays:      body.ScheduleDays,
			ScheduleStartDate: body.ScheduleStartDate,
			Items:             items,
		}

		cart, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

// List returns the company's carts one page at a time.
func List(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		companyID, _, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), companyID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns a single cart with its effective status.
func Detail(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		companyID, _, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cartID, err := validators.ParsePathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if detail.Cart.CompanyID != companyID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cart does not belong to company"))
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AddItem appends one line to a mutable cart.
func AddItem(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		cartID, err := validators.ParsePathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body itemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := parseOptionalUUID(body.VendorID, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), cartID, internalcarts.ItemInput{
			Name:           validators.SanitizeString(body.Name, 255),
			SKU:            validators.SanitizeString(body.SKU, 64),
			Quantity:       body.Quantity,
			UnitPriceCents: body.UnitPriceCents,
			VendorID:       vendorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// UpdateItem patches one cart line. Absent fields stay untouched.
func UpdateItem(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		cartID, err := validators.ParsePathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalcarts.UpdateItemInput{
			CartID:         cartID,
			ItemID:         itemID,
			Quantity:       body.Quantity,
			UnitPriceCents: body.UnitPriceCents,
		}
		if body.Name != nil {
			name := validators.SanitizeString(*body.Name, 255)
			input.Name = &name
		}
		if body.SKU != nil {
			sku := validators.SanitizeString(*body.SKU, 64)
			input.SKU = &sku
		}
		if body.VendorID != nil {
			vendorID, err := parseOptionalUUID(body.VendorID, "vendor_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.VendorID = vendorID
		}

		if err := svc.UpdateItem(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// RemoveItem drops one line from a mutable cart.
func RemoveItem(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		cartID, err := validators.ParsePathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// UpdateStatus toggles a cart between draft and ready_for_review.
func UpdateStatus(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		cartID, err := validators.ParsePathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseCartStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart status"))
			return
		}

		if err := svc.UpdateStatus(r.Context(), cartID, next); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// Submit converts a cart into a trackable order.
func Submit(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		_, actorID, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cartID, err := validators.ParsePathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), internalcarts.SubmitInput{
			CartID:      cartID,
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Delete removes a cart. Pass cascade=true to take the linked order down too.
func Delete(svc internalcarts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carts service unavailable"))
			return
		}

		cartID, err := validators.ParsePathUUID(chi.URLParam(r, "cartId"), "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cascade := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("cascade")), "true")

		if err := svc.Delete(r.Context(), internalcarts.DeleteInput{CartID: cartID, CascadeOrder: cascade}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func actorContext(r *http.Request) (companyID, userID uuid.UUID, err error) {
	rawCompany := middleware.CompanyIDFromContext(r.Context())
	if rawCompany == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}
	companyID, err = uuid.Parse(rawCompany)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id")
	}

	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err = uuid.Parse(rawUser)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return companyID, userID, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &id, nil
}

func buildFilters(r *http.Request) (internalcarts.CartFilters, error) {
	var filters internalcarts.CartFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseCartStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		cartType, err := enums.ParseCartType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter")
		}
		filters.Type = &cartType
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("owner_id")); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner_id filter")
		}
		filters.OwnerID = &ownerID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("property_id")); raw != "" {
		propertyID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_id filter")
		}
		filters.PropertyID = &propertyID
	}

	return filters, nil
}
