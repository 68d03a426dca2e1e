package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/api/middleware"
	"github.com/calderaops/procurehub-backend/api/responses"
	"github.com/calderaops/procurehub-backend/api/validators"
	"github.com/calderaops/procurehub-backend/internal/approval"
	internalorders "github.com/calderaops/procurehub-backend/internal/orders"
	"github.com/calderaops/procurehub-backend/internal/procurement"
	"github.com/calderaops/procurehub-backend/internal/status"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

// List returns the company's orders one page at a time.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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

// Detail returns the full order view with derived status and unassigned items.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		companyID, _, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if detail.Order.CompanyID != companyID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to company"))
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type decisionRequest struct {
	ItemID string  `json:"item_id" validate:"required,uuid4"`
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Reason *string `json:"reason,omitempty"`
}

type commitRequest struct {
	Decisions []decisionRequest `json:"decisions" validate:"required,min=1,dive"`
}

// CommitApprovals applies a batch of item-level approve/reject verdicts.
func CommitApprovals(svc approval.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approval service unavailable"))
			return
		}

		_, actorID, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body commitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decisions := make(map[uuid.UUID]status.Decision, len(body.Decisions))
		for _, d := range body.Decisions {
			itemID, err := uuid.Parse(strings.TrimSpace(d.ItemID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			verdict, err := parseDecisionStatus(d.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			decisions[itemID] = status.Decision{Status: verdict, Reason: d.Reason}
		}

		result, err := svc.Commit(r.Context(), approval.CommitInput{
			OrderID:     orderID,
			Decisions:   decisions,
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type bulkDecisionRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ApproveAll approves every pending item on the order in one pass.
func ApproveAll(svc approval.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "approval service unavailable")
	}
	return bulkDecision(logg, svc.ApproveAll)
}

// RejectAll rejects every pending item on the order in one pass.
func RejectAll(svc approval.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "approval service unavailable")
	}
	return bulkDecision(logg, svc.RejectAll)
}

func serviceUnavailable(logg *logger.Logger, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, msg))
	}
}

func bulkDecision(
	logg *logger.Logger,
	apply func(ctx context.Context, input approval.BulkDecisionInput) (*approval.CommitResult, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, actorID, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkDecisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := apply(r.Context(), approval.BulkDecisionInput{
			OrderID:     orderID,
			Reason:      body.Reason,
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type procureRequest struct {
	VendorID string   `json:"vendor_id" validate:"required,uuid4"`
	ItemIDs  []string `json:"item_ids" validate:"required,min=1,dive,uuid4"`
}

// Procure issues one vendor-scoped purchase order for approved items.
func Procure(svc procurement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "procurement service unavailable"))
			return
		}

		_, actorID, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body procureRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(strings.TrimSpace(body.VendorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		itemIDs := make([]uuid.UUID, 0, len(body.ItemIDs))
		for _, raw := range body.ItemIDs {
			itemID, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			itemIDs = append(itemIDs, itemID)
		}

		po, err := svc.Procure(r.Context(), procurement.ProcureInput{
			OrderID:     orderID,
			VendorID:    vendorID,
			ItemIDs:     itemIDs,
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, po)
	}
}

func parseDecisionStatus(raw string) (enums.ItemApprovalStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return enums.ItemApprovalStatusApproved, nil
	case "rejected":
		return enums.ItemApprovalStatusRejected, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
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

func buildFilters(r *http.Request) (internalorders.OrderFilters, error) {
	var filters internalorders.OrderFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		orderStatus, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &orderStatus
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
