package billables

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/api/middleware"
	"github.com/calderaops/procurehub-backend/api/responses"
	"github.com/calderaops/procurehub-backend/api/validators"
	"github.com/calderaops/procurehub-backend/internal/billback"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

// List returns the company's billable items one page at a time.
func List(svc billback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billback service unavailable"))
			return
		}

		companyID, err := companyID(r)
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

// Sync reconciles paid purchase orders that are missing billable items.
func Sync(svc billback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billback service unavailable"))
			return
		}

		companyID, err := companyID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SyncMissing(r.Context(), companyID)
		if err != nil && result == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// Partial failures return both a result and an error. The result
		// carries the failed count, so report it as a success payload.
		responses.WriteSuccess(w, result)
	}
}

// ResetMarkups zeroes the markup on all pending billable items.
func ResetMarkups(svc billback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billback service unavailable"))
			return
		}

		companyID, err := companyID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.ResetPendingMarkups(r.Context(), companyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

func buildFilters(r *http.Request) (billback.ListFilters, error) {
	filters := billback.ListFilters{}
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseBillableItemStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("source_type")); raw != "" {
		sourceType, err := enums.ParseBillableSourceType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source_type filter")
		}
		filters.SourceType = &sourceType
	}
	if raw := strings.TrimSpace(q.Get("property_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_id filter")
		}
		filters.PropertyID = &id
	}
	return filters, nil
}

func companyID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(middleware.CompanyIDFromContext(r.Context()))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id")
	}
	return id, nil
}
