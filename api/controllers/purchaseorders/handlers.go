package purchaseorders

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/api/middleware"
	"github.com/calderaops/procurehub-backend/api/responses"
	"github.com/calderaops/procurehub-backend/api/validators"
	"github.com/calderaops/procurehub-backend/internal/billback"
	"github.com/calderaops/procurehub-backend/internal/receiving"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
)

type advanceRequest struct {
	Status         string     `json:"status" validate:"required"`
	ProofRef       *string    `json:"proof_ref,omitempty"`
	Carrier        *string    `json:"carrier,omitempty" validate:"omitempty,max=128"`
	TrackingNumber *string    `json:"tracking_number,omitempty" validate:"omitempty,max=128"`
	ETA            *time.Time `json:"eta,omitempty"`
}

type paymentRequest struct {
	PaymentDate *time.Time `json:"payment_date,omitempty"`
}

// Advance walks a purchase order one step along the delivery chain.
func Advance(svc receiving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receiving service unavailable"))
			return
		}

		actorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poID, err := validators.ParsePathUUID(chi.URLParam(r, "purchaseOrderId"), "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body advanceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParsePurchaseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase order status"))
			return
		}

		result, err := svc.Advance(r.Context(), receiving.AdvanceInput{
			PurchaseOrderID: poID,
			NextStatus:      next,
			ProofRef:        body.ProofRef,
			Carrier:         body.Carrier,
			TrackingNumber:  body.TrackingNumber,
			ETA:             body.ETA,
			ActorUserID:     actorID,
			ActorRole:       middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RecordPayment stamps the payment date on a purchase order. The billback
// sweep picks the PO up on its next pass.
func RecordPayment(svc receiving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receiving service unavailable"))
			return
		}

		actorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poID, err := validators.ParsePathUUID(chi.URLParam(r, "purchaseOrderId"), "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body paymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentDate := time.Now().UTC()
		if body.PaymentDate != nil {
			paymentDate = body.PaymentDate.UTC()
		}

		if err := svc.RecordPayment(r.Context(), receiving.PaymentInput{
			PurchaseOrderID: poID,
			PaymentDate:     paymentDate,
			ActorUserID:     actorID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// CreateBillables materializes billable items from a purchase order's lines.
func CreateBillables(svc billback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billback service unavailable"))
			return
		}

		actorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poID, err := validators.ParsePathUUID(chi.URLParam(r, "purchaseOrderId"), "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateFromPurchaseOrder(r.Context(), billback.CreateInput{
			PurchaseOrderID: poID,
			ActorUserID:     actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(middleware.UserIDFromContext(r.Context()))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}
