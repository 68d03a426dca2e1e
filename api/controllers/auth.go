package controllers

import (
	"net/http"

	"github.com/calderaops/procurehub-backend/api/responses"
	"github.com/calderaops/procurehub-backend/api/validators"
	"github.com/calderaops/procurehub-backend/internal/identity"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body identity.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
