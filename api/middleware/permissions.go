package middleware

import (
	"net/http"

	"github.com/calderaops/procurehub-backend/api/responses"
	"github.com/calderaops/procurehub-backend/internal/identity"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
)

// RequirePermission rejects requests whose actor role lacks the capability.
func RequirePermission(perm identity.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.MemberRole(RoleFromContext(r.Context()))
			if !identity.Can(role, perm) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
