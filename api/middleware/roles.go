package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/angelmondragon/campground-backend/api/responses"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

// RequireRole must sit behind Auth. Requests without a principal are
// unauthenticated; a principal outside allowed is forbidden.
func RequireRole(logg *logger.Logger, allowed ...enums.UserRole) func(http.Handler) http.Handler {
	allowed = slices.Clone(allowed)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized to access this route"))
				return
			}
			if !slices.Contains(allowed, principal.Role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden,
					fmt.Sprintf("User role %s is not authorized to access this route", principal.Role)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
