package controllers

import (
	"net/http"

	"github.com/angelmondragon/campground-backend/api/middleware"
	"github.com/angelmondragon/campground-backend/api/responses"
	pkgAuth "github.com/angelmondragon/campground-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

// principal writes a 401 and returns false when the request carries no caller.
func principal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (pkgAuth.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized to access this route"))
		return pkgAuth.Principal{}, false
	}
	return p, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
