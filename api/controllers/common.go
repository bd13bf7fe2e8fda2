package controllers

import (
	"net/http"

	"github.com/angelmondragon/mercadito-backend/api/middleware"
	"github.com/angelmondragon/mercadito-backend/api/responses"
	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

const maxSearchLen = 100

// requireCaller writes a 401 and returns nil when the request is anonymous.
func requireCaller(w http.ResponseWriter, r *http.Request, logg *logger.Logger) *authz.Caller {
	caller := middleware.CallerFromContext(r.Context())
	if caller == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authorized to access this route"))
		return nil
	}
	return caller
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
