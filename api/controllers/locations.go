package controllers

import (
	"net/http"

	"github.com/angelmondragon/mercadito-backend/api/responses"
	"github.com/angelmondragon/mercadito-backend/api/validators"
	"github.com/angelmondragon/mercadito-backend/internal/users"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

func LocationAdd(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "users")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}

		var in users.LocationInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.AddLocation(r.Context(), caller.UserID, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, user)
	}
}

func LocationUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "users")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		locationID, err := validators.PathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var patch users.LocationPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.UpdateLocation(r.Context(), caller.UserID, locationID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// LocationDelete refuses to remove the last remaining location.
func LocationDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "users")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		locationID, err := validators.PathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.DeleteLocation(r.Context(), caller.UserID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func LocationSetCurrent(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "users")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		locationID, err := validators.PathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.SetCurrentLocation(r.Context(), caller.UserID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func LocationCurrent(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "users")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		loc, err := svc.CurrentLocation(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loc)
	}
}
