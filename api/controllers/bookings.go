package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campground-backend/api/responses"
	"github.com/angelmondragon/campground-backend/api/validators"
	"github.com/angelmondragon/campground-backend/internal/bookings"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

// BookingList lists bookings. Under /campgrounds/{campgroundId} the path
// parameter narrows the list for admins.
func BookingList(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking")
			return
		}
		caller, ok := principal(w, r, logg)
		if !ok {
			return
		}

		campgroundID, err := validators.ParseOptionalUUIDQuery(r, "campgroundId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if chi.URLParam(r, "campgroundId") != "" {
			id, err := validators.ParseUUIDParam(r, "campgroundId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			campgroundID = &id
		}

		items, err := svc.List(r.Context(), caller, campgroundID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, len(items), items)
	}
}

func BookingGet(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking")
			return
		}
		caller, ok := principal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Get(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// BookingCreate books the campground in the path and charges the given
// payment method.
func BookingCreate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking")
			return
		}
		caller, ok := principal(w, r, logg)
		if !ok {
			return
		}
		campgroundID, err := validators.ParseUUIDParam(r, "campgroundId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body bookings.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), caller, campgroundID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func BookingUpdate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking")
			return
		}
		caller, ok := principal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body bookings.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Update(r.Context(), caller, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func BookingDelete(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking")
			return
		}
		caller, ok := principal(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), caller, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{})
	}
}
