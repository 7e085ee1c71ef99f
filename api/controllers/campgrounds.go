package controllers

import (
	"net/http"

	"github.com/angelmondragon/campground-backend/api/responses"
	"github.com/angelmondragon/campground-backend/api/validators"
	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	"github.com/angelmondragon/campground-backend/internal/repo"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/types"
)

func pageRef(p *repo.Page) *types.PageRef {
	if p == nil {
		return nil
	}
	return &types.PageRef{Page: p.Page, Limit: p.Limit}
}

// CampgroundList serves the filtered, sorted and paginated catalogue.
func CampgroundList(svc campgrounds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "campground")
			return
		}
		query, err := campgrounds.ParseListQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pagination := types.Pagination{Next: pageRef(result.Next), Prev: pageRef(result.Prev)}
		if len(result.Fields) == 0 {
			responses.WritePage(w, len(result.Items), pagination, result.Items)
			return
		}
		projected := make([]map[string]any, 0, len(result.Items))
		for _, item := range result.Items {
			projected = append(projected, item.Project(result.Fields))
		}
		responses.WritePage(w, len(projected), pagination, projected)
	}
}

func CampgroundGet(svc campgrounds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "campground")
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campground, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campground)
	}
}

func CampgroundCreate(svc campgrounds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "campground")
			return
		}
		caller, ok := principal(w, r, logg)
		if !ok {
			return
		}
		var body campgrounds.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campground, err := svc.Create(r.Context(), caller, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, campground)
	}
}

func CampgroundUpdate(svc campgrounds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "campground")
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
		var body campgrounds.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campground, err := svc.Update(r.Context(), caller, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campground)
	}
}

func CampgroundDelete(svc campgrounds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "campground")
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
