package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Success: true, Data: data})
}

// WriteList writes a list payload with its item count.
func WriteList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{Success: true, Count: &count, Data: data})
}

// WritePage writes a list payload with count and pagination links. The
// pagination object is always present, empty when there is a single page.
func WritePage(w http.ResponseWriter, count int, pagination types.Pagination, data any) {
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{
		Success:    true,
		Count:      &count,
		Pagination: &pagination,
		Data:       data,
	})
}

// render maps err onto a status and the public error body. Only 4xx codes
// show their own message and details; everything else gets the generic
// text for its code, and unregistered codes are reported as internal.
func render(err error) (int, types.ErrorEnvelope) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	code := typed.Code()
	if _, known := pkgerrors.Lookup(code); !known {
		code = pkgerrors.CodeInternal
	}
	meta := pkgerrors.MetadataFor(code)
	body := types.APIError{Code: string(code), Message: meta.PublicMessage}

	if meta.HTTPStatus < http.StatusInternalServerError {
		if m := typed.Message(); m != "" {
			body.Message = m
		}
		if meta.DetailsAllowed {
			body.Details = typed.Details()
		}
	}
	return meta.HTTPStatus, types.ErrorEnvelope{Error: body}
}

// WriteError renders err and logs it: 5xx at error level with the cause
// chain, 4xx as a warning.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	status, payload := render(err)
	if logg != nil {
		fields := pkgerrors.Dump(err).LogFields()
		fields["status"] = status
		ctx = logg.WithFields(ctx, fields)
		if status >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zlog.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}
