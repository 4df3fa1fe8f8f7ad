package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/scanpos/gate"
	"github.com/diewo77/scanpos/httpx"
	"github.com/diewo77/scanpos/internal/services"
)

var kindStatus = map[services.Kind]int{
	services.KindInvalid:      http.StatusBadRequest,
	services.KindNotFound:     http.StatusNotFound,
	services.KindConflict:     http.StatusConflict,
	services.KindUnauthorized: http.StatusUnauthorized,
	services.KindForbidden:    http.StatusForbidden,
}

// writeError is the single mapping from service and gate errors to HTTP.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *services.Error
	switch {
	case errors.As(err, &se):
		status, ok := kindStatus[se.Kind]
		if !ok {
			status = http.StatusBadRequest
		}
		if len(se.Fields) > 0 {
			httpx.JSON(w, status, httpx.ErrorResponse{Error: se.Code, Message: se.Message, Details: se.Fields})
			return
		}
		httpx.JSONError(w, status, se.Code, se.Message)
	case errors.Is(err, gate.ErrUnauthenticated):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, gate.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", "You are not allowed to perform this action")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func badRequest(w http.ResponseWriter, err error) {
	httpx.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
}
