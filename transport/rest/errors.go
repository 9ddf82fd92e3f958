package rest

import (
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
)

type ErrorResponse struct {
	Code  apperror.Code `json:"code"`
	Error string        `json:"error"`
}

// writeError - maps err to a status by its kind. Errors outside the taxonomy are hidden from the caller.
func (that *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequestBody), errors.Is(err, errBadGameID), errors.Is(err, errBadLimit):
		that.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	appErr, ok := apperror.Lookup(err)
	if !ok {
		that.logger.Error("request failed", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})

		return
	}

	that.writeJSON(w, statusOf(appErr), ErrorResponse{Code: appErr.Code, Error: err.Error()})
}

func statusOf(err *apperror.Error) int {
	switch err.Kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindStateConflict:
		if err.Code == apperror.CodeGameNotFound {
			return http.StatusNotFound
		}

		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
