package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/go-chi/chi/v5"
)

var validationErrors = []error{
	entity.ErrNameIsRequired,
	entity.ErrEmailIsRequired,
	entity.ErrCustomerIsRequired,
	entity.ErrItemsAreRequired,
	entity.ErrProductIsRequired,
	entity.ErrQuantityMustBePos,
	entity.ErrPriceMustBePos,
	entity.ErrTaxMustBePos,
	entity.ErrTrackingIsRequired,
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, data.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, data.ErrState), errors.Is(err, data.ErrConfiguration):
		return http.StatusInternalServerError
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "Request failed", logger.String("path", r.URL.Path), logger.WithError(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return uint(id), true
}
