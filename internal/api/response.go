package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"hotticket/internal/entity"
	"hotticket/internal/service"

	"github.com/rs/zerolog"
)

// Error titles shown to clients alongside the detail text.
const (
	titleBadRequest = "Invalid Request"
	titleNotFound   = "Invalid request"
	titleInternal   = "Something went wrong while processing your request"
)

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, service.ErrAlreadyExists):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func titleFor(status int, notFound string) string {
	switch status {
	case http.StatusNotFound:
		return notFound
	case http.StatusBadRequest:
		return titleBadRequest
	default:
		return titleInternal
	}
}

// setHeaders writes the headers every response carries.
func setHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Connection", "close")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		respondProblem(w, http.StatusInternalServerError, titleInternal, err.Error())
		return
	}
	setHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func respondEmpty(w http.ResponseWriter, status int) {
	setHeaders(w)
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(status)
}

// respondProblem writes the {"error": {...}} body.
func respondProblem(w http.ResponseWriter, status int, title, detail string) {
	respondJSON(w, status, entity.ErrorResponse{Error: entity.ServerError{
		Title:      title,
		Detail:     detail,
		StatusCode: status,
	}})
}

// respondError renders a service error, logging server-side failures.
func respondError(w http.ResponseWriter, r *http.Request, err error, notFoundTitle string) {
	status := statusFor(err)
	log := zerolog.Ctx(r.Context())
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	respondProblem(w, status, titleFor(status, notFoundTitle), err.Error())
}
