// Package handler provides HTTP handlers for the Sebastian Contacts API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prn-tf/sebastian-contacts/internal/domain"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// Response is the uniform API envelope. Exactly one of Data and Errors
// is set; Paging accompanies Data on search responses.
type Response struct {
	Data   interface{}   `json:"data,omitempty"`
	Errors string        `json:"errors,omitempty"`
	Paging *PageMetaJSON `json:"paging,omitempty"`
}

// PageMetaJSON is the wire form of paging metadata.
type PageMetaJSON struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Size        int `json:"size"`
}

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Data: data})
}

// writeDataWithPaging writes a success envelope with paging metadata.
func writeDataWithPaging(w http.ResponseWriter, status int, data interface{}, paging service.PageMeta) {
	writeJSON(w, status, Response{Data: data, Paging: &PageMetaJSON{
		CurrentPage: paging.CurrentPage,
		TotalPages:  paging.TotalPages,
		Size:        paging.Size,
	}})
}

// writeError maps a service/domain error to its transport status and
// writes the failure envelope. All core failures are terminal for the
// request; nothing is retried here.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
		message = "Unauthorized"
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "Username or Password is wrong"
	case errors.Is(err, domain.ErrContactNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrUserAlreadyExists):
		status = http.StatusBadRequest
		message = "Username already registered"
	case domain.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	}

	writeJSON(w, status, Response{Errors: message})
}

// writeBadRequest writes a failure envelope for malformed input that
// never reached the core.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Response{Errors: message})
}

// writeJSON serializes an envelope.
func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
