package httpresponse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	errs "goscore/internal/errors"
)

type Response[T any] struct {
	Status int `json:"Status"`
	Body   any `json:"Body,omitempty"`
}

type ErrorResponse struct {
	ErrorDescription string `json:"ErrorDescription"`
}

const INTERNALERRORJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := marshalStatusJson(status, body)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

func marshalStatusJson(status int, body any) ([]byte, error) {
	response := Response[any]{
		Status: status,
		Body:   body,
	}
	marshal, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return marshal, nil
}

// WriteInternalErrorResponse works like http.Error with a JSON content type.
func WriteInternalErrorResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}

// StatusForError maps domain errors to HTTP statuses.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrBoardSizeMismatch),
		errors.Is(err, errs.ErrUnknownColor),
		errors.Is(err, errs.ErrPositionOutOfRange),
		errors.Is(err, errs.ErrTileOccupied),
		errors.Is(err, errs.ErrUnknownMarkStatus),
		errors.Is(err, errs.ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrSnapshotConflict), errors.Is(err, errs.ErrSessionFinalized):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError writes err with its mapped status. Internal errors are not described to
// the client.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		WriteInternalErrorResponse(w)
		return
	}
	WriteResponseWithStatus(w, status, ErrorResponse{ErrorDescription: err.Error()})
}
