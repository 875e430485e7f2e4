package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	errs "goscore/internal/errors"
)

// a 35x35 board with every field set stays well below this
const maxRequestBody = 64 << 10

// DecodeJSONRequest decodes exactly one JSON value from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSONRequest(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMalformedRequest, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", errs.ErrMalformedRequest)
	}
	return nil
}
