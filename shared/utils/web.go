package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
)

// maxJSONBody bounds request bodies of the JSON endpoints; uploads are multipart.
const maxJSONBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	errInvalidJSON    = &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	errRequiredFields = &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
)

// WriteErrorAndStatusCode writes err with its own status if it carries one.
// Anything else is a 500 with a generic message; the cause goes to the log only.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	var sc errors.StatusCoder
	if errors.As(err, &sc) {
		http.Error(w, sc.Error(), sc.HTTPStatus())
		return
	}
	logger.Log.Error("unhandled error", "error", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

// DecodeValidate decodes one JSON value into body and runs its validate tags.
func DecodeValidate(r io.ReadCloser, body any) error {
	if err := Decode(r, body); err != nil {
		return err
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request validation failed", "error", err)
		return &errors.ErrorWithStatusCode{Message: errRequiredFields.Message, StatusCode: errRequiredFields.StatusCode}
	}
	return nil
}

// Decode reads exactly one JSON value; trailing data is rejected.
func Decode(r io.ReadCloser, body any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxJSONBody))
	if err := dec.Decode(body); err != nil {
		logger.Log.Debug("request body is not json", "error", err)
		return &errors.ErrorWithStatusCode{Message: errInvalidJSON.Message, StatusCode: errInvalidJSON.StatusCode}
	}
	if dec.More() {
		return &errors.ErrorWithStatusCode{Message: errInvalidJSON.Message, StatusCode: errInvalidJSON.StatusCode}
	}
	return nil
}
