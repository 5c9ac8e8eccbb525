package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/citi94/order-coffee/internal/api"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxRequestBodySize = 1 << 20 // 1MB

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, api.ErrorResponse{Status: api.StatusError, Message: message})
}

// respondVendorError logs the full cause and sends the caller a generic
// message. Rejections are the caller's fault, everything else is ours.
func respondVendorError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrRejected) {
		status = http.StatusBadRequest
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg(message)
	respondError(w, r, status, message)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs the struct tags.
// It writes the 400 response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := v.Struct(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " failed " + fe.Tag() + " validation"
	}
}
