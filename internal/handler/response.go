package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"club-api/internal/middleware"
	apperrors "club-api/pkg/errors"
	"club-api/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// validate is safe for concurrent use and caches struct metadata
var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report JSON field names instead of Go field names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError renders err as an AppError. Internal errors are logged with
// their cause and reach the client only as a generic message.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := apperrors.As(err)
	reqLog := logger.FromContext(r.Context(), log)
	if appErr.Type == apperrors.ErrorTypeInternal {
		reqLog.WithError(err).Error("Request failed")
	} else {
		reqLog.WithField("error_type", appErr.Type).Debug(appErr.Message)
	}
	respondJSON(w, appErr.StatusCode, appErr.Response())
}

// userID returns the caller set by the auth middleware
func userID(r *http.Request) string {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

// decodeJSON reads the body into dst and runs its validate tags
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("Request body is required", nil)
		}
		return apperrors.NewValidationError("Invalid request body", map[string]interface{}{"reason": err.Error()})
	}
	return validateStruct(dst)
}

// validateStruct maps validator failures to a ValidationError keyed by JSON field
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("Invalid request", nil)
	}

	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
	}
	return apperrors.NewValidationError("Validation failed", details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}
