package response

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/cmlabs-hris/hours-report/internal/pkg/validator"
)

// HandleError maps errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		NotFound(w, "export not found")
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
