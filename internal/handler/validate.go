package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-env-manager/internal/model"
	"go-env-manager/pkg/apierror"
)

const maxBodyBytes = 1 << 20

var requestValidate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads a size-capped JSON body into dst and runs its validate tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body", err.Error())
	}

	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := requestValidate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierror.BadRequest("invalid request", err.Error())
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}

	return apierror.Wrap(model.ErrValidation, "VALIDATION_ERROR", "Validation failed", strings.Join(problems, "; "), http.StatusBadRequest)
}
