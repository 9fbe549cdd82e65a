package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidRecord wraps record validation failures.
var ErrInvalidRecord = errors.New("invalid record")

// ValidateRecord checks the validate tags of a model before it is stored.
func ValidateRecord(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(fields, ", "))
}
