package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/stackerr"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their document name rather than the Go name.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig checks that a stack config has the fields deployment needs
// and that no two resources share an id. It does not check service names or
// per-service properties; dispatch does that.
func ValidateConfig(cfg *ir.StackConfig) error {
	if cfg == nil {
		return stackerr.NewConfigurationError("", "configuration is empty", nil)
	}

	if field, msg, err := structError(validatorInstance().Struct(cfg)); err != nil {
		return stackerr.NewConfigurationError(field, msg, err)
	}

	seen := make(map[string]int, len(cfg.Resources))
	for i, res := range cfg.Resources {
		if first, exists := seen[res.ID]; exists {
			return stackerr.NewConfigurationError(
				fmt.Sprintf("resources[%d].id", i),
				fmt.Sprintf("duplicate resource id %q (first used by resources[%d]), please resolve", res.ID, first),
				nil,
			)
		}
		seen[res.ID] = i
	}

	return nil
}

// ValidateStatus checks that a status document is usable as the prior state
// of a deployment. Failures here mean the file was edited by hand or the
// engine produced a malformed status.
func ValidateStatus(st *ir.StackStatus) error {
	if st == nil {
		return stackerr.NewValidationError("", "status is empty", nil)
	}

	if field, msg, err := structError(validatorInstance().Struct(st)); err != nil {
		return stackerr.NewValidationError(field, msg, err)
	}

	return nil
}

// ValidateProperties checks a decoded per-service properties struct. Field
// paths are reported under "properties", e.g. "properties.object_type".
func ValidateProperties(props any) error {
	if field, msg, err := structError(validatorInstance().Struct(props)); err != nil {
		return stackerr.NewConfigurationError("properties."+field, msg, err)
	}
	return nil
}

// structError turns the first validator failure into a document field path
// and a readable message.
func structError(err error) (string, string, error) {
	if err == nil {
		return "", "", nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		field := documentFieldName(fe)
		switch fe.Tag() {
		case "required":
			return field, fmt.Sprintf("'%s' is required", fe.Field()), err
		case "oneof":
			return field, fmt.Sprintf("'%s' must be one of [%s], got %q", fe.Field(), fe.Param(), fmt.Sprint(fe.Value())), err
		}
		return field, fmt.Sprintf("failed validation for tag '%s'", fe.Tag()), err
	}

	return "", err.Error(), err
}

// documentFieldName strips the root type from the namespace, so
// "StackConfig.resources[1].id" becomes "resources[1].id".
func documentFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
