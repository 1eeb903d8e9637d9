package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateDatabase, DatabaseConfig{})
	v.RegisterStructValidation(validateSerializers, SerializersConfig{})

	return v
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	lines := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		lines[i] = describeField(fe)
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(lines, "\n  "))
}

// validateDatabase keeps the idle pool within the open pool.
func validateDatabase(sl validator.StructLevel) {
	db := sl.Current().Interface().(DatabaseConfig)

	if db.MaxOpenConns > 0 && db.MaxIdleConns > db.MaxOpenConns {
		sl.ReportError(db.MaxIdleConns, "MaxIdleConns", "MaxIdleConns", "ltefield", "MaxOpenConns")
	}
}

// validateSerializers rejects aliases that point nowhere.
func validateSerializers(sl validator.StructLevel) {
	s := sl.Current().Interface().(SerializersConfig)

	for alias, target := range s.Aliases {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(target) == "" {
			sl.ReportError(s.Aliases, "Aliases", "Aliases", "alias", alias)
			return
		}
	}
}

func describeField(fe validator.FieldError) string {
	field, p := formatFieldPath(fe.Namespace()), fe.Param()

	var rule string

	switch fe.Tag() {
	case "required":
		rule = "is required"
	case "required_if":
		rule = "is required when " + p
	case "required_unless":
		rule = "is required unless " + p
	case "min":
		rule = "must be at least " + p
	case "max":
		rule = "must be at most " + p
	case "oneof":
		rule = "must be one of: " + p
	case "url":
		rule = "must be a valid URL"
	case "ltefield":
		rule = "must not exceed " + strings.ToLower(p)
	case "alias":
		rule = fmt.Sprintf("has an empty alias or target (%q)", p)
	default:
		rule = "failed validation: " + fe.Tag()
	}

	return field + " " + rule
}

// formatFieldPath turns "Config.Server.Port" into "server.port".
func formatFieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}

	return strings.ToLower(namespace)
}
