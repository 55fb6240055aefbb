package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is the configuration key
// (e.g. "metrics.pushgateway-url").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// db2VarcharLimit is the longest VARCHAR DB2 accepts.
const db2VarcharLimit = 32672

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
}

// Validate checks struct constraints and cross-field rules. dialects lists
// the registered dialect names.
func Validate(cfg Config, dialects []string) []Issue {
	var issues []Issue

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
		}
		for _, fe := range verrs {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fieldPath(fe.Namespace()),
				Message:  describe(fe),
			})
		}
	}

	if cfg.Dialect != "" && !slices.Contains(dialects, cfg.Dialect) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "dialect",
			Message:  fmt.Sprintf("unknown dialect %q; known: %s", cfg.Dialect, strings.Join(dialects, ", ")),
		})
	}
	if cfg.Dialect == "db2" && cfg.VarcharMaxLength > db2VarcharLimit {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "varchar-max-length",
			Message:  fmt.Sprintf("DB2 rejects VARCHAR longer than %d; CREATE TABLE will fail for such columns", db2VarcharLimit),
		})
	}
	if !cfg.ConnectionSSL && strings.Contains(strings.ToUpper(cfg.ConnectionURL), "PWD=") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "connection-ssl",
			Message:  "connection-url carries a password but connection-ssl is off",
		})
	}
	switch cfg.Metrics.Backend {
	case "prompush":
		if cfg.Metrics.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway-url",
				Message:  "required when metrics.backend is prompush",
			})
		}
	case "datadog":
		if cfg.Metrics.DatadogAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog-addr",
				Message:  "required when metrics.backend is datadog",
			})
		}
	}
	return issues
}

// Err joins the error-severity issues, or returns nil when there are none.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

// fieldPath turns "Config.metrics.backend" into "metrics.backend".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fe.Value())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
