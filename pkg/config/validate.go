package config

import (
	"fmt"
	"net"
	"regexp"
	"sort"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:", len(e.Errors)))
	for _, fe := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(fe.Error())
	}
	return sb.String()
}

// namespaceRe matches valid metric namespace prefixes.
var namespaceRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the configuration for errors and returns a
// ValidationError listing every problem found, or nil if the configuration
// is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateRecorder(&cfg.Recorder)...)
	errs = append(errs, validateUpstreams(cfg.Upstreams)...)
	errs = append(errs, validateDatastore(&cfg.Datastore)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "must not be empty",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid host:port address: %v", err),
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	if !namespaceRe.MatchString(cfg.Namespace) {
		errs = append(errs, FieldError{
			Field:   "metrics.namespace",
			Message: fmt.Sprintf("%q is not a valid metric name prefix", cfg.Namespace),
		})
	}
	if cfg.MaxSeries <= 0 {
		errs = append(errs, FieldError{
			Field:   "metrics.max_series",
			Message: "must be positive",
		})
	}
	if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
		errs = append(errs, FieldError{
			Field:   "metrics.shards",
			Message: "must be a positive power of two",
		})
	}
	if cfg.WorkerStripes <= 0 || cfg.WorkerStripes&(cfg.WorkerStripes-1) != 0 {
		errs = append(errs, FieldError{
			Field:   "metrics.worker_stripes",
			Message: "must be a positive power of two",
		})
	}
	if cfg.FlushInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "metrics.flush_interval",
			Message: "must not be negative",
		})
	}
	if len(cfg.LatencyBuckets) > 0 && !sort.Float64sAreSorted(cfg.LatencyBuckets) {
		errs = append(errs, FieldError{
			Field:   "metrics.latency_buckets",
			Message: "bucket bounds must be ascending",
		})
	}

	return errs
}

func validateRecorder(cfg *RecorderConfig) []FieldError {
	var errs []FieldError

	if cfg.ParamPattern != "" {
		if _, err := regexp.Compile(cfg.ParamPattern); err != nil {
			errs = append(errs, FieldError{
				Field:   "recorder.param_pattern",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}
	if cfg.LocationPattern != "" {
		if _, err := regexp.Compile(cfg.LocationPattern); err != nil {
			errs = append(errs, FieldError{
				Field:   "recorder.location_pattern",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	return errs
}

func validateUpstreams(upstreams []UpstreamConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(upstreams))
	for i, up := range upstreams {
		field := fmt.Sprintf("upstreams[%d]", i)
		if up.Name == "" {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: "must not be empty",
			})
		} else if seen[up.Name] {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate upstream name %q", up.Name),
			})
		}
		seen[up.Name] = true

		for j, t := range up.Targets {
			tfield := fmt.Sprintf("%s.targets[%d]", field, j)
			if t.Host == "" {
				errs = append(errs, FieldError{
					Field:   tfield + ".host",
					Message: "must not be empty",
				})
			}
			if t.Port <= 0 || t.Port > 65535 {
				errs = append(errs, FieldError{
					Field:   tfield + ".port",
					Message: "must be in range 1-65535",
				})
			}
		}
	}

	return errs
}

func validateDatastore(cfg *DatastoreConfig) []FieldError {
	var errs []FieldError

	if cfg.Driver != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "datastore.driver",
			Message: fmt.Sprintf("unsupported driver %q (supported: sqlite)", cfg.Driver),
		})
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "datastore.path",
			Message: "must not be empty",
		})
	}
	if cfg.ProbeTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "datastore.probe_timeout",
			Message: "must not be negative",
		})
	}

	return errs
}
