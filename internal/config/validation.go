package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
	// knownOutputs 为空时不检查输出类型
	knownOutputs []string
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// WithOutputs makes the validator reject output types not in known.
func (v *Validator) WithOutputs(known []string) *Validator {
	v.knownOutputs = known
	return v
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateEndpointConfig(&cfg.Endpoint)
	v.validateRunConfig(&cfg.Run)
	v.validateProbeConfig(&cfg.Probe)
	v.validateLoggingConfig(&cfg.Logging)
	v.validateOutputs(cfg.Outputs)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateEndpointConfig(cfg *EndpointConfig) {
	if cfg.URL == "" {
		v.addError("endpoint.url", "url is required")
	} else if !isValidURL(cfg.URL) {
		v.addError("endpoint.url", fmt.Sprintf("invalid url '%s', expected http(s)://host[:port][/path]", cfg.URL))
	}

	if cfg.Timeout <= 0 {
		v.addError("endpoint.timeout", "timeout must be positive")
	}

	for k := range cfg.Headers {
		if strings.TrimSpace(k) == "" {
			v.addError("endpoint.headers", "header name must not be empty")
		}
	}
}

func (v *Validator) validateRunConfig(cfg *RunConfig) {
	if cfg.Iterations < 1 {
		v.addError("run.iterations", fmt.Sprintf("iterations must be a positive integer, got %d", cfg.Iterations))
	}
	if cfg.Delay < 0 {
		v.addError("run.delay", "delay must be non-negative")
	}
}

func (v *Validator) validateProbeConfig(cfg *ProbeConfig) {
	if cfg.Account == "" {
		v.addError("probe.account", "account is required")
	}
	if cfg.Owner == "" {
		v.addError("probe.owner", "owner is required")
	}
	if cfg.TokenProgram == "" {
		v.addError("probe.token_program", "token program is required")
	}
	if cfg.FallbackSlot == 0 {
		v.addError("probe.fallback_slot", "fallback slot must be positive")
	}
}

func (v *Validator) validateLoggingConfig(cfg *LoggingConfig) {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if cfg.Level == "" {
		v.addError("logging.level", "log level is required")
	} else if !validLevels[strings.ToLower(cfg.Level)] {
		v.addError("logging.level", fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", cfg.Level))
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if cfg.Format == "" {
		v.addError("logging.format", "log format is required")
	} else if !validFormats[strings.ToLower(cfg.Format)] {
		v.addError("logging.format", fmt.Sprintf("invalid log format '%s', must be one of: console, json", cfg.Format))
	}

	switch strings.ToLower(cfg.Output) {
	case "stderr", "stdout":
	case "file", "both":
		if cfg.FilePath == "" {
			v.addError("logging.file_path", "file path is required when output is file or both")
		}
	default:
		v.addError("logging.output", fmt.Sprintf("invalid log output '%s', must be one of: stderr, stdout, file, both", cfg.Output))
	}

	if cfg.MaxSize < 0 {
		v.addError("logging.max_size", "max size must be non-negative")
	}
	if cfg.MaxBackups < 0 {
		v.addError("logging.max_backups", "max backups must be non-negative")
	}
	if cfg.MaxAge < 0 {
		v.addError("logging.max_age", "max age must be non-negative")
	}
}

func (v *Validator) validateOutputs(outputs []OutputConfig) {
	for i, o := range outputs {
		field := fmt.Sprintf("outputs[%d].type", i)
		if o.Type == "" {
			v.addError(field, "output type is required")
			continue
		}
		if len(v.knownOutputs) > 0 && !slices.Contains(v.knownOutputs, o.Type) {
			v.addError(field, fmt.Sprintf("unknown output type '%s', available: %s",
				o.Type, strings.Join(v.knownOutputs, ", ")))
		}
	}
}

// isValidURL accepts absolute http and https URLs with a host.
func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && u.Hostname() != ""
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}
