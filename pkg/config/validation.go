package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

// Validate validates the configuration using struct tags and the checks that
// tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation error: %w", err)
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := validateModules(&cfg.Modules); err != nil {
		return err
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.API.Port && cfg.API.IsEnabled() {
		return fmt.Errorf("metrics.port and api.port must differ (both %d)", cfg.API.Port)
	}

	return nil
}

func validateModules(cfg *ModulesConfig) error {
	var unknown []string
	for name := range cfg.Defaults {
		if _, err := models.ParseModuleName(name); err != nil {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("modules.defaults: %w: %s", models.ErrUnknownModule, strings.Join(unknown, ", "))
	}
	return nil
}

// formatValidationErrors renders validator errors as one line per field,
// naming the failed tag and its parameter.
func formatValidationErrors(errs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("%s: failed %q validation", e.Namespace(), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (%s=%s)", e.Tag(), e.Param())
		}
		msg += fmt.Sprintf(", got %v", e.Value())
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
}
