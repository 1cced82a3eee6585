package prompt

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// errRequired is shown by promptui while a required input is empty.
var errRequired = errors.New("value is required")

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted for consistent handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// required rejects blank input.
func required(input string) error {
	if strings.TrimSpace(input) == "" {
		return errRequired
	}
	return nil
}

// Input prompts for text input.
func Input(label string, defaultValue string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// InputRequired prompts for non-blank text input.
func InputRequired(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: required,
	}

	result, err := prompt.Run()
	return strings.TrimSpace(result), wrapError(err)
}
