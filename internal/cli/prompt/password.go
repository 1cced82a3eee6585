package prompt

import (
	"strings"

	"github.com/manifoldco/promptui"
)

// Password prompts for a non-blank secret with masked input, such as a
// RetroAchievements API key.
func Password(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: required,
	}

	result, err := prompt.Run()
	return strings.TrimSpace(result), wrapError(err)
}
