package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(promptui.ErrAbort))
	assert.True(t, IsAborted(ErrAborted))
	assert.True(t, IsAborted(fmt.Errorf("prompt: %w", promptui.ErrInterrupt)))
	assert.False(t, IsAborted(errors.New("boom")))
	assert.False(t, IsAborted(nil))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.ErrorIs(t, wrapError(promptui.ErrInterrupt), ErrAborted)

	other := errors.New("tty closed")
	assert.Equal(t, other, wrapError(other))
}

func TestRequired(t *testing.T) {
	assert.NoError(t, required("player1"))
	assert.ErrorIs(t, required(""), errRequired)
	assert.ErrorIs(t, required("   "), errRequired)
}

func TestConfirmWithForce(t *testing.T) {
	ok, err := ConfirmWithForce("Disable MetaDeck?", true)
	assert.NoError(t, err)
	assert.True(t, ok)
}
