package metadeck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
)

func TestLifecycle(t *testing.T) {
	m := New()
	assert.Equal(t, models.ModuleMetaDeck, m.Name())
	assert.False(t, m.Running())

	require.NoError(t, m.Start(context.Background(), nil))
	assert.True(t, m.Running())

	require.NoError(t, m.Stop(context.Background(), nil))
	assert.False(t, m.Running())
}
