package hostsignal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellerLifecycle(t *testing.T) {
	c := New()
	assert.False(t, c.Cancelled())
	require.NoError(t, c.Check())

	c.Cancel()
	assert.True(t, c.Cancelled())
	assert.Error(t, c.Check())
	assert.ErrorIs(t, c.Check(), CancelledError{})

	c.Reset()
	assert.False(t, c.Cancelled())
	require.NoError(t, c.Check())
}
