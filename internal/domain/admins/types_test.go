package admins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordSetAndCompare(t *testing.T) {
	var p Password
	require.NoError(t, p.Set("s3cret-admin-pass"))

	assert.NoError(t, p.Compare("s3cret-admin-pass"))
	assert.Error(t, p.Compare("wrong"))
	assert.NotEmpty(t, p.Hash())
}

func TestPasswordRestoredFromHash(t *testing.T) {
	var p Password
	require.NoError(t, p.Set("s3cret-admin-pass"))

	var restored Password
	restored.SetHash(p.Hash())
	assert.NoError(t, restored.Compare("s3cret-admin-pass"))
}
