package branch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	b, err := Parse("branch2")
	require.NoError(t, err)
	assert.Equal(t, Branch2, b)

	_, err = Parse("branch4")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	assert.Equal(t, Main, all[0])
	for _, b := range all {
		assert.True(t, b.Valid())
	}
}
