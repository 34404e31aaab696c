package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBook(t *testing.T) {
	b, err := NewBook("  Dune ", "desert planet", testAuthorID, testCategoryID, 4)
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, uint(4), b.AvailableCopies)
	assert.True(t, b.Available())

	b, err = NewBook("Empty shelf", "", testAuthorID, testCategoryID, 0)
	require.NoError(t, err)
	assert.False(t, b.Available())

	_, err = NewBook(" ", "", testAuthorID, testCategoryID, 1)
	assert.True(t, errors.Is(err, ErrInvalidBook))

	_, err = NewBook("Dune", "", "", testCategoryID, 1)
	assert.True(t, errors.Is(err, ErrInvalidBook))
}
