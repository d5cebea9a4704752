package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecrement(t *testing.T) {
	left, err := Decrement("Mug", 5, 3)
	require.NoError(t, err)
	require.Equal(t, 2, left)

	left, err = Decrement("Mug", 5, 5)
	require.NoError(t, err)
	require.Equal(t, 0, left)

	left, err = Decrement("Mug", 2, 3)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 2, left)
	require.Contains(t, err.Error(), "available 2, requested 3")
}

func TestMergeKeepsFirstSeenOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := Merge([]Line{{a, 1}, {b, 2}, {a, 4}})
	require.Equal(t, []Line{{a, 5}, {b, 2}}, got)
}
