package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "goscore/internal/errors"
)

func TestNeighborsDoNotWrapRows(t *testing.T) {
	b := NewEmpty(4)

	assert.ElementsMatch(t, []int{1, 4}, b.Neighbors(0))
	assert.ElementsMatch(t, []int{2, 7}, b.Neighbors(3))
	assert.ElementsMatch(t, []int{0, 8, 5}, b.Neighbors(4))
	assert.ElementsMatch(t, []int{3, 6, 11}, b.Neighbors(7))
	assert.ElementsMatch(t, []int{11, 14}, b.Neighbors(15))
	assert.ElementsMatch(t, []int{1, 4, 6, 9}, b.Neighbors(5))
}

func TestDiagonals(t *testing.T) {
	b := NewEmpty(4)

	assert.ElementsMatch(t, []int{5}, b.Diagonals(0))
	assert.ElementsMatch(t, []int{6}, b.Diagonals(3))
	assert.ElementsMatch(t, []int{10}, b.Diagonals(15))
	assert.ElementsMatch(t, []int{1, 9}, b.Diagonals(4))
	assert.ElementsMatch(t, []int{0, 2, 8, 10}, b.Diagonals(5))
}

func TestUpLeft(t *testing.T) {
	b := NewEmpty(3)

	_, ok := b.Up(2)
	assert.False(t, ok)
	up, ok := b.Up(5)
	assert.True(t, ok)
	assert.Equal(t, 2, up)

	_, ok = b.Left(3)
	assert.False(t, ok)
	left, ok := b.Left(4)
	assert.True(t, ok)
	assert.Equal(t, 3, left)
}

func TestParseRoundTrip(t *testing.T) {
	const fixture = "|_|w|b|_|,|w|_|b|b|,|w|_|_|b|,|_|w|b|_|"

	b, err := Parse(fixture)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Size)
	assert.Equal(t, White, b.At(1))
	assert.Equal(t, Black, b.At(2))
	assert.Equal(t, Empty, b.At(5))
	assert.Equal(t, fixture, b.String())
}

func TestParseRejectsRaggedRows(t *testing.T) {
	_, err := Parse("|_|_|,|_|")
	assert.ErrorIs(t, err, errs.ErrBoardSizeMismatch)

	_, err = Parse("|_|x|,|_|_|")
	assert.ErrorIs(t, err, errs.ErrUnknownColor)
}

func TestNewValidatesSize(t *testing.T) {
	_, err := New(3, make([]TileState, 8))
	assert.ErrorIs(t, err, errs.ErrBoardSizeMismatch)

	_, err = New(2, []TileState{Empty, Black, White, 7})
	assert.ErrorIs(t, err, errs.ErrBoardSizeMismatch)

	b, err := New(2, []TileState{Empty, Black, White, Empty})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count(Black))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("B")
	require.NoError(t, err)
	assert.Equal(t, Black, c)
	assert.Equal(t, White, c.Opponent())

	_, err = ParseColor("red")
	assert.ErrorIs(t, err, errs.ErrUnknownColor)
}

func TestTileStateText(t *testing.T) {
	for _, s := range []TileState{Empty, Black, White} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back TileState
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
}
