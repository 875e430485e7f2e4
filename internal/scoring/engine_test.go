package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscore/internal/domain/board"
)

func mustParse(t *testing.T, s string) *board.Board {
	t.Helper()
	b, err := board.Parse(s)
	require.NoError(t, err)
	return b
}

// fixture13 has a small black group caught inside a white wall in the top left, a
// black wall holding the bottom left corner and a white wall on the right edge.
func fixture13() *board.Board {
	b := board.NewEmpty(13)
	place := func(color board.TileState, xy ...[2]int) {
		for _, p := range xy {
			b.Set(b.Pos(p[0], p[1]), color)
		}
	}
	for y := 0; y <= 3; y++ {
		place(board.White, [2]int{6, y})
	}
	for x := 0; x <= 6; x++ {
		place(board.White, [2]int{x, 4})
	}
	place(board.Black, [2]int{2, 0}, [2]int{2, 1}, [2]int{2, 2}, [2]int{3, 2}, [2]int{4, 2})
	for x := 0; x <= 3; x++ {
		place(board.Black, [2]int{x, 5})
	}
	for y := 6; y <= 12; y++ {
		place(board.Black, [2]int{3, y})
	}
	for y := 0; y <= 7; y++ {
		place(board.White, [2]int{11, y})
	}
	place(board.White, [2]int{12, 7})
	return b
}

func TestEyeThresholds(t *testing.T) {
	tests := []struct {
		name      string
		board     string
		alive     bool
		territory int
	}{
		{"two single eyes", "|_|b|_|,|b|b|b|,|b|b|b|", true, 2},
		{"one single eye", "|_|b|b|,|b|b|b|,|b|b|b|", false, 0},
		{"one eye of three", "|_|_|_|,|b|b|b|,|b|b|b|", true, 3},
		{"one eye of two", "|_|_|b|,|b|b|b|,|b|b|b|", false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := Analyze(mustParse(t, tc.board), Options{})
			assert.True(t, e.IsEye(0))
			assert.Equal(t, tc.alive, e.ChainAlive(4))
			assert.Equal(t, tc.territory, e.TerritoryCount(board.Black))
			assert.Equal(t, 0, e.TerritoryCount(board.White))
			assert.Equal(t, float64(tc.territory), e.BlackPointCount())
		})
	}
}

func TestFalseEyeInCorner(t *testing.T) {
	e := Analyze(mustParse(t, "|_|b|_|_|,|b|w|_|_|,|_|_|_|_|,|_|_|_|_|"), Options{})
	assert.False(t, e.IsEye(0))

	e = Analyze(mustParse(t, "|_|b|_|_|,|b|_|_|_|,|_|_|_|_|,|_|_|_|_|"), Options{})
	assert.True(t, e.IsEye(0))
}

func TestTwoTileEyeBetweenSeparateGroups(t *testing.T) {
	rows := []string{
		"|_|_|_|_|_|_|",
		"|_|_|b|b|w|_|",
		"|_|b|_|_|b|_|",
		"|_|w|b|b|w|_|",
		"|_|_|_|_|_|_|",
		"|_|_|_|_|_|_|",
	}
	join := func(rows []string) string {
		s := rows[0]
		for _, r := range rows[1:] {
			s += "," + r
		}
		return s
	}

	e := Analyze(mustParse(t, join(rows)), Options{})
	assert.True(t, e.IsEye(14))
	assert.True(t, e.IsEye(15))

	rows[1] = "|_|w|b|b|w|_|"
	e = Analyze(mustParse(t, join(rows)), Options{})
	assert.False(t, e.IsEye(14))
}

func TestNeutralAndEmptyBoards(t *testing.T) {
	e := Analyze(board.NewEmpty(9), Options{Komi: 6.5})
	assert.Equal(t, 0, e.TerritoryCount(board.Black))
	assert.Equal(t, 0, e.TerritoryCount(board.White))
	assert.Equal(t, 6.5, e.WhitePointCount())
	assert.Empty(t, e.ChangedTiles())
	assert.False(t, e.MarkAsDead(0))
	assert.False(t, e.MarkAsNotDead(0))
	assert.False(t, e.IsEye(0))
	assert.Equal(t, Neutral, e.TerritoryStatus(-1))

	e = Analyze(mustParse(t, "|_|b|w|_|,|_|b|w|_|,|_|b|w|_|,|_|b|w|_|"), Options{BlackCaptures: 2, WhiteCaptures: 3})
	assert.Equal(t, 4, e.TerritoryCount(board.Black))
	assert.Equal(t, 4, e.TerritoryCount(board.White))
	assert.Equal(t, 6.0, e.BlackPointCount())
	assert.Equal(t, 7.0, e.WhitePointCount())
}

func TestInitialTerritory13(t *testing.T) {
	e := Analyze(fixture13(), Options{Komi: 6.5})

	assert.Equal(t, 21, e.TerritoryCount(board.Black))
	assert.Equal(t, 7, e.TerritoryCount(board.White))
	assert.Equal(t, 21.0, e.BlackPointCount())
	assert.Equal(t, 13.5, e.WhitePointCount())
	assert.Len(t, e.ChangedTiles(), 28)
	assert.Equal(t, 0, e.MetaChainCount())

	b := fixture13()
	assert.Equal(t, BlackTerritory, e.TerritoryStatus(b.Pos(0, 12)))
	assert.Equal(t, WhiteTerritory, e.TerritoryStatus(b.Pos(12, 0)))
	assert.Equal(t, Neutral, e.TerritoryStatus(b.Pos(0, 0)))
	assert.False(t, e.ChainAlive(2))
	assert.True(t, e.ChainAlive(b.Pos(3, 12)))
}

func TestMarkDeadGroup13(t *testing.T) {
	e := Analyze(fixture13(), Options{Komi: 6.5})
	before := e.Territory()

	require.True(t, e.MarkAsDead(2))
	assert.Equal(t, 1, e.MetaChainCount())
	assert.Equal(t, 21, e.TerritoryCount(board.Black))
	assert.Equal(t, 31, e.TerritoryCount(board.White))
	assert.Equal(t, 21.0, e.BlackPointCount())
	assert.Equal(t, 42.5, e.WhitePointCount())
	assert.Len(t, e.ChangedTiles(), 24)
	assert.Len(t, e.DeadStones(), 5)
	assert.Equal(t, WhiteTerritory, e.TerritoryStatus(0))
	assert.Equal(t, WhiteTerritory, e.TerritoryStatus(2))

	assert.False(t, e.MarkAsDead(2))
	assert.False(t, e.MarkAsDead(13*2+2))

	require.True(t, e.MarkAsNotDead(2))
	assert.Equal(t, 0, e.MetaChainCount())
	assert.Equal(t, 21.0, e.BlackPointCount())
	assert.Equal(t, 13.5, e.WhitePointCount())
	assert.Equal(t, before, e.Territory())
	assert.Len(t, e.ChangedTiles(), 24)
	assert.Empty(t, e.DeadStones())

	assert.False(t, e.MarkAsNotDead(2))
}

// linked5 has a black group with a single two tile eye, a lone white stone next to it
// and a living white wall below.
const linked5 = "|_|_|b|w|_|,|b|b|b|b|b|,|w|w|w|w|w|,|_|_|_|_|_|,|_|_|_|_|_|"

func TestMarkLinkedChains(t *testing.T) {
	t.Run("white stone dead", func(t *testing.T) {
		e := Analyze(mustParse(t, linked5), Options{})
		assert.Equal(t, 0, e.TerritoryCount(board.Black))
		assert.Equal(t, 10, e.TerritoryCount(board.White))
		assert.False(t, e.ChainAlive(2))
		assert.False(t, e.ChainAlive(3))
		assert.True(t, e.ChainAlive(10))

		require.True(t, e.MarkAsDead(3))
		assert.Equal(t, 4, e.TerritoryCount(board.Black))
		assert.Equal(t, 5.0, e.BlackPointCount())
		assert.Equal(t, 10.0, e.WhitePointCount())
		assert.Equal(t, []int{0, 1, 3, 4}, e.ChangedTiles())
		assert.Equal(t, []int{3}, e.DeadStones())
		assert.False(t, e.MarkAsDead(4))
	})

	t.Run("black group dead", func(t *testing.T) {
		e := Analyze(mustParse(t, linked5), Options{})
		require.True(t, e.MarkAsDead(7))
		assert.Equal(t, 0, e.TerritoryCount(board.Black))
		assert.Equal(t, 19, e.TerritoryCount(board.White))
		assert.Equal(t, 25.0, e.WhitePointCount())
		assert.Len(t, e.DeadStones(), 6)
	})

	t.Run("both dead share a meta chain", func(t *testing.T) {
		e := Analyze(mustParse(t, linked5), Options{})
		initial := e.Territory()

		require.True(t, e.MarkAsDead(3))
		afterWhite := e.Territory()
		require.True(t, e.MarkAsDead(2))
		assert.Equal(t, 1, e.MetaChainCount())
		assert.Equal(t, 1, e.TerritoryCount(board.Black))
		assert.Equal(t, 18, e.TerritoryCount(board.White))
		assert.Equal(t, Neutral, e.TerritoryStatus(4))
		assert.Equal(t, BlackTerritory, e.TerritoryStatus(3))
		assert.Equal(t, 2.0, e.BlackPointCount())
		assert.Equal(t, 24.0, e.WhitePointCount())

		require.True(t, e.MarkAsNotDead(5))
		assert.Equal(t, afterWhite, e.Territory())
		assert.Equal(t, 1, e.MetaChainCount())
		assert.Equal(t, 5.0, e.BlackPointCount())

		require.True(t, e.MarkAsNotDead(3))
		assert.Equal(t, initial, e.Territory())
		assert.Equal(t, 0, e.MetaChainCount())
		assert.Equal(t, 0.0, e.BlackPointCount())
		assert.Equal(t, 10.0, e.WhitePointCount())
	})
}

func TestSeparateMetaChains(t *testing.T) {
	e := Analyze(fixture13(), Options{})
	b := fixture13()

	require.True(t, e.MarkAsDead(2))
	require.True(t, e.MarkAsDead(b.Pos(11, 0)))
	assert.Equal(t, 2, e.MetaChainCount())
	assert.Equal(t, 123, e.TerritoryCount(board.Black))
	assert.Equal(t, 24, e.TerritoryCount(board.White))

	require.True(t, e.MarkAsNotDead(2))
	assert.Equal(t, 1, e.MetaChainCount())
	assert.Equal(t, 123, e.TerritoryCount(board.Black))
	assert.Equal(t, 0, e.TerritoryCount(board.White))
}

// stripes alternates full columns of black and white stones, so every chain only
// meets the columns next to it.
const stripes = "|b|w|b|w|b|,|b|w|b|w|b|,|b|w|b|w|b|,|b|w|b|w|b|,|b|w|b|w|b|"

func TestReviveBridgeSplitsMetaChain(t *testing.T) {
	e := Analyze(mustParse(t, stripes), Options{})

	require.True(t, e.MarkAsDead(0))
	require.True(t, e.MarkAsDead(4))
	assert.Equal(t, 2, e.MetaChainCount())
	before := e.Territory()

	require.True(t, e.MarkAsDead(2))
	assert.Equal(t, 1, e.MetaChainCount())
	assert.Len(t, e.DeadStones(), 15)

	require.True(t, e.MarkAsNotDead(2))
	assert.Equal(t, 2, e.MetaChainCount())
	assert.Equal(t, before, e.Territory())
	assert.Len(t, e.DeadStones(), 10)

	// the white column next to the first dead column joins its meta chain only
	require.True(t, e.MarkAsDead(1))
	assert.Equal(t, 2, e.MetaChainCount())

	require.True(t, e.MarkAsNotDead(0))
	require.True(t, e.MarkAsNotDead(1))
	assert.Equal(t, 1, e.MetaChainCount())
	require.True(t, e.MarkAsNotDead(4))
	assert.Equal(t, 0, e.MetaChainCount())
}

type markState struct {
	metas     int
	territory []TerritoryStatus
	black     float64
	white     float64
	dead      []int
}

func markStateOf(e *Engine) markState {
	return markState{
		metas:     e.MetaChainCount(),
		territory: e.Territory(),
		black:     e.BlackPointCount(),
		white:     e.WhitePointCount(),
		dead:      e.DeadStones(),
	}
}

func TestMarkThenReviveRestoresState(t *testing.T) {
	boards := []string{
		stripes,
		linked5,
		"|_|b|w|_|w|,|_|b|_|_|b|,|_|b|w|_|b|,|w|w|b|w|_|,|b|_|_|_|w|",
	}

	for _, layout := range boards {
		b := mustParse(t, layout)
		stones := make([]int, 0)
		for pos := 0; pos < b.Len(); pos++ {
			if b.At(pos).IsStone() {
				stones = append(stones, pos)
			}
		}

		premarks := [][]int{{}}
		for i, p := range stones {
			premarks = append(premarks, []int{p})
			for _, q := range stones[i+1:] {
				premarks = append(premarks, []int{p, q})
			}
		}

		for _, marks := range premarks {
			for _, pos := range stones {
				e := Analyze(b, Options{Komi: 0.5})
				for _, m := range marks {
					e.MarkAsDead(m)
				}
				want := markStateOf(e)
				if !e.MarkAsDead(pos) {
					continue
				}

				data, err := e.Snapshot()
				require.NoError(t, err)
				_, err = Restore(data)
				require.NoError(t, err, "%s marks %v then %d", layout, marks, pos)

				require.True(t, e.MarkAsNotDead(pos))
				require.Equal(t, want, markStateOf(e), "%s marks %v then %d", layout, marks, pos)

				data, err = e.Snapshot()
				require.NoError(t, err)
				_, err = Restore(data)
				require.NoError(t, err, "%s marks %v then revive %d", layout, marks, pos)
			}
		}
	}
}
