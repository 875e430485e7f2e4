package sgf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"goscore/internal/domain/board"
)

// GameTree is one SGF tree: the main line of nodes plus variations.
type GameTree struct {
	Nodes    []Node
	Children []*GameTree
}

// Node holds SGF properties. A property may carry several values, e.g. AB[aa][bb].
type Node struct {
	Properties map[string][]string
}

type SGF struct {
	Root *GameTree
}

var orderedKeys = []string{"FF", "GM", "SZ", "KM", "RU", "RE", "C", "AB", "AW", "TB", "TW", "B", "W"}

// Coordinate encodes a board position as an SGF point. Columns and rows past 26 use
// upper case letters.
func Coordinate(b *board.Board, pos int) string {
	x, y := b.XY(pos)
	return string([]byte{coordLetter(x), coordLetter(y)})
}

func coordLetter(i int) byte {
	if i < 26 {
		return byte('a' + i)
	}
	return byte('A' + i - 26)
}

// Result formats the RE value of a counted game: "B+3.5", "W+12" or "0" for a draw.
func Result(winner board.TileState, margin float64) string {
	switch winner {
	case board.Black:
		return "B+" + strconv.FormatFloat(margin, 'f', -1, 64)
	case board.White:
		return "W+" + strconv.FormatFloat(margin, 'f', -1, 64)
	}
	return "0"
}

// ScoredPosition describes a final position with its territory markup.
type ScoredPosition struct {
	Board          *board.Board
	Komi           float64
	BlackTerritory []int
	WhiteTerritory []int
	Winner         board.TileState
	Margin         float64
}

// FromScoredPosition builds a single node SGF with setup stones and territory marks.
func FromScoredPosition(p ScoredPosition) SGF {
	points := func(positions []int) []string {
		return lo.Map(positions, func(pos int, _ int) string { return Coordinate(p.Board, pos) })
	}
	stones := func(color board.TileState) []int {
		res := make([]int, 0)
		for pos, t := range p.Board.Tiles {
			if t == color {
				res = append(res, pos)
			}
		}
		return res
	}

	props := map[string][]string{
		"FF": {"4"},
		"GM": {"1"},
		"SZ": {strconv.Itoa(p.Board.Size)},
		"KM": {strconv.FormatFloat(p.Komi, 'f', 1, 64)},
		"RU": {"Japanese"},
		"RE": {Result(p.Winner, p.Margin)},
	}
	for key, positions := range map[string][]int{
		"AB": stones(board.Black),
		"AW": stones(board.White),
		"TB": p.BlackTerritory,
		"TW": p.WhiteTerritory,
	} {
		if len(positions) > 0 {
			props[key] = points(positions)
		}
	}
	return SGF{Root: &GameTree{Nodes: []Node{{Properties: props}}}}
}

func Serialize(s SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		// known properties first, in a fixed order, then the rest sorted
		rest := lo.Without(lo.Keys(node.Properties), orderedKeys...)
		slices.Sort(rest)
		for _, key := range append(slices.Clone(orderedKeys), rest...) {
			values, ok := node.Properties[key]
			if !ok {
				continue
			}
			builder.WriteString(key)
			for _, v := range values {
				builder.WriteString(fmt.Sprintf("[%s]", escape(v)))
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func escape(v string) string {
	return strings.NewReplacer(`\`, `\\`, `]`, `\]`).Replace(v)
}
