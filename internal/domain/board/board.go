package board

import (
	"fmt"
	"strings"

	errs "goscore/internal/errors"
)

type TileState uint8

const (
	Empty TileState = iota
	Black
	White
)

func (t TileState) Opponent() TileState {
	switch t {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (t TileState) IsStone() bool {
	return t == Black || t == White
}

func (t TileState) String() string {
	switch t {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

func (t TileState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TileState) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "empty", "_", "":
		*t = Empty
		return nil
	}
	c, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*t = c
	return nil
}

// ParseColor accepts "b", "black", "w" and "white" in any case.
func ParseColor(s string) (TileState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b", "black":
		return Black, nil
	case "w", "white":
		return White, nil
	}
	return Empty, fmt.Errorf("%w: %q", errs.ErrUnknownColor, s)
}

// Board is a flat, row-major N×N grid of tiles.
type Board struct {
	Size  int         `json:"size"`
	Tiles []TileState `json:"tiles"`
}

func New(size int, tiles []TileState) (*Board, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", errs.ErrBoardSizeMismatch, size)
	}
	if len(tiles) != size*size {
		return nil, fmt.Errorf("%w: %d tiles for size %d", errs.ErrBoardSizeMismatch, len(tiles), size)
	}
	for i, t := range tiles {
		if t > White {
			return nil, fmt.Errorf("%w: tile %d has state %d", errs.ErrBoardSizeMismatch, i, t)
		}
	}
	return &Board{Size: size, Tiles: tiles}, nil
}

func NewEmpty(size int) *Board {
	return &Board{Size: size, Tiles: make([]TileState, size*size)}
}

func (b *Board) Len() int {
	return len(b.Tiles)
}

func (b *Board) At(pos int) TileState {
	return b.Tiles[pos]
}

func (b *Board) Set(pos int, t TileState) {
	b.Tiles[pos] = t
}

func (b *Board) InRange(pos int) bool {
	return pos >= 0 && pos < len(b.Tiles)
}

func (b *Board) XY(pos int) (x, y int) {
	return pos % b.Size, pos / b.Size
}

func (b *Board) Pos(x, y int) int {
	return y*b.Size + x
}

func (b *Board) Clone() *Board {
	tiles := make([]TileState, len(b.Tiles))
	copy(tiles, b.Tiles)
	return &Board{Size: b.Size, Tiles: tiles}
}

func (b *Board) Count(t TileState) int {
	n := 0
	for _, tile := range b.Tiles {
		if tile == t {
			n++
		}
	}
	return n
}

// Up returns the position above pos, if any.
func (b *Board) Up(pos int) (int, bool) {
	if pos-b.Size < 0 {
		return -1, false
	}
	return pos - b.Size, true
}

// Left returns the position to the left of pos, if it is on the same row.
func (b *Board) Left(pos int) (int, bool) {
	if pos%b.Size == 0 {
		return -1, false
	}
	return pos - 1, true
}

// Neighbors returns the orthogonal neighbours of pos without wrapping across rows.
func (b *Board) Neighbors(pos int) []int {
	res := make([]int, 0, 4)
	x, y := b.XY(pos)
	if y > 0 {
		res = append(res, pos-b.Size)
	}
	if x > 0 {
		res = append(res, pos-1)
	}
	if x < b.Size-1 {
		res = append(res, pos+1)
	}
	if y < b.Size-1 {
		res = append(res, pos+b.Size)
	}
	return res
}

// Diagonals returns the diagonal neighbours of pos inside the board.
func (b *Board) Diagonals(pos int) []int {
	res := make([]int, 0, 4)
	x, y := b.XY(pos)
	for _, d := range [4][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= b.Size || ny >= b.Size {
			continue
		}
		res = append(res, b.Pos(nx, ny))
	}
	return res
}

// Parse reads the fixture format "|_|w|b|_|,|w|_|b|b|,..." where every comma separated
// chunk is one row.
func Parse(s string) (*Board, error) {
	rows := strings.Split(strings.TrimSpace(s), ",")
	size := len(rows)
	tiles := make([]TileState, 0, size*size)
	for y, row := range rows {
		cells := strings.Split(strings.Trim(strings.TrimSpace(row), "|"), "|")
		if len(cells) != size {
			return nil, fmt.Errorf("%w: row %d has %d tiles, want %d", errs.ErrBoardSizeMismatch, y, len(cells), size)
		}
		for _, c := range cells {
			switch strings.TrimSpace(c) {
			case "_", "":
				tiles = append(tiles, Empty)
			case "b", "B":
				tiles = append(tiles, Black)
			case "w", "W":
				tiles = append(tiles, White)
			default:
				return nil, fmt.Errorf("%w: tile %q in row %d", errs.ErrUnknownColor, c, y)
			}
		}
	}
	return New(size, tiles)
}

func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.Size; y++ {
		if y > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("|")
		for x := 0; x < b.Size; x++ {
			switch b.Tiles[b.Pos(x, y)] {
			case Black:
				sb.WriteString("b")
			case White:
				sb.WriteString("w")
			default:
				sb.WriteString("_")
			}
			sb.WriteString("|")
		}
	}
	return sb.String()
}
