package game

import "goscore/internal/domain/board"

// Position is the board a request is evaluated on, in flat row-major order.
type Position struct {
	BoardSize int               `json:"board_size" bson:"board_size"`
	Tiles     []board.TileState `json:"tiles" bson:"tiles"`
	Ko        *Ko               `json:"ko,omitempty" bson:"ko,omitempty"`
}

func (p Position) Board() (*board.Board, error) {
	tiles := make([]board.TileState, len(p.Tiles))
	copy(tiles, p.Tiles)
	return board.New(p.BoardSize, tiles)
}

type Ko struct {
	Color    board.TileState `json:"color" bson:"color"`
	Position int             `json:"position" bson:"position"`
}

type PlayMoveRequest struct {
	Position
	Move Move `json:"move"`
}

type PlayMoveResponse struct {
	Tiles         []board.TileState `json:"tiles"`
	Captured      []int             `json:"captured"`
	Ko            *Ko               `json:"ko,omitempty"`
	InvalidMoves  []int             `json:"invalid_moves"`
	KillingMoves  []int             `json:"killing_moves"`
	TilesToUpdate []int             `json:"tiles_to_update"`
}

type InvalidMovesRequest struct {
	Position
	Color board.TileState `json:"color"`
}

type InvalidMovesResponse struct {
	Color        board.TileState `json:"color"`
	InvalidMoves []int           `json:"invalid_moves"`
	KillingMoves []int           `json:"killing_moves"`
}
