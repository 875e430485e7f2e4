package game

import "goscore/internal/domain/board"

// @name Move
type Move struct {
	Color    board.TileState `json:"color"`
	Position int             `json:"position"`
}
