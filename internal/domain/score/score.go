package score

import (
	"fmt"
	"strings"
	"time"

	"goscore/internal/domain/board"
	errs "goscore/internal/errors"
)

type MarkStatus string

const (
	StatusDead  MarkStatus = "dead"
	StatusAlive MarkStatus = "alive"
)

func ParseMarkStatus(s string) (MarkStatus, error) {
	switch MarkStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDead:
		return StatusDead, nil
	case StatusAlive, "not_dead":
		return StatusAlive, nil
	}
	return "", fmt.Errorf("%w: %q", errs.ErrUnknownMarkStatus, s)
}

// TileTerritory is the territory owner of one changed tile: "black", "white" or
// "neutral".
type TileTerritory struct {
	Position int    `json:"position"`
	Status   string `json:"status"`
}

// Summary is the scoring state sent to clients after every change.
type Summary struct {
	BlackPoints    float64         `json:"black_points"`
	WhitePoints    float64         `json:"white_points"`
	BlackTerritory int             `json:"black_territory"`
	WhiteTerritory int             `json:"white_territory"`
	DeadStones     []int           `json:"dead_stones"`
	ChangedTiles   []int           `json:"changed_tiles"`
	Territory      []TileTerritory `json:"territory"`
}

// Result is the archived outcome of a finalized scoring session.
type Result struct {
	SessionKey     string          `json:"session_key" bson:"session_key"`
	BoardSize      int             `json:"board_size" bson:"board_size"`
	Komi           float64         `json:"komi" bson:"komi"`
	BlackPoints    float64         `json:"black_points" bson:"black_points"`
	WhitePoints    float64         `json:"white_points" bson:"white_points"`
	BlackTerritory int             `json:"black_territory" bson:"black_territory"`
	WhiteTerritory int             `json:"white_territory" bson:"white_territory"`
	DeadStones     []int           `json:"dead_stones" bson:"dead_stones"`
	Winner         board.TileState `json:"winner" bson:"winner"`
	Margin         float64         `json:"margin" bson:"margin"`
	SGF            string          `json:"sgf" bson:"sgf"`
	FinishedAt     time.Time       `json:"finished_at" bson:"finished_at"`
}

// Winner returns the color with more points, Empty on a draw.
func Winner(black, white float64) (board.TileState, float64) {
	switch {
	case black > white:
		return board.Black, black - white
	case white > black:
		return board.White, white - black
	}
	return board.Empty, 0
}

type ScoringRequest struct {
	SessionKey    string            `json:"session_key,omitempty"`
	BoardSize     int               `json:"board_size"`
	Tiles         []board.TileState `json:"tiles"`
	Komi          *float64          `json:"komi,omitempty"`
	BlackCaptures int               `json:"black_captures"`
	WhiteCaptures int               `json:"white_captures"`
}

type ScoringResponse struct {
	SessionKey string  `json:"session_key"`
	Summary    Summary `json:"summary"`
}

type MarkRequest struct {
	ScoringRequest
	Position int    `json:"position"`
	Status   string `json:"status"`
}

type MarkResponse struct {
	Changed bool    `json:"changed"`
	Summary Summary `json:"summary"`
}
