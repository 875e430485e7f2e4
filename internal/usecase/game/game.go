package game

import (
	"fmt"

	"go.uber.org/zap"

	"goscore/internal/domain/board"
	"goscore/internal/domain/game"
	errs "goscore/internal/errors"
	"goscore/internal/rules"
)

type MovesUseCase struct {
	log          *zap.SugaredLogger
	maxBoardSize int
}

func NewMovesUseCase(log *zap.SugaredLogger, maxBoardSize int) *MovesUseCase {
	return &MovesUseCase{log: log, maxBoardSize: maxBoardSize}
}

func (m *MovesUseCase) engine(pos game.Position) (*board.Board, *rules.Engine, error) {
	if m.maxBoardSize > 0 && pos.BoardSize > m.maxBoardSize {
		return nil, nil, fmt.Errorf("%w: size %d exceeds %d", errs.ErrBoardSizeMismatch, pos.BoardSize, m.maxBoardSize)
	}
	b, err := pos.Board()
	if err != nil {
		return nil, nil, err
	}
	var opts []rules.Option
	if pos.Ko != nil {
		opts = append(opts, rules.WithKo(pos.Ko.Color, pos.Ko.Position))
	}
	return b, rules.NewEngine(b, opts...), nil
}

// PlayMove applies a move to the submitted position and returns the new position with
// the move sets of the player to move next.
func (m *MovesUseCase) PlayMove(req game.PlayMoveRequest) (game.PlayMoveResponse, error) {
	b, e, err := m.engine(req.Position)
	if err != nil {
		return game.PlayMoveResponse{}, err
	}
	res, err := e.PlayMove(req.Move.Position, req.Move.Color)
	if err != nil {
		m.log.Debugw("move rejected", "position", req.Move.Position, "color", req.Move.Color, "error", err)
		return game.PlayMoveResponse{}, err
	}

	resp := game.PlayMoveResponse{
		Tiles:         b.Tiles,
		Captured:      res.Captured,
		InvalidMoves:  res.InvalidMoves,
		KillingMoves:  res.KillingMoves,
		TilesToUpdate: res.TilesToUpdate,
	}
	if res.Ko != nil {
		resp.Ko = &game.Ko{Color: res.Ko.Color, Position: res.Ko.Position}
	}
	return resp, nil
}

func (m *MovesUseCase) InvalidMoves(req game.InvalidMovesRequest) (game.InvalidMovesResponse, error) {
	if !req.Color.IsStone() {
		return game.InvalidMovesResponse{}, fmt.Errorf("%w: %s", errs.ErrUnknownColor, req.Color)
	}
	_, e, err := m.engine(req.Position)
	if err != nil {
		return game.InvalidMovesResponse{}, err
	}
	return game.InvalidMovesResponse{
		Color:        req.Color,
		InvalidMoves: e.InvalidMoves(req.Color),
		KillingMoves: e.KillingMoves(req.Color),
	}, nil
}
