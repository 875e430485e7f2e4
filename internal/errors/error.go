package errors

import "errors"

var (
	ErrBoardSizeMismatch  = errors.New("board size does not match tile count")
	ErrUnknownColor       = errors.New("unknown tile color")
	ErrPositionOutOfRange = errors.New("position is out of board range")
	ErrTileOccupied       = errors.New("tile is already occupied")
	ErrIllegalMove        = errors.New("move is illegal (suicide or ko)")
	ErrUnknownMarkStatus  = errors.New("unknown mark status")
	ErrMalformedRequest   = errors.New("malformed request")

	ErrSnapshotNotFound = errors.New("scoring snapshot was not found")
	ErrSnapshotConflict = errors.New("scoring snapshot was modified concurrently")
	ErrSnapshotCorrupt  = errors.New("scoring snapshot is corrupt")
	ErrSessionFinalized = errors.New("scoring session is already finalized")
)
