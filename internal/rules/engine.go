// Package rules decides move legality on a Go board and applies moves: captures,
// ko detection, and the invalid / killing move sets for the next turn.
//
// An Engine is built for one move evaluation and discarded afterwards. It borrows
// the caller's board and mutates it in place when a move is played.
package rules

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"goscore/internal/domain/board"
	errs "goscore/internal/errors"
)

const noGroup = -1

type stoneGroup struct {
	color     board.TileState
	members   []int
	liberties map[int]struct{}
}

// Ko is a position the given color may not play on its next move.
type Ko struct {
	Color    board.TileState `json:"color"`
	Position int             `json:"position"`
}

// MoveResult describes what a played move changed.
type MoveResult struct {
	Position      int             `json:"position"`
	Color         board.TileState `json:"color"`
	Captured      []int           `json:"captured"`
	Ko            *Ko             `json:"ko,omitempty"`
	InvalidMoves  []int           `json:"invalid_moves"`
	KillingMoves  []int           `json:"killing_moves"`
	TilesToUpdate []int           `json:"tiles_to_update"`
}

type moveSets struct {
	invalid map[board.TileState][]int
	killing map[board.TileState][]int
}

type lastMove struct {
	pos      int
	captured []int
	freedKo  []int
	newKo    []int
	before   moveSets
	after    moveSets
}

type Engine struct {
	board   *board.Board
	groupOf []int
	groups  map[int]*stoneGroup
	nextID  int
	ko      map[board.TileState]int
	last    *lastMove
}

type Option func(*Engine)

// WithKo carries a ko restriction over from the previous move.
func WithKo(color board.TileState, pos int) Option {
	return func(e *Engine) {
		if color.IsStone() && e.board.InRange(pos) {
			e.ko[color] = pos
		}
	}
}

func NewEngine(b *board.Board, opts ...Option) *Engine {
	e := &Engine{
		board: b,
		ko:    make(map[board.TileState]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.analyze()
	return e
}

// analyze rebuilds every stone group with a single row-major scan. Each tile only
// looks at its up and left neighbours, which are already assigned.
func (e *Engine) analyze() {
	e.groupOf = make([]int, e.board.Len())
	e.groups = make(map[int]*stoneGroup)
	e.nextID = 0
	for i := range e.groupOf {
		e.groupOf[i] = noGroup
	}

	for pos := 0; pos < e.board.Len(); pos++ {
		tile := e.board.At(pos)
		prev := make([]int, 0, 2)
		if up, ok := e.board.Up(pos); ok {
			prev = append(prev, up)
		}
		if left, ok := e.board.Left(pos); ok {
			prev = append(prev, left)
		}

		if tile == board.Empty {
			for _, n := range prev {
				if id := e.groupOf[n]; id != noGroup {
					e.groups[id].liberties[pos] = struct{}{}
				}
			}
			continue
		}

		id := noGroup
		for _, n := range prev {
			if e.board.At(n) != tile {
				continue
			}
			if id == noGroup {
				id = e.groupOf[n]
			} else if e.groupOf[n] != id {
				id = e.merge(id, e.groupOf[n])
			}
		}
		if id == noGroup {
			id = e.newGroup(tile)
		}
		e.addMember(id, pos)
		for _, n := range prev {
			if e.board.At(n) == board.Empty {
				e.groups[id].liberties[n] = struct{}{}
			}
		}
	}
}

func (e *Engine) newGroup(color board.TileState) int {
	id := e.nextID
	e.nextID++
	e.groups[id] = &stoneGroup{color: color, liberties: make(map[int]struct{})}
	return id
}

func (e *Engine) addMember(id, pos int) {
	e.groups[id].members = append(e.groups[id].members, pos)
	e.groupOf[pos] = id
}

// merge folds the smaller of two groups into the larger one and returns the survivor.
func (e *Engine) merge(a, b int) int {
	if a == b {
		return a
	}
	if len(e.groups[a].members) < len(e.groups[b].members) {
		a, b = b, a
	}
	keep, gone := e.groups[a], e.groups[b]
	for _, m := range gone.members {
		keep.members = append(keep.members, m)
		e.groupOf[m] = a
	}
	for l := range gone.liberties {
		keep.liberties[l] = struct{}{}
	}
	delete(e.groups, b)
	return a
}

func (e *Engine) removeGroup(id int) {
	for _, m := range e.groups[id].members {
		e.groupOf[m] = noGroup
	}
	delete(e.groups, id)
}

// Liberties returns the liberties of the group standing on pos.
func (e *Engine) Liberties(pos int) []int {
	if !e.board.InRange(pos) || e.groupOf[pos] == noGroup {
		return nil
	}
	libs := lo.Keys(e.groups[e.groupOf[pos]].liberties)
	slices.Sort(libs)
	return libs
}

// Ko returns the active ko restriction for color, if any.
func (e *Engine) Ko(color board.TileState) (int, bool) {
	pos, ok := e.ko[color]
	return pos, ok
}

// isSuicide reports whether color playing on the empty tile pos leaves its own group
// without liberties while capturing nothing.
func (e *Engine) isSuicide(pos int, color board.TileState) bool {
	for _, n := range e.board.Neighbors(pos) {
		tile := e.board.At(n)
		if tile == board.Empty {
			return false
		}
		libs := len(e.groups[e.groupOf[n]].liberties)
		if tile == color && libs > 1 {
			return false
		}
		// an adjacent enemy group with one liberty has pos as that liberty
		if tile != color && libs == 1 {
			return false
		}
	}
	return true
}

// IsValidMove reports whether color may play on pos now.
func (e *Engine) IsValidMove(pos int, color board.TileState) bool {
	if !e.board.InRange(pos) || !color.IsStone() || e.board.At(pos) != board.Empty {
		return false
	}
	if ko, ok := e.ko[color]; ok && ko == pos {
		return false
	}
	return !e.isSuicide(pos, color)
}

// InvalidMoves returns every empty position color may not play: suicides and the
// active ko for color.
func (e *Engine) InvalidMoves(color board.TileState) []int {
	res := make([]int, 0)
	for pos := 0; pos < e.board.Len(); pos++ {
		if e.board.At(pos) == board.Empty && e.isSuicide(pos, color) {
			res = append(res, pos)
		}
	}
	if ko, ok := e.ko[color]; ok && e.board.At(ko) == board.Empty && !slices.Contains(res, ko) {
		res = append(res, ko)
		slices.Sort(res)
	}
	return res
}

// KillingMoves returns the positions where color would capture at least one enemy group.
func (e *Engine) KillingMoves(color board.TileState) []int {
	res := make([]int, 0)
	for _, g := range e.groups {
		if g.color != color.Opponent() || len(g.liberties) != 1 {
			continue
		}
		for l := range g.liberties {
			res = append(res, l)
		}
	}
	res = lo.Uniq(res)
	slices.Sort(res)
	return res
}

func (e *Engine) collectSets() moveSets {
	sets := moveSets{
		invalid: make(map[board.TileState][]int, 2),
		killing: make(map[board.TileState][]int, 2),
	}
	for _, c := range []board.TileState{board.Black, board.White} {
		sets.invalid[c] = e.InvalidMoves(c)
		sets.killing[c] = e.KillingMoves(c)
	}
	return sets
}

// PlayMove places a stone of color on pos, removes captured enemy groups and
// recomputes the move sets. The board passed to NewEngine is mutated.
func (e *Engine) PlayMove(pos int, color board.TileState) (MoveResult, error) {
	if !e.board.InRange(pos) {
		return MoveResult{}, fmt.Errorf("%w: %d", errs.ErrPositionOutOfRange, pos)
	}
	if !color.IsStone() {
		return MoveResult{}, fmt.Errorf("%w: %d", errs.ErrUnknownColor, color)
	}
	if e.board.At(pos) != board.Empty {
		return MoveResult{}, fmt.Errorf("%w: %d", errs.ErrTileOccupied, pos)
	}
	if !e.IsValidMove(pos, color) {
		return MoveResult{}, fmt.Errorf("%w: %s at %d", errs.ErrIllegalMove, color, pos)
	}

	move := &lastMove{pos: pos, before: e.collectSets()}
	for _, ko := range e.ko {
		move.freedKo = append(move.freedKo, ko)
	}
	e.ko = make(map[board.TileState]int)

	capturedGroups := 0
	if slices.Contains(move.before.killing[color], pos) {
		for _, n := range e.board.Neighbors(pos) {
			id := e.groupOf[n]
			if id == noGroup || e.board.At(n) != color.Opponent() {
				continue
			}
			g := e.groups[id]
			if _, ok := g.liberties[pos]; !ok || len(g.liberties) != 1 {
				continue
			}
			move.captured = append(move.captured, g.members...)
			capturedGroups++
			e.removeGroup(id)
		}
	}
	for _, c := range move.captured {
		e.board.Set(c, board.Empty)
	}

	e.board.Set(pos, color)
	if len(move.captured) > 0 {
		e.analyze()
	} else {
		e.placeIncremental(pos, color)
	}

	if capturedGroups == 1 && len(move.captured) == 1 && e.isKo(pos, move.captured[0], color) {
		e.ko[color.Opponent()] = move.captured[0]
		move.newKo = append(move.newKo, move.captured[0])
	}

	move.after = e.collectSets()
	slices.Sort(move.captured)
	e.last = move

	res := MoveResult{
		Position:      pos,
		Color:         color,
		Captured:      move.captured,
		InvalidMoves:  move.after.invalid[color.Opponent()],
		KillingMoves:  move.after.killing[color.Opponent()],
		TilesToUpdate: e.TilesToUpdate(color.Opponent()),
	}
	if res.Captured == nil {
		res.Captured = []int{}
	}
	if ko, ok := e.ko[color.Opponent()]; ok {
		res.Ko = &Ko{Color: color.Opponent(), Position: ko}
	}
	return res, nil
}

// placeIncremental joins the new stone with its friendly neighbours and takes pos
// away from neighbouring enemy groups. Only valid when nothing was captured.
func (e *Engine) placeIncremental(pos int, color board.TileState) {
	id := e.newGroup(color)
	e.addMember(id, pos)
	for _, n := range e.board.Neighbors(pos) {
		switch e.board.At(n) {
		case board.Empty:
			e.groups[id].liberties[n] = struct{}{}
		case color:
			id = e.merge(id, e.groupOf[n])
		default:
			delete(e.groups[e.groupOf[n]].liberties, pos)
		}
	}
	delete(e.groups[id].liberties, pos)
}

// isKo checks the shape after a single stone capture: the captured tile is enclosed by
// the capturing color, and the capturing stone stands alone with the captured tile as
// its only liberty. Anything else is a snapback and may be retaken.
func (e *Engine) isKo(pos, captured int, color board.TileState) bool {
	for _, n := range e.board.Neighbors(captured) {
		if n != pos && e.board.At(n) != color {
			return false
		}
	}
	g := e.groups[e.groupOf[pos]]
	if len(g.members) != 1 || len(g.liberties) != 1 {
		return false
	}
	_, ok := g.liberties[captured]
	return ok
}

// TilesToUpdate returns the tiles whose presentation changed for color with the last
// played move: killing and invalid move changes, captures, ko changes and the move itself.
func (e *Engine) TilesToUpdate(color board.TileState) []int {
	if e.last == nil {
		return []int{}
	}
	m := e.last
	res := []int{m.pos}
	res = append(res, m.captured...)
	res = append(res, m.freedKo...)
	res = append(res, m.newKo...)
	for _, pair := range [][2][]int{
		{m.before.killing[color], m.after.killing[color]},
		{m.before.invalid[color], m.after.invalid[color]},
	} {
		removed, added := lo.Difference(pair[0], pair[1])
		res = append(res, removed...)
		res = append(res, added...)
	}
	res = lo.Uniq(res)
	slices.Sort(res)
	return res
}
