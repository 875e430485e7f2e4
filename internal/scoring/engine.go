// Package scoring judges a finished Go position: it groups stones and empty areas,
// decides which chains are alive, counts territory, and lets players mark chains
// dead or alive again while keeping the counts current.
//
// The whole container graph lives in one serializable state, so an Engine can be
// persisted between requests with Snapshot and brought back with Restore.
package scoring

import (
	"fmt"
	"slices"

	"goscore/internal/domain/board"
)

type TerritoryStatus uint8

const (
	Neutral TerritoryStatus = iota
	BlackTerritory
	WhiteTerritory
)

func territoryOf(color board.TileState) TerritoryStatus {
	switch color {
	case board.Black:
		return BlackTerritory
	case board.White:
		return WhiteTerritory
	}
	return Neutral
}

func (t TerritoryStatus) String() string {
	switch t {
	case BlackTerritory:
		return "black"
	case WhiteTerritory:
		return "white"
	default:
		return "neutral"
	}
}

func (t TerritoryStatus) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TerritoryStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "black":
		*t = BlackTerritory
	case "white":
		*t = WhiteTerritory
	case "neutral":
		*t = Neutral
	default:
		return fmt.Errorf("unknown territory status %q", text)
	}
	return nil
}

type Options struct {
	Komi          float64
	BlackCaptures int
	WhiteCaptures int
}

// state is everything a scoring session needs. It is encoded as is by Snapshot.
type state struct {
	Board         *board.Board      `json:"board"`
	Komi          float64           `json:"komi"`
	BlackCaptures int               `json:"black_captures"`
	WhiteCaptures int               `json:"white_captures"`
	Groups        []*StoneGroup     `json:"groups"`
	Zones         []*TileZone       `json:"zones"`
	Chains        []*Chain          `json:"chains"`
	Metas         []*MetaChain      `json:"metas"`
	GroupOwners   *ContainerManager `json:"group_owners"`
	ZoneOwners    *ContainerManager `json:"zone_owners"`
	ChainOwners   *ContainerManager `json:"chain_owners"`
	MetaOwners    *ContainerManager `json:"meta_owners"`
	Territory     []TerritoryStatus `json:"territory"`
	DeadChains    IntSet            `json:"dead_chains"`
	DeadStones    IntSet            `json:"dead_stones"`
	ChangedTiles  IntSet            `json:"changed_tiles"`
}

type Engine struct {
	s *state
}

// Analyze builds the scoring graph for b and computes the initial territory. The
// board is copied.
func Analyze(b *board.Board, opts Options) *Engine {
	e := &Engine{s: &state{
		Board:         b.Clone(),
		Komi:          opts.Komi,
		BlackCaptures: opts.BlackCaptures,
		WhiteCaptures: opts.WhiteCaptures,
		Groups:        make([]*StoneGroup, 0),
		Zones:         make([]*TileZone, 0),
		Chains:        make([]*Chain, 0),
		Metas:         make([]*MetaChain, 0),
		GroupOwners:   newContainerManager(),
		ZoneOwners:    newContainerManager(),
		ChainOwners:   newContainerManager(),
		MetaOwners:    newContainerManager(),
		DeadChains:    NewIntSet(),
		DeadStones:    NewIntSet(),
	}}
	e.buildContainers()
	e.normalize()
	for _, z := range e.s.Zones {
		if !z.Absorbed {
			z.Eye = e.isEye(z)
		}
	}
	e.formChains()

	e.s.Territory = e.recalculate()
	e.s.ChangedTiles = NewIntSet()
	for pos, t := range e.s.Territory {
		if t != Neutral {
			e.s.ChangedTiles.Add(pos)
		}
	}
	return e
}

// buildContainers assigns every tile to a stone group or a tile zone in one row-major
// scan. Only the up and left neighbours are inspected since both are already placed.
func (e *Engine) buildContainers() {
	s := e.s
	b := s.Board
	for pos := 0; pos < b.Len(); pos++ {
		prev := make([]int, 0, 2)
		if up, ok := b.Up(pos); ok {
			prev = append(prev, up)
		}
		if left, ok := b.Left(pos); ok {
			prev = append(prev, left)
		}

		tile := b.At(pos)
		if tile.IsStone() {
			id := -1
			for _, n := range prev {
				if b.At(n) != tile {
					continue
				}
				if other := s.GroupOwners.MustOwner(n); id == -1 {
					id = other
				} else {
					id = merge(s.GroupOwners, s.Groups, id, other)
				}
			}
			if id == -1 {
				id = len(s.Groups)
				s.Groups = append(s.Groups, newStoneGroup(id, tile))
			}
			s.GroupOwners.Register(pos, id)
			s.Groups[id].Stones.Add(pos)
		} else {
			id := -1
			for _, n := range prev {
				if b.At(n) != board.Empty {
					continue
				}
				if other := s.ZoneOwners.MustOwner(n); id == -1 {
					id = other
				} else {
					id = merge(s.ZoneOwners, s.Zones, id, other)
				}
			}
			if id == -1 {
				id = len(s.Zones)
				s.Zones = append(s.Zones, newTileZone(id))
			}
			s.ZoneOwners.Register(pos, id)
			s.Zones[id].Tiles.Add(pos)
		}

		for _, n := range prev {
			e.link(pos, n)
		}
	}
}

// link records adjacency between the containers on two neighbouring tiles.
func (e *Engine) link(a, b int) {
	s := e.s
	ta, tb := s.Board.At(a), s.Board.At(b)
	switch {
	case ta == tb:
	case ta == board.Empty:
		e.linkZone(a, b)
	case tb == board.Empty:
		e.linkZone(b, a)
	default:
		ga, gb := s.GroupOwners.MustOwner(a), s.GroupOwners.MustOwner(b)
		s.Groups[ga].Enemies.Add(gb)
		s.Groups[gb].Enemies.Add(ga)
	}
}

func (e *Engine) linkZone(empty, stone int) {
	s := e.s
	z := s.Zones[s.ZoneOwners.MustOwner(empty)]
	g := s.Groups[s.GroupOwners.MustOwner(stone)]
	z.Groups(g.Color).Add(g.ID)
	g.Zones.Add(z.ID)
}

// normalize rewrites cross references recorded before a merge to the surviving ids.
func (e *Engine) normalize() {
	s := e.s
	for _, g := range e.groups() {
		g.Zones = s.ZoneOwners.resolveSet(g.Zones)
		g.Enemies = s.GroupOwners.resolveSet(g.Enemies)
	}
	for _, z := range e.zones() {
		z.BlackGroups = s.GroupOwners.resolveSet(z.BlackGroups)
		z.WhiteGroups = s.GroupOwners.resolveSet(z.WhiteGroups)
	}
}

func (e *Engine) groups() []*StoneGroup {
	return liveOnly(e.s.Groups, func(g *StoneGroup) bool { return !g.Absorbed })
}

func (e *Engine) zones() []*TileZone {
	return liveOnly(e.s.Zones, func(z *TileZone) bool { return !z.Absorbed })
}

func (e *Engine) chains() []*Chain {
	return liveOnly(e.s.Chains, func(c *Chain) bool { return !c.Absorbed })
}

func liveOnly[T any](arena []T, live func(T) bool) []T {
	res := make([]T, 0, len(arena))
	for _, c := range arena {
		if live(c) {
			res = append(res, c)
		}
	}
	return res
}

// groupsAround returns the ids of the stone groups orthogonally adjacent to pos.
func (e *Engine) groupsAround(pos int) IntSet {
	res := NewIntSet()
	for _, n := range e.s.Board.Neighbors(pos) {
		if e.s.Board.At(n).IsStone() {
			res.Add(e.s.GroupOwners.MustOwner(n))
		}
	}
	return res
}

func (e *Engine) emptyDiagonals(pos int) int {
	n := 0
	for _, d := range e.s.Board.Diagonals(pos) {
		if e.s.Board.At(d) == board.Empty {
			n++
		}
	}
	return n
}

// isEye decides whether a zone counts as an eye for the color surrounding it. Small
// zones are checked against their empty diagonals to tell real eyes from false ones.
func (e *Engine) isEye(z *TileZone) bool {
	color, ok := z.SurroundedBy()
	if !ok {
		return false
	}
	size := z.Tiles.Len()
	if size > 2 {
		return true
	}

	tiles := z.Members()
	diag := 0
	for _, t := range tiles {
		diag += e.emptyDiagonals(t)
	}
	if z.Groups(color).Len()-diag <= size {
		return true
	}
	if size != 2 {
		return false
	}

	// pretend the other tile is a friendly stone: it joins every group touching it
	for i, t := range tiles {
		other := tiles[1-i]
		around := e.groupsAround(other)
		pseudo := 1
		for g := range e.groupsAround(t) {
			if !around.Has(g) {
				pseudo++
			}
		}
		if pseudo-e.emptyDiagonals(t) <= 1 {
			return true
		}
	}
	return false
}

// formChains starts one chain per group, merges chains through the zones they
// surround alone, and links enemy chains meeting directly or at a neutral zone.
func (e *Engine) formChains() {
	s := e.s
	for _, g := range e.groups() {
		id := len(s.Chains)
		c := newChain(id, g.Color)
		c.Groups.Add(g.ID)
		s.Chains = append(s.Chains, c)
		s.ChainOwners.Register(g.ID, id)
	}

	for _, z := range e.zones() {
		if color, ok := z.SurroundedBy(); ok {
			id := -1
			for _, g := range z.Groups(color).Sorted() {
				if other := s.ChainOwners.MustOwner(g); id == -1 {
					id = other
				} else {
					id = merge(s.ChainOwners, s.Chains, id, other)
				}
			}
			s.Chains[id].SurroundedZones.Add(z.ID)
			continue
		}
		if !z.Neutral() {
			continue
		}
		for _, g := range append(z.BlackGroups.Sorted(), z.WhiteGroups.Sorted()...) {
			s.Chains[s.ChainOwners.MustOwner(g)].NeutralZones.Add(z.ID)
		}
	}

	for _, z := range e.zones() {
		if !z.Neutral() {
			continue
		}
		for b := range z.BlackGroups {
			for w := range z.WhiteGroups {
				e.linkChains(s.ChainOwners.MustOwner(b), s.ChainOwners.MustOwner(w))
			}
		}
	}
	for _, g := range e.groups() {
		for enemy := range g.Enemies {
			e.linkChains(s.ChainOwners.MustOwner(g.ID), s.ChainOwners.MustOwner(enemy))
		}
	}

	for _, c := range e.chains() {
		for zid := range c.SurroundedZones {
			z := s.Zones[zid]
			c.SurroundedTiles += z.Tiles.Len()
			if z.Eye {
				c.Eyes.Add(zid)
			}
		}
		c.Alive = e.alive(c)
	}
}

func (e *Engine) linkChains(a, b int) {
	e.s.Chains[a].Enemies.Add(b)
	e.s.Chains[b].Enemies.Add(a)
}

// alive holds for two eyes, or for a single eye spanning at least three tiles.
func (e *Engine) alive(c *Chain) bool {
	if c.Eyes.Len() >= 2 {
		return true
	}
	for zid := range c.Eyes {
		if e.s.Zones[zid].Tiles.Len() >= 3 {
			return true
		}
	}
	return false
}

// chainTiles returns the stones of a chain together with the tiles of every zone it
// surrounds or shares.
func (e *Engine) chainTiles(c *Chain) IntSet {
	res := e.chainStones(c)
	for zid := range c.SurroundedZones {
		res.AddAll(e.s.Zones[zid].Tiles)
	}
	for zid := range c.NeutralZones {
		res.AddAll(e.s.Zones[zid].Tiles)
	}
	return res
}

func (e *Engine) chainStones(c *Chain) IntSet {
	res := NewIntSet()
	for gid := range c.Groups {
		res.AddAll(e.s.Groups[gid].Stones)
	}
	return res
}

func (e *Engine) surroundedTiles(c *Chain) IntSet {
	res := NewIntSet()
	for zid := range c.SurroundedZones {
		res.AddAll(e.s.Zones[zid].Tiles)
	}
	return res
}

// recalculate derives the territory map from the chains and the dead markings. A tile
// claimed for both colors through the dead chains stays neutral.
func (e *Engine) recalculate() []TerritoryStatus {
	s := e.s
	res := make([]TerritoryStatus, s.Board.Len())
	conflict := NewIntSet()
	claim := func(tiles IntSet, color board.TileState) {
		status := territoryOf(color)
		for pos := range tiles {
			switch {
			case conflict.Has(pos):
			case res[pos] == Neutral:
				res[pos] = status
			case res[pos] != status:
				res[pos] = Neutral
				conflict.Add(pos)
			}
		}
	}

	for _, c := range e.chains() {
		if c.Alive && !s.DeadChains.Has(c.ID) {
			claim(e.surroundedTiles(c), c.Color)
		}
	}
	for _, m := range e.metas() {
		for _, dead := range m.Members() {
			c := s.Chains[dead]
			claim(e.chainTiles(c), c.Color.Opponent())
			for link := range m.Links[dead] {
				enemy := s.Chains[link]
				if enemy.Alive || s.DeadChains.Has(link) {
					continue
				}
				claim(e.surroundedTiles(enemy), enemy.Color)
			}
		}
	}
	return res
}

func (e *Engine) metas() []*MetaChain {
	return liveOnly(e.s.Metas, (*MetaChain).Active)
}

// update swaps in a freshly computed territory map and records what changed.
func (e *Engine) update(touched IntSet) {
	next := e.recalculate()
	for pos := range next {
		if next[pos] != e.s.Territory[pos] {
			touched.Add(pos)
		}
	}
	e.s.Territory = next
	e.s.ChangedTiles = touched
}

func (e *Engine) TerritoryStatus(pos int) TerritoryStatus {
	if !e.s.Board.InRange(pos) {
		return Neutral
	}
	return e.s.Territory[pos]
}

// TerritoryCount returns the number of tiles counted as territory of color.
func (e *Engine) TerritoryCount(color board.TileState) int {
	status := territoryOf(color)
	if status == Neutral {
		return 0
	}
	n := 0
	for _, t := range e.s.Territory {
		if t == status {
			n++
		}
	}
	return n
}

// deadStonesOf counts the dead stones of color.
func (e *Engine) deadStonesOf(color board.TileState) int {
	n := 0
	for pos := range e.s.DeadStones {
		if e.s.Board.At(pos) == color {
			n++
		}
	}
	return n
}

func (e *Engine) BlackPointCount() float64 {
	return float64(e.TerritoryCount(board.Black) + e.deadStonesOf(board.White) + e.s.BlackCaptures)
}

func (e *Engine) WhitePointCount() float64 {
	return float64(e.TerritoryCount(board.White)+e.deadStonesOf(board.Black)+e.s.WhiteCaptures) + e.s.Komi
}

func (e *Engine) DeadStones() []int {
	return e.s.DeadStones.Sorted()
}

// ChangedTiles returns the initial territory after Analyze and the delta of the last
// mark afterwards.
func (e *Engine) ChangedTiles() []int {
	return e.s.ChangedTiles.Sorted()
}

func (e *Engine) MetaChainCount() int {
	return len(e.metas())
}

// IsEye reports whether pos lies in a zone counted as an eye.
func (e *Engine) IsEye(pos int) bool {
	if !e.s.Board.InRange(pos) || e.s.Board.At(pos) != board.Empty {
		return false
	}
	return e.s.Zones[e.s.ZoneOwners.MustOwner(pos)].Eye
}

// ChainAlive reports whether the chain holding the stone on pos is alive on its own.
func (e *Engine) ChainAlive(pos int) bool {
	c, ok := e.chainAt(pos)
	return ok && c.Alive
}

func (e *Engine) chainAt(pos int) (*Chain, bool) {
	if !e.s.Board.InRange(pos) || !e.s.Board.At(pos).IsStone() {
		return nil, false
	}
	g := e.s.GroupOwners.MustOwner(pos)
	return e.s.Chains[e.s.ChainOwners.MustOwner(g)], true
}

func (e *Engine) Komi() float64 {
	return e.s.Komi
}

func (e *Engine) Board() *board.Board {
	return e.s.Board.Clone()
}

// Territory returns the territory status of every tile.
func (e *Engine) Territory() []TerritoryStatus {
	return slices.Clone(e.s.Territory)
}
