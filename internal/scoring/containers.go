package scoring

import (
	"slices"

	"github.com/samber/lo"

	"goscore/internal/domain/board"
)

// container is the protocol shared by the four container kinds. A container can be
// assimilated by another container of the same kind.
type container[T any] interface {
	Members() []int
	assimilate(other T)
	retire()
}

// merge assimilates the smaller of two live containers into the larger one and
// records the lineage in m. It returns the surviving id.
func merge[T container[T]](m *ContainerManager, arena []T, a, b int) int {
	a, b = m.Resolve(a), m.Resolve(b)
	if a == b {
		return a
	}
	if len(arena[a].Members()) < len(arena[b].Members()) {
		a, b = b, a
	}
	arena[a].assimilate(arena[b])
	arena[b].retire()
	m.assimilate(b, a)
	return a
}

// StoneGroup is a maximal connected set of same colored stones.
type StoneGroup struct {
	ID       int             `json:"id"`
	Color    board.TileState `json:"color"`
	Stones   IntSet          `json:"stones"`
	Zones    IntSet          `json:"zones"`
	Enemies  IntSet          `json:"enemies"`
	Absorbed bool            `json:"absorbed,omitempty"`
}

func newStoneGroup(id int, color board.TileState) *StoneGroup {
	return &StoneGroup{
		ID:      id,
		Color:   color,
		Stones:  NewIntSet(),
		Zones:   NewIntSet(),
		Enemies: NewIntSet(),
	}
}

func (g *StoneGroup) Members() []int {
	return g.Stones.Sorted()
}

func (g *StoneGroup) assimilate(other *StoneGroup) {
	g.Stones.AddAll(other.Stones)
	g.Zones.AddAll(other.Zones)
	g.Enemies.AddAll(other.Enemies)
}

func (g *StoneGroup) retire() {
	g.Absorbed = true
	g.Stones, g.Zones, g.Enemies = NewIntSet(), NewIntSet(), NewIntSet()
}

// TileZone is a maximal connected set of empty tiles.
type TileZone struct {
	ID          int    `json:"id"`
	Tiles       IntSet `json:"tiles"`
	BlackGroups IntSet `json:"black_groups"`
	WhiteGroups IntSet `json:"white_groups"`
	Eye         bool   `json:"eye,omitempty"`
	Absorbed    bool   `json:"absorbed,omitempty"`
}

func newTileZone(id int) *TileZone {
	return &TileZone{
		ID:          id,
		Tiles:       NewIntSet(),
		BlackGroups: NewIntSet(),
		WhiteGroups: NewIntSet(),
	}
}

func (z *TileZone) Members() []int {
	return z.Tiles.Sorted()
}

func (z *TileZone) Groups(color board.TileState) IntSet {
	if color == board.White {
		return z.WhiteGroups
	}
	return z.BlackGroups
}

// SurroundedBy returns the only color bordering the zone. Zones bordering both colors,
// or none, are not surrounded.
func (z *TileZone) SurroundedBy() (board.TileState, bool) {
	switch {
	case z.BlackGroups.Len() > 0 && z.WhiteGroups.Len() == 0:
		return board.Black, true
	case z.WhiteGroups.Len() > 0 && z.BlackGroups.Len() == 0:
		return board.White, true
	}
	return board.Empty, false
}

func (z *TileZone) Neutral() bool {
	return z.BlackGroups.Len() > 0 && z.WhiteGroups.Len() > 0
}

func (z *TileZone) assimilate(other *TileZone) {
	z.Tiles.AddAll(other.Tiles)
	z.BlackGroups.AddAll(other.BlackGroups)
	z.WhiteGroups.AddAll(other.WhiteGroups)
}

func (z *TileZone) retire() {
	z.Absorbed = true
	z.Tiles, z.BlackGroups, z.WhiteGroups = NewIntSet(), NewIntSet(), NewIntSet()
}

// Chain is one or more groups of one color linked through zones only they surround.
type Chain struct {
	ID              int             `json:"id"`
	Color           board.TileState `json:"color"`
	Groups          IntSet          `json:"groups"`
	SurroundedZones IntSet          `json:"surrounded_zones"`
	NeutralZones    IntSet          `json:"neutral_zones"`
	Enemies         IntSet          `json:"enemies"`
	Eyes            IntSet          `json:"eyes"`
	Alive           bool            `json:"alive,omitempty"`
	SurroundedTiles int             `json:"surrounded_tiles"`
	Absorbed        bool            `json:"absorbed,omitempty"`
}

func newChain(id int, color board.TileState) *Chain {
	return &Chain{
		ID:              id,
		Color:           color,
		Groups:          NewIntSet(),
		SurroundedZones: NewIntSet(),
		NeutralZones:    NewIntSet(),
		Enemies:         NewIntSet(),
		Eyes:            NewIntSet(),
	}
}

func (c *Chain) Members() []int {
	return c.Groups.Sorted()
}

func (c *Chain) assimilate(other *Chain) {
	c.Groups.AddAll(other.Groups)
	c.SurroundedZones.AddAll(other.SurroundedZones)
	c.NeutralZones.AddAll(other.NeutralZones)
	c.Enemies.AddAll(other.Enemies)
	c.Eyes.AddAll(other.Eyes)
}

func (c *Chain) retire() {
	c.Absorbed = true
	c.Groups, c.SurroundedZones, c.NeutralZones = NewIntSet(), NewIntSet(), NewIntSet()
	c.Enemies, c.Eyes = NewIntSet(), NewIntSet()
	c.Alive, c.SurroundedTiles = false, 0
}

// MetaChain exists while at least one chain is marked dead. Links maps every dead
// member to the enemy chains that were alive and reachable from it when it died.
type MetaChain struct {
	ID       int            `json:"id"`
	Links    map[int]IntSet `json:"links"`
	Absorbed bool           `json:"absorbed,omitempty"`
	Deleted  bool           `json:"deleted,omitempty"`
}

func newMetaChain(id int) *MetaChain {
	return &MetaChain{ID: id, Links: make(map[int]IntSet)}
}

// Members returns the dead chains of the meta chain.
func (m *MetaChain) Members() []int {
	keys := lo.Keys(m.Links)
	slices.Sort(keys)
	return keys
}

func (m *MetaChain) Active() bool {
	return !m.Absorbed && !m.Deleted
}

// linked returns every chain the meta chain holds: dead members and their links.
func (m *MetaChain) linked() IntSet {
	res := NewIntSet()
	for dead, links := range m.Links {
		res.Add(dead)
		res.AddAll(links)
	}
	return res
}

// reach is a dead member together with its links.
func (m *MetaChain) reach(dead int) IntSet {
	res := NewIntSet(dead)
	res.AddAll(m.Links[dead])
	return res
}

// components groups the dead members whose reaches overlap, directly or through other
// members. Parts are sorted and ordered by their smallest member.
func (m *MetaChain) components() [][]int {
	members := m.Members()
	seen := NewIntSet()
	parts := make([][]int, 0)
	for _, start := range members {
		if seen.Has(start) {
			continue
		}
		seen.Add(start)
		part, reach := []int{start}, m.reach(start)
		for grown := true; grown; {
			grown = false
			for _, other := range members {
				if seen.Has(other) {
					continue
				}
				next := m.reach(other)
				if !overlaps(reach, next) {
					continue
				}
				seen.Add(other)
				part = append(part, other)
				reach.AddAll(next)
				grown = true
			}
		}
		slices.Sort(part)
		parts = append(parts, part)
	}
	return parts
}

func overlaps(a, b IntSet) bool {
	if a.Len() > b.Len() {
		a, b = b, a
	}
	for v := range a {
		if b.Has(v) {
			return true
		}
	}
	return false
}

func (m *MetaChain) assimilate(other *MetaChain) {
	for dead, links := range other.Links {
		if _, ok := m.Links[dead]; !ok {
			m.Links[dead] = NewIntSet()
		}
		m.Links[dead].AddAll(links)
	}
}

func (m *MetaChain) retire() {
	m.Absorbed = true
	m.Links = make(map[int]IntSet)
}
