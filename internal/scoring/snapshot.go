package scoring

import (
	"encoding/json"
	"fmt"

	"goscore/internal/domain/board"
	errs "goscore/internal/errors"
)

// Snapshot encodes the complete scoring state. Encoding a restored engine yields the
// same bytes.
func (e *Engine) Snapshot() ([]byte, error) {
	data, err := json.Marshal(e.s)
	if err != nil {
		return nil, fmt.Errorf("encode scoring snapshot: %w", err)
	}
	return data, nil
}

// Restore decodes a snapshot produced by Snapshot. Snapshots that do not describe a
// consistent graph are rejected with ErrSnapshotCorrupt.
func Restore(data []byte) (*Engine, error) {
	s := &state{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSnapshotCorrupt, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSnapshotCorrupt, err)
	}
	return &Engine{s: s}, nil
}

func (s *state) validate() error {
	if s.Board == nil {
		return fmt.Errorf("no board")
	}
	if _, err := board.New(s.Board.Size, s.Board.Tiles); err != nil {
		return err
	}
	n := s.Board.Len()
	if len(s.Territory) != n {
		return fmt.Errorf("territory has %d tiles, board has %d", len(s.Territory), n)
	}
	for _, set := range []IntSet{s.DeadChains, s.DeadStones, s.ChangedTiles} {
		if set == nil {
			return fmt.Errorf("missing set")
		}
	}
	if !within(s.DeadStones, n) || !within(s.ChangedTiles, n) || !within(s.DeadChains, len(s.Chains)) {
		return fmt.Errorf("reference out of range")
	}

	managers := []struct {
		name  string
		m     *ContainerManager
		keys  int
		arena int
	}{
		{"group", s.GroupOwners, n, len(s.Groups)},
		{"zone", s.ZoneOwners, n, len(s.Zones)},
		{"chain", s.ChainOwners, len(s.Groups), len(s.Chains)},
		{"meta", s.MetaOwners, len(s.Chains), len(s.Metas)},
	}
	for _, mg := range managers {
		if err := mg.m.check(mg.keys, mg.arena); err != nil {
			return fmt.Errorf("%s owners: %w", mg.name, err)
		}
	}

	for i, g := range s.Groups {
		if g == nil || g.ID != i || g.Stones == nil || g.Zones == nil || g.Enemies == nil {
			return fmt.Errorf("group %d is malformed", i)
		}
		if !within(g.Stones, n) || !within(g.Zones, len(s.Zones)) || !within(g.Enemies, len(s.Groups)) {
			return fmt.Errorf("group %d reference out of range", i)
		}
		if _, ok := s.ChainOwners.Owners[i]; !ok && !g.Absorbed {
			return fmt.Errorf("group %d has no chain", i)
		}
	}
	for i, z := range s.Zones {
		if z == nil || z.ID != i || z.Tiles == nil || z.BlackGroups == nil || z.WhiteGroups == nil {
			return fmt.Errorf("zone %d is malformed", i)
		}
		if !within(z.Tiles, n) || !within(z.BlackGroups, len(s.Groups)) || !within(z.WhiteGroups, len(s.Groups)) {
			return fmt.Errorf("zone %d reference out of range", i)
		}
	}
	for i, c := range s.Chains {
		if c == nil || c.ID != i || c.Groups == nil || c.SurroundedZones == nil || c.NeutralZones == nil ||
			c.Enemies == nil || c.Eyes == nil {
			return fmt.Errorf("chain %d is malformed", i)
		}
		if !within(c.Groups, len(s.Groups)) || !within(c.Enemies, len(s.Chains)) ||
			!within(c.SurroundedZones, len(s.Zones)) || !within(c.NeutralZones, len(s.Zones)) || !within(c.Eyes, len(s.Zones)) {
			return fmt.Errorf("chain %d reference out of range", i)
		}
	}
	for i, m := range s.Metas {
		if m == nil || m.ID != i || m.Links == nil {
			return fmt.Errorf("meta chain %d is malformed", i)
		}
		for dead, links := range m.Links {
			if dead < 0 || dead >= len(s.Chains) || links == nil || !within(links, len(s.Chains)) {
				return fmt.Errorf("meta chain %d reference out of range", i)
			}
		}
	}

	for pos, t := range s.Board.Tiles {
		owners := s.ZoneOwners
		if t.IsStone() {
			owners = s.GroupOwners
		}
		if _, ok := owners.Owners[pos]; !ok {
			return fmt.Errorf("tile %d has no container", pos)
		}
	}
	for pos := range s.DeadStones {
		if !s.Board.At(pos).IsStone() {
			return fmt.Errorf("dead stone %d is empty", pos)
		}
	}
	return s.validateOwnership()
}

// validateOwnership checks that every lookup the marking code relies on resolves to a
// live container, and that the dead markings agree with each other.
func (s *state) validateOwnership() error {
	for pos := range s.GroupOwners.Owners {
		if !s.Board.At(pos).IsStone() {
			return fmt.Errorf("empty tile %d owned by a group", pos)
		}
		g, _ := s.GroupOwners.peek(pos)
		if s.Groups[g].Absorbed {
			return fmt.Errorf("tile %d resolves to absorbed group %d", pos, g)
		}
		c, ok := s.ChainOwners.peek(g)
		if !ok || s.Chains[c].Absorbed {
			return fmt.Errorf("group %d has no live chain", g)
		}
	}
	for pos := range s.ZoneOwners.Owners {
		if z, _ := s.ZoneOwners.peek(pos); s.Board.At(pos) != board.Empty || s.Zones[z].Absorbed {
			return fmt.Errorf("tile %d has no live zone", pos)
		}
	}

	stones := NewIntSet()
	for id := range s.DeadChains {
		c := s.Chains[id]
		if c.Absorbed {
			return fmt.Errorf("dead chain %d is absorbed", id)
		}
		for gid := range c.Groups {
			stones.AddAll(s.Groups[gid].Stones)
		}
		m, ok := s.MetaOwners.peek(id)
		if !ok || !s.Metas[m].Active() {
			return fmt.Errorf("dead chain %d has no meta chain", id)
		}
		if _, ok := s.Metas[m].Links[id]; !ok {
			return fmt.Errorf("meta chain %d does not hold dead chain %d", m, id)
		}
	}
	if stones.Len() != s.DeadStones.Len() {
		return fmt.Errorf("dead stones do not match dead chains")
	}
	for pos := range stones {
		if !s.DeadStones.Has(pos) {
			return fmt.Errorf("stone %d of a dead chain is not dead", pos)
		}
	}

	for _, m := range s.Metas {
		if !m.Active() {
			continue
		}
		for dead := range m.Links {
			if !s.DeadChains.Has(dead) {
				return fmt.Errorf("meta chain %d holds live chain %d", m.ID, dead)
			}
		}
	}
	return nil
}

func within(set IntSet, n int) bool {
	for v := range set {
		if v < 0 || v >= n {
			return false
		}
	}
	return true
}

// check verifies that every key and id is inside its arena and that the lineage has
// no cycles, so Resolve always terminates.
func (m *ContainerManager) check(keys, arena int) error {
	if m == nil || m.Owners == nil || m.Assimilations == nil {
		return fmt.Errorf("missing table")
	}
	for k, id := range m.Owners {
		if k < 0 || k >= keys || id < 0 || id >= arena {
			return fmt.Errorf("owner %d -> %d out of range", k, id)
		}
	}
	for from, to := range m.Assimilations {
		if from < 0 || from >= arena || to < 0 || to >= arena {
			return fmt.Errorf("lineage %d -> %d out of range", from, to)
		}
	}
	for from := range m.Assimilations {
		cur, steps := from, 0
		for {
			next, ok := m.Assimilations[cur]
			if !ok {
				break
			}
			if steps++; steps > arena {
				return fmt.Errorf("lineage cycle at %d", from)
			}
			cur = next
		}
	}
	return nil
}
