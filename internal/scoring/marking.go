package scoring

// MarkAsDead marks the chain holding the stone on pos as dead. It returns false when
// pos is empty or the chain is dead already.
func (e *Engine) MarkAsDead(pos int) bool {
	c, ok := e.chainAt(pos)
	if !ok || e.s.DeadChains.Has(c.ID) {
		return false
	}
	s := e.s

	links := NewIntSet()
	for enemy := range c.Enemies {
		if !s.DeadChains.Has(enemy) {
			links.Add(enemy)
		}
	}

	touching := NewIntSet()
	for _, id := range append(links.Sorted(), c.ID) {
		if m, ok := s.MetaOwners.Owner(id); ok && s.Metas[m].Active() {
			touching.Add(m)
		}
	}

	var meta int
	if touching.Len() == 0 {
		meta = len(s.Metas)
		s.Metas = append(s.Metas, newMetaChain(meta))
	} else {
		ids := touching.Sorted()
		meta = ids[0]
		for _, other := range ids[1:] {
			meta = merge(s.MetaOwners, s.Metas, meta, other)
		}
	}

	s.Metas[meta].Links[c.ID] = links
	s.MetaOwners.Register(c.ID, meta)
	for link := range links {
		s.MetaOwners.Register(link, meta)
	}
	s.DeadChains.Add(c.ID)
	s.DeadStones.AddAll(e.chainStones(c))

	e.update(e.chainTiles(c))
	return true
}

// MarkAsNotDead revives the dead chain holding the stone on pos. The rest of its meta
// chain is split into the parts that still overlap, and an empty meta chain is dropped.
func (e *Engine) MarkAsNotDead(pos int) bool {
	if !e.s.Board.InRange(pos) || !e.s.DeadStones.Has(pos) {
		return false
	}
	c, ok := e.chainAt(pos)
	if !ok {
		return false
	}
	s := e.s

	meta := s.MetaOwners.MustOwner(c.ID)
	m := s.Metas[meta]
	delete(m.Links, c.ID)
	for key := range s.MetaOwners.Owners {
		if s.MetaOwners.Resolve(s.MetaOwners.Owners[key]) == meta {
			s.MetaOwners.Release(key)
		}
	}

	parts := m.components()
	if len(parts) == 0 {
		m.Deleted = true
	}
	for i, part := range parts {
		id := meta
		if i > 0 {
			id = len(s.Metas)
			split := newMetaChain(id)
			for _, dead := range part {
				split.Links[dead] = m.Links[dead]
				delete(m.Links, dead)
			}
			s.Metas = append(s.Metas, split)
		}
		for _, dead := range part {
			s.MetaOwners.Register(dead, id)
			for link := range s.Metas[id].Links[dead] {
				s.MetaOwners.Register(link, id)
			}
		}
	}

	s.DeadChains.Remove(c.ID)
	for stone := range e.chainStones(c) {
		s.DeadStones.Remove(stone)
	}

	e.update(e.chainTiles(c))
	return true
}
