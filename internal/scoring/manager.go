package scoring

// ContainerManager maps member keys (positions, group ids or chain ids) to the id of
// the container that owns them. When a container is assimilated into another one the
// old id is redirected, so ids handed out before the merge still resolve to the
// surviving container.
type ContainerManager struct {
	Owners        map[int]int `json:"owners"`
	Assimilations map[int]int `json:"assimilations"`
}

func newContainerManager() *ContainerManager {
	return &ContainerManager{
		Owners:        make(map[int]int),
		Assimilations: make(map[int]int),
	}
}

func (m *ContainerManager) Register(key, id int) {
	m.Owners[key] = id
}

func (m *ContainerManager) Release(key int) {
	delete(m.Owners, key)
}

// Resolve follows the assimilation lineage of id to the live container, compressing
// the path on the way back.
func (m *ContainerManager) Resolve(id int) int {
	root := id
	for {
		next, ok := m.Assimilations[root]
		if !ok {
			break
		}
		root = next
	}
	for id != root {
		next := m.Assimilations[id]
		if next != root {
			m.Assimilations[id] = root
		}
		id = next
	}
	return root
}

// Owner returns the live container owning key.
func (m *ContainerManager) Owner(key int) (int, bool) {
	id, ok := m.Owners[key]
	if !ok {
		return -1, false
	}
	return m.Resolve(id), true
}

func (m *ContainerManager) MustOwner(key int) int {
	id, ok := m.Owner(key)
	if !ok {
		panic("scoring: key without container")
	}
	return id
}

// peek resolves key like Owner but leaves the lineage untouched. The lineage must be
// free of cycles.
func (m *ContainerManager) peek(key int) (int, bool) {
	id, ok := m.Owners[key]
	if !ok {
		return -1, false
	}
	for {
		next, ok := m.Assimilations[id]
		if !ok {
			return id, true
		}
		id = next
	}
}

func (m *ContainerManager) assimilate(absorbed, into int) {
	m.Assimilations[absorbed] = into
}

// resolveSet maps every id of s through the lineage table.
func (m *ContainerManager) resolveSet(s IntSet) IntSet {
	res := make(IntSet, len(s))
	for id := range s {
		res.Add(m.Resolve(id))
	}
	return res
}
