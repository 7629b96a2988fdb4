package schema

// NameTable is a bidirectional mapping between field names and small integers.
// Ids start at 1.
type NameTable struct {
	ids   map[string]uint32
	names []string
}

// NewNameTable creates a table assigning ids in the order of names.
// Duplicates are ignored.
func NewNameTable(names ...string) *NameTable {
	t := NameTable{
		ids: make(map[string]uint32, len(names)),
	}
	for _, n := range names {
		t.Add(n)
	}

	return &t
}

// Add returns the id of name, assigning a new one if needed.
func (t *NameTable) Add(name string) uint32 {
	if id, ok := t.ids[name]; ok {
		return id
	}

	t.names = append(t.names, name)
	id := uint32(len(t.names))
	t.ids[name] = id
	return id
}

// ID returns the id of name.
func (t *NameTable) ID(name string) (uint32, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the name associated with id.
func (t *NameTable) Name(id uint32) (string, bool) {
	if id == 0 || int(id) > len(t.names) {
		return "", false
	}

	return t.names[id-1], true
}

// Len returns the number of names.
func (t *NameTable) Len() int {
	return len(t.names)
}

// Names returns the names, ordered by id.
func (t *NameTable) Names() []string {
	return append([]string(nil), t.names...)
}
