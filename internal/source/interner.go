package source

// StringID is a stable handle for an interned identifier.
type StringID uint32

// NoStringID marks the absence of a name.
const NoStringID StringID = 0

// Interner deduplicates identifier spellings (type names, member names)
// so the rest of the pipeline compares uint32 handles instead of strings.
type Interner struct {
	byID  []string
	index map[string]StringID
}

// NewInterner creates an interner with the NoStringID sentinel pre-seeded.
func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern returns the existing ID for s or allocates a new one.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}

	// Own copy so the interner never pins a caller's backing buffer.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string for id, or ("", false) when id is invalid.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup returns the string for id and panics on an invalid ID.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has reports whether id refers to an interned string.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len reports the number of interned strings including the sentinel.
func (i *Interner) Len() int {
	return len(i.byID)
}
