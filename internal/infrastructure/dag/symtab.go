package dag

// SymbolTable interns node names into dense integer ids.
type SymbolTable struct {
	strToID map[string]int
	idToStr []string
}

// NewSymbolTable creates an empty SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		strToID: make(map[string]int),
	}
}

// Intern returns the id of name, assigning the next free id when the name is new.
// The boolean reports whether the name was newly added.
func (s *SymbolTable) Intern(name string) (int, bool) {
	if id, ok := s.strToID[name]; ok {
		return id, false
	}
	id := len(s.idToStr)
	s.strToID[name] = id
	s.idToStr = append(s.idToStr, name)
	return id, true
}

// Lookup returns the id of name without interning it.
func (s *SymbolTable) Lookup(name string) (int, bool) {
	id, ok := s.strToID[name]
	return id, ok
}

// Resolve returns the name of id, or "" for an unknown id.
func (s *SymbolTable) Resolve(id int) string {
	if id < 0 || id >= len(s.idToStr) {
		return ""
	}
	return s.idToStr[id]
}

// Len returns the number of interned names.
func (s *SymbolTable) Len() int {
	return len(s.idToStr)
}
