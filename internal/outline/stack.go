package outline

// Stack nests headings by level as they are encountered in document order.
// A heading becomes a child of the closest preceding heading with a lower level.
type Stack struct {
	roots   []*Item
	entries []stackEntry
}

type stackEntry struct {
	item  *Item
	level int
}

// Push adds item at the given heading level (1 is outermost).
func (s *Stack) Push(item *Item, level int) {
	// Pop until we find a parent with lower level.
	for len(s.entries) > 0 && s.entries[len(s.entries)-1].level >= level {
		s.entries = s.entries[:len(s.entries)-1]
	}
	if len(s.entries) == 0 {
		s.roots = append(s.roots, item)
	} else {
		parent := s.entries[len(s.entries)-1].item
		parent.Children = append(parent.Children, item)
	}
	s.entries = append(s.entries, stackEntry{item: item, level: level})
}

// Items returns the top-level items pushed so far.
func (s *Stack) Items() []*Item {
	return s.roots
}
