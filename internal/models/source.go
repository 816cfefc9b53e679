package models

import "sort"

// Source is a NewsAPI publisher.
type Source struct {
	ID          string
	Name        string
	Description *string
	URL         *string
	Category    *string
	Language    *string
	Country     *string
}

// Equal reports structural equality.
func (s Source) Equal(o Source) bool {
	return s.ID == o.ID &&
		s.Name == o.Name &&
		optEqual(s.Description, o.Description) &&
		optEqual(s.URL, o.URL) &&
		optEqual(s.Category, o.Category) &&
		optEqual(s.Language, o.Language) &&
		optEqual(s.Country, o.Country)
}

func optEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SelectionSet is the set of selected source ids.
type SelectionSet map[string]struct{}

func NewSelectionSet(ids ...string) SelectionSet {
	s := make(SelectionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SelectionSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s SelectionSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s SelectionSet) Clone() SelectionSet {
	c := make(SelectionSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
