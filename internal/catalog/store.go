package catalog

import (
	"fmt"

	"bookorder/internal/model"
)

// Store is the immutable catalogue of subjects and their candidate items.
// It is safe for concurrent use because nothing mutates it after New.
type Store struct {
	subjects []model.Subject
	items    []model.CatalogItem
	index    map[string]int
}

// New builds a store from subjects. Item ids must be unique across the whole
// catalogue and prices must not be negative.
func New(subjects []model.Subject) (*Store, error) {
	s := &Store{
		subjects: make([]model.Subject, 0, len(subjects)),
		index:    make(map[string]int),
	}

	for _, subject := range subjects {
		if subject.Name == "" {
			return nil, fmt.Errorf("subject %q has no name", subject.ID)
		}

		copied := model.Subject{
			ID:    subject.ID,
			Name:  subject.Name,
			Items: make([]model.CatalogItem, len(subject.Items)),
		}
		copy(copied.Items, subject.Items)

		for _, item := range subject.Items {
			if item.ID == "" {
				return nil, fmt.Errorf("subject %q contains an item without id", subject.Name)
			}
			if item.Price < 0 {
				return nil, fmt.Errorf("item %s has negative price %d", item.ID, item.Price)
			}
			if _, exists := s.index[item.ID]; exists {
				return nil, fmt.Errorf("duplicate item id %s", item.ID)
			}
			s.index[item.ID] = len(s.items)
			s.items = append(s.items, item)
		}

		s.subjects = append(s.subjects, copied)
	}

	return s, nil
}

// MustNew is like New but panics on invalid input. Intended for built-in data.
func MustNew(subjects []model.Subject) *Store {
	s, err := New(subjects)
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return s
}

// Lookup returns the item with the given id.
func (s *Store) Lookup(id string) (model.CatalogItem, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.CatalogItem{}, false
	}
	return s.items[i], true
}

// Contains reports whether id names a catalogue item.
func (s *Store) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Items returns every item in declaration order.
func (s *Store) Items() []model.CatalogItem {
	items := make([]model.CatalogItem, len(s.items))
	copy(items, s.items)
	return items
}

// Subjects returns a deep copy of the subjects.
func (s *Store) Subjects() []model.Subject {
	subjects := make([]model.Subject, len(s.subjects))
	for i, subject := range s.subjects {
		subjects[i] = model.Subject{
			ID:    subject.ID,
			Name:  subject.Name,
			Items: make([]model.CatalogItem, len(subject.Items)),
		}
		copy(subjects[i].Items, subject.Items)
	}
	return subjects
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}
