package sim

import (
	"fmt"

	"dodge-and-deal/server/internal/geom"
)

// ItemKind distinguishes the two things customers leave on the floor.
type ItemKind string

const (
	ItemCurrency ItemKind = "currency"
	ItemLitter   ItemKind = "litter"
)

// Item is one object lying on the store floor.
type Item struct {
	ID   string    `json:"id"`
	Kind ItemKind  `json:"kind"`
	Pos  geom.Vec2 `json:"pos"`
}

// itemStore keeps floor items in drop order so snapshots and thief target
// scans are deterministic.
type itemStore struct {
	items  []Item
	index  map[string]int
	nextID uint64
}

func newItemStore() itemStore {
	return itemStore{index: make(map[string]int)}
}

func (s *itemStore) add(kind ItemKind, pos geom.Vec2) Item {
	s.nextID++
	item := Item{
		ID:   fmt.Sprintf("%s-%d", kind, s.nextID),
		Kind: kind,
		Pos:  pos,
	}
	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
	return item
}

// remove splices the item out while preserving drop order.
func (s *itemStore) remove(id string) (Item, bool) {
	at, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	item := s.items[at]
	s.items = append(s.items[:at], s.items[at+1:]...)
	delete(s.index, id)
	for i := at; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}
	return item, true
}

func (s *itemStore) ofKind(kind ItemKind) []Item {
	matched := make([]Item, 0)
	for _, item := range s.items {
		if item.Kind == kind {
			matched = append(matched, item)
		}
	}
	return matched
}

func (s *itemStore) all() []Item {
	copied := make([]Item, len(s.items))
	copy(copied, s.items)
	return copied
}

func (s *itemStore) len() int { return len(s.items) }
