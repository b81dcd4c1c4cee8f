package market

import (
	"sort"

	"github.com/wonny/bazaar/internal/contracts"
)

// Collection is the canonical, immutable set of items for one refresh cycle.
// Items are keyed by id; iteration order carries no meaning.
type Collection struct {
	items   map[string]contracts.Item
	skipped int
}

// Build applies Normalize to every entry of the snapshot and keeps the accepted items.
// ⭐ SSOT: Snapshot → Collection 생성
//
// Build never fails: rejected or malformed entries are counted in Skipped.
func Build(snapshot contracts.RawSnapshot) Collection {
	c := Collection{
		items: make(map[string]contracts.Item, len(snapshot.Quotes)),
	}

	for itemID, quote := range snapshot.Quotes {
		item, ok := Normalize(itemID, quote)
		if !ok {
			c.skipped++
			continue
		}
		c.items[itemID] = item
	}

	return c
}

// NewCollection builds a collection from already-derived items. A later item
// replaces an earlier one with the same id.
func NewCollection(items ...contracts.Item) Collection {
	c := Collection{items: make(map[string]contracts.Item, len(items))}
	for _, item := range items {
		c.items[item.ID] = item
	}
	return c
}

// Len returns the number of items
func (c Collection) Len() int {
	return len(c.items)
}

// Skipped returns how many snapshot entries were dropped while building
func (c Collection) Skipped() int {
	return c.skipped
}

// Get looks up an item by id
func (c Collection) Get(id string) (contracts.Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Items returns a copy of all items ordered by id
func (c Collection) Items() []contracts.Item {
	out := make([]contracts.Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
