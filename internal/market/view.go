package market

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/wonny/bazaar/internal/contracts"
)

// View filters the collection by searchTerm and orders it by key.
// ⭐ SSOT: 필터/정렬 로직은 여기서만
//
// Matching is a case-insensitive substring test against display name or id; an
// empty term matches everything. Equal primary keys are ordered by ascending id.
// An unknown key falls back to the default ordering.
func View(c Collection, searchTerm string, key contracts.SortKey) []contracts.Item {
	term := strings.ToLower(searchTerm)

	view := make([]contracts.Item, 0, c.Len())
	for _, item := range c.items {
		if Matches(item, term) {
			view = append(view, item)
		}
	}

	cmp := comparator(key)
	sort.Slice(view, func(i, j int) bool {
		if d := cmp(view[i], view[j]); d != 0 {
			return d < 0
		}
		return view[i].ID < view[j].ID
	})

	return view
}

// Matches reports whether item matches an already lower-cased search term
func Matches(item contracts.Item, lowerTerm string) bool {
	if lowerTerm == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.DisplayName), lowerTerm) ||
		strings.Contains(strings.ToLower(item.ID), lowerTerm)
}

// comparator returns a three-way primary-key comparison for key
func comparator(key contracts.SortKey) func(a, b contracts.Item) int {
	switch key {
	case contracts.SortProfitMarginAsc:
		return func(a, b contracts.Item) int { return compareFloat(a.ProfitMargin, b.ProfitMargin) }
	case contracts.SortProfitAbsolute:
		return func(a, b contracts.Item) int { return compareFloat(b.Profit, a.Profit) }
	case contracts.SortInstantSell:
		return func(a, b contracts.Item) int { return compareFloat(b.SellPrice, a.SellPrice) }
	case contracts.SortInstantBuy:
		return func(a, b contracts.Item) int { return compareFloat(b.BuyPrice, a.BuyPrice) }
	case contracts.SortName:
		// collate.Collator keeps internal buffers; one per View call
		col := collate.New(language.English)
		return func(a, b contracts.Item) int { return col.CompareString(a.DisplayName, b.DisplayName) }
	default:
		return func(a, b contracts.Item) int { return compareFloat(b.ProfitMargin, a.ProfitMargin) }
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
