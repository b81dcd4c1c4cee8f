package contracts

import (
	"errors"
	"fmt"
)

// SortKey selects the ordering of a view.
type SortKey string

const (
	SortProfitMargin    SortKey = "profitMargin"    // margin desc (default)
	SortProfitMarginAsc SortKey = "profitMarginAsc" // margin asc
	SortProfitAbsolute  SortKey = "profitAbsolute"  // profit desc
	SortInstantSell     SortKey = "instantSell"     // sell price desc
	SortInstantBuy      SortKey = "instantBuy"      // buy price desc
	SortName            SortKey = "name"            // display name asc
)

// DefaultSortKey is used when no sort key has been chosen
const DefaultSortKey = SortProfitMargin

// ErrUnknownSortKey is returned when parsing a sort key outside the known set
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKeys lists every supported key in display order
func SortKeys() []SortKey {
	return []SortKey{
		SortProfitMargin,
		SortProfitMarginAsc,
		SortProfitAbsolute,
		SortInstantSell,
		SortInstantBuy,
		SortName,
	}
}

// Valid reports whether k is one of the supported keys
func (k SortKey) Valid() bool {
	for _, known := range SortKeys() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseSortKey converts user input into a SortKey. Empty input yields the default.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSortKey, nil
	}
	k := SortKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
	return k, nil
}

// Next returns the key following k in display order, wrapping around
func (k SortKey) Next() SortKey {
	keys := SortKeys()
	for i, known := range keys {
		if known == k {
			return keys[(i+1)%len(keys)]
		}
	}
	return DefaultSortKey
}
