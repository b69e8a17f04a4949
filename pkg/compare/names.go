package compare

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item is a named member of a container (file, subdirectory, cabinet
// member or database stream). Value carries whatever the container
// needs to materialize the member later.
type Item struct {
	Name  string
	Value interface{}
	key   string
}

// Pair is one step of an aligned walk over two sorted item lists.
// Exactly one of Left and Right is nil for one-sided items.
type Pair struct {
	Left  *Item
	Right *Item
}

// Name returns the display name of the pair
func (p Pair) Name() string {
	if p.Left != nil {
		return p.Left.Name
	}
	return p.Right.Name
}

// Matched reports whether both sides are present
func (p Pair) Matched() bool {
	return p.Left != nil && p.Right != nil
}

// NameKey returns the upper-cased form of a name used for ordering, so
// that punctuation between 'Z' and 'a' sorts after letters
func NameKey(name string) string {
	// A Caser keeps state and must not be shared across goroutines
	return cases.Upper(language.Und).String(name)
}

// SortItems sorts items case-insensitively by name, ties broken ordinally
func SortItems(items []Item) {
	for i := range items {
		items[i].key = NameKey(items[i].Name)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].key != items[j].key {
			return items[i].key < items[j].key
		}
		return items[i].Name < items[j].Name
	})
}

// Align sorts both lists and walks them in lockstep, pairing items whose
// names are equal ignoring case. The inputs are not modified.
func Align(left, right []Item) []Pair {
	l := append([]Item(nil), left...)
	r := append([]Item(nil), right...)
	SortItems(l)
	SortItems(r)

	pairs := make([]Pair, 0, len(l)+len(r))
	i, j := 0, 0
	for i < len(l) || j < len(r) {
		switch {
		case j >= len(r):
			pairs = append(pairs, Pair{Left: &l[i]})
			i++
		case i >= len(l):
			pairs = append(pairs, Pair{Right: &r[j]})
			j++
		default:
			c := strings.Compare(l[i].key, r[j].key)
			switch {
			case c < 0:
				pairs = append(pairs, Pair{Left: &l[i]})
				i++
			case c > 0:
				pairs = append(pairs, Pair{Right: &r[j]})
				j++
			default:
				pairs = append(pairs, Pair{Left: &l[i], Right: &r[j]})
				i++
				j++
			}
		}
	}
	return pairs
}
