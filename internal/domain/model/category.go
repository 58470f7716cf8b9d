package model

// Uncategorized labels a team whose age sum matches no category range.
const Uncategorized = "uncategorized"

// Category is a named inclusive range of team age sums.
type Category struct {
	Name   string  `json:"name" yaml:"name"`
	MinAge float64 `json:"min_age" yaml:"min_age"`
	MaxAge float64 `json:"max_age" yaml:"max_age"`
}

// Contains reports whether ageSum falls inside [MinAge, MaxAge].
func (c Category) Contains(ageSum float64) bool {
	return c.MinAge <= ageSum && ageSum <= c.MaxAge
}

// ResolveCategory returns the first category in table order whose range
// contains ageSum. Overlapping ranges resolve to the earlier entry.
func ResolveCategory(table []Category, ageSum float64) string {
	for _, c := range table {
		if c.Contains(ageSum) {
			return c.Name
		}
	}
	return Uncategorized
}

// Envelope returns the smallest minimum and the largest maximum of table.
// ok is false for an empty table.
func Envelope(table []Category) (lo, hi float64, ok bool) {
	if len(table) == 0 {
		return 0, 0, false
	}
	lo, hi = table[0].MinAge, table[0].MaxAge
	for _, c := range table[1:] {
		if c.MinAge < lo {
			lo = c.MinAge
		}
		if c.MaxAge > hi {
			hi = c.MaxAge
		}
	}
	return lo, hi, true
}

// FindCategory looks a category up by name.
func FindCategory(table []Category, name string) (Category, bool) {
	for _, c := range table {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
