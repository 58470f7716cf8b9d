package quota

import "github.com/okian/relay/internal/domain/model"

// usedSet is a persistent set of consumed roster indices: with returns a
// new set and leaves the receiver untouched.
type usedSet map[int]struct{}

func (u usedSet) with(indices ...int) usedSet {
	next := make(usedSet, len(u)+len(indices))
	for i := range u {
		next[i] = struct{}{}
	}
	for _, i := range indices {
		next[i] = struct{}{}
	}
	return next
}

func (u usedSet) has(i int) bool {
	_, ok := u[i]
	return ok
}

// remaining returns the unused swimmers in roster order together with their
// roster indices.
func (u usedSet) remaining(roster []model.Swimmer) ([]model.Swimmer, []int) {
	pool := make([]model.Swimmer, 0, len(roster)-len(u))
	index := make([]int, 0, len(roster)-len(u))
	for i, s := range roster {
		if u.has(i) {
			continue
		}
		pool = append(pool, s)
		index = append(index, i)
	}
	return pool, index
}
