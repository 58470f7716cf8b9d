package assign

import (
	"cmp"
	"math"
	"slices"

	"github.com/okian/relay/internal/domain/model"
)

// greedyTeams forms teams one after another from the fastest unused
// swimmers: the fastest women first, then the fastest of the rest, then
// single swaps until the age sum fits [lo, hi]. Teams come back ordered by
// their lowest pool index, so teams[j] never holds a swimmer below j.
func greedyTeams(pool []model.Swimmer, teams, size, minWomen int, lo, hi float64) ([][]int, bool) {
	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(p, q int) int { return cmp.Compare(pool[p].Time, pool[q].Time) })

	used := make([]bool, len(pool))
	out := make([][]int, 0, teams)
	for range teams {
		team := pickFastest(pool, order, used, size, minWomen)
		if team == nil || !repairAges(pool, used, team, minWomen, lo, hi) {
			return nil, false
		}
		for _, i := range team {
			used[i] = true
		}
		out = append(out, team)
	}
	slices.SortFunc(out, func(p, q []int) int { return cmp.Compare(slices.Min(p), slices.Min(q)) })
	return out, true
}

func pickFastest(pool []model.Swimmer, order []int, used []bool, size, minWomen int) []int {
	team := make([]int, 0, size)
	in := make([]bool, len(pool))
	for _, i := range order {
		if len(team) == minWomen {
			break
		}
		if !used[i] && pool[i].Gender.IsFemale() {
			team = append(team, i)
			in[i] = true
		}
	}
	if len(team) < minWomen {
		return nil
	}
	for _, i := range order {
		if len(team) == size {
			break
		}
		if !used[i] && !in[i] {
			team = append(team, i)
			in[i] = true
		}
	}
	if len(team) < size {
		return nil
	}
	return team
}

// repairAges swaps members of team for unused swimmers. Every swap must
// shrink the distance between the age sum and [lo, hi] and keep minWomen;
// the closest result wins, then the smallest time increase.
func repairAges(pool []model.Swimmer, used []bool, team []int, minWomen int, lo, hi float64) bool {
	in := make([]bool, len(pool))
	for _, i := range team {
		in[i] = true
	}
	for range len(pool) * len(team) {
		var age float64
		women := 0
		for _, i := range team {
			age += pool[i].Age
			if pool[i].Gender.IsFemale() {
				women++
			}
		}
		dist := outside(age, lo, hi)
		if dist == 0 {
			return true
		}

		bestK, bestIn := -1, -1
		bestDist, bestCost := dist, math.Inf(1)
		for k, out := range team {
			for cand := range pool {
				if used[cand] || in[cand] {
					continue
				}
				w := women
				if pool[out].Gender.IsFemale() {
					w--
				}
				if pool[cand].Gender.IsFemale() {
					w++
				}
				if w < minWomen {
					continue
				}
				d := outside(age-pool[out].Age+pool[cand].Age, lo, hi)
				cost := pool[cand].Time - pool[out].Time
				if d < bestDist || (d == bestDist && bestK >= 0 && cost < bestCost) {
					bestK, bestIn, bestDist, bestCost = k, cand, d, cost
				}
			}
		}
		if bestK < 0 {
			return false
		}
		in[team[bestK]] = false
		in[bestIn] = true
		team[bestK] = bestIn
	}
	return false
}

// outside is how far v lies from [lo, hi].
func outside(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
