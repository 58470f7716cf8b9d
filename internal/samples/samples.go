// Package samples ships the example rosters and category tables used by the
// CLI, the demo server and the tests.
package samples

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/okian/relay/internal/domain/model"
)

var (
	sampleAges    = []float64{28, 30, 32, 33, 31, 34, 29, 35, 36, 27}
	sampleTimes   = []float64{34, 33, 32, 31, 30, 34, 35, 36, 33, 32}
	sampleGenders = []model.Gender{
		model.Male, model.Female, model.Male, model.Male, model.Female,
		model.Male, model.Male, model.Female, model.Male, model.Female,
	}
)

// Swimmers returns the ten-swimmer example roster with ids "0".."9".
func Swimmers() []model.Swimmer {
	out := make([]model.Swimmer, len(sampleAges))
	for i := range sampleAges {
		out[i] = model.Swimmer{
			ID:     strconv.Itoa(i),
			Name:   fmt.Sprintf("swimmer_%d", i+1),
			Age:    sampleAges[i],
			Time:   sampleTimes[i],
			Gender: sampleGenders[i],
		}
	}
	return out
}

// Categories25m is the short-course age-sum table.
func Categories25m() []model.Category {
	return table([]string{"A", "B", "C", "D", "E", "F"},
		[]float64{200, 281, 361, 441, 521, 601},
		[]float64{280, 360, 440, 520, 600, 1000})
}

// Categories50m is the long-course age-sum table.
func Categories50m() []model.Category {
	return table([]string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"},
		[]float64{120, 145, 175, 235, 295, 325, 355, 385, 415, 445, 475, 505},
		[]float64{144, 174, 234, 294, 324, 354, 384, 414, 444, 474, 504, 534})
}

// Table returns the category table by pool length: "25m" or "50m".
func Table(course string) ([]model.Category, bool) {
	switch course {
	case "25m", "25":
		return Categories25m(), true
	case "50m", "50":
		return Categories50m(), true
	default:
		return nil, false
	}
}

func table(names []string, lo, hi []float64) []model.Category {
	out := make([]model.Category, len(names))
	for i := range names {
		out[i] = model.Category{Name: names[i], MinAge: lo[i], MaxAge: hi[i]}
	}
	return out
}

// Random generates n swimmers from seed. Ages are whole years in [18, 80],
// times are hundredths in [25, 60] and roughly 40% are women.
func Random(seed uint64, n int) []model.Swimmer {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]model.Swimmer, n)
	for i := range out {
		g := model.Male
		if rng.Float64() < 0.4 {
			g = model.Female
		}
		out[i] = model.Swimmer{
			ID:     strconv.Itoa(i),
			Name:   fmt.Sprintf("swimmer_%d", i+1),
			Age:    float64(18 + rng.IntN(63)),
			Time:   math.Round((25+rng.Float64()*35)*100) / 100,
			Gender: g,
		}
	}
	return out
}
