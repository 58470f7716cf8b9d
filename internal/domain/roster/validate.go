package roster

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/relay/internal/domain/model"
)

const maxAge = 100

// Dataset is a validated roster and category table.
type Dataset struct {
	Swimmers   []model.Swimmer  `json:"swimmers" yaml:"swimmers"`
	Categories []model.Category `json:"categories" yaml:"categories"`
}

// Clone returns a deep copy.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Swimmers:   append([]model.Swimmer(nil), d.Swimmers...),
		Categories: append([]model.Category(nil), d.Categories...),
	}
}

// Document turns a dataset back into raw records.
func (d Dataset) Document() Document {
	doc := Document{
		Swimmers:   make([]SwimmerRecord, len(d.Swimmers)),
		Categories: make([]CategoryRecord, len(d.Categories)),
	}
	for i, s := range d.Swimmers {
		doc.Swimmers[i] = SwimmerRecord{ID: s.ID, Name: s.Name, Age: s.Age, Time: s.Time, Gender: string(s.Gender)}
	}
	for i, c := range d.Categories {
		doc.Categories[i] = CategoryRecord(c)
	}
	return doc
}

// Validate checks every record and returns all violations at once. Swimmers
// without an ID get their 0-based row index.
func Validate(doc Document) (Dataset, error) {
	var vs []Violation
	add := func(section string, row int, field, msg string) {
		vs = append(vs, Violation{Section: section, Row: row, Field: field, Message: msg})
	}

	if len(doc.Swimmers) == 0 {
		add("swimmers", -1, "", "at least one swimmer is required")
	}
	if len(doc.Categories) == 0 {
		add("categories", -1, "", "at least one category is required")
	}

	ds := Dataset{
		Swimmers:   make([]model.Swimmer, 0, len(doc.Swimmers)),
		Categories: make([]model.Category, 0, len(doc.Categories)),
	}

	ids := make(map[string]int, len(doc.Swimmers))
	for i, r := range doc.Swimmers {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = strconv.Itoa(i)
		}
		if prev, dup := ids[id]; dup {
			add("swimmers", i, "id", "duplicates row "+strconv.Itoa(prev))
		} else {
			ids[id] = i
		}
		switch {
		case !finite(r.Age):
			add("swimmers", i, "age", notFinite)
		case r.Age <= 0 || r.Age >= maxAge:
			add("swimmers", i, "age", "must be greater than 0 and less than 100")
		}
		switch {
		case !finite(r.Time):
			add("swimmers", i, "time", notFinite)
		case r.Time <= 0:
			add("swimmers", i, "time", "must be greater than 0")
		}
		g, err := model.ParseGender(r.Gender)
		if err != nil {
			add("swimmers", i, "gender", err.Error())
		}
		ds.Swimmers = append(ds.Swimmers, model.Swimmer{
			ID:     id,
			Name:   strings.TrimSpace(r.Name),
			Age:    r.Age,
			Time:   r.Time,
			Gender: g,
		})
	}

	names := make(map[string]int, len(doc.Categories))
	for i, r := range doc.Categories {
		name := strings.TrimSpace(r.Name)
		switch {
		case name == "":
			add("categories", i, "name", "must not be empty")
		case name == model.Uncategorized:
			add("categories", i, "name", "is reserved")
		default:
			if prev, dup := names[name]; dup {
				add("categories", i, "name", "duplicates row "+strconv.Itoa(prev))
			} else {
				names[name] = i
			}
		}
		switch {
		case !finite(r.MinAge):
			add("categories", i, "min_age", notFinite)
		case r.MinAge < 0:
			add("categories", i, "min_age", "must not be negative")
		}
		switch {
		case !finite(r.MaxAge):
			add("categories", i, "max_age", notFinite)
		case r.MaxAge < 0:
			add("categories", i, "max_age", "must not be negative")
		case r.MaxAge < r.MinAge:
			add("categories", i, "max_age", "must not be less than min_age")
		}
		ds.Categories = append(ds.Categories, model.Category{Name: name, MinAge: r.MinAge, MaxAge: r.MaxAge})
	}

	if len(vs) > 0 {
		return Dataset{}, &ValidationError{Violations: vs}
	}
	return ds, nil
}

const notFinite = "must be a finite number"

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
