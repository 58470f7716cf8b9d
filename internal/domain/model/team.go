package model

import (
	"fmt"
	"strings"
)

// Mode selects the optimization objective.
type Mode string

// Supported modes.
const (
	ModeMinimizeTotal Mode = "minimize-total"
	ModeBalance       Mode = "balance"
	ModeQuota         Mode = "quota"
)

// ParseMode accepts the canonical names plus the short aliases used by the CLI.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "minimize-total", "min-total", "min_total", "total":
		return ModeMinimizeTotal, nil
	case "balance", "balanced":
		return ModeBalance, nil
	case "quota", "category", "by-category":
		return ModeQuota, nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// Team is one solved group of swimmers. It only exists as a result.
type Team struct {
	Number   int       `json:"number"`
	Category string    `json:"category"`
	Members  []Swimmer `json:"members"`
	AgeSum   float64   `json:"age_sum"`
	TimeSum  float64   `json:"time_sum"`
}

// NewTeam computes the aggregates for members.
func NewTeam(number int, category string, members []Swimmer) Team {
	t := Team{Number: number, Category: category, Members: members}
	for _, m := range members {
		t.AgeSum += m.Age
		t.TimeSum += m.Time
	}
	return t
}

// Women counts female members.
func (t Team) Women() int { return CountWomen(t.Members) }

// Row is the denormalised output shape: one row per (team, member).
type Row struct {
	Team        int     `json:"team"`
	Category    string  `json:"category"`
	TeamAgeSum  float64 `json:"team_age_sum"`
	TeamTimeSum float64 `json:"team_time_sum"`
	Swimmer
}

// Rows flattens teams in order.
func Rows(teams []Team) []Row {
	var rows []Row
	for _, t := range teams {
		for _, m := range t.Members {
			rows = append(rows, Row{
				Team:        t.Number,
				Category:    t.Category,
				TeamAgeSum:  t.AgeSum,
				TeamTimeSum: t.TimeSum,
				Swimmer:     m,
			})
		}
	}
	return rows
}
