package model

import (
	"math"
	"time"
)

// Request holds the parameters of one optimization call.
type Request struct {
	Mode     Mode `json:"mode"`
	TeamSize int  `json:"team_size"`
	MinWomen int  `json:"min_women"`
	// Quotas is only read in quota mode. Zero or missing means no quota.
	Quotas map[string]int `json:"quotas,omitempty"`
}

// Summary aggregates a set of teams.
type Summary struct {
	Teams       int            `json:"teams"`
	Assigned    int            `json:"assigned"`
	Unassigned  int            `json:"unassigned"`
	TotalTime   float64        `json:"total_time"`
	FastestTeam float64        `json:"fastest_team"`
	SlowestTeam float64        `json:"slowest_team"`
	Spread      float64        `json:"spread"`
	Categories  map[string]int `json:"categories"`
}

// Summarize computes the summary of teams drawn from a roster of rosterSize.
func Summarize(teams []Team, rosterSize int) Summary {
	s := Summary{Teams: len(teams), Categories: make(map[string]int)}
	if len(teams) == 0 {
		s.Unassigned = rosterSize
		return s
	}
	s.FastestTeam, s.SlowestTeam = math.Inf(1), math.Inf(-1)
	for _, t := range teams {
		s.Assigned += len(t.Members)
		s.TotalTime += t.TimeSum
		s.FastestTeam = math.Min(s.FastestTeam, t.TimeSum)
		s.SlowestTeam = math.Max(s.SlowestTeam, t.TimeSum)
		s.Categories[t.Category]++
	}
	s.Spread = s.SlowestTeam - s.FastestTeam
	s.Unassigned = rosterSize - s.Assigned
	return s
}

// Report is the outcome of a successful optimization call.
type Report struct {
	RunID          string         `json:"run_id"`
	Mode           Mode           `json:"mode"`
	Message        string         `json:"message"`
	Warnings       []string       `json:"warnings,omitempty"`
	Teams          []Team         `json:"teams"`
	Rows           []Row          `json:"rows"`
	Unassigned     []Swimmer      `json:"unassigned"`
	Summary        Summary        `json:"summary"`
	QuotaBuilt     map[string]int `json:"quota_built,omitempty"`
	Objective      float64        `json:"objective"`
	Nodes          int            `json:"nodes"`
	Duration       time.Duration  `json:"duration_ns"`
	DatasetVersion string         `json:"dataset_version"`
}
