// Package models contains shared data models used across the TrendScout codebase.
package models

// TrendSeries is the monthly historical search-interest series for a set of
// keywords, as returned by the trend agent's /trends/historical endpoint (or
// the local fallback generator when the agent is unreachable).
type TrendSeries struct {
	Keywords  string       `json:"keywords"`
	Region    string       `json:"region"`
	StartYear int          `json:"startYear"`
	EndYear   int          `json:"endYear"`
	Data      []TrendPoint `json:"data"`
}

// TrendPoint is one month of interest data. Value is a 0-100 interest index.
type TrendPoint struct {
	Year  int    `json:"year"`
	Month string `json:"month"`
	Value int    `json:"value"`
}
