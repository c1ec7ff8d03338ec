package analysis

import "time"

// Priority enum, constrained at the storage layer
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Direction enum, constrained at the storage layer
type Direction string

const (
	DirectionUp     Direction = "Up"
	DirectionDown   Direction = "Down"
	DirectionStable Direction = "Stable"
)

type KPI struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

type Trend struct {
	MetricName       string    `json:"metricName"`
	Direction        Direction `json:"direction"`
	ChangePercentage float64   `json:"changePercentage"`
	TimeFrame        string    `json:"timeFrame"`
}

type ActionItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
}

// Result is the normalized analysis of a report. Lists are never nil.
type Result struct {
	Summary     string       `json:"summary"`
	KPIs        []KPI        `json:"kpis"`
	Trends      []Trend      `json:"trends"`
	ActionItems []ActionItem `json:"actionItems"`
}

// EmptyResult is what a never-analyzed report reads as.
func EmptyResult() Result {
	return Result{
		KPIs:        []KPI{},
		Trends:      []Trend{},
		ActionItems: []ActionItem{},
	}
}

// Snapshot is one committed analysis run
type Snapshot struct {
	ID         int64     `json:"id"`
	ReportID   int64     `json:"reportId"`
	Summary    string    `json:"summary"`
	RawPayload string    `json:"-"` // normalized payload as JSON, audit only
	CreatedAt  time.Time `json:"createdAt"`
}
