package model

// KPITotals holds the headline figures computed over task rows.
type KPITotals struct {
	ContractualCents int64   `json:"contractualCents"`
	MeasuredCents    int64   `json:"measuredCents"`
	PercentMeasured  float64 `json:"percentMeasured"`
	Tasks            int     `json:"tasks"`
	DoneTasks        int     `json:"doneTasks"`

	// BalanceDueCents sums contractual minus measured over done tasks only.
	BalanceDueCents int64 `json:"balanceDueCents"`
}

// GroupTotals holds contractual and measured sums for one category or school.
type GroupTotals struct {
	Name             string `json:"name"`
	Tasks            int    `json:"tasks"`
	ContractualCents int64  `json:"contractualCents"`
	MeasuredCents    int64  `json:"measuredCents"`
}

// BalanceCents is contractual minus measured for the group.
func (g GroupTotals) BalanceCents() int64 { return g.ContractualCents - g.MeasuredCents }

// StatusCount is the number of tasks in one canonical status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// FinanceSplit divides the contract into what was measured and what is
// still open. Outstanding is the contract total less the measured total,
// floored at zero.
type FinanceSplit struct {
	MeasuredCents    int64 `json:"measuredCents"`
	OutstandingCents int64 `json:"outstandingCents"`
}

// DeliverableProgress is the completion of one task's subtasks.
type DeliverableProgress struct {
	Key              string  `json:"key"`
	Summary          string  `json:"summary"`
	Category         string  `json:"category"`
	School           string  `json:"school"`
	Status           string  `json:"status"`
	ContractualCents int64   `json:"contractualCents"`
	Total            int     `json:"total"`
	Completed        int     `json:"completed"`
	Percent          float64 `json:"percent"`

	// EstimatedCents prorates the contractual value by completed
	// deliverables. It is an estimate, not a measured figure.
	EstimatedCents int64 `json:"estimatedCents"`
}

// DeliverableSummary rolls deliverable progress up across all tasks.
type DeliverableSummary struct {
	Total            int     `json:"total"`
	Completed        int     `json:"completed"`
	Percent          float64 `json:"percent"`
	EstimatedCents   int64   `json:"estimatedCents"`
	EstimatedPercent float64 `json:"estimatedPercent"`
}

// TaskLine is one row of the task table.
type TaskLine struct {
	Key              string `json:"key"`
	Summary          string `json:"summary"`
	Category         string `json:"category"`
	School           string `json:"school"`
	Status           string `json:"status"`
	ContractualCents int64  `json:"contractualCents"`
	MeasuredCents    int64  `json:"measuredCents"`

	// BalanceCents is only meaningful when HasBalance is set, which
	// happens for done tasks.
	BalanceCents int64 `json:"balanceCents"`
	HasBalance   bool  `json:"hasBalance"`
}

// Dashboard is everything the renderers need for one filtered row set.
type Dashboard struct {
	Rows         int                   `json:"rows"`
	Totals       KPITotals             `json:"totals"`
	Categories   []GroupTotals         `json:"categories"`
	Schools      []GroupTotals         `json:"schools"`
	TopSchools   []GroupTotals         `json:"topSchools"`
	Statuses     []StatusCount         `json:"statuses"`
	Finance      FinanceSplit          `json:"finance"`
	Deliverables []DeliverableProgress `json:"deliverables"`
	Rollup       DeliverableSummary    `json:"rollup"`
	Tasks        []TaskLine            `json:"tasks"`
}
