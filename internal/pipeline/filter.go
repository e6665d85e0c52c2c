package pipeline

import (
	"sort"
	"strings"

	"github.com/theirongolddev/cdash/internal/model"
)

// Criteria selects rows. Empty fields match anything; set fields are ANDed.
type Criteria struct {
	Category string `json:"category,omitempty"`
	School   string `json:"school,omitempty"`
	Status   string `json:"status,omitempty"` // canonical status
	Query    string `json:"query,omitempty"`  // case-insensitive substring
}

// IsZero reports whether the criteria impose no constraint.
func (c Criteria) IsZero() bool {
	return c.Category == "" && c.School == "" && c.Status == "" && strings.TrimSpace(c.Query) == ""
}

// Match reports whether a single row satisfies the criteria.
func (c Criteria) Match(r model.Row) bool {
	if c.Category != "" && r.Category != c.Category {
		return false
	}
	if c.School != "" && r.School != c.School {
		return false
	}
	if c.Status != "" && r.Status != c.Status {
		return false
	}
	if q := strings.TrimSpace(c.Query); q != "" {
		hay := r.Key + " " + r.Summary + " " + r.Category + " " + r.School
		if !containsIgnoreCase(hay, q) {
			return false
		}
	}
	return true
}

// Filter returns the rows matching c, in their original order. The input
// is never modified.
func Filter(rows []model.Row, c Criteria) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterOptions lists the values a user can pick for each filter.
type FilterOptions struct {
	Categories []string `json:"categories"`
	Schools    []string `json:"schools"`
	Statuses   []string `json:"statuses"`
}

// Options collects distinct non-empty categories and schools in pt-BR
// order. Statuses start with the canonical three, followed by any
// unrecognized labels present in the data.
func Options(rows []model.Row) FilterOptions {
	cats := make([]string, 0, len(rows))
	schools := make([]string, 0, len(rows))
	var extra []string
	known := make(map[string]bool, len(model.Statuses))
	for _, s := range model.Statuses {
		known[s] = true
	}
	for _, r := range rows {
		cats = append(cats, r.Category)
		schools = append(schools, r.School)
		if r.Status != "" && !known[r.Status] {
			extra = append(extra, r.Status)
		}
	}

	statuses := append([]string(nil), model.Statuses...)
	statuses = append(statuses, UniqSorted(extra)...)

	return FilterOptions{
		Categories: UniqSorted(cats),
		Schools:    UniqSorted(schools),
		Statuses:   statuses,
	}
}

// UniqSorted drops empty strings and duplicates and sorts the rest with
// pt-BR collation.
func UniqSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	col := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i], out[j]) < 0
	})
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
