// Package pipeline filters decoded rows and aggregates them into dashboard figures.
package pipeline

import (
	"sort"

	"github.com/theirongolddev/cdash/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// EmptyGroup labels rows whose category or school is blank.
const EmptyGroup = "—"

// DefaultTopSchools is how many schools the balance ranking keeps.
const DefaultTopSchools = 10

// Build computes every dashboard figure from one row set.
func Build(rows []model.Row, topSchools int) model.Dashboard {
	totals := Totals(rows)
	progress := Deliverables(rows)

	return model.Dashboard{
		Rows:         len(rows),
		Totals:       totals,
		Categories:   ByCategory(rows),
		Schools:      BySchool(rows),
		TopSchools:   TopSchoolBalances(rows, topSchools),
		Statuses:     StatusCounts(rows),
		Finance:      Finance(rows),
		Deliverables: progress,
		Rollup:       DeliverableRollup(progress, totals),
		Tasks:        TaskLines(rows),
	}
}

// Totals computes the KPI figures over task rows. Subtasks never carry money.
func Totals(rows []model.Row) model.KPITotals {
	var t model.KPITotals
	for _, r := range rows {
		if !r.IsTask() {
			continue
		}
		t.Tasks++
		t.ContractualCents += r.ContractualCents
		t.MeasuredCents += r.MeasuredCents
		if r.IsDone() {
			t.DoneTasks++
			t.BalanceDueCents += r.BalanceCents()
		}
	}
	t.PercentMeasured = percent(t.MeasuredCents, t.ContractualCents)
	return t
}

// ByCategory sums task money per category, ordered by pt-BR collation.
func ByCategory(rows []model.Row) []model.GroupTotals {
	groups := groupTasks(rows, func(r model.Row) string { return r.Category })
	sortGroupsByName(groups)
	return groups
}

// BySchool sums task money per school, ordered by pt-BR collation.
func BySchool(rows []model.Row) []model.GroupTotals {
	groups := groupTasks(rows, func(r model.Row) string { return r.School })
	sortGroupsByName(groups)
	return groups
}

// TopSchoolBalances ranks schools by contractual minus measured, largest
// first, and keeps at most n. Ties keep the order schools first appear in.
func TopSchoolBalances(rows []model.Row, n int) []model.GroupTotals {
	groups := groupTasks(rows, func(r model.Row) string { return r.School })
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].BalanceCents() > groups[j].BalanceCents()
	})
	if n >= 0 && len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// StatusCounts counts tasks per canonical status, always in display order.
// Tasks with other statuses are not counted.
func StatusCounts(rows []model.Row) []model.StatusCount {
	counts := make([]model.StatusCount, len(model.Statuses))
	idx := make(map[string]int, len(model.Statuses))
	for i, s := range model.Statuses {
		counts[i].Status = s
		idx[s] = i
	}
	for _, r := range rows {
		if !r.IsTask() {
			continue
		}
		if i, ok := idx[r.Status]; ok {
			counts[i].Count++
		}
	}
	return counts
}

// Finance splits task money into measured and still-open amounts. The open
// amount is contract total minus measured total, floored at zero, so tasks
// measured above contract offset those still open.
func Finance(rows []model.Row) model.FinanceSplit {
	var f model.FinanceSplit
	var contractual int64
	for _, r := range rows {
		if !r.IsTask() {
			continue
		}
		contractual += r.ContractualCents
		f.MeasuredCents += r.MeasuredCents
	}
	if open := contractual - f.MeasuredCents; open > 0 {
		f.OutstandingCents = open
	}
	return f
}

// Deliverables joins subtasks to their tasks by parent key and reports
// completion per task, least complete first.
func Deliverables(rows []model.Row) []model.DeliverableProgress {
	type tally struct{ total, done int }
	byParent := make(map[string]*tally)
	for _, r := range rows {
		if !r.IsSubtask() || r.ParentKey == "" {
			continue
		}
		t, ok := byParent[r.ParentKey]
		if !ok {
			t = &tally{}
			byParent[r.ParentKey] = t
		}
		t.total++
		if r.IsDone() {
			t.done++
		}
	}

	var out []model.DeliverableProgress
	for _, r := range rows {
		if !r.IsTask() {
			continue
		}
		p := model.DeliverableProgress{
			Key:              r.Key,
			Summary:          r.Summary,
			Category:         r.Category,
			School:           r.School,
			Status:           r.Status,
			ContractualCents: r.ContractualCents,
		}
		if t, ok := byParent[r.Key]; ok {
			p.Total = t.total
			p.Completed = t.done
		}
		p.Percent = ratioPercent(p.Completed, p.Total)
		p.EstimatedCents = prorate(r.ContractualCents, p.Completed, p.Total)
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percent < out[j].Percent
	})
	return out
}

// DeliverableRollup sums per-task progress. EstimatedCents is a heuristic
// (contract value prorated by finished deliverables), never a measured value.
func DeliverableRollup(progress []model.DeliverableProgress, totals model.KPITotals) model.DeliverableSummary {
	var s model.DeliverableSummary
	for _, p := range progress {
		s.Total += p.Total
		s.Completed += p.Completed
		s.EstimatedCents += p.EstimatedCents
	}
	s.Percent = ratioPercent(s.Completed, s.Total)
	s.EstimatedPercent = percent(s.EstimatedCents, totals.ContractualCents)
	return s
}

// TaskLines lists tasks ordered by category, school, then key. Balance is
// only reported once a task is done.
func TaskLines(rows []model.Row) []model.TaskLine {
	var lines []model.TaskLine
	for _, r := range rows {
		if !r.IsTask() {
			continue
		}
		l := model.TaskLine{
			Key:              r.Key,
			Summary:          r.Summary,
			Category:         r.Category,
			School:           r.School,
			Status:           r.Status,
			ContractualCents: r.ContractualCents,
			MeasuredCents:    r.MeasuredCents,
		}
		if r.IsDone() {
			l.BalanceCents = r.BalanceCents()
			l.HasBalance = true
		}
		lines = append(lines, l)
	}

	col := newCollator()
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if c := col.CompareString(a.Category, b.Category); c != 0 {
			return c < 0
		}
		if c := col.CompareString(a.School, b.School); c != 0 {
			return c < 0
		}
		return col.CompareString(a.Key, b.Key) < 0
	})
	return lines
}

// groupTasks sums task rows per key in first-seen order.
func groupTasks(rows []model.Row, keyFn func(model.Row) string) []model.GroupTotals {
	idx := make(map[string]int)
	var groups []model.GroupTotals
	for _, r := range rows {
		if !r.IsTask() {
			continue
		}
		name := keyFn(r)
		if name == "" {
			name = EmptyGroup
		}
		i, ok := idx[name]
		if !ok {
			i = len(groups)
			idx[name] = i
			groups = append(groups, model.GroupTotals{Name: name})
		}
		groups[i].Tasks++
		groups[i].ContractualCents += r.ContractualCents
		groups[i].MeasuredCents += r.MeasuredCents
	}
	return groups
}

func sortGroupsByName(groups []model.GroupTotals) {
	col := newCollator()
	sort.SliceStable(groups, func(i, j int) bool {
		return col.CompareString(groups[i].Name, groups[j].Name) < 0
	})
}

// newCollator returns a pt-BR collator. Collators keep internal buffers and
// are not safe for concurrent use, so every call site gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese)
}

// percent returns part/whole*100, or 0 when whole is 0.
func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func ratioPercent(part, whole int) float64 {
	return percent(int64(part), int64(whole))
}

// prorate returns round(cents*done/total) half away from zero, or 0 when
// total is 0.
func prorate(cents int64, done, total int) int64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(int64(done))).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart()
}
