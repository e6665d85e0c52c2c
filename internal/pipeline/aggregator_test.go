package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/cdash/internal/model"

	"github.com/google/go-cmp/cmp"
)

func task(key, category, school, status string, contractual, measured int64) model.Row {
	return model.Row{
		ItemType:         model.ItemTask,
		Key:              key,
		Summary:          "tarefa " + key,
		Status:           status,
		StatusRaw:        status,
		Category:         category,
		School:           school,
		ContractualCents: contractual,
		MeasuredCents:    measured,
		ParentKey:        key,
	}
}

func subtask(key, parent, status string) model.Row {
	return model.Row{
		ItemType:  model.ItemSubtask,
		Key:       key,
		Summary:   "entregável " + key,
		Status:    status,
		StatusRaw: status,
		ParentKey: parent,
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuild_EndToEnd(t *testing.T) {
	rows := []model.Row{
		task("A", "Reforma", "EE Centro", model.StatusDone, 100000, 50000),
		task("B", "Reforma", "EE Norte", model.StatusPending, 200000, 0),
		subtask("A-1", "A", model.StatusDone),
	}

	d := Build(rows, DefaultTopSchools)

	if d.Totals.ContractualCents != 300000 {
		t.Errorf("contractual = %d, want 300000", d.Totals.ContractualCents)
	}
	if d.Totals.MeasuredCents != 50000 {
		t.Errorf("measured = %d, want 50000", d.Totals.MeasuredCents)
	}
	if !approx(d.Totals.PercentMeasured, 50000.0/300000.0*100) {
		t.Errorf("percentMeasured = %v, want 16.67", d.Totals.PercentMeasured)
	}
	if math.Round(d.Totals.PercentMeasured*100)/100 != 16.67 {
		t.Errorf("percentMeasured rounded = %v, want 16.67", d.Totals.PercentMeasured)
	}
	if d.Totals.BalanceDueCents != 50000 {
		t.Errorf("balance due = %d, want 50000", d.Totals.BalanceDueCents)
	}

	wantProgress := []model.DeliverableProgress{
		{Key: "B", Summary: "tarefa B", Category: "Reforma", School: "EE Norte", Status: model.StatusPending,
			ContractualCents: 200000, Total: 0, Completed: 0, Percent: 0, EstimatedCents: 0},
		{Key: "A", Summary: "tarefa A", Category: "Reforma", School: "EE Centro", Status: model.StatusDone,
			ContractualCents: 100000, Total: 1, Completed: 1, Percent: 100, EstimatedCents: 100000},
	}
	if diff := cmp.Diff(wantProgress, d.Deliverables); diff != "" {
		t.Errorf("deliverables mismatch (-want +got):\n%s", diff)
	}

	if d.Rollup.Total != 1 || d.Rollup.Completed != 1 || d.Rollup.Percent != 100 {
		t.Errorf("rollup = %+v, want 1/1 100%%", d.Rollup)
	}
	if d.Rollup.EstimatedCents != 100000 {
		t.Errorf("estimated = %d, want 100000", d.Rollup.EstimatedCents)
	}
	if !approx(d.Rollup.EstimatedPercent, 100000.0/300000.0*100) {
		t.Errorf("estimated pct = %v", d.Rollup.EstimatedPercent)
	}
	if d.Rows != 3 {
		t.Errorf("rows = %d, want 3", d.Rows)
	}
}

func TestTotals_NoTasks(t *testing.T) {
	got := Totals([]model.Row{subtask("S", "X", model.StatusDone)})
	if diff := cmp.Diff(model.KPITotals{}, got); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}
	if Totals(nil).PercentMeasured != 0 {
		t.Error("percentMeasured should be 0 with no rows")
	}
}

func TestTotals_NegativeBalanceNotClamped(t *testing.T) {
	got := Totals([]model.Row{
		task("A", "", "", model.StatusDone, 1000, 1500),
		task("B", "", "", model.StatusDone, 2000, 1000),
		task("C", "", "", model.StatusInProgress, 9000, 0),
	})
	if got.BalanceDueCents != 500 {
		t.Errorf("balance = %d, want 500 (-500 + 1000)", got.BalanceDueCents)
	}
	if got.DoneTasks != 2 || got.Tasks != 3 {
		t.Errorf("tasks = %d done of %d, want 2 of 3", got.DoneTasks, got.Tasks)
	}
}

func TestByCategory_SumsMatchTotals(t *testing.T) {
	rows := []model.Row{
		task("1", "Elétrica", "E1", model.StatusDone, 100, 10),
		task("2", "", "E2", model.StatusPending, 200, 20),
		task("3", "Alvenaria", "E1", model.StatusPending, 300, 30),
		task("4", "Elétrica", "E3", model.StatusPending, 400, 40),
		subtask("5", "1", model.StatusDone),
	}

	groups := ByCategory(rows)
	var c, m int64
	for _, g := range groups {
		c += g.ContractualCents
		m += g.MeasuredCents
	}
	totals := Totals(rows)
	if c != totals.ContractualCents || m != totals.MeasuredCents {
		t.Errorf("group sums %d/%d != totals %d/%d", c, m, totals.ContractualCents, totals.MeasuredCents)
	}

	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	// Punctuation collates before letters.
	want := []string{EmptyGroup, "Alvenaria", "Elétrica"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("category order (-want +got):\n%s", diff)
	}
}

func TestUniqSorted_PortugueseCollation(t *testing.T) {
	got := UniqSorted([]string{"Escola", "", "árvore", "Zebra", "abacate", "Escola", "Ébano"})
	want := []string{"abacate", "árvore", "Ébano", "Escola", "Zebra"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UniqSorted (-want +got):\n%s", diff)
	}
}

func TestTopSchoolBalances(t *testing.T) {
	var rows []model.Row
	// 12 schools, balance i*100 for school i; S03 and S05 tie.
	for i := 1; i <= 12; i++ {
		bal := int64(i * 100)
		if i == 3 {
			bal = 500
		}
		rows = append(rows, task(
			"T"+string(rune('A'+i)), "", schoolName(i), model.StatusPending, bal, 0,
		))
	}

	top := TopSchoolBalances(rows, 10)
	if len(top) != 10 {
		t.Fatalf("len = %d, want 10", len(top))
	}
	if top[0].Name != "S12" {
		t.Errorf("first = %s, want S12", top[0].Name)
	}
	// Tie: S03 appears before S05 in the data.
	var pos3, pos5 int
	for i, g := range top {
		switch g.Name {
		case "S03":
			pos3 = i
		case "S05":
			pos5 = i
		}
	}
	if pos3 > pos5 {
		t.Errorf("tie order: S03 at %d, S05 at %d; want encounter order", pos3, pos5)
	}
	for i := 1; i < len(top); i++ {
		if top[i].BalanceCents() > top[i-1].BalanceCents() {
			t.Errorf("not descending at %d", i)
		}
	}
}

func schoolName(i int) string {
	return "S" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}

func TestStatusCounts(t *testing.T) {
	rows := []model.Row{
		task("1", "", "", model.StatusDone, 0, 0),
		task("2", "", "", model.StatusDone, 0, 0),
		task("3", "", "", model.StatusPending, 0, 0),
		task("4", "", "", "Cancelado", 0, 0),
		subtask("5", "1", model.StatusInProgress),
	}
	want := []model.StatusCount{
		{Status: model.StatusPending, Count: 1},
		{Status: model.StatusInProgress, Count: 0},
		{Status: model.StatusDone, Count: 2},
	}
	if diff := cmp.Diff(want, StatusCounts(rows)); diff != "" {
		t.Errorf("StatusCounts (-want +got):\n%s", diff)
	}
}

func TestFinance_ClampsAggregate(t *testing.T) {
	tests := []struct {
		name string
		rows []model.Row
		want model.FinanceSplit
	}{
		{
			name: "over-measured task offsets open one",
			rows: []model.Row{
				task("A", "", "", model.StatusPending, 10000, 0),
				task("B", "", "", model.StatusDone, 0, 6000),
			},
			want: model.FinanceSplit{MeasuredCents: 6000, OutstandingCents: 4000},
		},
		{
			name: "mixed",
			rows: []model.Row{
				task("1", "", "", model.StatusDone, 1000, 1500),
				task("2", "", "", model.StatusPending, 1000, 200),
			},
			want: model.FinanceSplit{MeasuredCents: 1700, OutstandingCents: 300},
		},
		{
			name: "measured above contract floors at zero",
			rows: []model.Row{
				task("1", "", "", model.StatusDone, 1000, 2500),
				subtask("1-1", "1", model.StatusDone),
			},
			want: model.FinanceSplit{MeasuredCents: 2500},
		},
		{
			name: "empty",
			want: model.FinanceSplit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Finance(tt.rows); got != tt.want {
				t.Errorf("Finance = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeliverables_JoinAndOrder(t *testing.T) {
	rows := []model.Row{
		task("A", "", "", model.StatusPending, 99999, 0),
		task("B", "", "", model.StatusPending, 1000, 0),
		subtask("A-1", "A", model.StatusDone),
		subtask("A-2", "A", model.StatusInProgress),
		subtask("A-3", "A", model.StatusPending),
		subtask("B-1", "B", model.StatusPending),
		subtask("orphan", "Z", model.StatusDone),
	}

	got := Deliverables(rows)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Key != "B" || got[1].Key != "A" {
		t.Errorf("order = %s,%s; want B,A", got[0].Key, got[1].Key)
	}
	a := got[1]
	if a.Total != 3 || a.Completed != 1 {
		t.Errorf("A = %d/%d, want 1/3", a.Completed, a.Total)
	}
	// 99999 * 1/3 = 33333
	if a.EstimatedCents != 33333 {
		t.Errorf("A estimated = %d, want 33333", a.EstimatedCents)
	}

	sum := DeliverableRollup(got, Totals(rows))
	if sum.Completed > sum.Total {
		t.Errorf("completed %d > total %d", sum.Completed, sum.Total)
	}
	if sum.Total != 4 || sum.Completed != 1 {
		t.Errorf("rollup = %d/%d, want 1/4", sum.Completed, sum.Total)
	}
}

func TestProrate_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		cents       int64
		done, total int
		want        int64
	}{
		{3, 1, 2, 2},
		{-3, 1, 2, -2},
		{100, 0, 0, 0},
		{100, 2, 3, 67},
		{100, 3, 3, 100},
	}
	for _, tt := range tests {
		if got := prorate(tt.cents, tt.done, tt.total); got != tt.want {
			t.Errorf("prorate(%d, %d, %d) = %d, want %d", tt.cents, tt.done, tt.total, got, tt.want)
		}
	}
}

func TestTaskLines_OrderAndBalance(t *testing.T) {
	rows := []model.Row{
		task("OBR-2", "Reforma", "Escola B", model.StatusPending, 100, 0),
		task("OBR-1", "Reforma", "Escola B", model.StatusDone, 300, 100),
		task("OBR-9", "Ampliação", "Escola Z", model.StatusDone, 100, 100),
		task("OBR-3", "Reforma", "Escola A", model.StatusPending, 100, 0),
		subtask("S", "OBR-1", model.StatusDone),
	}

	lines := TaskLines(rows)
	var keys []string
	for _, l := range lines {
		keys = append(keys, l.Key)
	}
	if diff := cmp.Diff([]string{"OBR-9", "OBR-3", "OBR-1", "OBR-2"}, keys); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	for _, l := range lines {
		switch l.Key {
		case "OBR-1":
			if !l.HasBalance || l.BalanceCents != 200 {
				t.Errorf("OBR-1 balance = %v/%d, want true/200", l.HasBalance, l.BalanceCents)
			}
		case "OBR-2":
			if l.HasBalance {
				t.Error("OBR-2 is pending and should not report a balance")
			}
		}
	}
}

func TestAggregation_ToleratesDuplicateAndEmptyKeys(t *testing.T) {
	rows := []model.Row{
		task("", "", "", model.StatusDone, 100, 0),
		task("", "", "", model.StatusDone, 100, 0),
		task("D", "", "", model.StatusPending, 100, 0),
		task("D", "", "", model.StatusPending, 100, 0),
		subtask("x", "D", model.StatusDone),
		subtask("", "", model.StatusDone),
	}
	d := Build(rows, DefaultTopSchools)
	if d.Totals.Tasks != 4 {
		t.Errorf("tasks = %d, want 4", d.Totals.Tasks)
	}
	// Each duplicate task joins the same subtasks. A subtask with no key
	// and no parent belongs to nobody, not to the keyless tasks.
	if d.Rollup.Total != 2 || d.Rollup.Completed != 2 {
		t.Errorf("rollup = %d/%d, want 2/2", d.Rollup.Completed, d.Rollup.Total)
	}
	for _, p := range d.Deliverables {
		if p.Key == "" && p.Total != 0 {
			t.Errorf("keyless task joined %d subtasks, want 0", p.Total)
		}
	}
}
