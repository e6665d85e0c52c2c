// Package model defines domain types for cdash rows and dashboard aggregates.
package model

// Item types as they appear in the tracker export.
const (
	ItemTask    = "Tarefa"
	ItemSubtask = "Subtarefa"
)

// Canonical statuses. Raw tracker labels are folded into these three;
// anything unrecognized keeps its raw label.
const (
	StatusPending    = "Pendente"
	StatusInProgress = "Em andamento"
	StatusDone       = "Concluído"
)

// Statuses lists the canonical statuses in display order.
var Statuses = []string{StatusPending, StatusInProgress, StatusDone}

// Row is one decoded record of a tracker export. Rows are built once per
// source load and never mutated afterwards.
type Row struct {
	ItemType  string `json:"itemType"`
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	StatusRaw string `json:"statusRaw"`
	Status    string `json:"status"`

	Category   string `json:"category"`
	School     string `json:"school"`
	Discipline string `json:"discipline"`

	ContractualCents int64 `json:"contractualCents"`
	MeasuredCents    int64 `json:"measuredCents"`

	// ParentKey is the owning task for subtasks, or Key when the export
	// has no parent column value.
	ParentKey string `json:"parentKey"`
}

// IsTask reports whether the row is a top-level billable task.
func (r Row) IsTask() bool { return r.ItemType == ItemTask }

// IsSubtask reports whether the row is a deliverable of some task.
func (r Row) IsSubtask() bool { return r.ItemType == ItemSubtask }

// IsDone reports whether the row's canonical status is done.
func (r Row) IsDone() bool { return r.Status == StatusDone }

// BalanceCents is contractual minus measured. It may be negative.
func (r Row) BalanceCents() int64 { return r.ContractualCents - r.MeasuredCents }
