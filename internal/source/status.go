package source

import (
	"strings"

	"github.com/theirongolddev/cdash/internal/model"
)

// statusLabels maps the tracker's workflow labels onto canonical statuses.
// Matching is exact: case and accents matter.
var statusLabels = map[string]string{
	"Tarefas pendentes":    model.StatusPending,
	"Em andamento":         model.StatusInProgress,
	"Em Análise (interna)": model.StatusInProgress,
	"Concluído":            model.StatusDone,
	"Aprovado":             model.StatusDone,
	"Em Análise (SEDUC)":   model.StatusDone,
}

// NormalizeStatus folds a raw tracker status into a canonical one.
// Unknown labels are returned trimmed but otherwise unchanged so they stay
// visible in filters and tables.
func NormalizeStatus(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if canonical, ok := statusLabels[s]; ok {
		return canonical
	}
	return s
}
