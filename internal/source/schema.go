package source

import "strings"

// Column headers of the tracker export.
const (
	ColItemType    = "Tipo de item"
	ColKey         = "Chave da item"
	ColSummary     = "Resumo"
	ColStatus      = "Status"
	ColCategory    = "Campo personalizado (Categoria)"
	ColSchool      = "Campo personalizado (Escola)"
	ColContractual = "Campo personalizado (Valor Contratual)"
	ColMeasured    = "Campo personalizado (Valor Medido)"
	ColParentKey   = "Chave pai"
	ColDiscipline  = "Campo personalizado (Disciplina)"
)

// Record is one export row keyed by column header.
type Record map[string]string

// text returns the trimmed value of a column, or "" when the column is absent.
func (r Record) text(col string) string {
	return strings.TrimSpace(r[col])
}

// zipRecord pairs a header with one row of cells. Missing trailing cells
// become "", extra cells are dropped, and the first of duplicate headers wins.
func zipRecord(header, cells []string) Record {
	rec := make(Record, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if _, dup := rec[h]; dup {
			continue
		}
		if i < len(cells) {
			rec[h] = cells[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}
