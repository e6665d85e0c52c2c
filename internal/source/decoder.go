package source

import "github.com/theirongolddev/cdash/internal/model"

// DecodeRecord maps one export record onto a Row. Absent columns decode to
// "" or 0; nothing here can fail.
func DecodeRecord(rec Record) model.Row {
	key := rec.text(ColKey)
	parent := rec.text(ColParentKey)
	if parent == "" {
		parent = key
	}
	statusRaw := rec.text(ColStatus)

	return model.Row{
		ItemType:         rec.text(ColItemType),
		Key:              key,
		Summary:          rec.text(ColSummary),
		StatusRaw:        statusRaw,
		Status:           NormalizeStatus(statusRaw),
		Category:         rec.text(ColCategory),
		School:           rec.text(ColSchool),
		Discipline:       rec.text(ColDiscipline),
		ContractualCents: ParseMoney(rec[ColContractual]),
		MeasuredCents:    ParseMoney(rec[ColMeasured]),
		ParentKey:        parent,
	}
}

// DecodeRecords decodes every record independently.
func DecodeRecords(recs []Record) []model.Row {
	rows := make([]model.Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, DecodeRecord(rec))
	}
	return rows
}
