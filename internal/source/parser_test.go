package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/cdash/internal/model"

	"github.com/xuri/excelize/v2"
)

const exportHeader = `Tipo de item,Chave da item,Resumo,Status,Campo personalizado (Categoria),Campo personalizado (Escola),Campo personalizado (Valor Contratual),Campo personalizado (Valor Medido),Chave pai,Campo personalizado (Disciplina)`

// writeExport creates a temp export file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, name string, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: name}
}

func TestParseFile_CSV(t *testing.T) {
	df := writeExport(t, "export.csv",
		exportHeader,
		`Tarefa,OBR-1,Reforma telhado,Concluído,Reforma,EE Centro,"R$ 1.000,00","500,00",,Civil`,
		`Subtarefa,OBR-2,Laudo,Aprovado,Reforma,EE Centro,,,OBR-1,Civil`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}

	task := result.Rows[0]
	if task.ContractualCents != 100000 || task.MeasuredCents != 50000 {
		t.Errorf("task money = %d/%d, want 100000/50000", task.ContractualCents, task.MeasuredCents)
	}
	if task.ParentKey != "OBR-1" {
		t.Errorf("task ParentKey = %q, want OBR-1", task.ParentKey)
	}
	sub := result.Rows[1]
	if sub.ParentKey != "OBR-1" || sub.Status != model.StatusDone {
		t.Errorf("subtask = %+v", sub)
	}
}

func TestParseCSV_SkipsBlankLinesAndBOM(t *testing.T) {
	input := "\xEF\xBB\xBF" + exportHeader + "\n\n" +
		"Tarefa,OBR-1,A,Em andamento,,,10,,,\n" +
		",,,,,,,,,\n" +
		"\n" +
		"Tarefa,OBR-2,B,Tarefas pendentes,,,20,,,\n"

	result := ParseCSV(strings.NewReader(input))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if result.Header[0] != ColItemType {
		t.Errorf("header[0] = %q, want BOM stripped", result.Header[0])
	}
	if result.Rows[0].ItemType != model.ItemTask {
		t.Errorf("ItemType = %q", result.Rows[0].ItemType)
	}
}

func TestParseCSV_RaggedRows(t *testing.T) {
	input := exportHeader + "\n" +
		"Tarefa,OBR-1,Curta\n" +
		"Tarefa,OBR-2,Longa,Concluído,Cat,Esc,1,1,,Civil,extra,cells\n"

	result := ParseCSV(strings.NewReader(input))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	short := result.Rows[0]
	if short.Summary != "Curta" || short.ContractualCents != 0 || short.ParentKey != "OBR-1" {
		t.Errorf("short row = %+v", short)
	}
	if result.Rows[1].Discipline != "Civil" {
		t.Errorf("long row discipline = %q", result.Rows[1].Discipline)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	result := ParseCSV(strings.NewReader(""))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(result.Rows))
	}
}

func TestParseCSV_UnknownColumnsOnly(t *testing.T) {
	result := ParseCSV(strings.NewReader("foo,bar\n1,2\n"))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(result.Rows))
	}
	if result.Rows[0] != (model.Row{}) {
		t.Errorf("row = %+v, want zero row", result.Rows[0])
	}
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	header := strings.Split(exportHeader, ",")
	cells := [][]any{
		toAny(header),
		{"Tarefa", "OBR-1", "Pintura", "Concluído", "Reforma", "EE Norte", "R$ 2.500,10", "1.000,00", "", "Civil"},
		{"Subtarefa", "OBR-2", "Fotos", "Em andamento", "Reforma", "EE Norte", "", "", "OBR-1"},
	}
	for i, row := range cells {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	result := Parse("export.XLSX", buf.Bytes())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if result.Rows[0].ContractualCents != 250010 {
		t.Errorf("contractual = %d, want 250010", result.Rows[0].ContractualCents)
	}
	if result.Rows[1].ParentKey != "OBR-1" || result.Rows[1].Status != model.StatusInProgress {
		t.Errorf("subtask = %+v", result.Rows[1])
	}
}

func TestParse_BadWorkbook(t *testing.T) {
	result := Parse("broken.xlsx", []byte("not a zip"))
	if result.Err == nil {
		t.Fatal("expected error for invalid workbook")
	}
	if len(result.Rows) != 0 {
		t.Errorf("rows = %d, want none on error", len(result.Rows))
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.csv")
	recent := filepath.Join(dir, "nested", "recent.xlsx")
	for _, p := range []string{old, recent, filepath.Join(dir, "notes.txt"), filepath.Join(dir, "~$lock.xlsx")} {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2: %+v", len(files), files)
	}
	if files[0].Name != "recent.xlsx" || files[1].Name != "old.csv" {
		t.Errorf("order = %s, %s; want newest first", files[0].Name, files[1].Name)
	}
}

func TestScanDir_Missing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil || files != nil {
		t.Errorf("ScanDir(missing) = %v, %v; want nil, nil", files, err)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
