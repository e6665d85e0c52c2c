// Package source discovers and parses tracker exports (CSV or XLSX) into rows.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/cdash/internal/model"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseResult holds the output of parsing one export.
type ParseResult struct {
	Header      []string
	Rows        []model.Row
	ParseErrors int
	Err         error
}

// Parse picks a parser from the file extension. Anything that is not
// .xlsx is read as CSV.
func Parse(name string, data []byte) ParseResult {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ParseXLSX(bytes.NewReader(data))
	}
	return ParseCSV(bytes.NewReader(data))
}

// ParseFile reads and parses a discovered export.
func ParseFile(df DiscoveredFile) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	return Parse(df.Path, data)
}

// ParseCSV reads a header row followed by data rows. Records that fail to
// tokenize are counted and skipped; only a missing header or a read failure
// is reported through Err, in which case Rows is empty.
func ParseCSV(r io.Reader) ParseResult {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ParseResult{}
		}
		return ParseResult{Err: fmt.Errorf("reading header: %w", err)}
	}
	header = cleanHeader(header)

	res := ParseResult{Header: header}
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.ParseErrors++
				continue
			}
			return ParseResult{Header: header, Err: fmt.Errorf("reading record: %w", err)}
		}
		if blankRow(cells) {
			continue
		}
		res.Rows = append(res.Rows, DecodeRecord(zipRecord(header, cells)))
	}
	return res
}

// ParseXLSX reads the first sheet of a workbook with the same rules as ParseCSV.
func ParseXLSX(r io.Reader) ParseResult {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("opening workbook: %w", err)}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ParseResult{}
	}
	table, err := f.GetRows(sheets[0])
	if err != nil {
		return ParseResult{Err: fmt.Errorf("reading sheet %q: %w", sheets[0], err)}
	}

	// Leading blank rows are common in hand-edited workbooks.
	for len(table) > 0 && blankRow(table[0]) {
		table = table[1:]
	}
	if len(table) == 0 {
		return ParseResult{}
	}

	header := cleanHeader(table[0])
	res := ParseResult{Header: header}
	for _, cells := range table[1:] {
		if blankRow(cells) {
			continue
		}
		res.Rows = append(res.Rows, DecodeRecord(zipRecord(header, cells)))
	}
	return res
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
