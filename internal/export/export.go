// Package export writes DePara tables and dashboard summaries as xlsx
// workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/dan/depara/internal/progress"
)

// DataSheet is the sheet an entity export is written to.
const DataSheet = "Dados"

// MaxColumnWidth caps auto-sized columns.
const MaxColumnWidth = 50

// Unmapped cells of code columns are highlighted.
const (
	Unmapped       = "S/DePara"
	CodeSuffix     = "_Codigo"
	highlightColor = "FFFF00"
)

// ColumnWidths sizes each column to its longest value (header included) plus
// two, capped at MaxColumnWidth.
func ColumnWidths(columns []string, rows [][]string) []float64 {
	widths := make([]float64, len(columns))
	for i, c := range columns {
		longest := utf8.RuneCountInString(c)
		for _, r := range rows {
			if i < len(r) {
				longest = max(longest, utf8.RuneCountInString(r[i]))
			}
		}
		widths[i] = float64(min(longest+2, MaxColumnWidth))
	}
	return widths
}

// WriteEntity writes one table to the Dados sheet: a bold header row, one row
// per record, auto-sized columns and a yellow fill on unmapped codes.
func WriteEntity(w io.Writer, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	highlight, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{highlightColor}},
	})
	if err != nil {
		return fmt.Errorf("highlight style: %w", err)
	}

	if err := writeRow(f, DataSheet, 1, columns); err != nil {
		return err
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(DataSheet, "A1", last, header); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for i, r := range rows {
		if err := writeRow(f, DataSheet, i+2, r); err != nil {
			return err
		}
	}

	for col, name := range columns {
		if !strings.HasSuffix(name, CodeSuffix) {
			continue
		}
		for i, r := range rows {
			if col >= len(r) || r[col] != Unmapped {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellStyle(DataSheet, cell, cell, highlight); err != nil {
				return fmt.Errorf("highlight %s: %w", cell, err)
			}
		}
	}

	for i, width := range ColumnWidths(columns, rows) {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(DataSheet, name, name, width); err != nil {
			return fmt.Errorf("column width %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Section is one category of the dashboard summary.
type Section struct {
	Category string
	Members  []progress.EntityStat
}

// SummaryColumns is the header of every summary sheet.
var SummaryColumns = []string{"Tabela", "Status", "Total", "Pendentes", "Conclusão (%)"}

// WriteSummary writes one sheet per category holding the dashboard table
// of that category.
func WriteSummary(w io.Writer, sections []Section) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, sec := range sections {
		sheet := sheetName(sec.Category)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}

		if err := writeRow(f, sheet, 1, SummaryColumns); err != nil {
			return err
		}
		table := make([][]string, 0, len(sec.Members))
		for j, s := range sec.Members {
			row := []any{s.Name, s.Classification().Label.Text(), s.Total, s.Pending, s.Percent}
			cell, _ := excelize.CoordinatesToCellName(1, j+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, j+2, err)
			}
			table = append(table, []string{s.Name, s.Classification().Label.Text()})
		}
		for k, width := range ColumnWidths(SummaryColumns[:2], table) {
			name, _ := excelize.ColumnNumberToName(k + 1)
			if err := f.SetColWidth(sheet, name, name, width); err != nil {
				return fmt.Errorf("column width %s: %w", name, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// sheetName strips characters Excel rejects and truncates to 31 runes.
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > 31 {
		s = string([]rune(s)[:31])
	}
	if s == "" {
		s = "Resumo"
	}
	return s
}
