// Package export writes chart summaries to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"survey-dashboard/internal/aggregate"
	"survey-dashboard/internal/chart"
)

const (
	defaultSheet = "Sheet1"
	maxSheetName = 31
)

var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")

// WriteWorkbook writes one sheet per summary, in order. Empty summaries get
// a sheet holding the placeholder message.
func WriteWorkbook(w io.Writer, summaries []aggregate.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	used := map[string]bool{}
	for i, s := range summaries {
		name := sheetName(s, i, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", name, err)
		}
		rows := summaryRows(s)
		for r, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("writing sheet %q: %w", name, err)
			}
		}
		if err := f.SetRowStyle(name, 1, 1, header); err != nil {
			return err
		}
		if err := f.SetColWidth(name, "A", "B", 40); err != nil {
			return err
		}
	}

	if len(summaries) > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return err
		}
		f.SetActiveSheet(0)
	}
	return f.Write(w)
}

func sheetName(s aggregate.Summary, i int, used map[string]bool) string {
	name := sheetNameReplacer.Replace(s.ChartID)
	if name == "" {
		name = fmt.Sprintf("chart%d", i+1)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	base := name
	for n := 2; used[strings.ToLower(name)] || strings.EqualFold(name, defaultSheet); n++ {
		suffix := fmt.Sprintf("_%d", n)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func summaryRows(s aggregate.Summary) [][]any {
	if s.Empty() {
		return [][]any{{s.Title}, {chart.NoDataMessage}}
	}

	switch {
	case s.Distribution != nil:
		rows := [][]any{{"Grupo", "Resposta", "Quantidade", "Percentual"}}
		for _, r := range s.Distribution.Rows {
			rows = append(rows, []any{r.Group, r.Answer, r.Count, r.Percent})
		}
		return rows
	case s.Overall != nil:
		rows := [][]any{{"Resposta", "Quantidade", "Percentual"}}
		for _, r := range s.Overall.Shares {
			rows = append(rows, []any{r.Answer, r.Count, r.Percent})
		}
		return append(rows, []any{"Total", s.Overall.Total, 100.0})
	case s.Ranking != nil:
		rows := [][]any{{"Grupo", "Média", "Respostas"}}
		for _, g := range s.Ranking.Groups {
			rows = append(rows, []any{g.Group, chart.RoundTo2(g.Mean), g.Responses})
		}
		return rows
	case s.Volume != nil:
		rows := [][]any{{"Grupo", "Respostas", "Média"}}
		groups := s.Volume.Groups
		if s.Volume.Others != nil {
			groups = append(append([]aggregate.GroupScore(nil), groups...), *s.Volume.Others)
		}
		for _, g := range groups {
			row := []any{g.Group, g.Responses}
			if g.Scored > 0 {
				row = append(row, chart.RoundTo2(g.Mean))
			}
			rows = append(rows, row)
		}
		return append(rows, []any{"Total", s.Volume.Total})
	}
	return nil
}
